package cache

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
	"renewbot/lib/telemetry"

	"github.com/go-resty/resty/v2"
)

// WebDav mirrors the credential cache to a remote blob at a fixed
// path. All of its operations are best-effort, a broken mirror only
// costs freshness.
type WebDav struct {
	FullUrl string
	Http    *resty.Client
}

// NewWebDav returns nil when the base url or user is unset, callers
// treat a nil mirror as "not configured".
func NewWebDav(baseUrl, user, pass string) *WebDav {
	if baseUrl == "" || user == "" {
		return nil
	}
	if !strings.HasSuffix(baseUrl, "/") {
		baseUrl += "/"
	}

	client := resty.New()
	client.SetTimeout(time.Second * 30)
	client.SetBasicAuth(user, pass)
	telemetry.InstrumentResty(client, "renewal/webdav")

	return &WebDav{
		FullUrl: baseUrl + FileName,
		Http:    client,
	}
}

// Download overwrites the local cache file with the remote copy. A 404
// just means no remote copy exists yet, any other failure is logged
// and the run proceeds on local state.
func (d *WebDav) Download(ctx context.Context, localPath string) {
	res, err := d.Http.R().
		SetContext(ctx).
		Get(d.FullUrl)
	if err != nil {
		slog.ErrorContext(ctx, "failed to download remote cache", "err", err)
		return
	}

	switch res.StatusCode() {
	case http.StatusOK:
		err = os.WriteFile(localPath, res.Body(), 0600)
		if err != nil {
			slog.ErrorContext(ctx, "failed to write downloaded cache", "err", err)
			return
		}
		slog.InfoContext(ctx, "remote cache downloaded", "path", localPath)
	case http.StatusNotFound:
		slog.InfoContext(ctx, "no remote cache yet (first run)")
	default:
		slog.WarnContext(ctx, "remote cache download failed", "status", res.StatusCode())
	}
}

// Upload pushes the full cache contents to the remote copy.
func (d *WebDav) Upload(ctx context.Context, contents []byte) {
	res, err := d.Http.R().
		SetContext(ctx).
		SetHeader("content-type", "application/json").
		SetBody(contents).
		Put(d.FullUrl)
	if err != nil {
		slog.ErrorContext(ctx, "failed to upload cache", "err", err)
		return
	}

	switch res.StatusCode() {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		slog.InfoContext(ctx, "remote cache uploaded")
	default:
		slog.WarnContext(ctx, "remote cache upload failed", "status", res.StatusCode())
	}
}
