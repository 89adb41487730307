package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"
	"renewbot/lib/telemetry"

	"github.com/go-resty/resty/v2"
)

const wxpusherEndpoint = "https://wxpusher.zjiecode.com/api/send/message"

type WxPusher struct {
	AppToken string
	Uids     []string
	Endpoint string
	Http     *resty.Client
}

func NewWxPusher(appToken string, uids string) *WxPusher {
	client := resty.New()
	client.SetTimeout(time.Second * 30)
	telemetry.InstrumentResty(client, "notify/wxpusher")

	return &WxPusher{
		AppToken: appToken,
		Uids:     SplitUids(uids),
		Endpoint: wxpusherEndpoint,
		Http:     client,
	}
}

var uidSeparator = regexp.MustCompile(`[,;\n]`)

// splits a recipient id list on comma, semicolon or newline,
// dropping blanks.
func SplitUids(s string) []string {
	uids := []string{}
	for _, uid := range uidSeparator.Split(s, -1) {
		uid = strings.TrimSpace(uid)
		if uid == "" {
			continue
		}
		uids = append(uids, uid)
	}
	return uids
}

type wxpusherMessage struct {
	AppToken    string   `json:"appToken"`
	Content     string   `json:"content"`
	Summary     string   `json:"summary"`
	ContentType int      `json:"contentType"`
	Uids        []string `json:"uids"`
}

func (w *WxPusher) Notify(ctx context.Context, title, body string) error {
	if w.AppToken == "" || len(w.Uids) == 0 {
		slog.InfoContext(ctx, "wxpusher is not configured, skipping push")
		return nil
	}

	res, err := w.Http.R().
		SetContext(ctx).
		SetBody(wxpusherMessage{
			AppToken: w.AppToken,
			Content: fmt.Sprintf(
				"<h3>%s</h3><br>%s",
				title,
				strings.ReplaceAll(body, "\n", "<br>"),
			),
			Summary:     title,
			ContentType: 2, // HTML
			Uids:        w.Uids,
		}).
		Post(w.Endpoint)
	if err != nil {
		slog.ErrorContext(ctx, "failed to reach wxpusher", "err", err)
		return err
	}
	if res.StatusCode() != http.StatusOK {
		slog.WarnContext(
			ctx, "wxpusher push rejected",
			"status", res.StatusCode(),
			"response", res.String(),
		)
		return fmt.Errorf("wxpusher returned status %d", res.StatusCode())
	}

	slog.InfoContext(ctx, "wxpusher push delivered", "uids", len(w.Uids))
	return nil
}
