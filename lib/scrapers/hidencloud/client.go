package hidencloud

import (
	"bytes"
	"context"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"time"
	"renewbot/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("scrapers/hidencloud")

var ErrLoginFailed = fmt.Errorf("Failed to login to the dashboard.")

// the renewal duration submitted with every renewal request
const RenewDays = 7

type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client
	// anti-forgery value from the dashboard's meta tag, captured
	// during the login check and required on state-changing requests
	CsrfToken string

	persist func(ctx context.Context, session string)
}

type ClientOptions struct {
	BaseUrl string
	// invoked with the exported cookie string after every request,
	// the dashboard may rotate session tokens on any call
	OnSession func(ctx context.Context, session string)
}

func NewClient(ctx context.Context, opts ClientOptions) (*Client, error) {
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	client.SetHeader("accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	client.SetHeader("referer", baseUrl.String()+"/")
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "scrapers/hidencloud/http")

	c := &Client{
		BaseUrl: baseUrl,
		Http:    client,
		persist: opts.OnSession,
	}
	if c.persist != nil {
		client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
			c.persist(res.Request.Context(), c.Session())
			return nil
		})
	}
	return c, nil
}

// SetSession replaces the whole cookie jar with the cookies encoded in
// the given cookie string.
func (c *Client) SetSession(session string) error {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return err
	}
	jar.SetCookies(c.BaseUrl, ParseCookieString(session))
	c.Http.SetCookieJar(jar)
	return nil
}

// Session exports the current cookie jar back into cookie-string form.
func (c *Client) Session() string {
	return CookieString(c.Http.GetClient().Jar.Cookies(c.BaseUrl))
}

func (c *Client) absUrl(path string) string {
	ref, err := url.Parse(path)
	if err != nil {
		return path
	}
	return c.BaseUrl.ResolveReference(ref).String()
}

func parseDocument(res *resty.Response) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
}
