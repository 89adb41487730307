package hidencloud

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"renewbot/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// a hosting service discovered on the dashboard's listing page
type Service struct {
	Id        string
	ManageUrl string
}

// a fetched dashboard page, after redirects
type Page struct {
	Url        *url.URL
	StatusCode int
	doc        *goquery.Document
}

func (p *Page) Doc() *goquery.Document { return p.doc }

// IsInvoice reports whether the page landed on an invoice, which is
// how the dashboard signals a renewal produced something to pay.
func (p *Page) IsInvoice() bool {
	return strings.Contains(p.Url.Path, "/invoice/")
}

type Dashboard struct {
	doc *goquery.Document
}

// Login fetches the dashboard page and verifies the session is still
// authenticated. A redirect landing on the login page means the cookie
// set is no longer valid, in which case ErrLoginFailed is returned
// without any further parsing. On success the page-level CSRF token is
// captured for later state-changing requests.
func (c *Client) Login(ctx context.Context) (*Dashboard, error) {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		Get("/dashboard")
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch dashboard")
		return nil, err
	}
	if strings.Contains(res.RawResponse.Request.URL.Path, "/login") {
		span.SetStatus(codes.Error, ErrLoginFailed.Error())
		return nil, ErrLoginFailed
	}

	doc, err := parseDocument(res)
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse dashboard html")
		return nil, err
	}

	c.CsrfToken = htmlutil.MetaContent(doc, "csrf-token")
	if c.CsrfToken == "" {
		slog.WarnContext(ctx, "no csrf-token meta tag on dashboard")
	}
	return &Dashboard{doc: doc}, nil
}

var manageHref = regexp.MustCompile(`/service/([^/]+)/manage`)

// Services scans the dashboard's anchors for service management links,
// deduplicated by service id in first-seen order.
func (d *Dashboard) Services(ctx context.Context) []Service {
	ctx, span := tracer.Start(ctx, "dashboard:Services")
	defer span.End()

	var services []Service
	seen := map[string]bool{}
	for _, a := range htmlutil.GetAnchors(ctx, d.doc.Find("a")) {
		groups := manageHref.FindStringSubmatch(a.Href)
		if len(groups) < 2 {
			continue
		}
		id := groups[1]
		if seen[id] {
			continue
		}
		seen[id] = true
		services = append(services, Service{Id: id, ManageUrl: a.Href})
	}

	span.SetAttributes(attribute.Int("count", len(services)))
	return services
}

type ManagePage struct {
	svc Service
	doc *goquery.Document
}

func (c *Client) FetchManagePage(ctx context.Context, svc Service) (*ManagePage, error) {
	ctx, span := tracer.Start(ctx, "client:FetchManagePage")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/service/%s/manage", svc.Id))
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch manage page")
		return nil, err
	}
	doc, err := parseDocument(res)
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse manage page html")
		return nil, err
	}
	return &ManagePage{svc: svc, doc: doc}, nil
}

// eligibility parameters embedded in the renewal-gating control
type Gating struct {
	DaysUntil int
	Threshold int
	Free      bool
}

func (g Gating) Renewable() bool {
	return g.DaysUntil <= g.Threshold
}

// Message reproduces the dashboard's own gating wording, in its free
// and paid variants.
func (g Gating) Message() string {
	window := fmt.Sprintf("%d days", g.Threshold)
	if g.Threshold == 1 {
		window = "1 day"
	}
	if g.Free {
		return fmt.Sprintf(
			"This is a free service, it can only be renewed less than %s before it expires. It expires in %d days.",
			window, g.DaysUntil,
		)
	}
	return fmt.Sprintf(
		"This service can only be renewed less than %s before it expires. It expires in %d days.",
		window, g.DaysUntil,
	)
}

var gatingArgs = regexp.MustCompile(`confirmRenewal\(\s*(\d+)\s*,\s*(\d+)\s*,\s*(true|false)\s*\)`)

// Gating looks for the renewal-gating control and parses the
// (days until expiry, renewal window, free tier) arguments out of its
// inline trigger expression. Absence of the control means renewal is
// currently allowed.
func (p *ManagePage) Gating() (Gating, bool) {
	for _, n := range p.doc.Find("[onclick]").Nodes {
		for _, attr := range n.Attr {
			if attr.Key != "onclick" {
				continue
			}
			groups := gatingArgs.FindStringSubmatch(attr.Val)
			if len(groups) < 4 {
				continue
			}
			daysUntil, err := strconv.Atoi(groups[1])
			if err != nil {
				continue
			}
			threshold, err := strconv.Atoi(groups[2])
			if err != nil {
				continue
			}
			return Gating{
				DaysUntil: daysUntil,
				Threshold: threshold,
				Free:      groups[3] == "true",
			}, true
		}
	}
	return Gating{}, false
}

// FormToken extracts the renewal form's anti-forgery token. Its
// absence means the service has likely expired or the page layout
// changed, either way renewal cannot be submitted.
func (p *ManagePage) FormToken() (string, bool) {
	token, ok := htmlutil.InputValue(p.doc.Selection, "_token")
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// Renew submits the renewal form for the configured duration, carrying
// the form token and the page-level CSRF header captured during login.
func (c *Client) Renew(ctx context.Context, svc Service, formToken string) (*Page, error) {
	ctx, span := tracer.Start(ctx, "client:Renew")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"_token": formToken,
			"days":   strconv.Itoa(RenewDays),
		}).
		SetHeader("X-CSRF-TOKEN", c.CsrfToken).
		SetHeader("Referer", c.absUrl(fmt.Sprintf("/service/%s/manage", svc.Id))).
		Post(fmt.Sprintf("/service/%s/renew", svc.Id))
	if err != nil {
		span.SetStatus(codes.Error, "failed to submit renewal")
		return nil, err
	}

	doc, err := parseDocument(res)
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse renewal response html")
		return nil, err
	}
	return &Page{
		Url:        res.RawResponse.Request.URL,
		StatusCode: res.StatusCode(),
		doc:        doc,
	}, nil
}

// UnpaidInvoices lists invoice links from the service's unpaid-invoice
// listing, deduplicated in first-seen order. Download links are not
// invoices.
func (c *Client) UnpaidInvoices(ctx context.Context, svc Service) ([]string, error) {
	ctx, span := tracer.Start(ctx, "client:UnpaidInvoices")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/service/%s/invoices?where=unpaid", svc.Id))
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch invoice listing")
		return nil, err
	}
	doc, err := parseDocument(res)
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse invoice listing html")
		return nil, err
	}

	var links []string
	seen := map[string]bool{}
	for _, a := range htmlutil.GetAnchors(ctx, doc.Find("a")) {
		if !strings.Contains(a.Href, "/invoice/") || strings.Contains(a.Href, "download") {
			continue
		}
		if seen[a.Href] {
			continue
		}
		seen[a.Href] = true
		links = append(links, a.Href)
	}

	span.SetAttributes(attribute.Int("count", len(links)))
	return links, nil
}

func (c *Client) FetchInvoice(ctx context.Context, link string) (*Page, error) {
	ctx, span := tracer.Start(ctx, "client:FetchInvoice")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		Get(link)
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch invoice")
		return nil, err
	}
	doc, err := parseDocument(res)
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse invoice html")
		return nil, err
	}
	return &Page{
		Url:        res.RawResponse.Request.URL,
		StatusCode: res.StatusCode(),
		doc:        doc,
	}, nil
}

type PaymentForm struct {
	Action string
	Fields map[string]string
}

// FindPaymentForm scans the page's forms for the one whose submit
// button mentions "pay" and whose action is not a balance top-up. Not
// finding one means the invoice was already settled.
func FindPaymentForm(doc *goquery.Document) (PaymentForm, bool) {
	var form PaymentForm
	found := false
	doc.Find("form").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		button := sel.Find("button").First()
		if button.Length() == 0 {
			return true
		}
		if !strings.Contains(strings.ToLower(button.Text()), "pay") {
			return true
		}
		action := sel.AttrOr("action", "")
		if action == "" || strings.Contains(action, "balance/add") {
			return true
		}

		form = PaymentForm{
			Action: action,
			Fields: htmlutil.InputValues(sel),
		}
		found = true
		return false
	})
	return form, found
}

// Pay posts the payment form. Only a 200 counts as payment going
// through, anything else is logged and left to the dashboard to sort
// out on the next run.
func (c *Client) Pay(ctx context.Context, form PaymentForm, referer string) (bool, error) {
	ctx, span := tracer.Start(ctx, "client:Pay")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		SetFormData(form.Fields).
		SetHeader("X-CSRF-TOKEN", c.CsrfToken).
		SetHeader("Referer", referer).
		Post(form.Action)
	if err != nil {
		span.SetStatus(codes.Error, "failed to submit payment")
		return false, err
	}
	if res.StatusCode() != http.StatusOK {
		slog.WarnContext(
			ctx, "payment returned unexpected status",
			"status", res.StatusCode(),
			"action", form.Action,
		)
		return false, nil
	}
	return true, nil
}
