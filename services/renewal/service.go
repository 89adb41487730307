package renewal

import (
	"context"
	"errors"
	"log/slog"
	"renewbot/lib/scrapers/hidencloud"
	"renewbot/services/renewal/cache"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/renewal")

// Processor drives the renewal workflow for a single account:
// login check, service discovery, per-service eligibility, renewal
// submission and invoice resolution.
type Processor struct {
	index         int
	envCredential string
	client        *hidencloud.Client
	store         *cache.Store
	report        *Report
	pace          pacer
}

func newProcessor(
	ctx context.Context,
	baseUrl string,
	index int,
	envCredential string,
	store *cache.Store,
	report *Report,
	pace pacer,
) (*Processor, error) {
	p := &Processor{
		index:         index,
		envCredential: envCredential,
		store:         store,
		report:        report,
		pace:          pace,
	}

	client, err := hidencloud.NewClient(ctx, hidencloud.ClientOptions{
		BaseUrl: baseUrl,
		OnSession: func(ctx context.Context, session string) {
			err := store.Update(ctx, index, session)
			if err != nil {
				slog.WarnContext(ctx, "failed to persist session", "account", index+1, "err", err)
			}
		},
	})
	if err != nil {
		return nil, err
	}
	p.client = client

	if cached := store.Get(index); cached != "" {
		p.logf(ctx, "using cached session")
		err = client.SetSession(cached)
	} else {
		p.logf(ctx, "no cached session, using configured credential")
		err = client.SetSession(envCredential)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Processor) logf(ctx context.Context, format string, args ...any) {
	p.report.Logf(ctx, "account %d: "+format, append([]any{p.index + 1}, args...)...)
}

// login verifies the current session, falling back exactly once to the
// original unmodified credential. Two failures mark the account
// failed, there is no broader retry.
func (p *Processor) login(ctx context.Context) (*hidencloud.Dashboard, error) {
	ctx, span := tracer.Start(ctx, "processor:login")
	defer span.End()

	dash, err := p.client.Login(ctx)
	if err == nil {
		return dash, nil
	}
	if errors.Is(err, hidencloud.ErrLoginFailed) {
		p.logf(ctx, "session is no longer valid, retrying with the original credential")
	} else {
		p.logf(ctx, "login check failed (%v), retrying with the original credential", err)
	}

	err = p.client.SetSession(p.envCredential)
	if err != nil {
		span.SetStatus(codes.Error, "failed to reset session")
		return nil, err
	}
	dash, err = p.client.Login(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "login failed after fallback")
		return nil, err
	}
	return dash, nil
}

// processService runs the eligibility check, renewal submission and
// invoice resolution for one service. Failures are reported and
// swallowed, the next service still gets its turn.
func (p *Processor) processService(ctx context.Context, svc hidencloud.Service) {
	ctx, span := tracer.Start(ctx, "processor:processService")
	defer span.End()

	p.logf(ctx, "processing service %s", svc.Id)

	manage, err := p.client.FetchManagePage(ctx, svc)
	if err != nil {
		p.logf(ctx, "service %s: failed to fetch manage page: %v", svc.Id, err)
		return
	}

	if gating, ok := manage.Gating(); ok && !gating.Renewable() {
		p.logf(ctx, "service %s: %s", svc.Id, gating.Message())
		return
	}

	token, ok := manage.FormToken()
	if !ok {
		p.logf(ctx, "service %s: renewal form token not found, skipping", svc.Id)
		return
	}

	p.pace.betweenSteps(ctx)
	p.logf(ctx, "service %s: submitting renewal (%d days)", svc.Id, hidencloud.RenewDays)
	page, err := p.client.Renew(ctx, svc, token)
	if err != nil {
		p.logf(ctx, "service %s: renewal failed: %v", svc.Id, err)
		return
	}

	if page.IsInvoice() {
		p.logf(ctx, "service %s: renewed, paying the invoice", svc.Id)
		p.payPage(ctx, page)
		return
	}

	p.logf(ctx, "service %s: no invoice redirect, checking the unpaid listing", svc.Id)
	p.payUnpaidInvoices(ctx, svc)
}

func (p *Processor) payPage(ctx context.Context, page *hidencloud.Page) {
	form, ok := hidencloud.FindPaymentForm(page.Doc())
	if !ok {
		p.logf(ctx, "no payment form found, already paid")
		return
	}

	paid, err := p.client.Pay(ctx, form, page.Url.String())
	if err != nil {
		p.logf(ctx, "payment failed: %v", err)
		return
	}
	if paid {
		p.logf(ctx, "payment successful")
	} else {
		p.logf(ctx, "payment submitted, got an unexpected response")
	}
}

func (p *Processor) payUnpaidInvoices(ctx context.Context, svc hidencloud.Service) {
	links, err := p.client.UnpaidInvoices(ctx, svc)
	if err != nil {
		p.logf(ctx, "service %s: failed to list unpaid invoices: %v", svc.Id, err)
		return
	}
	if len(links) == 0 {
		p.logf(ctx, "service %s: no unpaid invoices", svc.Id)
		return
	}

	for _, link := range links {
		page, err := p.client.FetchInvoice(ctx, link)
		if err != nil {
			p.logf(ctx, "failed to open invoice %s: %v", link, err)
			continue
		}
		p.payPage(ctx, page)
		p.pace.betweenSteps(ctx)
	}
}
