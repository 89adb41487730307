package renewal

import (
	"context"
	"log/slog"
	"time"
	"renewbot/lib/notify"
	"renewbot/services/renewal/cache"
	"renewbot/services/renewal/db"
)

const reportTitle = "HidenCloud renewal report"

type RunnerOptions struct {
	Config   Config
	Notifier notify.Notifier
	// optional run-history store
	History *db.History
}

type AccountResult struct {
	Index    int
	LoggedIn bool
	Services int
	Detail   string
}

func (r AccountResult) Outcome() string {
	if r.LoggedIn {
		return "ok"
	}
	return "login_failed"
}

type RunSummary struct {
	Results []AccountResult
	Report  *Report
}

// Run processes every configured account in order and sends one
// notification aggregating the whole run. Per-account failures only
// show up in the report, never as an error.
func Run(ctx context.Context, opts RunnerOptions) RunSummary {
	config := opts.Config.WithDefaults()
	report := NewReport()
	pace := pacer{config: config.Pacing}

	creds := SplitCredentials(config.Credentials)
	if len(creds) == 0 {
		slog.InfoContext(ctx, "no credentials configured, nothing to do")
		return RunSummary{Report: report}
	}

	dav := cache.NewWebDav(config.WebDav.Url, config.WebDav.User, config.WebDav.Pass)
	store := cache.NewStore(config.CachePath, dav)
	store.Sync(ctx)

	var results []AccountResult
	for i, cred := range creds {
		if i > 0 {
			pace.betweenAccounts(ctx)
		}

		started := time.Now()
		result := runAccount(ctx, i, cred, config, store, report, pace)
		results = append(results, result)

		if opts.History != nil {
			err := opts.History.Record(ctx, db.RunRecord{
				StartedAt:     started,
				AccountIdx:    i,
				Outcome:       result.Outcome(),
				ServicesFound: result.Services,
				Detail:        result.Detail,
			})
			if err != nil {
				slog.WarnContext(ctx, "failed to record run history", "err", err)
			}
		}
	}

	if opts.Notifier != nil && !report.Empty() {
		err := opts.Notifier.Notify(ctx, reportTitle, report.Summary())
		if err != nil {
			slog.WarnContext(ctx, "failed to deliver run report", "err", err)
		}
	}

	return RunSummary{Results: results, Report: report}
}

func runAccount(
	ctx context.Context,
	index int,
	cred string,
	config Config,
	store *cache.Store,
	report *Report,
	pace pacer,
) AccountResult {
	ctx, span := tracer.Start(ctx, "runner:runAccount")
	defer span.End()

	proc, err := newProcessor(ctx, config.BaseUrl, index, cred, store, report, pace)
	if err != nil {
		report.Logf(ctx, "account %d: failed to construct client: %v", index+1, err)
		return AccountResult{Index: index, Detail: "client construction failed"}
	}

	dash, err := proc.login(ctx)
	if err != nil {
		report.Logf(ctx, "account %d: login failed, check the credential", index+1)
		return AccountResult{Index: index, Detail: "login failed"}
	}

	services := dash.Services(ctx)
	report.Logf(ctx, "account %d: login successful, %d services found", index+1, len(services))

	for _, svc := range services {
		pace.betweenSteps(ctx)
		proc.processService(ctx, svc)
	}

	return AccountResult{Index: index, LoggedIn: true, Services: len(services)}
}
