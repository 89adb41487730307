package renewal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"renewbot/lib/telemetry"
	"renewbot/services/renewal/cache"
	"renewbot/services/renewal/db"

	"github.com/stretchr/testify/require"
)

type countingNotifier struct {
	calls  int
	titles []string
	bodies []string
}

func (n *countingNotifier) Notify(_ context.Context, title, body string) error {
	n.calls++
	n.titles = append(n.titles, title)
	n.bodies = append(n.bodies, body)
	return nil
}

// a dashboard where only cookie session=good is authenticated, with
// one service that renews into an immediately payable invoice
func newFakeDashboard(t *testing.T, paid *bool) *httptest.Server {
	authed := func(r *http.Request) bool {
		c, err := r.Cookie("session")
		return err == nil && c.Value == "good"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>login</body></html>"))
	})
	mux.HandleFunc("/dashboard", func(w http.ResponseWriter, r *http.Request) {
		if !authed(r) {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		w.Write([]byte(`<html>
			<head><meta name="csrf-token" content="csrf123"></head>
			<body><a href="/service/101/manage">Manage</a></body>
		</html>`))
	})
	mux.HandleFunc("/service/101/manage", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			<form action="/service/101/renew" method="POST">
				<input type="hidden" name="_token" value="formtok">
				<button type="submit">Renew</button>
			</form>
		</body></html>`))
	})
	mux.HandleFunc("/service/101/renew", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "formtok", r.FormValue("_token"))
		require.Equal(t, "7", r.FormValue("days"))
		require.Equal(t, "csrf123", r.Header.Get("X-CSRF-TOKEN"))
		http.Redirect(w, r, "/invoice/9", http.StatusFound)
	})
	mux.HandleFunc("/invoice/9", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			<form action="/balance/add" method="POST">
				<button>Pay with balance</button>
			</form>
			<form action="/invoice/9/pay/stripe" method="POST">
				<input type="hidden" name="_token" value="t2">
				<button>Pay Now</button>
			</form>
		</body></html>`))
	})
	mux.HandleFunc("/invoice/9/pay/stripe", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "t2", r.FormValue("_token"))
		*paid = true
		w.Write([]byte("<html><body>paid</body></html>"))
	})

	return httptest.NewServer(mux)
}

// account 1's cached session is stale and its original credential
// works, account 2's credential fails both attempts. the run pays one
// invoice, reports one login failure and notifies exactly once.
func TestRunTwoAccounts(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/renewal")
	defer cleanup()

	paid := false
	server := newFakeDashboard(t, &paid)
	defer server.Close()

	cachePath := filepath.Join(t.TempDir(), cache.FileName)
	err := os.WriteFile(cachePath, []byte(`{"0": "session=stale"}`), 0600)
	require.NoError(t, err)

	history, err := db.Open(":memory:")
	require.NoError(t, err)
	defer history.Close()

	notifier := &countingNotifier{}
	summary := Run(context.Background(), RunnerOptions{
		Config: Config{
			BaseUrl:     server.URL,
			Credentials: "session=good&session=bad",
			CachePath:   cachePath,
			Pacing:      PacingConfig{Disabled: true},
		},
		Notifier: notifier,
		History:  history,
	})

	require.True(t, paid)
	require.Len(t, summary.Results, 2)

	require.True(t, summary.Results[0].LoggedIn)
	require.Equal(t, 1, summary.Results[0].Services)
	require.False(t, summary.Results[1].LoggedIn)

	require.Equal(t, 1, notifier.calls)
	body := notifier.bodies[0]
	require.Contains(t, body, "account 1: login successful, 1 services found")
	require.Contains(t, body, "payment successful")
	require.Contains(t, body, "account 2: login failed, check the credential")

	// the working session replaced the stale cached one
	store := cache.NewStore(cachePath, nil)
	require.Contains(t, store.Get(0), "session=good")

	records, err := history.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "login_failed", records[0].Outcome)
	require.Equal(t, "ok", records[1].Outcome)
}

func TestRunNoCredentials(t *testing.T) {
	notifier := &countingNotifier{}
	summary := Run(context.Background(), RunnerOptions{
		Config:   Config{Credentials: " \n"},
		Notifier: notifier,
	})

	require.Empty(t, summary.Results)
	require.Equal(t, 0, notifier.calls)
}

func TestRunGatedService(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/renewal")
	defer cleanup()

	mux := http.NewServeMux()
	mux.HandleFunc("/dashboard", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>
			<head><meta name="csrf-token" content="csrf123"></head>
			<body><a href="/service/303/manage">Manage</a></body>
		</html>`))
	})
	mux.HandleFunc("/service/303/manage", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			<button onclick="confirmRenewal(15, 1, true)">Renew</button>
		</body></html>`))
	})
	mux.HandleFunc("/service/303/renew", func(w http.ResponseWriter, r *http.Request) {
		t.Error("renewal must not be submitted for a gated service")
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	notifier := &countingNotifier{}
	summary := Run(context.Background(), RunnerOptions{
		Config: Config{
			BaseUrl:     server.URL,
			Credentials: "session=any",
			CachePath:   filepath.Join(t.TempDir(), cache.FileName),
			Pacing:      PacingConfig{Disabled: true},
		},
		Notifier: notifier,
	})

	require.Len(t, summary.Results, 1)
	require.True(t, summary.Results[0].LoggedIn)
	require.Equal(t, 1, notifier.calls)

	var gatingLine string
	for _, line := range summary.Report.Lines() {
		if strings.Contains(line, "free service") {
			gatingLine = line
		}
	}
	require.Contains(t, gatingLine, "less than 1 day")
	require.Contains(t, gatingLine, "expires in 15 days")
}
