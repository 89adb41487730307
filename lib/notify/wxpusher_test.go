package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitUids(t *testing.T) {
	testCases := []struct {
		input    string
		expected []string
	}{
		{"UID_a,UID_b", []string{"UID_a", "UID_b"}},
		{"UID_a; UID_b\nUID_c", []string{"UID_a", "UID_b", "UID_c"}},
		{" UID_a ,", []string{"UID_a"}},
		{"", []string{}},
		{",;\n", []string{}},
	}

	for _, test := range testCases {
		require.Equal(t, test.expected, SplitUids(test.input))
	}
}

func TestNotifyUnconfigured(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	w := NewWxPusher("", "UID_a")
	w.Endpoint = server.URL
	err := w.Notify(context.Background(), "title", "body")
	require.NoError(t, err)
	require.Equal(t, 0, requests)
}

func TestNotifyPayload(t *testing.T) {
	var got wxpusherMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := json.NewDecoder(r.Body).Decode(&got)
		require.NoError(t, err)
	}))
	defer server.Close()

	w := NewWxPusher("AT_token", "UID_a,UID_b")
	w.Endpoint = server.URL
	err := w.Notify(context.Background(), "renewal report", "line one\nline two")
	require.NoError(t, err)

	require.Equal(t, "AT_token", got.AppToken)
	require.Equal(t, "renewal report", got.Summary)
	require.Equal(t, 2, got.ContentType)
	require.Equal(t, []string{"UID_a", "UID_b"}, got.Uids)
	require.Equal(t, "<h3>renewal report</h3><br>line one<br>line two", got.Content)
}

func TestNotifyRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	w := NewWxPusher("AT_token", "UID_a")
	w.Endpoint = server.URL
	err := w.Notify(context.Background(), "title", "body")
	require.Error(t, err)
}
