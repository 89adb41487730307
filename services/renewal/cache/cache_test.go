package cache

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func tempStore(t *testing.T, dav *WebDav) *Store {
	return NewStore(filepath.Join(t.TempDir(), FileName), dav)
}

func TestLoadMissing(t *testing.T) {
	store := tempStore(t, nil)
	require.Equal(t, map[string]string{}, store.Load())
}

func TestLoadCorrupt(t *testing.T) {
	store := tempStore(t, nil)
	err := os.WriteFile(store.Path(), []byte("{not json"), 0600)
	require.NoError(t, err)
	require.Equal(t, map[string]string{}, store.Load())
}

func TestUpdateWritesAndSkips(t *testing.T) {
	uploads := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		uploads++
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	store := tempStore(t, NewWebDav(server.URL, "user", "pass"))
	ctx := context.Background()

	err := store.Update(ctx, 0, "session=abc")
	require.NoError(t, err)
	require.Equal(t, "session=abc", store.Get(0))
	require.Equal(t, 1, uploads)

	// identical value: no file write, no remote push
	before, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	err = store.Update(ctx, 0, "session=abc")
	require.NoError(t, err)
	after, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	require.Equal(t, before, after)
	require.Equal(t, 1, uploads)

	err = store.Update(ctx, 0, "session=def")
	require.NoError(t, err)
	require.Equal(t, 2, uploads)
	require.Equal(t, "session=def", store.Get(0))
}

func TestUpdateKeepsOtherAccounts(t *testing.T) {
	store := tempStore(t, nil)
	ctx := context.Background()

	require.NoError(t, store.Update(ctx, 0, "a=1"))
	require.NoError(t, store.Update(ctx, 1, "b=2"))
	require.Equal(t, "a=1", store.Get(0))
	require.Equal(t, "b=2", store.Get(1))
}

func TestSyncDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "user", user)
		require.Equal(t, "pass", pass)
		w.Write([]byte(`{"0": "session=remote"}`))
	}))
	defer server.Close()

	store := tempStore(t, NewWebDav(server.URL, "user", "pass"))
	store.Sync(context.Background())
	require.Equal(t, "session=remote", store.Get(0))
}

func TestSyncRemoteMissing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	store := tempStore(t, NewWebDav(server.URL, "user", "pass"))
	require.NoError(t, store.Update(context.Background(), 0, "session=local"))

	store.Sync(context.Background())
	// 404 means "no remote copy yet", local state survives
	require.Equal(t, "session=local", store.Get(0))
}

func TestNewWebDavUnconfigured(t *testing.T) {
	require.Nil(t, NewWebDav("", "user", "pass"))
	require.Nil(t, NewWebDav("https://dav.example.com/", "", ""))
}
