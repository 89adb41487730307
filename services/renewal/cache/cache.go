package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strconv"
)

// the interchange name shared with the remote mirror
const FileName = "hiden_cookies.json"

// Store persists the per-account session strings to a local JSON file
// keyed by account index, mirrored best-effort to a remote WebDAV
// copy. Local and remote reconcile by last writer wins.
type Store struct {
	path string
	dav  *WebDav
}

func NewStore(path string, dav *WebDav) *Store {
	return &Store{path: path, dav: dav}
}

func (s *Store) Path() string { return s.path }

// Load reads the cache file. A missing or corrupt file yields an empty
// mapping, a stale cache is never worth failing a run over.
func (s *Store) Load() map[string]string {
	contents, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("failed to read credential cache", "path", s.path, "err", err)
		}
		return map[string]string{}
	}

	var data map[string]string
	err = json.Unmarshal(contents, &data)
	if err != nil {
		slog.Warn("credential cache is corrupt, starting fresh", "path", s.path, "err", err)
		return map[string]string{}
	}
	if data == nil {
		data = map[string]string{}
	}
	return data
}

// Get returns the cached session string for an account index, or "".
func (s *Store) Get(index int) string {
	return s.Load()[strconv.Itoa(index)]
}

// Update writes the session string for an account index, then pushes
// the full mapping to the remote mirror. Writing is skipped entirely
// when the stored value is already identical.
func (s *Store) Update(ctx context.Context, index int, session string) error {
	data := s.Load()
	key := strconv.Itoa(index)
	if data[key] == session {
		return nil
	}
	data[key] = session

	contents, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	err = os.WriteFile(s.path, contents, 0600)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "credential cache updated", "account", index+1)

	if s.dav != nil {
		s.dav.Upload(ctx, contents)
	}
	return nil
}

// Sync pulls the remote copy over the local file, when a mirror is
// configured and a remote copy exists.
func (s *Store) Sync(ctx context.Context) {
	if s.dav == nil {
		slog.InfoContext(ctx, "webdav is not configured, skipping cache sync")
		return
	}
	s.dav.Download(ctx, s.path)
}
