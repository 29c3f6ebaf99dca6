// Package cache stores fetched listings on disk so repeated lookups skip the
// network. Entries expire after their TTL and then read as missing.
package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/spf13/afero"
)

var ErrEmptyKey = errors.New("cache: empty key")

// Entry is one cached value.
type Entry struct {
	Data      json.RawMessage `json:"data"`
	Source    string          `json:"source"`
	StoredAt  time.Time       `json:"storedAt"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

// TTL is the lifetime the entry was stored with.
func (e *Entry) TTL() time.Duration {
	return e.ExpiresAt.Sub(e.StoredAt)
}

type SetOptions struct {
	TTLHours float64
	Source   string
}

// Store is the cache collaborator of the catalog service.
type Store interface {
	// Get returns nil, nil for missing or expired keys.
	Get(ctx context.Context, key string) (*Entry, error)
	Set(ctx context.Context, key string, data any, opts SetOptions) error
}

// FileStore keeps one JSON file per key under dir on fs.
type FileStore struct {
	fs  afero.Fs
	dir string
	now func() time.Time
	mu  sync.Mutex
}

// NewFileStore creates dir on fs if needed.
func NewFileStore(fs afero.Fs, dir string) (*FileStore, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: create dir: %w", err)
	}
	return &FileStore{fs: fs, dir: dir, now: time.Now}, nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, unsafeChars.ReplaceAllString(key, "_")+".json")
}

func (s *FileStore) Get(_ context.Context, key string) (*Entry, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := afero.ReadFile(s.fs, s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache: read %s: %w", key, err)
	}
	var e Entry
	if err := json.Unmarshal(b, &e); err != nil {
		// Corrupt entries are treated as a miss and overwritten by the next Set.
		return nil, nil
	}
	if !s.now().Before(e.ExpiresAt) {
		return nil, nil
	}
	return &e, nil
}

func (s *FileStore) Set(_ context.Context, key string, data any, opts SetOptions) error {
	if key == "" {
		return ErrEmptyKey
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}
	now := s.now().UTC()
	e := Entry{
		Data:      raw,
		Source:    opts.Source,
		StoredAt:  now,
		ExpiresAt: now.Add(time.Duration(opts.TTLHours * float64(time.Hour))),
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(e); err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Readers never observe a partially written entry.
	final := s.path(key)
	tmp := final + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("cache: write %s: %w", key, err)
	}
	if err := s.fs.Rename(tmp, final); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("cache: rename %s: %w", key, err)
	}
	return nil
}

// Purge removes every entry, expired or not.
func (s *FileStore) Purge(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	infos, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return fmt.Errorf("cache: list: %w", err)
	}
	for _, fi := range infos {
		if fi.IsDir() || filepath.Ext(fi.Name()) != ".json" {
			continue
		}
		if err := s.fs.Remove(filepath.Join(s.dir, fi.Name())); err != nil {
			return fmt.Errorf("cache: remove %s: %w", fi.Name(), err)
		}
	}
	return nil
}
