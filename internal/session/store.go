package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warpdl/parkdl/common"
)

// Store persists sessions between runs. Load returns (nil, nil) when the
// destination has no stored session. UpdateError and ResetErrors are no-ops
// for destinations without a stored session.
type Store interface {
	Load(ctx context.Context, dest common.Destination) (*Session, error)
	LoadAll(ctx context.Context) ([]*Session, error)
	Save(ctx context.Context, s *Session) error
	IsExpired(s *Session, buffer time.Duration) bool
	UpdateError(ctx context.Context, dest common.Destination, message string) error
	ResetErrors(ctx context.Context, dest common.Destination) error
}

// Expired is the IsExpired rule shared by Store implementations.
func Expired(s *Session, now time.Time, buffer time.Duration) bool {
	return !s.ValidAt(now, buffer)
}

// MemoryStore is a Store kept in process memory.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[common.Destination]*Session
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[common.Destination]*Session),
		now:      time.Now,
	}
}

func (m *MemoryStore) Load(_ context.Context, dest common.Destination) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[dest].Clone(), nil
}

func (m *MemoryStore) LoadAll(_ context.Context) ([]*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Destination < out[j].Destination })
	return out, nil
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	if s == nil {
		return ErrNilSession
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.Destination] = s.Clone()
	return nil
}

func (m *MemoryStore) IsExpired(s *Session, buffer time.Duration) bool {
	return Expired(s, m.now(), buffer)
}

func (m *MemoryStore) UpdateError(_ context.Context, dest common.Destination, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[dest]; ok {
		s.ErrorCount++
		s.LastError = message
	}
	return nil
}

func (m *MemoryStore) ResetErrors(_ context.Context, dest common.Destination) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[dest]; ok {
		s.ErrorCount = 0
		s.LastError = ""
	}
	return nil
}
