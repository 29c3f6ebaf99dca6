package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/warpdl/parkdl/common"
	"github.com/warpdl/parkdl/internal/browser"
	"github.com/warpdl/parkdl/internal/cookies"
	"github.com/warpdl/parkdl/internal/token"
	"github.com/warpdl/parkdl/pkg/logger"
	"golang.org/x/sync/singleflight"
)

// Header names set by GetAuthHeaders.
const (
	HeaderCookie         = "Cookie"
	HeaderAccept         = "Accept"
	HeaderAcceptLanguage = "Accept-Language"
	HeaderCSRF           = "X-CSRF-Token"
)

const acceptJSON = "application/json, text/plain, */*"

// Manager keeps one session per destination.
type Manager struct {
	cfg     Config
	backend browser.Backend
	store   Store
	l       logger.Logger
	now     func() time.Time

	initMu      sync.Mutex
	initialized bool

	mu       sync.RWMutex
	sessions map[common.Destination]*Session
	inflight map[common.Destination]bool

	group singleflight.Group

	shutdownOnce sync.Once
	shutdownErr  error
}

// NewManager wires a Manager. It does not touch the store or the browser
// until Initialize or the first GetSession.
func NewManager(cfg Config, backend browser.Backend, store Store, l logger.Logger) *Manager {
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Manager{
		cfg:      cfg,
		backend:  backend,
		store:    store,
		l:        l,
		now:      time.Now,
		sessions: make(map[common.Destination]*Session),
		inflight: make(map[common.Destination]bool),
	}
}

// Config returns the manager's configuration.
func (m *Manager) Config() Config {
	return m.cfg
}

// Initialize loads persisted sessions and logs the stale ones. It launches
// no browser. Calls after the first successful one do nothing.
func (m *Manager) Initialize(ctx context.Context) error {
	m.initMu.Lock()
	defer m.initMu.Unlock()
	if m.initialized {
		return nil
	}
	all, err := m.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load sessions: %w", err)
	}
	m.mu.Lock()
	for _, s := range all {
		if s == nil || !s.Destination.Valid() {
			continue
		}
		if m.store.IsExpired(s, m.cfg.RefreshBuffer) {
			m.l.Info("session: stored %s session is stale (expired %s)", s.Destination, s.ExpiresAt.Format(time.RFC3339))
		} else {
			m.l.Info("session: loaded %s session valid until %s", s.Destination, s.ExpiresAt.Format(time.RFC3339))
		}
		if _, ok := m.sessions[s.Destination]; !ok {
			m.sessions[s.Destination] = s
		}
	}
	m.mu.Unlock()
	m.initialized = true
	return nil
}

func (m *Manager) current(dest common.Destination) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[dest]
}

func (m *Manager) valid(s *Session) bool {
	return s.ValidAt(m.now(), m.cfg.RefreshBuffer)
}

// GetSession returns a usable session for dest, establishing one if the
// current session is missing or inside the refresh buffer. It returns nil
// when establishment failed; callers should then use the fallback source.
func (m *Manager) GetSession(ctx context.Context, dest common.Destination) *Session {
	if s := m.current(dest); m.valid(s) {
		return s
	}
	return m.refresh(ctx, dest, false)
}

// RefreshSession establishes a new session for dest even if the current
// one is still valid. Concurrent calls share one establishment.
func (m *Manager) RefreshSession(ctx context.Context, dest common.Destination) *Session {
	return m.refresh(ctx, dest, true)
}

func (m *Manager) refresh(ctx context.Context, dest common.Destination, force bool) *Session {
	if !dest.Valid() {
		m.l.Error("session: refusing to refresh unknown destination %q", dest)
		return nil
	}
	ch := m.group.DoChan(string(dest), func() (v any, err error) {
		// A caller that checked validity just before the previous flight
		// finished lands here; reuse that result instead of relaunching.
		if s := m.current(dest); !force && m.valid(s) {
			return s, nil
		}
		m.setInflight(dest, true)
		defer m.setInflight(dest, false)

		ectx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.cfg.EstablishTimeout)
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				err = &EstablishmentError{Destination: dest, Stage: StageInternal, Err: fmt.Errorf("panic: %v", r)}
				m.ReportError(ectx, dest, err)
				v = nil
			}
		}()

		s, err := m.establish(ectx, dest)
		if err != nil {
			m.l.Error("session: %v", err)
			m.ReportError(ectx, dest, err)
			return nil, err
		}
		return s, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil
		}
		s, _ := res.Val.(*Session)
		return s
	case <-ctx.Done():
		return nil
	}
}

func (m *Manager) setInflight(dest common.Destination, v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v {
		m.inflight[dest] = true
	} else {
		delete(m.inflight, dest)
	}
}

// install replaces the session for dest, carrying over nothing from the
// previous one.
func (m *Manager) install(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.Destination] = s
}

// GetAuthHeaders returns the request headers for the primary source. The
// header set is empty when no session could be obtained.
func (m *Manager) GetAuthHeaders(ctx context.Context, dest common.Destination) http.Header {
	h := http.Header{}
	s := m.GetSession(ctx, dest)
	if s == nil || len(s.Cookies) == 0 {
		return h
	}
	locale := ""
	if info, ok := m.cfg.destination(dest); ok {
		locale = info.Locale
	}
	h.Set(HeaderCookie, cookies.BuildCookieHeader(s.Cookies))
	h.Set(HeaderAccept, acceptJSON)
	h.Set(HeaderAcceptLanguage, browser.AcceptLanguage(locale))
	if s.Tokens.CSRFToken != "" {
		h.Set(HeaderCSRF, s.Tokens.CSRFToken)
	}
	return h
}

// ReportSuccess clears the error counters of dest.
func (m *Manager) ReportSuccess(ctx context.Context, dest common.Destination) error {
	m.mu.Lock()
	if s, ok := m.sessions[dest]; ok && (s.ErrorCount != 0 || s.LastError != "" || s.State == StateError) {
		c := s.Clone()
		c.ErrorCount = 0
		c.LastError = ""
		if c.State == StateError && c.Established() {
			c.State = StateActive
		}
		m.sessions[dest] = c
	}
	m.mu.Unlock()

	if err := m.store.ResetErrors(ctx, dest); err != nil {
		return fmt.Errorf("reset %s errors: %w", dest, err)
	}
	return nil
}

// ReportError records a failure against dest. Before any session exists a
// placeholder carrying only the health fields is kept so the failure shows
// up in GetSessionStatus.
func (m *Manager) ReportError(ctx context.Context, dest common.Destination, cause error) error {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	var ee *EstablishmentError
	establishment := errors.As(cause, &ee)

	m.mu.Lock()
	var c *Session
	if s, ok := m.sessions[dest]; ok {
		c = s.Clone()
	} else {
		c = &Session{Destination: dest, State: StateUninitialized}
	}
	c.ErrorCount++
	c.LastError = msg
	if establishment || !c.Established() {
		c.State = StateError
	}
	m.sessions[dest] = c
	m.mu.Unlock()

	if err := m.store.UpdateError(ctx, dest, msg); err != nil {
		m.l.Warning("session: failed to persist %s error: %v", dest, err)
		return fmt.Errorf("persist %s error: %w", dest, err)
	}
	return nil
}

// GetSessionStatus returns a health snapshot. It never waits for an
// establishment in progress.
func (m *Manager) GetSessionStatus(dest common.Destination) Status {
	m.mu.RLock()
	s := m.sessions[dest]
	inflight := m.inflight[dest]
	m.mu.RUnlock()

	st := Status{
		Destination:     dest,
		State:           StateUninitialized,
		RefreshInFlight: inflight,
	}
	if s == nil {
		return st
	}
	st.HasSession = s.Established()
	st.IsValid = m.valid(s)
	st.ErrorCount = s.ErrorCount
	st.LastError = s.LastError
	st.State = s.State
	if st.HasSession {
		exp := s.ExpiresAt
		st.ExpiresAt = &exp
		if !st.IsValid && s.State == StateActive {
			st.State = StateExpired
		}
	}
	return st
}

// ImportSession builds a session from cookies obtained elsewhere (a
// browser profile or cookies.txt) and installs it.
func (m *Manager) ImportSession(ctx context.Context, dest common.Destination, cooks []cookies.Cookie) (*Session, error) {
	if !dest.Valid() {
		return nil, common.ErrUnknownDestination
	}
	if len(cooks) == 0 {
		return nil, ErrNoCookies
	}
	s := m.newSession(dest, cooks, nil)
	if err := m.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("save imported %s session: %w", dest, err)
	}
	m.install(s)
	m.l.Info("session: imported %d cookies for %s, valid until %s", len(cooks), dest, s.ExpiresAt.Format(time.RFC3339))
	return s, nil
}

func (m *Manager) newSession(dest common.Destination, cooks []cookies.Cookie, storage map[string]string) *Session {
	now := m.now().UTC()
	return &Session{
		Destination: dest,
		State:       StateActive,
		Cookies:     cookies.Clone(cooks),
		Tokens:      token.ExtractTokens(cooks, storage, m.cfg.Token),
		CreatedAt:   now,
		RefreshedAt: now,
		ExpiresAt:   token.ComputeExpiration(cooks, now, m.cfg.Token),
	}
}

// Shutdown releases the shared browser. Sessions stay usable.
func (m *Manager) Shutdown() error {
	m.shutdownOnce.Do(func() {
		if m.backend != nil {
			m.shutdownErr = m.backend.Close()
		}
	})
	return m.shutdownErr
}
