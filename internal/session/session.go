// Package session owns the browser-derived credentials for each
// destination: it establishes them through a headless browser, keeps the
// current one per destination, deduplicates concurrent refreshes and tracks
// health so callers can tell when the primary source is unusable.
package session

import (
	"time"

	"github.com/warpdl/parkdl/common"
	"github.com/warpdl/parkdl/internal/cookies"
	"github.com/warpdl/parkdl/internal/token"
)

// State is the lifecycle state of a session.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateActive        State = "active"
	StateExpired       State = "expired"
	StateError         State = "error"
)

// Session is a bundle of credentials for one destination.
//
// A *Session handed out by the Manager is a read-only snapshot: the manager
// replaces the pointer on every change rather than mutating it, so callers
// may keep and share it without locking.
type Session struct {
	Destination common.Destination `json:"destination"`
	State       State              `json:"state"`
	Cookies     []cookies.Cookie   `json:"cookies"`
	Tokens      token.Tokens       `json:"tokens"`
	CreatedAt   time.Time          `json:"createdAt"`
	RefreshedAt time.Time          `json:"refreshedAt"`
	ExpiresAt   time.Time          `json:"expiresAt"`
	ErrorCount  int                `json:"errorCount"`
	LastError   string             `json:"lastError,omitempty"`
}

// Established reports whether s carries credentials. Placeholders created
// to record errors before any establishment succeeded do not.
func (s *Session) Established() bool {
	return s != nil && !s.CreatedAt.IsZero()
}

// ValidAt reports whether s can still be used at now, leaving buffer for
// in-flight requests.
func (s *Session) ValidAt(now time.Time, buffer time.Duration) bool {
	return s.Established() && now.Before(s.ExpiresAt.Add(-buffer))
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Cookies = cookies.Clone(s.Cookies)
	return &c
}

// Status is a read-only health snapshot for diagnostics.
type Status struct {
	Destination     common.Destination `json:"destination"`
	HasSession      bool               `json:"hasSession"`
	IsValid         bool               `json:"isValid"`
	State           State              `json:"state"`
	ExpiresAt       *time.Time         `json:"expiresAt"`
	ErrorCount      int                `json:"errorCount"`
	LastError       string             `json:"lastError,omitempty"`
	RefreshInFlight bool               `json:"refreshInFlight"`
}
