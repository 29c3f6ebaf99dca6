// Package browser abstracts the headless browser used to obtain session
// credentials. A Backend owns one browser process; each Context is an
// isolated profile so cookies from one destination never reach another.
package browser

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/warpdl/parkdl/internal/cookies"
)

// ErrClosed is returned by NewContext after Close.
var ErrClosed = errors.New("browser: backend is shut down")

// ContextOptions configures an isolated browsing context.
type ContextOptions struct {
	Locale    string
	Timezone  string
	UserAgent string
}

// Backend creates isolated browsing contexts on a shared browser.
type Backend interface {
	// NewContext lazily starts the browser on first use.
	NewContext(ctx context.Context, opts ContextOptions) (Context, error)
	// Close releases the browser process. Further NewContext calls fail
	// with ErrClosed.
	Close() error
}

// Context is a single isolated browsing context holding one page.
type Context interface {
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	// TryClick clicks the first element matching selector. It reports false
	// without error when nothing matches.
	TryClick(ctx context.Context, selector string) (bool, error)
	Cookies(ctx context.Context) ([]cookies.Cookie, error)
	// LocalStorage returns every local-storage entry of the current origin.
	LocalStorage(ctx context.Context) (map[string]string, error)
	Close() error
}

// UserAgents maps short names to realistic desktop user agents.
var UserAgents = map[string]string{
	"chrome":  "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"firefox": "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:133.0) Gecko/20100101 Firefox/133.0",
	"safari":  "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.6 Safari/605.1.15",
}

// DEF_USER_AGENT is used when no user agent is configured.
var DEF_USER_AGENT = UserAgents["chrome"]

// GetUserAgent resolves a short name from UserAgents; anything else is
// returned as is, and empty yields DEF_USER_AGENT.
func GetUserAgent(s string) string {
	if s == "" {
		return DEF_USER_AGENT
	}
	if ua, ok := UserAgents[strings.ToLower(s)]; ok {
		return ua
	}
	return s
}

// AcceptLanguage builds an Accept-Language value from a locale like en-US.
func AcceptLanguage(locale string) string {
	if locale == "" {
		return "en-US,en;q=0.9"
	}
	lang, _, found := strings.Cut(locale, "-")
	if !found || lang == locale {
		return locale
	}
	return locale + "," + lang + ";q=0.9"
}
