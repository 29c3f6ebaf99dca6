package session

import (
	"time"

	"github.com/warpdl/parkdl/common"
	"github.com/warpdl/parkdl/internal/token"
)

const (
	DEF_REFRESH_BUFFER       = 10 * time.Minute
	DEF_NAVIGATION_TIMEOUT   = 30 * time.Second
	DEF_COOKIE_POLL_ATTEMPTS = 20
	DEF_COOKIE_POLL_INTERVAL = 500 * time.Millisecond
	DEF_ESTABLISH_TIMEOUT    = 2 * time.Minute
)

// DefaultConsentSelectors are tried in order; the first match is clicked.
var DefaultConsentSelectors = []string{
	"#onetrust-accept-btn-handler",
	"button[aria-label='Accept All Cookies']",
	"button#accept-cookies",
	".cookie-consent button.accept",
}

// DestinationOverride replaces the built-in facts of a destination. Empty
// fields keep the built-in value.
type DestinationOverride struct {
	LandingURL string `json:"landingUrl,omitempty"`
	Locale     string `json:"locale,omitempty"`
	Timezone   string `json:"timezone,omitempty"`
}

// Config tunes session establishment.
type Config struct {
	RefreshBuffer      time.Duration
	NavigationTimeout  time.Duration
	ConsentSelectors   []string
	CookiePollAttempts int
	CookiePollInterval time.Duration
	// EstablishTimeout bounds a whole establishment, however many callers
	// are waiting on it.
	EstablishTimeout time.Duration
	// UserAgent is a name from browser.UserAgents or a literal value.
	UserAgent    string
	Token        token.Config
	Destinations map[common.Destination]DestinationOverride
}

func DefaultConfig() Config {
	return Config{
		RefreshBuffer:      DEF_REFRESH_BUFFER,
		NavigationTimeout:  DEF_NAVIGATION_TIMEOUT,
		ConsentSelectors:   append([]string(nil), DefaultConsentSelectors...),
		CookiePollAttempts: DEF_COOKIE_POLL_ATTEMPTS,
		CookiePollInterval: DEF_COOKIE_POLL_INTERVAL,
		EstablishTimeout:   DEF_ESTABLISH_TIMEOUT,
		UserAgent:          "chrome",
		Token:              token.DefaultConfig(),
	}
}

// destination merges the built-in info of dest with any override.
func (c Config) destination(dest common.Destination) (common.DestinationInfo, bool) {
	info, ok := dest.Info()
	if !ok {
		return info, false
	}
	if o, ok := c.Destinations[dest]; ok {
		if o.LandingURL != "" {
			info.LandingURL = o.LandingURL
		}
		if o.Locale != "" {
			info.Locale = o.Locale
		}
		if o.Timezone != "" {
			info.Timezone = o.Timezone
		}
	}
	return info, true
}
