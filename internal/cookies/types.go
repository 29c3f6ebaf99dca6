package cookies

import "time"

// CookieFormat identifies the format of a browser cookie store.
type CookieFormat int

const (
	// FormatUnknown means the cookie store format could not be detected.
	FormatUnknown CookieFormat = 0
	// FormatFirefox means the cookie store uses the Firefox moz_cookies SQLite schema.
	FormatFirefox CookieFormat = 1
	// FormatChrome means the cookie store uses the Chrome cookies SQLite schema.
	FormatChrome CookieFormat = 2
	// FormatNetscape means the cookie store uses the Netscape tab-separated text format.
	FormatNetscape CookieFormat = 3
)

func (f CookieFormat) String() string {
	switch f {
	case FormatFirefox:
		return "Firefox"
	case FormatChrome:
		return "Chrome"
	case FormatNetscape:
		return "Netscape"
	default:
		return "unknown"
	}
}

// Cookie is a single browser cookie. Order matters: a session keeps its
// cookies in the order the browser reported them and the Cookie header is
// built in that order.
type Cookie struct {
	Name   string `json:"name"`
	Value  string `json:"value"` // SENSITIVE, never log
	Domain string `json:"domain"`
	Path   string `json:"path"`
	// Expires is the cookie-level expiry. Zero for session cookies.
	Expires  time.Time `json:"expires"`
	HttpOnly bool      `json:"httpOnly"`
	Secure   bool      `json:"secure"`
	SameSite string    `json:"sameSite"`
}

// HasExpiry reports whether the cookie carries an explicit expiry.
func (c Cookie) HasExpiry() bool {
	return !c.Expires.IsZero()
}

// CookieSource describes where imported cookies came from.
type CookieSource struct {
	Path    string
	Format  CookieFormat
	Browser string
}
