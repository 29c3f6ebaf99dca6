// Package token decodes the credentials a browser session leaves behind and
// works out how long they remain usable. Everything here is pure: no I/O, no
// clock reads, so it can be tested without a browser.
package token

import (
	"encoding/base64"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/warpdl/parkdl/internal/cookies"
)

const (
	DEF_BEARER_COOKIE     = "__d"
	DEF_PUBLIC_EXPIRY     = "finderPublicTokenExpireTime"
	DEF_SESSION_ID_COOKIE = "SWID"
	DEF_SESSION_DURATION  = 8 * time.Hour
)

// DefaultCSRFCookies are checked in order for a CSRF token.
var DefaultCSRFCookies = []string{"pep_csrf", "XSRF-TOKEN", "csrf_token"}

// Config names the cookies the extractor looks at.
type Config struct {
	BearerCookie       string
	PublicExpiryCookie string
	SessionIDCookie    string
	CSRFCookies        []string
	// DefaultSessionDuration is used when nothing else yields an expiry.
	DefaultSessionDuration time.Duration
}

// DefaultConfig returns the cookie names used by the operator's web frontend.
func DefaultConfig() Config {
	return Config{
		BearerCookie:           DEF_BEARER_COOKIE,
		PublicExpiryCookie:     DEF_PUBLIC_EXPIRY,
		SessionIDCookie:        DEF_SESSION_ID_COOKIE,
		CSRFCookies:            append([]string(nil), DefaultCSRFCookies...),
		DefaultSessionDuration: DEF_SESSION_DURATION,
	}
}

// ReadyCookies returns the cookies whose presence means the frontend has
// finished issuing credentials.
func (c Config) ReadyCookies() []string {
	return []string{c.BearerCookie, c.PublicExpiryCookie}
}

// Tokens are the credentials pulled out of a cookie jar. Empty means absent.
type Tokens struct {
	SessionID string `json:"sessionId,omitempty"`
	AuthToken string `json:"authToken,omitempty"`
	CSRFToken string `json:"csrfToken,omitempty"`
}

// Source tells which step of the expiration chain produced a result.
type Source int

const (
	SourceBearer Source = iota + 1
	SourcePublicExpiry
	SourceCookieExpiry
	SourceDefault
)

func (s Source) String() string {
	switch s {
	case SourceBearer:
		return "bearer"
	case SourcePublicExpiry:
		return "public-expiry"
	case SourceCookieExpiry:
		return "cookie-expiry"
	case SourceDefault:
		return "default"
	default:
		return "unknown"
	}
}

// ComputeExpiration returns when a session built from cooks stops being
// usable. See Resolve for the priority chain.
func ComputeExpiration(cooks []cookies.Cookie, now time.Time, cfg Config) time.Time {
	t, _ := Resolve(cooks, now, cfg)
	return t
}

// Resolve computes the expiration and reports which step produced it:
//  1. iat + expires_in from the bearer cookie payload
//  2. the public token expiry cookie (epoch ms), if still in the future
//  3. the earliest future cookie-level expiry among session-like cookies
//  4. now + cfg.DefaultSessionDuration
func Resolve(cooks []cookies.Cookie, now time.Time, cfg Config) (time.Time, Source) {
	if c, ok := cookies.Find(cooks, cfg.BearerCookie); ok && c.Value != "" {
		if t, ok := bearerExpiry(c.Value); ok {
			return t, SourceBearer
		}
	}

	if c, ok := cookies.Find(cooks, cfg.PublicExpiryCookie); ok {
		if ms, err := strconv.ParseInt(strings.TrimSpace(c.Value), 10, 64); err == nil {
			if t := time.UnixMilli(ms).UTC(); t.After(now) {
				return t, SourcePublicExpiry
			}
		}
	}

	var earliest time.Time
	for _, c := range cooks {
		if !c.HasExpiry() || !sessionLike(c.Name, cfg) {
			continue
		}
		// Cookie expiry has second precision.
		exp := time.Unix(c.Expires.Unix(), 0).UTC()
		if !exp.After(now) {
			continue
		}
		if earliest.IsZero() || exp.Before(earliest) {
			earliest = exp
		}
	}
	if !earliest.IsZero() {
		return earliest, SourceCookieExpiry
	}

	d := cfg.DefaultSessionDuration
	if d <= 0 {
		d = DEF_SESSION_DURATION
	}
	return now.Add(d).UTC(), SourceDefault
}

func sessionLike(name string, cfg Config) bool {
	if name == cfg.BearerCookie {
		return true
	}
	lower := strings.ToLower(name)
	if strings.Contains(lower, "session") || strings.Contains(lower, "auth") {
		return true
	}
	return cfg.SessionIDCookie != "" && strings.Contains(lower, strings.ToLower(cfg.SessionIDCookie))
}

// bearerExpiry reads iat and expires_in from the bearer payload.
func bearerExpiry(raw string) (time.Time, bool) {
	claims, ok := DecodePayload(raw)
	if !ok {
		return time.Time{}, false
	}
	iat, ok := numeric(claims["iat"])
	if !ok {
		return time.Time{}, false
	}
	expiresIn, ok := numeric(claims["expires_in"])
	if !ok {
		return time.Time{}, false
	}
	return time.UnixMilli(int64((iat + expiresIn) * 1000)).UTC(), true
}

// DecodePayload returns the JSON claims in the middle segment of a
// JWT-shaped value. The signature is never checked: the token is only read
// for metadata, nothing here trusts it.
func DecodePayload(raw string) (map[string]any, bool) {
	raw = strings.TrimSpace(raw)
	if strings.Count(raw, ".") < 1 {
		return nil, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err == nil {
		return claims, true
	}

	// Not a three-part JWT (or an unknown alg header); try the middle
	// segment on its own.
	parts := strings.Split(raw, ".")
	if len(parts) < 2 {
		return nil, false
	}
	seg := strings.TrimRight(parts[1], "=")
	data, err := base64.RawURLEncoding.DecodeString(seg)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(seg)
		if err != nil {
			return nil, false
		}
	}
	out := map[string]any{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, false
	}
	return out, true
}

// numeric accepts JSON numbers and numeric strings.
func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// ExtractTokens pulls the session id, bearer token and CSRF token out of the
// cookie jar. storage holds local-storage entries and is only consulted for
// the auth token when the bearer cookie is missing.
func ExtractTokens(cooks []cookies.Cookie, storage map[string]string, cfg Config) Tokens {
	var t Tokens
	if c, ok := cookies.Find(cooks, cfg.SessionIDCookie); ok {
		t.SessionID = c.Value
	}
	if c, ok := cookies.Find(cooks, cfg.BearerCookie); ok {
		t.AuthToken = c.Value
	}
	if t.AuthToken == "" {
		t.AuthToken = storageToken(storage)
	}
	for _, name := range cfg.CSRFCookies {
		if c, ok := cookies.Find(cooks, name); ok && c.Value != "" {
			t.CSRFToken = c.Value
			break
		}
	}
	return t
}

// StorageKeyRelevant reports whether a local-storage key may hold a token.
func StorageKeyRelevant(key string) bool {
	k := strings.ToLower(key)
	return strings.Contains(k, "token") || strings.Contains(k, "auth")
}

func storageToken(storage map[string]string) string {
	if len(storage) == 0 {
		return ""
	}
	// Map order is random; pick deterministically.
	keys := make([]string, 0, len(storage))
	for k := range storage {
		if StorageKeyRelevant(k) && storage[k] != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)
	return storage[keys[0]]
}
