package cookies

import (
	"strings"

	"golang.org/x/net/publicsuffix"
)

// BuildCookieHeader builds an HTTP Cookie header value from a slice of cookies,
// preserving their order. Format: "name1=val1; name2=val2"
func BuildCookieHeader(cookies []Cookie) string {
	if len(cookies) == 0 {
		return ""
	}

	parts := make([]string, len(cookies))
	for i, c := range cookies {
		parts[i] = c.Name + "=" + c.Value
	}
	return strings.Join(parts, "; ")
}

// Find returns the first cookie with the given name.
func Find(cookies []Cookie, name string) (Cookie, bool) {
	for _, c := range cookies {
		if c.Name == name {
			return c, true
		}
	}
	return Cookie{}, false
}

// HasAny reports whether any of names is present with a non-empty value.
func HasAny(cookies []Cookie, names ...string) bool {
	for _, n := range names {
		if c, ok := Find(cookies, n); ok && c.Value != "" {
			return true
		}
	}
	return false
}

// Names lists cookie names in order, for logging.
func Names(cookies []Cookie) []string {
	out := make([]string, len(cookies))
	for i, c := range cookies {
		out[i] = c.Name
	}
	return out
}

// Clone returns a deep copy of cookies.
func Clone(cookies []Cookie) []Cookie {
	if cookies == nil {
		return nil
	}
	return append([]Cookie(nil), cookies...)
}

// MatchesHost reports whether a cookie set for cookieDomain is relevant to
// host: an exact match, a parent domain cookie (".go.com" for
// "disneyworld.disney.go.com") or a subdomain cookie.
func MatchesHost(cookieDomain, host string) bool {
	d := strings.ToLower(strings.TrimPrefix(cookieDomain, "."))
	host = strings.ToLower(strings.TrimPrefix(host, "."))
	if d == "" || host == "" {
		return false
	}
	// Browsers refuse cookies scoped to a public suffix such as "com".
	if ps, _ := publicsuffix.PublicSuffix(d); ps == d {
		return false
	}
	if d == host {
		return true
	}
	return strings.HasSuffix(host, "."+d) || strings.HasSuffix(d, "."+host)
}
