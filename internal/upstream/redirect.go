package upstream

import (
	"errors"
	"fmt"
	"net/http"
)

// DefaultMaxRedirects matches net/http's own limit.
const DefaultMaxRedirects = 10

var (
	ErrTooManyRedirects      = errors.New("redirect loop detected")
	ErrCrossProtocolRedirect = errors.New("cross-protocol redirect not supported")
)

// safeHeaders survive a cross-origin redirect. Everything else, notably
// Cookie and X-CSRF-Token, is dropped so session credentials never reach
// another host.
var safeHeaders = map[string]bool{
	"User-Agent":      true,
	"Accept":          true,
	"Accept-Language": true,
	"Accept-Encoding": true,
}

// RedirectPolicy bounds redirect hops, rejects redirects off http(s) and
// strips credentials on cross-origin hops.
func RedirectPolicy(maxRedirects int) func(*http.Request, []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("%w: exceeded %d hops (last URL: %s)",
				ErrTooManyRedirects, maxRedirects, via[len(via)-1].URL)
		}
		if len(via) == 0 {
			return nil
		}
		prev := via[len(via)-1]
		if isHTTPScheme(prev.URL.Scheme) && !isHTTPScheme(req.URL.Scheme) {
			return fmt.Errorf("%w: %s -> %s", ErrCrossProtocolRedirect, prev.URL.Scheme, req.URL.Scheme)
		}
		if prev.URL.Host != req.URL.Host {
			for key := range req.Header {
				if !safeHeaders[http.CanonicalHeaderKey(key)] {
					req.Header.Del(key)
				}
			}
		}
		return nil
	}
}

func isHTTPScheme(scheme string) bool {
	return scheme == "http" || scheme == "https"
}
