// Package cookies holds the cookie model shared by the browser backend, the
// token extractor and the session manager, and imports cookies from browser
// cookie stores (Firefox moz_cookies SQLite, Chrome cookies SQLite with
// unencrypted values only, Netscape text) to seed a session without a
// browser launch.
//
// Cookie values are never logged. Only names and domains may appear in logs.
package cookies
