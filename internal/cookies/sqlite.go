package cookies

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// chromeEpochOffsetSeconds is the number of seconds between the Windows NT epoch
// (1601-01-01 00:00:00 UTC) and the Unix epoch (1970-01-01 00:00:00 UTC).
const chromeEpochOffsetSeconds int64 = 11_644_473_600

// chromeToUnix converts a Chrome timestamp (microseconds since 1601-01-01)
// to a Unix timestamp (seconds since 1970-01-01).
func chromeToUnix(chromeUSec int64) int64 {
	return (chromeUSec / 1_000_000) - chromeEpochOffsetSeconds
}

// sqliteSchema describes how a browser lays out its cookie table.
type sqliteSchema struct {
	browser string
	query   string
	// expiry converts the stored expiry column to Unix seconds; 0 means session.
	expiry func(int64) int64
	// sameSite maps the stored integer to a SameSite attribute.
	sameSite func(int64) string
}

var (
	firefoxSchema = sqliteSchema{
		browser: "Firefox",
		query: `SELECT name, value, host, path, expiry, isSecure, isHttpOnly, sameSite
            FROM moz_cookies ORDER BY id ASC`,
		expiry: func(v int64) int64 {
			// Firefox 2023+ stores milliseconds.
			if v > 1e11 {
				return v / 1000
			}
			return v
		},
		sameSite: func(v int64) string {
			switch v {
			case 1:
				return "Lax"
			case 2:
				return "Strict"
			default:
				return "None"
			}
		},
	}
	chromeSchema = sqliteSchema{
		browser: "Chrome",
		// Encrypted cookies have an empty value column and are unusable here.
		query: `SELECT name, value, host_key, path, expires_utc, is_secure, is_httponly, samesite
            FROM cookies WHERE value != '' ORDER BY creation_utc ASC`,
		expiry: func(v int64) int64 {
			if v == 0 {
				return 0
			}
			return chromeToUnix(v)
		},
		sameSite: func(v int64) string {
			switch v {
			case 0:
				return "None"
			case 1:
				return "Lax"
			case 2:
				return "Strict"
			default:
				return ""
			}
		},
	}
)

// parseSQLite reads cookies relevant to host from a copied (not in-use)
// browser cookie database. Expired cookies are skipped.
func parseSQLite(dbPath, host string, now time.Time, schema sqliteSchema) ([]Cookie, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?immutable=1", dbPath))
	if err != nil {
		return nil, fmt.Errorf("cannot open %s cookie database: %w", schema.browser, err)
	}
	defer db.Close()

	rows, err := db.Query(schema.query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s cookies: %w", schema.browser, err)
	}
	defer rows.Close()

	var out []Cookie
	for rows.Next() {
		var (
			name, value, domain, path string
			expiry, sameSite          int64
			secure, httpOnly          int
		)
		if err := rows.Scan(&name, &value, &domain, &path, &expiry, &secure, &httpOnly, &sameSite); err != nil {
			return nil, fmt.Errorf("failed to scan %s cookie row: %w", schema.browser, err)
		}
		if !MatchesHost(domain, host) {
			continue
		}
		c := Cookie{
			Name:     name,
			Value:    value,
			Domain:   domain,
			Path:     path,
			Secure:   secure != 0,
			HttpOnly: httpOnly != 0,
			SameSite: schema.sameSite(sameSite),
		}
		if unix := schema.expiry(expiry); unix > 0 {
			c.Expires = time.Unix(unix, 0).UTC()
			if c.Expires.Before(now) {
				continue
			}
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s cookie rows: %w", schema.browser, err)
	}
	return out, nil
}
