package cookies

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	_ "modernc.org/sqlite"
)

var (
	sqliteMagic     = []byte("SQLite format 3\x00")
	netscapeHeaders = [][]byte{[]byte("# Netscape HTTP Cookie File"), []byte("# HTTP Cookie File")}
)

// DetectFormat sniffs the first bytes of path. SQLite files are told apart
// by the cookie table they hold.
func DetectFormat(path string) (CookieFormat, error) {
	head, err := readHead(path, 512)
	if err != nil {
		return FormatUnknown, err
	}
	if bytes.HasPrefix(head, sqliteMagic) {
		return sqliteFormat(path)
	}
	line, _, _ := bytes.Cut(head, []byte("\n"))
	line = bytes.TrimRight(line, "\r")
	for _, h := range netscapeHeaders {
		if bytes.Equal(line, h) {
			return FormatNetscape, nil
		}
	}
	return FormatUnknown, fmt.Errorf("%s: not a cookies.txt or browser cookie database", path)
}

func readHead(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cookie file: %w", err)
	}
	defer f.Close()
	if st, err := f.Stat(); err == nil && st.IsDir() {
		return nil, fmt.Errorf("%s is a directory, expected a cookie file", path)
	}
	buf := make([]byte, n)
	read, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read cookie file: %w", err)
	}
	if read == 0 {
		return nil, fmt.Errorf("cookie file %s is empty", path)
	}
	return buf[:read], nil
}

// sqliteFormat maps the cookie table name to a browser: Firefox keeps
// moz_cookies, Chromium browsers keep cookies.
func sqliteFormat(path string) (CookieFormat, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return FormatUnknown, fmt.Errorf("open cookie database: %w", err)
	}
	defer db.Close()

	var name string
	err = db.QueryRow(`SELECT name FROM sqlite_master
		WHERE type = 'table' AND name IN ('moz_cookies', 'cookies')
		ORDER BY name = 'moz_cookies' DESC LIMIT 1`).Scan(&name)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return FormatUnknown, fmt.Errorf("%s: no cookie table in database", path)
	case err != nil:
		return FormatUnknown, fmt.Errorf("inspect cookie database: %w", err)
	case name == "moz_cookies":
		return FormatFirefox, nil
	default:
		return FormatChrome, nil
	}
}
