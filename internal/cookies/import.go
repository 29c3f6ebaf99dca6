package cookies

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// ImportCookies imports cookies relevant to host from a browser cookie store.
// SQLite stores are copied first so a running browser holding the database
// lock does not interfere.
func ImportCookies(sourcePath, host string, now time.Time) ([]Cookie, *CookieSource, error) {
	format, err := DetectFormat(sourcePath)
	if err != nil {
		return nil, nil, err
	}
	source := &CookieSource{Path: sourcePath, Format: format, Browser: format.String()}

	var out []Cookie
	switch format {
	case FormatFirefox:
		out, err = importSQLite(sourcePath, host, now, firefoxSchema)
	case FormatChrome:
		out, err = importSQLite(sourcePath, host, now, chromeSchema)
	case FormatNetscape:
		out, err = ParseNetscape(sourcePath, host, now)
	default:
		return nil, nil, fmt.Errorf("unsupported cookie database schema at %s", sourcePath)
	}
	if err != nil {
		return nil, nil, err
	}
	return out, source, nil
}

func importSQLite(sourcePath, host string, now time.Time, schema sqliteSchema) ([]Cookie, error) {
	tempDir, err := os.MkdirTemp("", "parkdl-cookies-*")
	if err != nil {
		return nil, fmt.Errorf("cannot create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	dst := filepath.Join(tempDir, filepath.Base(sourcePath))
	if err := copyFile(sourcePath, dst); err != nil {
		return nil, err
	}
	// WAL and SHM companions hold uncheckpointed writes; copy them when present.
	for _, suffix := range []string{"-wal", "-shm"} {
		if _, err := os.Stat(sourcePath + suffix); err == nil {
			_ = copyFile(sourcePath+suffix, dst+suffix)
		}
	}
	return parseSQLite(dst, host, now, schema)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("cannot open source file %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("cannot create destination file %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("cannot copy file: %w", err)
	}
	return nil
}
