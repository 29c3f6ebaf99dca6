// Package store persists sessions in SQLite. Cookie values and tokens are
// sealed before they reach the database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/warpdl/parkdl/common"
	"github.com/warpdl/parkdl/internal/cookies"
	"github.com/warpdl/parkdl/internal/session"
	"github.com/warpdl/parkdl/internal/token"

	_ "modernc.org/sqlite"
)

// Sealer encrypts secrets for storage. *encryption.Sealer implements it.
type Sealer interface {
	Seal(plain string) (string, error)
	Open(sealed string) (string, error)
}

// plainSealer stores secrets as is. Only used when no sealer is given.
type plainSealer struct{}

func (plainSealer) Seal(s string) (string, error) { return s, nil }
func (plainSealer) Open(s string) (string, error) { return s, nil }

// SQLite implements session.Store.
type SQLite struct {
	db     *sql.DB
	sealer Sealer
	now    func() time.Time
}

var _ session.Store = (*SQLite)(nil)

// FileDSN returns a modernc DSN for a database file with foreign keys and a
// busy timeout enabled on every connection.
func FileDSN(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Open opens dsn and applies migrations.
func Open(dsn string, sealer Sealer) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// SQLite allows one writer; a single connection also keeps :memory:
	// databases alive across calls.
	db.SetMaxOpenConns(1)
	if sealer == nil {
		sealer = plainSealer{}
	}
	s := &SQLite{db: db, sealer: sealer, now: time.Now}
	if err := s.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return s, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

// withTx runs fn in a transaction, rolling back on error.
func (s *SQLite) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLite) Save(ctx context.Context, sess *session.Session) error {
	if sess == nil {
		return session.ErrNilSession
	}
	tokens, err := json.Marshal(sess.Tokens)
	if err != nil {
		return err
	}
	sealedTokens, err := s.sealer.Seal(string(tokens))
	if err != nil {
		return fmt.Errorf("seal tokens: %w", err)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
            INSERT INTO sessions (destination, state, tokens, created_at, refreshed_at, expires_at, error_count, last_error)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?)
            ON CONFLICT(destination) DO UPDATE SET
                state = excluded.state,
                tokens = excluded.tokens,
                created_at = excluded.created_at,
                refreshed_at = excluded.refreshed_at,
                expires_at = excluded.expires_at,
                error_count = excluded.error_count,
                last_error = excluded.last_error`,
			string(sess.Destination), string(sess.State), sealedTokens,
			toMillis(sess.CreatedAt), toMillis(sess.RefreshedAt), toMillis(sess.ExpiresAt),
			sess.ErrorCount, sess.LastError)
		if err != nil {
			return fmt.Errorf("upsert session: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM session_cookies WHERE destination = ?`, string(sess.Destination)); err != nil {
			return fmt.Errorf("clear cookies: %w", err)
		}
		for i, c := range sess.Cookies {
			value, err := s.sealer.Seal(c.Value)
			if err != nil {
				return fmt.Errorf("seal cookie %s: %w", c.Name, err)
			}
			var expires int64
			if c.HasExpiry() {
				expires = c.Expires.Unix()
			}
			_, err = tx.ExecContext(ctx, `
                INSERT INTO session_cookies (destination, position, name, value, domain, path, expires, http_only, secure, same_site)
                VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				string(sess.Destination), i, c.Name, value, c.Domain, c.Path, expires,
				boolInt(c.HttpOnly), boolInt(c.Secure), c.SameSite)
			if err != nil {
				return fmt.Errorf("insert cookie %s: %w", c.Name, err)
			}
		}
		return nil
	})
}

func (s *SQLite) Load(ctx context.Context, dest common.Destination) (*session.Session, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT destination, state, tokens, created_at, refreshed_at, expires_at, error_count, last_error
        FROM sessions WHERE destination = ?`, string(dest))
	sess, err := s.scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if sess.Cookies, err = s.loadCookies(ctx, dest); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *SQLite) LoadAll(ctx context.Context) ([]*session.Session, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT destination, state, tokens, created_at, refreshed_at, expires_at, error_count, last_error
        FROM sessions ORDER BY destination`)
	if err != nil {
		return nil, err
	}
	var out []*session.Session
	for rows.Next() {
		sess, err := s.scanSession(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, sess)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// Cookies are read after the cursor is closed: the pool has one
	// connection.
	for _, sess := range out {
		if sess.Cookies, err = s.loadCookies(ctx, sess.Destination); err != nil {
			return nil, err
		}
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *SQLite) scanSession(row scanner) (*session.Session, error) {
	var (
		dest, state, sealedTokens string
		created, refreshed, exp   int64
		sess                      session.Session
	)
	if err := row.Scan(&dest, &state, &sealedTokens, &created, &refreshed, &exp, &sess.ErrorCount, &sess.LastError); err != nil {
		return nil, err
	}
	sess.Destination = common.Destination(dest)
	sess.State = session.State(state)
	sess.CreatedAt = fromMillis(created)
	sess.RefreshedAt = fromMillis(refreshed)
	sess.ExpiresAt = fromMillis(exp)
	if sealedTokens != "" {
		plain, err := s.sealer.Open(sealedTokens)
		if err != nil {
			return nil, fmt.Errorf("open %s tokens: %w", dest, err)
		}
		var t token.Tokens
		if err := json.Unmarshal([]byte(plain), &t); err != nil {
			return nil, fmt.Errorf("decode %s tokens: %w", dest, err)
		}
		sess.Tokens = t
	}
	return &sess, nil
}

func (s *SQLite) loadCookies(ctx context.Context, dest common.Destination) ([]cookies.Cookie, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT name, value, domain, path, expires, http_only, secure, same_site
        FROM session_cookies WHERE destination = ? ORDER BY position`, string(dest))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []cookies.Cookie
	for rows.Next() {
		var (
			c                cookies.Cookie
			sealed           string
			expires          int64
			httpOnly, secure int
		)
		if err := rows.Scan(&c.Name, &sealed, &c.Domain, &c.Path, &expires, &httpOnly, &secure, &c.SameSite); err != nil {
			return nil, err
		}
		if c.Value, err = s.sealer.Open(sealed); err != nil {
			return nil, fmt.Errorf("open cookie %s: %w", c.Name, err)
		}
		if expires > 0 {
			c.Expires = time.Unix(expires, 0).UTC()
		}
		c.HttpOnly = httpOnly != 0
		c.Secure = secure != 0
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLite) IsExpired(sess *session.Session, buffer time.Duration) bool {
	return session.Expired(sess, s.now(), buffer)
}

func (s *SQLite) UpdateError(ctx context.Context, dest common.Destination, message string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET error_count = error_count + 1, last_error = ? WHERE destination = ?`,
		message, string(dest))
	return err
}

func (s *SQLite) ResetErrors(ctx context.Context, dest common.Destination) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET error_count = 0, last_error = '' WHERE destination = ?`, string(dest))
	return err
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
