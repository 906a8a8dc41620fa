package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const currentVersion = 1

// timeLayout is fixed-width UTC so range predicates compare lexically on
// both backends.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

// Error is returned for any failed backend operation.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNotFound
	} else if isUniqueViolation(err) {
		err = fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return &Error{Op: op, Err: err}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

type Store struct {
	db      *sql.DB
	dialect dialect
}

// Open connects to the backend named by backendURL. postgres:// and
// postgresql:// URLs select PostgreSQL; anything else is a SQLite path,
// optionally prefixed with sqlite://.
func Open(backendURL, accessKey string) (*Store, error) {
	if IsPostgresURL(backendURL) {
		return NewPostgres(withPassword(backendURL, accessKey))
	}
	return New(strings.TrimPrefix(backendURL, "sqlite://"))
}

// IsPostgresURL reports whether the backend URL selects PostgreSQL.
func IsPostgresURL(u string) bool {
	return strings.HasPrefix(u, "postgres://") || strings.HasPrefix(u, "postgresql://")
}

// withPassword injects the access key as the password of a URL-style
// connection string that does not already carry one.
func withPassword(connStr, key string) string {
	if key == "" {
		return connStr
	}
	u, err := url.Parse(connStr)
	if err != nil || u.User == nil {
		return connStr
	}
	if _, ok := u.User.Password(); ok {
		return connStr
	}
	u.User = url.UserPassword(u.User.Username(), key)
	return u.String()
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, dialect: dialectSQLite}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewPostgres connects to PostgreSQL and runs migrations.
func NewPostgres(connStr string) (*Store, error) {
	if _, err := pq.NewConnector(connStr); err != nil {
		return nil, fmt.Errorf("invalid connection string: %w", err)
	}
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect: %w", err)
	}

	s := &Store{db: db, dialect: dialectPostgres}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) exec(query string, args ...any) (sql.Result, error) {
	return s.db.Exec(s.rebind(query), args...)
}

func (s *Store) query(query string, args ...any) (*sql.Rows, error) {
	return s.db.Query(s.rebind(query), args...)
}

func (s *Store) queryRow(query string, args ...any) *sql.Row {
	return s.db.QueryRow(s.rebind(query), args...)
}

func (s *Store) migrate() error {
	version, err := s.schemaVersion()
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	return s.setSchemaVersion(currentVersion)
}

func (s *Store) schemaVersion() (int, error) {
	var version int
	if s.dialect == dialectSQLite {
		err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
		return version, err
	}
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return 0, err
	}
	err := s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version)
	return version, err
}

func (s *Store) setSchemaVersion(v int) error {
	if s.dialect == dialectSQLite {
		_, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", v))
		return err
	}
	_, err := s.db.Exec(`INSERT INTO schema_version (version) VALUES ($1)`, v)
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS users (
		id              TEXT PRIMARY KEY,
		email           TEXT NOT NULL UNIQUE,
		full_name       TEXT NOT NULL DEFAULT '',
		password_hash   TEXT NOT NULL,
		email_confirmed INTEGER NOT NULL DEFAULT 0,
		created_at      TEXT NOT NULL,
		updated_at      TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS journal_entries (
		id            TEXT PRIMARY KEY,
		user_id       TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title         TEXT NOT NULL,
		content       TEXT NOT NULL,
		emotion_score INTEGER NOT NULL CHECK (emotion_score BETWEEN 1 AND 10),
		tags          TEXT NOT NULL DEFAULT '[]',
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_entries_user_created ON journal_entries(user_id, created_at);

	CREATE TABLE IF NOT EXISTS events (
		id                   TEXT PRIMARY KEY,
		user_id              TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title                TEXT NOT NULL,
		description          TEXT NOT NULL DEFAULT '',
		location             TEXT NOT NULL DEFAULT '',
		start_date           TEXT NOT NULL,
		end_date             TEXT NOT NULL,
		all_day              INTEGER NOT NULL DEFAULT 0,
		notification_enabled INTEGER NOT NULL DEFAULT 1,
		notification_minutes INTEGER NOT NULL DEFAULT 15 CHECK (notification_minutes >= 0),
		created_at           TEXT NOT NULL,
		updated_at           TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_user_start ON events(user_id, start_date);

	CREATE TABLE IF NOT EXISTS user_settings (
		id                           TEXT PRIMARY KEY,
		user_id                      TEXT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
		theme                        TEXT NOT NULL DEFAULT 'light',
		language                     TEXT NOT NULL DEFAULT 'ja',
		notifications_enabled        INTEGER NOT NULL DEFAULT 1,
		email_notifications          INTEGER NOT NULL DEFAULT 1,
		default_notification_minutes INTEGER NOT NULL DEFAULT 15,
		timezone                     TEXT NOT NULL DEFAULT 'Asia/Tokyo',
		created_at                   TEXT NOT NULL,
		updated_at                   TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(ddl)
	return err
}

// DefaultDBPath returns ~/.config/mindjournal/mindjournal.db
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "mindjournal", "mindjournal.db"), nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed timestamp %q: %w", s, err)
	}
	return t, nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(data), nil
}

func decodeTags(s string) ([]string, error) {
	tags := []string{}
	if s == "" {
		return tags, nil
	}
	if err := json.Unmarshal([]byte(s), &tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	return tags, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// setClause accumulates column assignments for partial updates.
type setClause struct {
	cols []string
	args []any
}

func (c *setClause) add(col string, v any) {
	c.cols = append(c.cols, col+" = ?")
	c.args = append(c.args, v)
}

func (c *setClause) sql() string {
	return strings.Join(c.cols, ", ")
}
