package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Store owns the SQLite database behind sessions, messages and LLM events.
type Store struct {
	db  *sql.DB
	drv *entsql.Driver
	seq *sequence

	// appendMu serialises message appends so sequence and timestamp are
	// assigned together.
	appendMu sync.Mutex
	now      func() time.Time
}

// Open connects to the SQLite file at path, creating it if needed, then
// migrates the schema and seeds the default user.
func Open(path string) (s *Store, err error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	drv := entsql.OpenDB(dialect.SQLite, db)
	defer func() {
		if err != nil {
			drv.Close()
		}
	}()

	ctx := context.Background()
	if err := migrate(ctx, drv); err != nil {
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}
	seq, err := openSequence(ctx, db)
	if err != nil {
		return nil, err
	}

	s = &Store{db: db, drv: drv, seq: seq, now: time.Now}
	if err := s.seedDefaultUser(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// DB exposes the handle for raw queries.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error { return s.drv.Close() }

func (s *Store) SessionRepo() SessionRepo { return &sessionRepo{store: s} }

// EventRepo returns the repository for recorded model calls.
func (s *Store) EventRepo() EventQuerier { return &eventRepo{store: s} }

// Ping is used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func migrate(ctx context.Context, drv dialect.Driver) error {
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return err
	}
	return m.Create(ctx, tables...)
}

// seedDefaultUser creates the single local user sessions belong to unless a
// caller names another.
func (s *Store) seedDefaultUser(ctx context.Context) error {
	query, args := builder().Insert(usersTable.Name).
		Columns("id", "name", "created_at").
		Values(DefaultUserID, "Student", s.now().UnixNano()).
		OnConflict(entsql.DoNothing()).
		Query()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("seed default user: %w", err)
	}
	return nil
}

// dsn attaches the connection pragmas to every pooled connection. Foreign
// keys must be on for the migrator and for cascading deletes.
func dsn(path string) string {
	pragmas := []string{
		"foreign_keys(1)",
		"journal_mode(WAL)",
		"busy_timeout(5000)",
		"synchronous(NORMAL)",
	}
	q := url.Values{}
	for _, p := range pragmas {
		q.Add("_pragma", p)
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return "file:" + path + sep + q.Encode()
}

// DefaultDBPath picks the database file: $ESLENS_DB when set, otherwise
// eslens/eslens.db under $XDG_DATA_HOME (default ~/.local/share). The
// parent directory is created.
func DefaultDBPath() (string, error) {
	p := os.Getenv("ESLENS_DB")
	if p == "" {
		base := os.Getenv("XDG_DATA_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("resolve home dir: %w", err)
			}
			base = filepath.Join(home, ".local", "share")
		}
		p = filepath.Join(base, "eslens", "eslens.db")
	}
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
