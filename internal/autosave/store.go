// Package autosave keeps numbered revisions of project documents in a
// SQLite database so an editing session can be recovered after a crash.
package autosave

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dshills/cutline/internal/logging"
	"github.com/dshills/cutline/internal/project"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNoRevisions indicates a project has no saved revisions.
var ErrNoRevisions = errors.New("no revisions")

// Revision describes one saved document.
type Revision struct {
	Project     string
	Number      int64
	Description string
	Size        int
	CreatedAt   time.Time
}

// Store is a revision store backed by SQLite.
type Store struct {
	conn   *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// Open opens or creates the database at path and applies pending migrations.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	s := &Store{
		conn:   conn,
		logger: logging.WithComponent(logger, "autosave"),
		now:    time.Now,
	}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	migrations, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}

	for _, m := range migrations {
		if m.IsDir() {
			continue
		}
		name := m.Name()
		if s.isMigrationApplied(name) {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := s.conn.Exec(string(content)); err != nil {
			return fmt.Errorf("execute migration %s: %w", name, err)
		}
		if _, err := s.conn.Exec("INSERT INTO _migrations (name) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
		s.logger.Info("applied migration", "name", name)
	}
	return nil
}

func (s *Store) isMigrationApplied(name string) bool {
	var exists int
	err := s.conn.QueryRow("SELECT 1 FROM sqlite_master WHERE type='table' AND name='_migrations'").Scan(&exists)
	if err != nil {
		return false
	}

	var applied int
	err = s.conn.QueryRow("SELECT 1 FROM _migrations WHERE name = ?", name).Scan(&applied)
	return err == nil && applied == 1
}

// Save stores doc as the next revision of name.
func (s *Store) Save(ctx context.Context, name string, doc *project.Document, description string) (Revision, error) {
	data, err := project.Marshal(doc)
	if err != nil {
		return Revision{}, err
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return Revision{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var last sql.NullInt64
	if err := tx.QueryRowContext(ctx,
		"SELECT MAX(revision) FROM revisions WHERE project = ?", name,
	).Scan(&last); err != nil {
		return Revision{}, fmt.Errorf("next revision: %w", err)
	}

	rev := Revision{
		Project:     name,
		Number:      last.Int64 + 1,
		Description: description,
		Size:        len(data),
		CreatedAt:   s.now().UTC(),
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO revisions (project, revision, description, document, size, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rev.Project, rev.Number, rev.Description, data, rev.Size, rev.CreatedAt.Format(time.RFC3339Nano)); err != nil {
		return Revision{}, fmt.Errorf("insert revision: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Revision{}, fmt.Errorf("commit: %w", err)
	}

	s.logger.Debug("revision saved", "project", name, "revision", rev.Number, "bytes", rev.Size)
	return rev, nil
}

// Latest returns the newest revision of name.
func (s *Store) Latest(ctx context.Context, name string) (*project.Document, Revision, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT project, revision, description, size, created_at, document
		FROM revisions WHERE project = ?
		ORDER BY revision DESC LIMIT 1
	`, name)
	return s.scanDocument(row, name)
}

// Load returns a specific revision of name.
func (s *Store) Load(ctx context.Context, name string, number int64) (*project.Document, Revision, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT project, revision, description, size, created_at, document
		FROM revisions WHERE project = ? AND revision = ?
	`, name, number)
	return s.scanDocument(row, name)
}

func (s *Store) scanDocument(row *sql.Row, name string) (*project.Document, Revision, error) {
	var rev Revision
	var createdAt string
	var data []byte

	err := row.Scan(&rev.Project, &rev.Number, &rev.Description, &rev.Size, &createdAt, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, Revision{}, fmt.Errorf("%w for project %q", ErrNoRevisions, name)
	}
	if err != nil {
		return nil, Revision{}, err
	}
	rev.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)

	doc, err := project.Unmarshal(data)
	if err != nil {
		return nil, rev, fmt.Errorf("revision %d: %w", rev.Number, err)
	}
	return doc, rev, nil
}

// Revisions lists the revisions of name, newest first.
func (s *Store) Revisions(ctx context.Context, name string) ([]Revision, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT project, revision, description, size, created_at
		FROM revisions WHERE project = ?
		ORDER BY revision DESC
	`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var revs []Revision
	for rows.Next() {
		var rev Revision
		var createdAt string
		if err := rows.Scan(&rev.Project, &rev.Number, &rev.Description, &rev.Size, &createdAt); err != nil {
			return nil, err
		}
		rev.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		revs = append(revs, rev)
	}
	return revs, rows.Err()
}

// Prune deletes all but the newest keep revisions of name and returns how
// many were removed. A keep of zero or less removes nothing.
func (s *Store) Prune(ctx context.Context, name string, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	res, err := s.conn.ExecContext(ctx, `
		DELETE FROM revisions
		WHERE project = ? AND revision <= (
			SELECT MAX(revision) FROM revisions WHERE project = ?
		) - ?
	`, name, name, keep)
	if err != nil {
		return 0, fmt.Errorf("prune %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Debug("revisions pruned", "project", name, "removed", n)
	}
	return n, nil
}
