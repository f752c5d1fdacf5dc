package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/platinummonkey/auval/pkg/validator"
)

// ErrNoRecord is returned when no run matches a lookup
var ErrNoRecord = errors.New("no validation run recorded")

// DefaultLimit caps List when no positive limit is given
const DefaultLimit = 20

// Run is one recorded validation run
type Run struct {
	ID             uuid.UUID
	Identity       string
	Name           string
	Version        int32
	Status         validator.Status
	Verdict        string
	RequiresInit   bool
	Seed           uint64
	ProbesRun      int
	ProbesFailed   int
	StartedAt      time.Time
	ProcessingTime time.Duration
}

// FromReport flattens a report into a Run
func FromReport(r *validator.Report) Run {
	return Run{
		ID:             r.RunID,
		Identity:       r.Identity.String(),
		Name:           r.Name,
		Version:        r.Version,
		Status:         r.Status,
		Verdict:        r.Decision.Verdict.String(),
		RequiresInit:   r.RequiresInit,
		Seed:           r.Seed,
		ProbesRun:      len(r.Probes),
		ProbesFailed:   len(r.Failures()),
		StartedAt:      r.StartedAt,
		ProcessingTime: r.ProcessingTime,
	}
}

// Dialect selects the placeholder style of the database
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

// Store keeps validation runs in a SQL database
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// Open opens the history database named by dsn. postgres:// and
// postgresql:// URLs use PostgreSQL; anything else is a SQLite file path.
func Open(dsn string) (*Store, error) {
	driver, dialect := "sqlite3", SQLite
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver, dialect = "postgres", Postgres
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	store, err := New(db, dialect)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// New creates a store over an open database
func New(db *sql.DB, dialect Dialect) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	s := &Store{db: db, dialect: dialect}
	if err := s.ensureTable(); err != nil {
		return nil, fmt.Errorf("failed to ensure runs table: %w", err)
	}
	return s, nil
}

func (s *Store) ensureTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		identity TEXT NOT NULL,
		name TEXT NOT NULL,
		version INTEGER NOT NULL,
		status INTEGER NOT NULL,
		verdict TEXT NOT NULL,
		requires_init BOOLEAN NOT NULL,
		seed TEXT NOT NULL,
		probes_run INTEGER NOT NULL,
		probes_failed INTEGER NOT NULL,
		started_at TIMESTAMP NOT NULL,
		processing_ns BIGINT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_identity ON runs(identity, started_at DESC);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC);
	`

	_, err := s.db.Exec(query)
	return err
}

// rebind rewrites ? placeholders for the dialect
func (s *Store) rebind(query string) string {
	if s.dialect != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores the outcome of a validation run
func (s *Store) Record(ctx context.Context, r *validator.Report) error {
	run := FromReport(r)

	query := `
		INSERT INTO runs (
			id, identity, name, version, status, verdict, requires_init,
			seed, probes_run, probes_failed, started_at, processing_ns
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, s.rebind(query),
		run.ID.String(), run.Identity, run.Name, run.Version, int(run.Status), run.Verdict, run.RequiresInit,
		strconv.FormatUint(run.Seed, 10), run.ProbesRun, run.ProbesFailed, run.StartedAt.UTC(), run.ProcessingTime.Nanoseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

const selectRuns = `
	SELECT id, identity, name, version, status, verdict, requires_init,
		seed, probes_run, probes_failed, started_at, processing_ns
	FROM runs
`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		run     Run
		id      string
		status  int
		seed    string
		elapsed int64
	)
	err := row.Scan(&id, &run.Identity, &run.Name, &run.Version, &status, &run.Verdict, &run.RequiresInit,
		&seed, &run.ProbesRun, &run.ProbesFailed, &run.StartedAt, &elapsed)
	if err != nil {
		return nil, err
	}

	if run.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid run id %q: %w", id, err)
	}
	if run.Seed, err = strconv.ParseUint(seed, 10, 64); err != nil {
		return nil, fmt.Errorf("invalid seed %q: %w", seed, err)
	}
	run.Status = validator.Status(status)
	run.ProcessingTime = time.Duration(elapsed)
	return &run, nil
}

// Latest returns the most recent run of identity
func (s *Store) Latest(ctx context.Context, identity string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(selectRuns+" WHERE identity = ? ORDER BY started_at DESC LIMIT 1"), identity)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", identity, ErrNoRecord)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	return run, nil
}

// List returns up to limit runs, newest first
func (s *Store) List(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(selectRuns+" ORDER BY started_at DESC LIMIT ?"), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}
