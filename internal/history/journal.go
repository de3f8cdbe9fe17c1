package history

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"bridgectl/internal/resource"
	"bridgectl/pkg/logging"
)

const subsystem = "History"

//go:embed migrations/*.sql
var migrationsFS embed.FS

var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
}

// DefaultLimit is the number of entries Recent returns when Query.Limit is zero.
const DefaultLimit = 20

// Entry is one recorded convergence pass.
type Entry struct {
	RunID       string    `json:"runId" yaml:"runId"`
	Type        string    `json:"type" yaml:"type"`
	Name        string    `json:"name" yaml:"name"`
	Outcome     string    `json:"outcome" yaml:"outcome"`
	State       string    `json:"state,omitempty" yaml:"state,omitempty"`
	Actions     []string  `json:"actions,omitempty" yaml:"actions,omitempty"`
	DriftedTags []string  `json:"driftedTags,omitempty" yaml:"driftedTags,omitempty"`
	Error       string    `json:"error,omitempty" yaml:"error,omitempty"`
	StartedAt   time.Time `json:"startedAt" yaml:"startedAt"`
	FinishedAt  time.Time `json:"finishedAt" yaml:"finishedAt"`
}

// Duration returns how long the pass took.
func (e Entry) Duration() time.Duration {
	return e.FinishedAt.Sub(e.StartedAt)
}

// Query filters Recent. Zero fields match everything.
type Query struct {
	Limit   int
	Type    string
	Name    string
	RunID   string
	Outcome string
}

// Journal is a SQLite-backed log of convergence outcomes.
type Journal struct {
	db   *sql.DB
	path string
}

// NewRunID returns a fresh identifier for a convergence pass.
func NewRunID() string {
	return uuid.NewString()
}

// Open opens or creates the journal at path and applies pending migrations.
func Open(ctx context.Context, path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows one writer; watch-mode workers share this connection.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	logging.Debug(subsystem, "Opened history journal %s", path)
	return &Journal{db: db, path: path}, nil
}

// Path returns the database file backing the journal.
func (j *Journal) Path() string {
	return j.path
}

// Close releases the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record stores the outcome of one convergence pass.
func (j *Journal) Record(ctx context.Context, runID string, started time.Time, result resource.Result) error {
	actions := make([]string, 0, len(result.Actions))
	for _, a := range result.Actions {
		actions = append(actions, a.String())
	}
	actionsJSON, err := json.Marshal(actions)
	if err != nil {
		return fmt.Errorf("encode actions: %w", err)
	}
	drifted := result.DriftedTags
	if drifted == nil {
		drifted = []string{}
	}
	driftedJSON, err := json.Marshal(drifted)
	if err != nil {
		return fmt.Errorf("encode drifted tags: %w", err)
	}

	finished := started.Add(result.Duration)
	if result.Duration == 0 {
		finished = time.Now()
	}

	_, err = j.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, type, name, outcome, state, actions, drifted_tags, error, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, result.Type, result.Name, string(result.Outcome), string(result.State),
		string(actionsJSON), string(driftedJSON), result.Reason(),
		started.UTC(), finished.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", runID, err)
	}
	return nil
}

// Recent returns the newest entries matching q, newest first.
func (j *Journal) Recent(ctx context.Context, q Query) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	if q.Type != "" {
		where = append(where, "type = ?")
		args = append(args, q.Type)
	}
	if q.Name != "" {
		where = append(where, "name = ?")
		args = append(args, q.Name)
	}
	if q.RunID != "" {
		where = append(where, "run_id = ?")
		args = append(args, q.RunID)
	}
	if q.Outcome != "" {
		where = append(where, "outcome = ?")
		args = append(args, q.Outcome)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	query := `SELECT run_id, type, name, outcome, state, actions, drifted_tags, error, started_at, finished_at FROM runs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Prune deletes entries started before cutoff and returns how many were removed.
func (j *Journal) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := j.db.ExecContext(ctx, `DELETE FROM runs WHERE started_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logging.Info(subsystem, "Pruned %d history entries older than %s", n, cutoff.Format(time.RFC3339))
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var (
		e                     Entry
		actionsRaw, driftRaw  string
		startedRaw, finishRaw any
	)
	if err := row.Scan(&e.RunID, &e.Type, &e.Name, &e.Outcome, &e.State, &actionsRaw, &driftRaw, &e.Error, &startedRaw, &finishRaw); err != nil {
		return Entry{}, fmt.Errorf("scan run: %w", err)
	}
	if err := json.Unmarshal([]byte(actionsRaw), &e.Actions); err != nil {
		return Entry{}, fmt.Errorf("decode actions of run %s: %w", e.RunID, err)
	}
	if err := json.Unmarshal([]byte(driftRaw), &e.DriftedTags); err != nil {
		return Entry{}, fmt.Errorf("decode drifted tags of run %s: %w", e.RunID, err)
	}
	if len(e.Actions) == 0 {
		e.Actions = nil
	}
	if len(e.DriftedTags) == 0 {
		e.DriftedTags = nil
	}

	var err error
	if e.StartedAt, err = coerceTime(startedRaw); err != nil {
		return Entry{}, err
	}
	if e.FinishedAt, err = coerceTime(finishRaw); err != nil {
		return Entry{}, err
	}
	return e, nil
}

func coerceTime(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v.UTC(), nil
	case string:
		return parseTime(v)
	case []byte:
		return parseTime(string(v))
	case nil:
		return time.Time{}, nil
	default:
		return time.Time{}, fmt.Errorf("unsupported time type %T", value)
	}
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time format: %q", s)
}

func applyMigrations(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
        version INTEGER PRIMARY KEY,
        name TEXT NOT NULL,
        applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
    );`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	applied := make(map[int]bool)
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("select applied migrations: %w", err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return fmt.Errorf("scan migration version: %w", err)
		}
		applied[v] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	entries, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(entries)

	for _, path := range entries {
		base := filepath.Base(path)
		var version int
		if _, err := fmt.Sscanf(base, "%d_", &version); err != nil {
			return fmt.Errorf("invalid migration filename %s: %w", base, err)
		}
		if applied[version] {
			continue
		}
		content, err := fs.ReadFile(migrationsFS, path)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", path, err)
		}
		if err := executeMigration(ctx, db, version, strings.TrimSuffix(base, ".sql"), string(content)); err != nil {
			return err
		}
	}
	return nil
}

func executeMigration(ctx context.Context, db *sql.DB, version int, name, stmt string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %d: %w", version, err)
	}

	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("apply migration %d: %w", version, err)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations(version, name, applied_at) VALUES(?, ?, ?);`, version, name, time.Now().UTC()); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("record migration %d: %w", version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %d: %w", version, err)
	}
	logging.Debug(subsystem, "Applied migration %s", name)
	return nil
}
