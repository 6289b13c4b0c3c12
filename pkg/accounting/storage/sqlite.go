// Package storage persists accounting records in SQLite.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"mercator-hq/janus/pkg/accounting"
)

// SQLiteConfig configures the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10.
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5.
	MaxIdleConns int

	// WALMode enables write-ahead logging for better concurrency.
	// Default: true.
	WALMode bool

	// BusyTimeout is how long to wait when the database is locked.
	// Default: 5 seconds.
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/accounting.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStorage implements accounting.Storage using SQLite.
type SQLiteStorage struct {
	db        *sql.DB
	config    *SQLiteConfig
	logger    *slog.Logger
	mu        sync.RWMutex
	closeOnce sync.Once

	storeStmt  *sql.Stmt
	deleteStmt *sql.Stmt
}

const schema = `
CREATE TABLE IF NOT EXISTS accounting (
	id TEXT NOT NULL PRIMARY KEY,
	request_id TEXT NOT NULL,
	user_name TEXT NOT NULL,
	nas_identifier TEXT NOT NULL,
	policy_name TEXT NOT NULL,
	verdict TEXT NOT NULL,
	error TEXT,
	evaluated_at INTEGER NOT NULL,
	duration_us INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_accounting_evaluated ON accounting(evaluated_at);
CREATE INDEX IF NOT EXISTS idx_accounting_user ON accounting(user_name);
`

// NewSQLiteStorage opens (or creates) an accounting database.
func NewSQLiteStorage(config *SQLiteConfig) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}

	logger := slog.Default().With("component", "accounting.storage.sqlite")

	db, err := sql.Open("sqlite3", config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open accounting database: %w", err)
	}
	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	s := &SQLiteStorage{
		db:     db,
		config: config,
		logger: logger,
	}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("accounting storage initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
	)
	return s, nil
}

func (s *SQLiteStorage) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return fmt.Errorf("failed to enable WAL: %w", err)
		}
	}
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", s.config.BusyTimeout.Milliseconds())); err != nil {
		return fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	var err error
	s.storeStmt, err = s.db.Prepare(`
		INSERT INTO accounting (id, request_id, user_name, nas_identifier, policy_name, verdict, error, evaluated_at, duration_us)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare store statement: %w", err)
	}
	s.deleteStmt, err = s.db.Prepare(`DELETE FROM accounting WHERE evaluated_at < ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare delete statement: %w", err)
	}
	return nil
}

// Store writes one accounting record.
func (s *SQLiteStorage) Store(ctx context.Context, rec *accounting.Record) error {
	if rec == nil {
		return fmt.Errorf("record cannot be nil")
	}
	if rec.ID == "" {
		return fmt.Errorf("record id cannot be empty")
	}

	var errVal any
	if rec.Error != "" {
		errVal = rec.Error
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.storeStmt.ExecContext(ctx,
		rec.ID, rec.RequestID, rec.UserName, rec.NASIdentifier,
		rec.PolicyName, string(rec.Verdict), errVal,
		rec.EvaluatedAt.UnixMicro(), rec.Duration.Microseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to store record: %w", err)
	}
	return nil
}

// Query returns records matching q, newest first.
func (s *SQLiteStorage) Query(ctx context.Context, q *accounting.Query) ([]*accounting.Record, error) {
	where, args := buildWhere(q)

	query := `SELECT id, request_id, user_name, nas_identifier, policy_name, verdict, error, evaluated_at, duration_us FROM accounting` +
		where + ` ORDER BY evaluated_at DESC`
	if q != nil && q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []*accounting.Record
	for rows.Next() {
		var (
			rec         accounting.Record
			verdict     string
			errVal      sql.NullString
			evaluatedAt int64
			durationUS  int64
		)
		if err := rows.Scan(&rec.ID, &rec.RequestID, &rec.UserName, &rec.NASIdentifier,
			&rec.PolicyName, &verdict, &errVal, &evaluatedAt, &durationUS); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		rec.Verdict = accounting.Verdict(verdict)
		rec.Error = errVal.String
		rec.EvaluatedAt = time.UnixMicro(evaluatedAt)
		rec.Duration = time.Duration(durationUS) * time.Microsecond
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return records, nil
}

// Count returns the number of records matching q.
func (s *SQLiteStorage) Count(ctx context.Context, q *accounting.Query) (int64, error) {
	where, args := buildWhere(q)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounting`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return n, nil
}

// DeleteBefore removes records evaluated before the cutoff.
func (s *SQLiteStorage) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.deleteStmt.ExecContext(ctx, cutoff.UnixMicro())
	if err != nil {
		return 0, fmt.Errorf("failed to delete records: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}

// Close releases the backend. Close is idempotent.
func (s *SQLiteStorage) Close() error {
	var closeErr error
	s.closeOnce.Do(func() {
		if s.storeStmt != nil {
			s.storeStmt.Close()
		}
		if s.deleteStmt != nil {
			s.deleteStmt.Close()
		}
		if s.db != nil {
			closeErr = s.db.Close()
		}
	})
	return closeErr
}

// buildWhere renders a Query's filters as a WHERE clause.
func buildWhere(q *accounting.Query) (string, []any) {
	if q == nil {
		return "", nil
	}

	var (
		conds []string
		args  []any
	)
	if q.UserName != "" {
		conds = append(conds, "user_name = ?")
		args = append(args, q.UserName)
	}
	if q.PolicyName != "" {
		conds = append(conds, "policy_name = ?")
		args = append(args, q.PolicyName)
	}
	if q.Before != nil {
		conds = append(conds, "evaluated_at < ?")
		args = append(args, q.Before.UnixMicro())
	}
	if q.After != nil {
		conds = append(conds, "evaluated_at >= ?")
		args = append(args, q.After.UnixMicro())
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
