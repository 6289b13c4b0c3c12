package session

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// Session is one live access session.
type Session struct {
	// ID is the accounting session identifier reported by the client.
	ID string

	// UserName is the authenticated user the session belongs to.
	UserName string

	// NASIdentifier names the access server carrying the session.
	NASIdentifier string

	// StartedAt is when the session opened.
	StartedAt time.Time
}

// Store persists active sessions in SQLite. It is safe for concurrent use;
// the database uses a write-ahead log and a single writer connection.
type Store struct {
	db        *sql.DB
	mu        sync.RWMutex
	closeOnce sync.Once

	startStmt *sql.Stmt
	stopStmt  *sql.Stmt
	countStmt *sql.Stmt
	sweepStmt *sql.Stmt
}

// StoreConfig configures the session store.
type StoreConfig struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds.
	BusyTimeout time.Duration
}

// NewStore opens (or creates) a session store at dbPath with defaults.
func NewStore(dbPath string) (*Store, error) {
	return NewStoreWithConfig(StoreConfig{DBPath: dbPath})
}

// NewStoreWithConfig opens a session store with custom configuration.
func NewStoreWithConfig(cfg StoreConfig) (*Store, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.DBPath, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT NOT NULL PRIMARY KEY,
		user_name TEXT NOT NULL,
		nas_identifier TEXT NOT NULL,
		started_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_name);
	CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) prepareStatements() error {
	var err error

	s.startStmt, err = s.db.Prepare(`
		INSERT INTO sessions (id, user_name, nas_identifier, started_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			user_name = excluded.user_name,
			nas_identifier = excluded.nas_identifier,
			started_at = excluded.started_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare start statement: %w", err)
	}

	s.stopStmt, err = s.db.Prepare(`DELETE FROM sessions WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare stop statement: %w", err)
	}

	s.countStmt, err = s.db.Prepare(`SELECT COUNT(*) FROM sessions WHERE user_name = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare count statement: %w", err)
	}

	s.sweepStmt, err = s.db.Prepare(`DELETE FROM sessions WHERE started_at < ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare sweep statement: %w", err)
	}

	return nil
}

// Start records a session as live. Re-recording an existing session ID
// replaces the previous row.
func (s *Store) Start(ctx context.Context, sess *Session) error {
	if sess == nil {
		return fmt.Errorf("session cannot be nil")
	}
	if sess.ID == "" {
		return fmt.Errorf("session id cannot be empty")
	}
	if sess.UserName == "" {
		return fmt.Errorf("user name cannot be empty")
	}

	started := sess.StartedAt
	if started.IsZero() {
		started = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.startStmt.ExecContext(ctx, sess.ID, sess.UserName, sess.NASIdentifier, started.Unix())
	if err != nil {
		return fmt.Errorf("failed to record session start: %w", err)
	}
	return nil
}

// Stop removes a session. Stopping an unknown session is not an error.
func (s *Store) Stop(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session id cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.stopStmt.ExecContext(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to record session stop: %w", err)
	}
	return nil
}

// CountByUser returns the number of live sessions for a user.
func (s *Store) CountByUser(ctx context.Context, userName string) (uint64, error) {
	if userName == "" {
		return 0, fmt.Errorf("user name cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var n uint64
	if err := s.countStmt.QueryRowContext(ctx, userName).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return n, nil
}

// Cleanup removes sessions that started before the cutoff, catching rows
// orphaned by clients that never sent a stop.
func (s *Store) Cleanup(ctx context.Context, olderThan time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.sweepStmt.ExecContext(ctx, olderThan.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to sweep sessions: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(deleted), nil
}

// Close releases the store. Close is idempotent.
func (s *Store) Close() error {
	var closeErr error
	s.closeOnce.Do(func() {
		for _, stmt := range []*sql.Stmt{s.startStmt, s.stopStmt, s.countStmt, s.sweepStmt} {
			if stmt != nil {
				stmt.Close()
			}
		}
		if s.db != nil {
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			closeErr = s.db.Close()
		}
	})
	return closeErr
}
