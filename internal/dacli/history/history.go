// Package history records install outcomes in a local SQLite database so
// `da watch status` and `da watch history` can show what the watcher has
// been doing.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	// Pure-Go SQLite driver for database/sql (no CGO required)
	_ "modernc.org/sqlite"

	dacerrors "github.com/jpagh/docassemblecli3/internal/dacli/errors"
)

// Record is one completed install attempt
type Record struct {
	ID        int64
	Timestamp time.Time
	Server    string
	Target    string // "package" or "playground:<project>"
	Restart   bool
	Success   bool
	Message   string
	Duration  time.Duration
}

// DB wraps the install history database
type DB struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// DefaultPath returns the default history database location
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".docassemblecli.db"
	}
	return filepath.Join(home, ".docassemblecli.db")
}

// Open opens (creating if needed) the history database at path
func Open(path string) (*DB, error) {
	if path == "" {
		path = DefaultPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, dacerrors.Wrap(err, "failed to create history directory")
	}

	// WAL mode lets status queries run while the watcher is writing
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, dacerrors.Wrap(err, "failed to open history database")
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, dacerrors.Wrap(err, "failed to ping history database")
	}

	h := &DB{db: db, path: path}
	if err := h.createTables(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return h, nil
}

// Close releases the database handle
func (h *DB) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.db == nil {
		return nil
	}
	err := h.db.Close()
	h.db = nil
	return err
}

func (h *DB) createTables() error {
	const schema = `
		CREATE TABLE IF NOT EXISTS installs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
			server TEXT NOT NULL,
			target TEXT NOT NULL,
			restart INTEGER NOT NULL,
			success INTEGER NOT NULL,
			message TEXT,
			duration_ms INTEGER
		);
		CREATE INDEX IF NOT EXISTS idx_installs_timestamp ON installs(timestamp);
	`
	_, err := h.db.Exec(schema)
	if err != nil {
		return dacerrors.Wrap(err, "failed to create history tables")
	}
	return nil
}

// Record stores one install outcome
func (h *DB) Record(rec Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.db == nil {
		return fmt.Errorf("history database is closed")
	}

	_, err := h.db.Exec(
		`INSERT INTO installs (server, target, restart, success, message, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Server, rec.Target, boolInt(rec.Restart), boolInt(rec.Success),
		rec.Message, rec.Duration.Milliseconds(),
	)
	if err != nil {
		return dacerrors.Wrap(err, "failed to record install")
	}
	return nil
}

// Recent returns the latest install records, newest first
func (h *DB) Recent(limit int) ([]Record, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.db == nil {
		return nil, fmt.Errorf("history database is closed")
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := h.db.Query(
		`SELECT id, timestamp, server, target, restart, success, message, duration_ms
		 FROM installs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, dacerrors.Wrap(err, "failed to query history")
	}
	defer func() { _ = rows.Close() }()

	var records []Record
	for rows.Next() {
		var (
			rec        Record
			restart    int
			success    int
			durationMS int64
		)
		if err := rows.Scan(&rec.ID, &rec.Timestamp, &rec.Server, &rec.Target,
			&restart, &success, &rec.Message, &durationMS); err != nil {
			return nil, dacerrors.Wrap(err, "failed to scan history row")
		}
		rec.Restart = restart != 0
		rec.Success = success != 0
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		records = append(records, rec)
	}
	return records, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
