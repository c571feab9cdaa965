// Package sqlite is the persistent ledger store.
// All ledger mutations run as a single immediate transaction with a bounded
// busy-retry loop; readers use plain snapshot queries that never block writers.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/tradewave-network/tradewave/internal/domain"
)

// Options tunes store behavior.
type Options struct {
	BusyTimeout time.Duration // How long a writer waits for the write lock
	MaxRetries  int           // Transaction attempts before surfacing ErrConflict
}

// DefaultOptions returns production defaults.
func DefaultOptions() Options {
	return Options{
		BusyTimeout: 5 * time.Second,
		MaxRetries:  5,
	}
}

// DB wraps the SQLite database holding the ledger.
type DB struct {
	db   *sql.DB
	opts Options
}

// Open opens (or creates) the ledger database under dir with default options.
func Open(dir string) (*DB, error) {
	return OpenWith(dir, DefaultOptions())
}

// OpenWith opens the ledger database with explicit options.
func OpenWith(dir string, opts Options) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultOptions().MaxRetries
	}
	if opts.BusyTimeout <= 0 {
		opts.BusyTimeout = DefaultOptions().BusyTimeout
	}

	// _txlock=immediate takes the write lock at BEGIN, so two ledger
	// mutations on the same store serialize instead of deadlocking on a
	// read-to-write upgrade.
	dsn := fmt.Sprintf("file:%s?_txlock=immediate&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(%d)",
		filepath.Join(dir, "tradewave.db"), opts.BusyTimeout.Milliseconds())

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db := &DB{db: sqlDB, opts: opts}
	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return db, nil
}

// Close closes the underlying database.
func (db *DB) Close() error {
	return db.db.Close()
}

// migrate applies the schema migrations, one statement at a time.
func (db *DB) migrate() error {
	for _, stmt := range Migrations() {
		if _, err := db.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

// ─── Transaction Helper ─────────────────────────────────────────────────────

// withTx runs fn inside a transaction, retrying with linear backoff when the
// write lock cannot be acquired. Exhausting the attempts surfaces
// domain.ErrConflict. Any error from fn rolls back every partial effect.
func (db *DB) withTx(fn func(tx *sql.Tx) error) error {
	var lastErr error
	for attempt := 0; attempt < db.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * 25 * time.Millisecond)
		}

		tx, err := db.db.Begin()
		if err != nil {
			if isBusy(err) {
				lastErr = err
				continue
			}
			return err
		}

		if err := fn(tx); err != nil {
			tx.Rollback()
			if isBusy(err) {
				lastErr = err
				continue
			}
			return err
		}

		if err := tx.Commit(); err != nil {
			if isBusy(err) {
				lastErr = err
				continue
			}
			return err
		}
		return nil
	}
	return fmt.Errorf("%w (last: %v)", domain.ErrConflict, lastErr)
}

// isBusy reports whether err is a lock-contention error worth retrying.
func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}

// isUniqueViolation reports whether err is a uniqueness-constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isFKViolation reports whether err is a foreign-key failure, meaning a
// referenced row does not exist.
func isFKViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// ─── Scan Helpers ───────────────────────────────────────────────────────────

func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

// parseNullTime handles nullable timestamp columns (zero time when NULL).
func parseNullTime(s sql.NullString) time.Time {
	if !s.Valid {
		return time.Time{}
	}
	return parseTime(s.String)
}

// parseDec parses a stored decimal column. Stored values were written by
// decimal.String, so a parse failure means a corrupted row.
func parseDec(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("corrupted decimal column %q: %w", s, err)
	}
	return d, nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
