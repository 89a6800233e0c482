package store

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"AHRSentinel/internal/model"
)

// SQLiteLog persists the valuation history to a SQLite database.
type SQLiteLog struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteLog opens (or creates) the SQLite database and runs migrations.
func NewSQLiteLog(dbPath string, log zerolog.Logger) (*SQLiteLog, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL: readers may run while the bot writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	l := &SQLiteLog{db: db, log: log.With().Str("component", "sqlite_log").Logger()}
	if err := l.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	l.log.Info().Str("path", dbPath).Msg("sqlite valuation log opened")
	return l, nil
}

func (l *SQLiteLog) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS valuation_log (
			id    INTEGER PRIMARY KEY AUTOINCREMENT,
			date  TEXT NOT NULL,
			time  TEXT NOT NULL,
			value REAL NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_valuation_date ON valuation_log(date)`,
	}
	for _, s := range stmts {
		if _, err := l.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (l *SQLiteLog) Append(e model.ValuationEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := l.db.Exec(`INSERT INTO valuation_log (date, time, value) VALUES (?,?,?)`,
		e.Date, e.Time, e.Value)
	return err
}

func (l *SQLiteLog) ReadAll() ([]model.ValuationEntry, error) {
	rows, err := l.db.Query(`SELECT date, time, value FROM valuation_log ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ValuationEntry
	for rows.Next() {
		var e model.ValuationEntry
		if err := rows.Scan(&e.Date, &e.Time, &e.Value); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (l *SQLiteLog) Close() error {
	l.log.Info().Msg("closing sqlite valuation log")
	return l.db.Close()
}
