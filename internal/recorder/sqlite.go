package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists tick and signal events to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger zerolog.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboards can read while the bot writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger.With().Str("component", "sqlite").Logger()}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.logger.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS price_ticks (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			run_id      TEXT,
			instrument  TEXT NOT NULL,
			price       REAL NOT NULL,
			insecure    INTEGER NOT NULL DEFAULT 0,
			history_len INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ticks_inst_ts ON price_ticks(instrument, timestamp)`,

		`CREATE TABLE IF NOT EXISTS sell_signals (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			run_id       TEXT,
			instrument   TEXT NOT NULL,
			price        REAL,
			ema_fast     REAL,
			ema_slow     REAL,
			rsi          REAL,
			prev_rsi     REAL,
			conditions   TEXT,
			samples      INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_inst_ts ON sell_signals(instrument, timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordTick(ctx context.Context, rec *TickRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	insecure := 0
	if rec.Insecure {
		insecure = 1
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO price_ticks
		(timestamp, run_id, instrument, price, insecure, history_len)
		VALUES (?,?,?,?,?,?)`,
		rec.At.Unix(), rec.RunID, string(rec.Instrument), rec.Price, insecure, rec.HistoryLen,
	)
	return err
}

func (r *SQLiteRecorder) RecordSignal(ctx context.Context, rec *SignalRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sig := rec.Signal
	_, err := r.db.ExecContext(ctx, `INSERT INTO sell_signals
		(timestamp, run_id, instrument, price, ema_fast, ema_slow, rsi, prev_rsi, conditions, samples)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		rec.At.Unix(), rec.RunID, string(rec.Instrument),
		sig.Curr.Price, sig.Curr.EMAFast, sig.Curr.EMASlow, sig.Curr.RSI, sig.Prev.RSI,
		conditionNames(sig), sig.Samples,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
