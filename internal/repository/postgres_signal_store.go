package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"signalforge/internal/domain/models"
	applogger "signalforge/pkg/logger"
)

// ErrSignalNotFound is returned when a signal log row does not exist.
var ErrSignalNotFound = errors.New("signal log not found")

const signalLogsSchema = `
CREATE TABLE IF NOT EXISTS signal_logs (
    id           BIGSERIAL PRIMARY KEY,
    pair         TEXT NOT NULL,
    timeframe    TEXT NOT NULL,
    direction    TEXT NOT NULL,
    entry_price  DOUBLE PRECISION NOT NULL DEFAULT 0,
    entry_time   TIMESTAMPTZ NOT NULL,
    source       TEXT NOT NULL DEFAULT 'engine',
    raw_text     TEXT NOT NULL DEFAULT '',
    exit_price   DOUBLE PRECISION,
    exit_time    TIMESTAMPTZ,
    pnl_pct      DOUBLE PRECISION,
    outcome      TEXT,
    evaluated_at TIMESTAMPTZ,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_signal_logs_created ON signal_logs (created_at);
CREATE INDEX IF NOT EXISTS idx_signal_logs_pending ON signal_logs (created_at) WHERE outcome IS NULL;
`

// PostgresSignalStore persists served-signal rows and their evaluations.
type PostgresSignalStore struct {
	db     *sqlx.DB
	logger *applogger.Logger
}

// NewPostgresSignalStore connects to Postgres and ensures the schema.
func NewPostgresSignalStore(dsn string, logger *applogger.Logger) (*PostgresSignalStore, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if _, err := db.Exec(signalLogsSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("signal_logs schema: %w", err)
	}
	return &PostgresSignalStore{db: db, logger: logger}, nil
}

func (s *PostgresSignalStore) InsertSignalLog(ctx context.Context, row *models.SignalLog) (int64, error) {
	const q = `
        INSERT INTO signal_logs (pair, timeframe, direction, entry_price, entry_time, source, raw_text, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id
    `
	createdAt := row.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	var id int64
	err := s.db.QueryRowContext(ctx, q,
		row.Pair, row.Timeframe, string(row.Direction), row.EntryPrice,
		row.EntryTime, row.Source, row.RawText, createdAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert signal log: %w", err)
	}
	return id, nil
}

func (s *PostgresSignalStore) GetSignalLog(ctx context.Context, id int64) (*models.SignalLog, error) {
	const q = `SELECT * FROM signal_logs WHERE id = $1`
	var row models.SignalLog
	if err := s.db.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSignalNotFound
		}
		return nil, fmt.Errorf("get signal log: %w", err)
	}
	return &row, nil
}

func (s *PostgresSignalStore) ListSignalLogsSince(ctx context.Context, since time.Time, limit int) ([]models.SignalLog, error) {
	const q = `
        SELECT * FROM signal_logs
        WHERE created_at >= $1
        ORDER BY created_at DESC
        LIMIT $2
    `
	out := make([]models.SignalLog, 0, limit)
	if err := s.db.SelectContext(ctx, &out, q, since, limit); err != nil {
		return nil, fmt.Errorf("list signal logs: %w", err)
	}
	return out, nil
}

func (s *PostgresSignalStore) ListPendingEvaluations(ctx context.Context, limit int) ([]models.SignalLog, error) {
	const q = `
        SELECT * FROM signal_logs
        WHERE outcome IS NULL
        ORDER BY created_at ASC
        LIMIT $1
    `
	out := make([]models.SignalLog, 0, limit)
	if err := s.db.SelectContext(ctx, &out, q, limit); err != nil {
		return nil, fmt.Errorf("list pending evaluations: %w", err)
	}
	return out, nil
}

func (s *PostgresSignalStore) UpdateSignalEvaluation(ctx context.Context, id int64, ev *models.Evaluation) error {
	const q = `
        UPDATE signal_logs
        SET exit_price = $2, exit_time = $3, pnl_pct = $4, outcome = $5, evaluated_at = now()
        WHERE id = $1
    `
	res, err := s.db.ExecContext(ctx, q, id, ev.ExitPrice, ev.ExitTime, ev.PnlPct, ev.Outcome)
	if err != nil {
		return fmt.Errorf("update signal evaluation: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrSignalNotFound
	}
	return nil
}

func (s *PostgresSignalStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresSignalStore) Close() error {
	return s.db.Close()
}
