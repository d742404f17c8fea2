package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"signalforge/internal/domain/models"
	domrepo "signalforge/internal/domain/repository"
	pkgch "signalforge/pkg/clickhouse"
	applogger "signalforge/pkg/logger"
)

// Archive keeps base 1-minute bars only; higher timeframes are resampled
// by readers.
const archiveTable = "signalforge.candles_1m"

var archiveSchema = []string{
	`CREATE DATABASE IF NOT EXISTS signalforge`,
	`CREATE TABLE IF NOT EXISTS ` + archiveTable + ` (
        pair       String,
        open_time  Int64,
        open       Float64,
        high       Float64,
        low        Float64,
        close      Float64,
        vol        Float64,
        close_time Int64
    ) ENGINE = ReplacingMergeTree
    ORDER BY (pair, open_time)`,
}

// CHCandleArchive is the append-only candle archive backed by ClickHouse.
// The evaluator reads it when the live providers' lookback window no
// longer covers a signal's entry time.
type CHCandleArchive struct {
	client *pkgch.Client
	db     *sql.DB
	logger *applogger.Logger
}

// NewCHCandleArchive ensures the schema and returns the archive.
func NewCHCandleArchive(ctx context.Context, client *pkgch.Client, logger *applogger.Logger) (*CHCandleArchive, error) {
	if err := client.InitSchema(ctx, archiveSchema); err != nil {
		return nil, fmt.Errorf("candle archive schema: %w", err)
	}
	return &CHCandleArchive{client: client, db: client.DB(), logger: logger}, nil
}

func (a *CHCandleArchive) Append(ctx context.Context, pair string, tf domrepo.Timeframe, candles []models.Candle) error {
	if tf != domrepo.TF1m {
		return fmt.Errorf("archive stores 1m bars only, got %s", tf)
	}
	if len(candles) == 0 {
		return nil
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("archive begin: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO `+archiveTable+` (pair, open_time, open, high, low, close, vol, close_time) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("archive prepare: %w", err)
	}
	defer stmt.Close()

	for _, c := range candles {
		if _, err := stmt.ExecContext(ctx, pair, c.OpenTime, c.Open, c.High, c.Low, c.Close, c.Volume, c.CloseTime); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("archive insert: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("archive commit: %w", err)
	}
	return nil
}

func (a *CHCandleArchive) Read(ctx context.Context, pair string, tf domrepo.Timeframe, from, to time.Time) ([]models.Candle, error) {
	if tf != domrepo.TF1m {
		return nil, fmt.Errorf("archive stores 1m bars only, got %s", tf)
	}
	start := time.Now()

	const q = `
        SELECT open_time, open, high, low, close, vol, close_time
        FROM ` + archiveTable + `
        WHERE pair = ? AND open_time >= ? AND open_time < ?
        ORDER BY open_time ASC
    `
	rows, err := a.db.QueryContext(ctx, q, pair, from.UnixMilli(), to.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("archive query: %w", err)
	}
	defer rows.Close()

	out := make([]models.Candle, 0, 64)
	for rows.Next() {
		var c models.Candle
		if err := rows.Scan(&c.OpenTime, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume, &c.CloseTime); err != nil {
			return nil, fmt.Errorf("archive scan: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("archive rows: %w", err)
	}

	a.logger.Debug("candle archive read",
		applogger.String("pair", pair),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

func (a *CHCandleArchive) Health(ctx context.Context) error {
	return a.client.Health(ctx)
}

func (a *CHCandleArchive) Close() error {
	return a.client.Close()
}
