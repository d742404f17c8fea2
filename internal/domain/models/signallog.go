package models

import "time"

// Signal outcome values. A nil Outcome on SignalLog means evaluation is
// still pending.
const (
	OutcomeWin  = "WIN"
	OutcomeLoss = "LOSS"
)

// SignalLog is one served-signal row: written when a signal is delivered,
// later updated by the evaluator with the 4-bar exit.
type SignalLog struct {
	ID          int64      `db:"id" json:"id"`
	Pair        string     `db:"pair" json:"pair"`
	Timeframe   string     `db:"timeframe" json:"timeframe"`
	Direction   Direction  `db:"direction" json:"direction"`
	EntryPrice  float64    `db:"entry_price" json:"entry_price"`
	EntryTime   time.Time  `db:"entry_time" json:"entry_time"`
	Source      string     `db:"source" json:"source"`
	RawText     string     `db:"raw_text" json:"raw_text"`
	ExitPrice   *float64   `db:"exit_price" json:"exit_price,omitempty"`
	ExitTime    *time.Time `db:"exit_time" json:"exit_time,omitempty"`
	PnlPct      *float64   `db:"pnl_pct" json:"pnl_pct,omitempty"`
	Outcome     *string    `db:"outcome" json:"outcome,omitempty"`
	EvaluatedAt *time.Time `db:"evaluated_at" json:"evaluated_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// Evaluated reports whether the row already carries an outcome.
func (s *SignalLog) Evaluated() bool { return s.Outcome != nil }

// Evaluation is the result of re-scoring a served signal at the fixed
// +4-bar horizon.
type Evaluation struct {
	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price"`
	PnlPct     float64   `json:"pnl_pct"`
	ExitTime   time.Time `json:"exit_time"`
	Outcome    string    `json:"outcome"`
}
