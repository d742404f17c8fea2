package models

import "time"

// Direction of a signal call.
type Direction string

const (
	DirUp   Direction = "UP"
	DirDown Direction = "DOWN"
	DirFlat Direction = "FLAT"
)

// TimeframeScore is the additive indicator score for a single timeframe.
type TimeframeScore struct {
	Timeframe string            `json:"timeframe"`
	Score     float64           `json:"score"`
	Dir       Direction         `json:"dir"`
	Reasons   []string          `json:"reasons"`
	Snapshot  IndicatorSnapshot `json:"snapshot"`
}

// AggregateDecision combines the per-timeframe scores into one call.
// OK is false when no direction cleared the vote/average thresholds and
// strength gates; the caller then falls back to a forced single-timeframe
// decision or a static default.
type AggregateDecision struct {
	OK         bool      `json:"ok"`
	Dir        Direction `json:"dir"`
	Confidence int       `json:"confidence"`
	AvgScore   float64   `json:"avg_score"`
	Reasons    []string  `json:"reasons"`
	Forced     bool      `json:"forced"`
}

// SignalResult is the boundary-facing output of one signal request:
// the structured decision plus the formatted text block the bot layer
// forwards verbatim.
type SignalResult struct {
	OK          bool      `json:"ok"`
	Pair        string    `json:"pair"`
	Timeframe   string    `json:"timeframe"`
	Direction   Direction `json:"direction"`
	Confidence  int       `json:"confidence"`
	Reasons     []string  `json:"reasons"`
	Message     string    `json:"message"`
	Price       float64   `json:"price,omitempty"`
	NoTrade     bool      `json:"no_trade,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}
