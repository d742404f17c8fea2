package confluence

import "time"

// Mode selects how demanding the ensemble is before accepting a direction.
type Mode string

const (
	ModePro        Mode = "pro"
	ModeBalanced   Mode = "balanced"
	ModeAggressive Mode = "aggressive"
)

// NormalizeMode maps a raw string to a valid mode, defaulting to pro.
func NormalizeMode(s string) Mode {
	switch Mode(s) {
	case ModePro, ModeBalanced, ModeAggressive:
		return Mode(s)
	default:
		return ModePro
	}
}

// Config tunes the aggregator. Zero values are filled with the defaults the
// engine ships with; construct via NewEngine.
type Config struct {
	Mode          Mode
	MinADX        float64
	MinATRPct     float64
	MaxATRPct     float64
	StrictSession bool
	StrictNews    bool
}

// DefaultConfig returns the stock aggregator settings.
func DefaultConfig() Config {
	return Config{
		Mode:          ModePro,
		MinADX:        18,
		MinATRPct:     0.02,
		MaxATRPct:     2.5,
		StrictSession: true,
		StrictNews:    true,
	}
}

// modeParams are the per-mode ensemble thresholds: how many timeframes must
// vote the same way, the minimum average score magnitude, and the strength
// gate counts applied after the vote passes.
type modeParams struct {
	requiredVotes int
	requiredAvg   float64
	minRSICount   int
	minEMACount   int
	maxExtremeBB  int
	minADXCount   int
}

func paramsFor(m Mode) modeParams {
	switch m {
	case ModeBalanced:
		return modeParams{requiredVotes: 2, requiredAvg: 1.5, minRSICount: 2, minEMACount: 2, maxExtremeBB: 1, minADXCount: 1}
	case ModeAggressive:
		return modeParams{requiredVotes: 2, requiredAvg: 1.5, minRSICount: 1, minEMACount: 1, maxExtremeBB: 2, minADXCount: 1}
	default: // pro
		return modeParams{requiredVotes: 3, requiredAvg: 2.0, minRSICount: 2, minEMACount: 2, maxExtremeBB: 1, minADXCount: 2}
	}
}

// Engine is the confluence aggregator: pure scoring and gating over
// indicator snapshots, no I/O. now is injectable for session/news tests.
type Engine struct {
	cfg Config
	now func() time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine builds an aggregator with the given config. Unset numeric
// fields fall back to the defaults.
func NewEngine(cfg Config, opts ...Option) *Engine {
	def := DefaultConfig()
	if cfg.Mode == "" {
		cfg.Mode = def.Mode
	}
	if cfg.MinADX <= 0 {
		cfg.MinADX = def.MinADX
	}
	if cfg.MinATRPct <= 0 {
		cfg.MinATRPct = def.MinATRPct
	}
	if cfg.MaxATRPct <= 0 {
		cfg.MaxATRPct = def.MaxATRPct
	}
	e := &Engine{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.cfg }
