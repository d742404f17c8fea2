package confluence

import (
	"hash/fnv"
	"math"

	"signalforge/internal/domain/models"
)

const maxReasons = 3

// Aggregate combines the per-timeframe scores into one directional call.
// It is a pure function of its inputs: same snapshots, same decision.
func (e *Engine) Aggregate(scores []models.TimeframeScore) models.AggregateDecision {
	p := paramsFor(e.cfg.Mode)

	var sum float64
	var upVotes, downVotes int
	for _, s := range scores {
		sum += s.Score
		switch s.Dir {
		case models.DirUp:
			upVotes++
		case models.DirDown:
			downVotes++
		}
	}
	avg := 0.0
	if len(scores) > 0 {
		avg = sum / float64(len(scores))
	}

	dir := models.DirFlat
	switch {
	case upVotes >= p.requiredVotes && avg >= p.requiredAvg:
		dir = models.DirUp
	case downVotes >= p.requiredVotes && -avg >= p.requiredAvg:
		dir = models.DirDown
	}

	if dir == models.DirFlat || !e.passGates(dir, scores) {
		return models.AggregateDecision{OK: false, Dir: models.DirFlat, AvgScore: avg}
	}

	return models.AggregateDecision{
		OK:         true,
		Dir:        dir,
		Confidence: confidenceFromAvg(avg),
		AvgScore:   avg,
		Reasons:    collectReasons(dir, scores),
	}
}

// Forced attempts a single-timeframe decision after the ensemble failed.
// The timeframe must point somewhere on its own and sit in a tradeable
// ADX/ATR regime; confidence is pinned to the floor.
func (e *Engine) Forced(score models.TimeframeScore) (models.AggregateDecision, bool) {
	if score.Dir == models.DirFlat {
		return models.AggregateDecision{}, false
	}
	if !e.snapshotRegimeOK(score.Snapshot) {
		return models.AggregateDecision{}, false
	}
	return models.AggregateDecision{
		OK:         true,
		Dir:        score.Dir,
		Confidence: minConfidence,
		AvgScore:   score.Score,
		Reasons:    collectReasons(score.Dir, []models.TimeframeScore{score}),
		Forced:     true,
	}, true
}

// StaticDefault is the last resort when neither the ensemble nor any forced
// timeframe produced a call. Direction is derived from a hash of
// (pair, timeframe, current UTC minute) so repeated requests within the
// same minute agree.
func (e *Engine) StaticDefault(pair, tf string) models.AggregateDecision {
	h := fnv.New32a()
	h.Write([]byte(pair))
	h.Write([]byte{'|'})
	h.Write([]byte(tf))
	h.Write([]byte{'|'})
	h.Write([]byte(e.now().UTC().Format("200601021504")))

	dir := models.DirUp
	reason := "Weak upside drift, low conviction"
	if h.Sum32()%2 == 1 {
		dir = models.DirDown
		reason = "Weak downside drift, low conviction"
	}
	return models.AggregateDecision{
		OK:         true,
		Dir:        dir,
		Confidence: minConfidence,
		Reasons:    []string{reason},
		Forced:     true,
	}
}

const (
	minConfidence = 2
	maxConfidence = 5
)

// confidenceFromAvg maps the average score magnitude into the 2..5 band.
func confidenceFromAvg(avg float64) int {
	c := int(math.Round(float64(minConfidence) + math.Min(3, math.Abs(avg))))
	if c < minConfidence {
		c = minConfidence
	}
	if c > maxConfidence {
		c = maxConfidence
	}
	return c
}

// collectReasons merges reasons from timeframes agreeing with the chosen
// direction, deduplicated in first-seen order, capped at maxReasons.
func collectReasons(dir models.Direction, scores []models.TimeframeScore) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, s := range scores {
		if s.Dir != dir {
			continue
		}
		for _, r := range s.Reasons {
			if _, ok := seen[r]; ok {
				continue
			}
			seen[r] = struct{}{}
			out = append(out, r)
			if len(out) == maxReasons {
				return out
			}
		}
	}
	return out
}
