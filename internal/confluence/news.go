package confluence

import (
	"errors"
	"time"
)

// ErrNewsWindow is returned by the signal path when the strict news filter
// blocks output near a scheduled-release window.
var ErrNewsWindow = errors.New("news risk window")

// InNewsWindow reports whether t falls in the blocked minutes around the
// top and bottom of each UTC hour (0-2 and 30-32), a proxy for scheduled
// economic releases.
func InNewsWindow(t time.Time) bool {
	m := t.UTC().Minute()
	return m <= 2 || (m >= 30 && m <= 32)
}

// CheckNews gates output on the news window when the strict filter is
// enabled.
func (e *Engine) CheckNews() error {
	if !e.cfg.StrictNews {
		return nil
	}
	if InNewsWindow(e.now()) {
		return ErrNewsWindow
	}
	return nil
}
