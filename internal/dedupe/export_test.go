package dedupe

import "time"

// SetClock replaces the guard's time source.
func (g *ReplayGuard) SetClock(now func() time.Time) {
	g.now = now
}
