package token

import (
	"sync/atomic"
	"time"

	"github.com/eigerco/hourglass/internal/ledgertime"
)

var now = time.Now

// TickSource supplies the tick an operation is evaluated at. The
// facade reads the source exactly once per call, so one call sees one
// consistent instant. Implementations must be safe for concurrent use.
type TickSource interface {
	Ticks() ledgertime.Tick
}

// ManualClock is a settable tick source for tests and simulation runs.
type ManualClock struct {
	ticks atomic.Uint64
}

// NewManualClock returns a manual clock positioned at start.
func NewManualClock(start ledgertime.Tick) *ManualClock {
	c := &ManualClock{}
	c.ticks.Store(uint64(start))
	return c
}

// Ticks returns the clock's current position.
func (c *ManualClock) Ticks() ledgertime.Tick {
	return ledgertime.Tick(c.ticks.Load())
}

// Set jumps the clock to an absolute tick.
func (c *ManualClock) Set(t ledgertime.Tick) {
	c.ticks.Store(uint64(t))
}

// Advance moves the clock forward by n ticks.
func (c *ManualClock) Advance(n uint64) {
	c.ticks.Add(n)
}

// WallClock maps wall time onto the tick axis: one tick per TickEvery
// elapsed since Origin. Instants before Origin clamp to tick zero.
type WallClock struct {
	Origin    time.Time
	TickEvery time.Duration
}

// NewWallClock validates the mapping.
func NewWallClock(origin time.Time, tickEvery time.Duration) (WallClock, error) {
	if tickEvery <= 0 {
		return WallClock{}, ErrInvalidTickDuration
	}
	return WallClock{Origin: origin, TickEvery: tickEvery}, nil
}

// Ticks returns the number of whole tick intervals elapsed since
// Origin.
func (c WallClock) Ticks() ledgertime.Tick {
	if c.TickEvery <= 0 {
		return 0
	}
	elapsed := now().Sub(c.Origin)
	if elapsed < 0 {
		return 0
	}
	return ledgertime.Tick(elapsed / c.TickEvery)
}
