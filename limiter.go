package mdpreview

import (
	"context"
	"runtime"
)

// Export slot sizing constants.
const (
	// MinExportSlots ensures at least one export can run.
	MinExportSlots = 1

	// MaxExportSlots caps simultaneous Chrome instances (~200MB each).
	MaxExportSlots = 8

	// cpuDivisor leaves headroom for Chrome child processes.
	cpuDivisor = 2
)

// ResolveExportSlots determines how many exports may run at once.
// If n > 0, returns n. Otherwise, calculates based on GOMAXPROCS
// (adjusted by automaxprocs for containers).
func ResolveExportSlots(n int) int {
	if n > 0 {
		return n
	}

	available := runtime.GOMAXPROCS(0)
	n = available / cpuDivisor

	if n < MinExportSlots {
		return MinExportSlots
	}
	if n > MaxExportSlots {
		return MaxExportSlots
	}
	return n
}

// slotLimiter bounds concurrent exports. Each export still launches its own
// browser; the limiter only decides how many may be alive together.
type slotLimiter struct {
	sem chan struct{}
}

func newSlotLimiter(n int) *slotLimiter {
	if n < MinExportSlots {
		n = MinExportSlots
	}
	return &slotLimiter{sem: make(chan struct{}, n)}
}

// acquire blocks until a slot is free or ctx is done.
func (l *slotLimiter) acquire(ctx context.Context) error {
	select {
	case l.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *slotLimiter) release() {
	<-l.sem
}

func (l *slotLimiter) size() int {
	return cap(l.sem)
}
