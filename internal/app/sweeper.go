package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/tpn/displaylauncher/internal/platform/correlation"
)

const defaultSweepInterval = time.Minute

type artifactSweeper interface {
	SweepStaleArtifacts(ctx context.Context) int
}

// Sweeper periodically expires staged archives that were never cleaned up,
// e.g. because the process restarted before the delayed delete fired.
type Sweeper struct {
	target   artifactSweeper
	interval time.Duration
	clock    clockwork.Clock
}

func NewSweeper(target artifactSweeper, interval time.Duration, clock clockwork.Clock) *Sweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &Sweeper{
		target:   target,
		interval: interval,
		clock:    clock,
	}
}

// Run sweeps once immediately and then on every tick. It blocks until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	tickCtx := correlation.WithID(ctx, correlation.NewID())
	if removed := s.target.SweepStaleArtifacts(tickCtx); removed > 0 {
		slog.InfoContext(tickCtx, "Removed stale staged archives", "count", removed)
	}
}
