package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"
	"github.com/tpn/displaylauncher/internal/adapter/metrics"
	"github.com/tpn/displaylauncher/internal/platform/retry"
)

// Task is a long-running unit of work. Returning nil means it stopped on purpose.
type Task func(ctx context.Context) error

// Supervisor reruns a failing task under a bounded restart policy.
type Supervisor struct {
	name    string
	policy  retry.RestartPolicy
	clock   clockwork.Clock
	metrics *metrics.GatewayMetrics
}

func NewSupervisor(name string, policy retry.RestartPolicy, clock clockwork.Clock, m *metrics.GatewayMetrics) *Supervisor {
	return &Supervisor{
		name:    name,
		policy:  policy,
		clock:   clock,
		metrics: m,
	}
}

// Run blocks until the task stops cleanly, ctx is cancelled, or the restart
// budget is spent. A run that lasted at least StableAfter refills the budget.
func (s *Supervisor) Run(ctx context.Context, task Task) error {
	attempt := 0
	for {
		started := s.clock.Now()
		err := task(ctx)
		if err == nil || ctx.Err() != nil {
			return nil
		}

		if s.policy.Stable(s.clock.Since(started)) {
			attempt = 0
		}
		attempt++

		delay, ok := s.policy.Next(attempt)
		if !ok {
			slog.ErrorContext(ctx, "Max restart attempts reached", "task", s.name, "attempts", attempt-1, "error", err)
			return fmt.Errorf("%s failed after %d restarts: %w", s.name, attempt-1, err)
		}

		slog.WarnContext(ctx, "Task failed, restarting", "task", s.name, "attempt", attempt, "delay", delay, "error", err)
		s.metrics.Restarted()

		select {
		case <-ctx.Done():
			return nil
		case <-s.clock.After(delay):
		}
	}
}
