package kernel

import (
	"fmt"
	"log/slog"
	"time"
)

// RetrySupervisor retries a crashed server-wide task (spec.md §4.7):
// at most MaxRetries times in quick succession, resetting the counter
// once the most recent crash is further back than ResetWindow.
// Grounded on internal/connwatch's same-shaped numeric backoff knobs,
// but a flat retry count + time-window reset rather than exponential
// backoff, per spec.md's exact wording for this particular supervisor.
type RetrySupervisor struct {
	MaxRetries  int
	ResetWindow time.Duration
}

// NewRetrySupervisor returns a RetrySupervisor with spec.md's defaults:
// 3 retries, a 5 second reset window.
func NewRetrySupervisor() *RetrySupervisor {
	return &RetrySupervisor{MaxRetries: 3, ResetWindow: 5 * time.Second}
}

// Run calls fn repeatedly until it returns nil or ctx has been
// cancelled inside fn (detected via ctx.Err()), retrying crashes up to
// MaxRetries times in a row. If the previous crash was longer ago than
// ResetWindow, the retry counter resets to zero first.
func (r *RetrySupervisor) Run(logger *slog.Logger, fn func() error, cancelled func() bool) error {
	if logger == nil {
		logger = slog.Default()
	}
	var retries int
	var lastCrash time.Time

	for {
		err := fn()
		if err == nil {
			return nil
		}
		if cancelled != nil && cancelled() {
			return err
		}

		now := time.Now()
		if !lastCrash.IsZero() && now.Sub(lastCrash) > r.ResetWindow {
			retries = 0
		}
		lastCrash = now
		retries++

		if retries > r.MaxRetries {
			return fmt.Errorf("kernel: giving up after %d retries: %w", retries-1, err)
		}
		logger.Warn("kernel: supervised task crashed, retrying", "attempt", retries, "max_retries", r.MaxRetries, "error", err)
	}
}
