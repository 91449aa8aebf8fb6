package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// watch is the steady-state poll loop. Each tick fetches events newer than
// the cursor and applies them in one transaction; a store failure rolls
// the cycle back and the next tick retries the same events. The loop is
// cancellable between cycles only; an active transaction always commits or
// rolls back first.
func (e *Engine) watch(ctx context.Context) error {
	slog.Info("watching", "poll_freq", e.opts.PollFreq)

	ticker := time.NewTicker(e.opts.PollFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("watch stopping", "reason", ctx.Err())
			return nil
		case <-ticker.C:
		}

		e.state = StateApplying
		applied, err := e.applySince(ctx)
		e.state = StateIdle

		if err != nil {
			var re *ReplicationError
			if errors.As(err, &re) {
				switch re.Code {
				case CodeStoreIO, CodeUpstreamTransient:
					// Cycle rolled back; retry on the next tick.
					slog.Warn("apply cycle failed, will retry", "err", err)
					continue
				}
			}
			return err
		}

		if applied > 0 {
			slog.Debug("cycle applied", "events", applied)
		}
	}
}
