// internal/poller/runner.go
package poller

import (
	"context"
	"time"
)

// Run alternates a full pass with a fixed sleep until ctx is cancelled.
// The interval counts from the end of a pass, so passes never overlap.
func (d *Driver) Run(ctx context.Context) {
	for {
		if err := d.PollOnce(ctx); err != nil {
			return
		}
		if err := d.sleep(ctx, d.cfg.Interval); err != nil {
			return
		}
	}
}

func sleepCtx(ctx context.Context, dur time.Duration) error {
	t := time.NewTimer(dur)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
