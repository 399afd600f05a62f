package admin

import (
	"context"
	"time"
)

// StartPolling refreshes the pending list every PollInterval while the
// session stays valid. Any running poller is stopped first.
func (c *Controller) StartPolling(ctx context.Context) {
	c.StopPolling()

	done := make(chan struct{})
	c.mu.Lock()
	c.pollDone = done
	c.mu.Unlock()

	go c.poll(ctx, done)
}

// StopPolling is idempotent and may be called from inside a tick.
func (c *Controller) StopPolling() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pollDone != nil {
		close(c.pollDone)
		c.pollDone = nil
	}
}

// Polling reports whether a poller is active.
func (c *Controller) Polling() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pollDone != nil
}

func (c *Controller) poll(ctx context.Context, done chan struct{}) {
	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			c.mu.Lock()
			if c.pollDone == done {
				c.pollDone = nil
			}
			c.mu.Unlock()
			return
		case <-ticker.C:
		}

		select {
		case <-done:
			return
		default:
		}

		// the guard stops polling itself when the session is gone
		if c.CheckAdmin(ctx) == nil {
			continue
		}
		c.Load(ctx, LoadOptions{Reset: true, Silent: true})
	}
}
