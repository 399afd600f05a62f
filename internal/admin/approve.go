package admin

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/folio/testimonial-relay/internal/i18n"
	"github.com/folio/testimonial-relay/internal/model"
)

// Approve publishes one pending item. The item's control is disabled while
// the update runs; a second call for the same ID in that window is ignored.
func (c *Controller) Approve(ctx context.Context, id string) {
	if id == "" {
		return
	}

	c.mu.Lock()
	if _, busy := c.approving[id]; busy {
		c.mu.Unlock()
		return
	}
	c.approving[id] = struct{}{}
	gen := c.generation
	c.mu.Unlock()

	c.render()

	err := doWithTimeout(ctx, c.opts.RequestTimeout, func(ctx context.Context) error {
		return c.store.Approve(ctx, id)
	})

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	delete(c.approving, id)

	if err != nil {
		c.mu.Unlock()
		log.Warn().Err(err).Str("id", id).Msg("approve failed")
		c.notify(TargetInvite, i18n.ApproveFailed, true)
		c.render()
		return
	}

	c.items = removeByID(c.items, id)
	backfill := len(c.items) == 0 && c.hasMore
	c.mu.Unlock()

	if backfill {
		c.Load(ctx, LoadOptions{Reset: true, Silent: true})
		return
	}
	c.render()
}

func removeByID(items []model.PendingItem, id string) []model.PendingItem {
	out := items[:0]
	for _, it := range items {
		if it.ID != id {
			out = append(out, it)
		}
	}
	return out
}
