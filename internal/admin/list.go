package admin

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/folio/testimonial-relay/internal/i18n"
	"github.com/folio/testimonial-relay/internal/model"
)

type LoadOptions struct {
	// Reset starts over from offset zero and replaces the list.
	Reset bool
	// Silent keeps failures out of the view.
	Silent bool
}

// Load fetches the next page of pending items, or the first page on reset.
// A call made while another load is running returns immediately.
func (c *Controller) Load(ctx context.Context, opts LoadOptions) {
	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return
	}
	if opts.Reset {
		c.offset = 0
		c.hasMore = false
	}
	c.loading = true
	from := c.offset
	gen := c.generation
	c.mu.Unlock()

	c.render()

	page, err := withTimeout(ctx, c.opts.RequestTimeout, func(ctx context.Context) (Page, error) {
		return c.store.ListPending(ctx, from, PageSize)
	})

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		log.Debug().Msg("dropping pending page from a previous session")
		return
	}
	c.loading = false

	if err != nil {
		lv := c.listView()
		c.mu.Unlock()
		log.Warn().Err(err).Int("offset", from).Msg("load pending failed")
		if !opts.Silent {
			lv.Error = c.t(i18n.PendingLoadFailed)
		}
		c.view.RenderPending(lv)
		return
	}

	if opts.Reset {
		c.items = mergeByID(nil, page.Items)
	} else {
		c.items = mergeByID(c.items, page.Items)
	}
	if page.Counted {
		c.hasMore = page.HasMore
	} else {
		c.hasMore = len(page.Items) == PageSize
	}
	c.offset = from + len(page.Items)
	lv := c.listView()
	c.mu.Unlock()

	c.view.RenderPending(lv)
}

// LoadMore appends the next page.
func (c *Controller) LoadMore(ctx context.Context) {
	c.Load(ctx, LoadOptions{})
}

// mergeByID replaces existing entries in place and appends new ones in
// arrival order. The result never holds two items with the same ID.
func mergeByID(existing, incoming []model.PendingItem) []model.PendingItem {
	out := make([]model.PendingItem, 0, len(existing)+len(incoming))
	index := make(map[string]int, len(existing)+len(incoming))
	for _, list := range [][]model.PendingItem{existing, incoming} {
		for _, it := range list {
			if i, ok := index[it.ID]; ok {
				out[i] = it
				continue
			}
			index[it.ID] = len(out)
			out = append(out, it)
		}
	}
	return out
}
