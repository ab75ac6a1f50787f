package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/brightpath/dashsync/cache"
	"github.com/brightpath/dashsync/fetch"
	"github.com/brightpath/dashsync/model"
)

// orchestrator runs one fetch cycle for a fixed subject and priority order.
// It is the only writer of the snapshot store besides optimistic updates.
type orchestrator struct {
	subjectID string
	order     []model.EntityType
	fetchers  fetch.Set
	cache     *cache.Store
	store     *Store
	logger    *slog.Logger
	metrics   *Metrics
	now       func() time.Time
}

// outcome is one entity fetch result: a payload or a reason, never both.
type outcome struct {
	payload model.Payload
	err     error
}

// run executes a full cycle for the session. The caller has already marked
// the cycle in flight via beginCycle. Per-entity fetch failures are isolated
// and never returned; only a failure before any fetch is issued rejects the
// run, which is the one path the retry scheduler handles.
func (o *orchestrator) run(sess *session) error {
	if err := o.validate(); err != nil {
		return err
	}

	// Hydrate from cache in priority order so valid stale data paints before
	// any network call completes.
	for _, t := range o.order {
		payload := o.cache.Get(sess.ctx, t)
		o.metrics.cacheLookup(t, payload != nil)
		if payload == nil {
			continue
		}
		if !sess.isCurrent() {
			o.metrics.cycleOutcome("superseded")
			return nil
		}
		o.store.merge(payload, sess.token, sess.gen)
	}

	// Issue all fetches up front. Results land in per-entity channels; no
	// fetch waits on a sibling.
	results := make(map[model.EntityType]chan outcome, len(o.order))
	g, gctx := errgroup.WithContext(sess.ctx)
	for _, t := range o.order {
		ch := make(chan outcome, 1)
		results[t] = ch
		fetcher := o.fetchers[t]
		g.Go(func() error {
			p, err := fetcher.Fetch(gctx, o.subjectID)
			ch <- outcome{payload: p, err: err}
			return nil
		})
	}

	// Consume in priority order, not completion order: a resolved
	// low-priority payload is not published until every higher-priority
	// outcome has been consumed.
	for _, t := range o.order {
		out := <-results[t]
		if !sess.isCurrent() {
			continue
		}
		if out.err != nil {
			o.metrics.fetchOutcome(t, false)
			o.logger.Warn("Entity fetch failed, keeping last known value",
				"entity", t,
				"subject", o.subjectID,
				"session", sess.token,
				"error", out.err)
			continue
		}
		o.metrics.fetchOutcome(t, true)
		o.store.merge(out.payload, sess.token, sess.gen)
		o.cache.Set(sess.ctx, t, out.payload)
	}
	_ = g.Wait()

	if !sess.isCurrent() {
		o.metrics.cycleOutcome("superseded")
		return nil
	}

	o.store.completeCycle(o.now(), sess.gen)
	o.metrics.cycleOutcome("complete")
	return nil
}

// validate checks the cycle can be issued at all. A missing fetcher is an
// orchestration failure, not an entity failure.
func (o *orchestrator) validate() error {
	for _, t := range o.order {
		if _, ok := o.fetchers[t]; !ok {
			return fmt.Errorf("no fetcher for entity type %s", t)
		}
	}
	if o.subjectID == "" {
		return fmt.Errorf("subject ID is required")
	}
	return nil
}

// writeThrough persists a payload through the cycle's cache, used by
// optimistic updates to share the cache write path.
func (o *orchestrator) writeThrough(ctx context.Context, p model.Payload) {
	o.cache.Set(ctx, p.EntityType(), p)
}
