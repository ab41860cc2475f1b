// Package quota bounds the number of simultaneous outbound network
// connections across all workers. Every HTTP fetch, DNS lookup, and SMTP
// probe acquires a slot first, so worker count and connection pressure can be
// tuned independently.
package quota

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"

	"github.com/outreachkit/prospector/internal/metrics"
)

// Quota is a counting semaphore over outbound connections.
type Quota struct {
	sem *semaphore.Weighted
}

// New creates a Quota with the given slot count. Limits below one fall back
// to a single slot.
func New(limit int64) *Quota {
	if limit < 1 {
		limit = 1
	}
	return &Quota{sem: semaphore.NewWeighted(limit)}
}

// Acquire blocks until a slot is free or ctx finishes. The caller must
// Release the slot on every path, including failures.
func (q *Quota) Acquire(ctx context.Context) error {
	if err := q.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire outbound slot: %w", err)
	}
	metrics.IncOutboundInUse()
	return nil
}

// Release returns a slot to the pool.
func (q *Quota) Release() {
	q.sem.Release(1)
	metrics.DecOutboundInUse()
}
