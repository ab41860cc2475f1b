// Package dispatcher fans UserRecords out to a bounded worker pool.
package dispatcher

import (
	"context"
	"sync"

	"github.com/outreachkit/prospector/internal/pipeline"
	"github.com/outreachkit/prospector/internal/worker"
)

// Dispatcher feeds a pool of workers from a single channel. Users complete in
// any order; only the feed itself is shared.
type Dispatcher struct {
	workers []*worker.Worker
	feed    chan pipeline.UserRecord
}

// New creates a Dispatcher with the given pool and feed capacity.
func New(workers []*worker.Worker, buffer int) *Dispatcher {
	if buffer < 0 {
		buffer = 0
	}
	return &Dispatcher{
		workers: workers,
		feed:    make(chan pipeline.UserRecord, buffer),
	}
}

// Run starts the pool and blocks until every worker returns, which happens
// when the feed is closed and drained or the context finishes.
func (d *Dispatcher) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, w := range d.workers {
		wg.Add(1)
		go func(wk *worker.Worker) {
			defer wg.Done()
			wk.Run(ctx, d.feed)
		}(w)
	}
	wg.Wait()
}

// Enqueue hands one user to the pool. It returns the context error when the
// run is canceled before the feed accepts the record.
func (d *Dispatcher) Enqueue(ctx context.Context, user pipeline.UserRecord) error {
	select {
	case d.feed <- user:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close signals the pool that no further users are coming.
func (d *Dispatcher) Close() {
	close(d.feed)
}
