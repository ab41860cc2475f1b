// Package progress tracks aggregate counters for one discovery run and serves
// them as a snapshot to the status API.
package progress

import (
	"sync/atomic"

	"github.com/outreachkit/prospector/internal/pipeline"
)

// Tracker accumulates run counters. All methods are safe for concurrent use.
type Tracker struct {
	usersProcessed atomic.Int64
	usersNoEmail   atomic.Int64
	pagesFetched   atomic.Int64
	pagesFailed    atomic.Int64
	verified       atomic.Int64
	rejected       atomic.Int64
	unknown        atomic.Int64
}

// NewTracker returns a zeroed Tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// UserDone records one completed user pipeline and its verdict.
func (t *Tracker) UserDone(verdict pipeline.Verdict) {
	t.usersProcessed.Add(1)
	switch verdict {
	case pipeline.VerdictVerified:
		t.verified.Add(1)
	case pipeline.VerdictRejected:
		t.rejected.Add(1)
	case pipeline.VerdictUnknown:
		t.unknown.Add(1)
	}
}

// UserNoEmail records a user that produced zero candidates.
func (t *Tracker) UserNoEmail() {
	t.usersProcessed.Add(1)
	t.usersNoEmail.Add(1)
}

// PageFetched records one successful page fetch.
func (t *Tracker) PageFetched() {
	t.pagesFetched.Add(1)
}

// PageFailed records one failed page fetch.
func (t *Tracker) PageFailed() {
	t.pagesFailed.Add(1)
}

// Snapshot returns a point-in-time copy of the counters.
func (t *Tracker) Snapshot() pipeline.RunCounters {
	return pipeline.RunCounters{
		UsersProcessed: int(t.usersProcessed.Load()),
		UsersNoEmail:   int(t.usersNoEmail.Load()),
		PagesFetched:   int(t.pagesFetched.Load()),
		PagesFailed:    int(t.pagesFailed.Load()),
		Verified:       int(t.verified.Load()),
		Rejected:       int(t.rejected.Load()),
		Unknown:        int(t.unknown.Load()),
	}
}
