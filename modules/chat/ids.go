package chat

import (
	"sync/atomic"
	"time"
)

// IDGenerator hands out message ids derived from the creation time in
// milliseconds. Two messages created in the same millisecond still get
// distinct, increasing ids.
type IDGenerator struct {
	last atomic.Int64
	now  func() time.Time
}

// NewIDGenerator creates a generator reading the given clock.
func NewIDGenerator(now func() time.Time) *IDGenerator {
	if now == nil {
		now = time.Now
	}
	return &IDGenerator{now: now}
}

// Next returns a new id for a message created now.
func (g *IDGenerator) Next() int64 {
	return g.NextAt(g.now())
}

// NextAt returns a new id for a message created at t. The id equals
// t in Unix milliseconds unless that value was already handed out.
func (g *IDGenerator) NextAt(t time.Time) int64 {
	ms := t.UnixMilli()
	for {
		last := g.last.Load()
		next := ms
		if next <= last {
			next = last + 1
		}
		if g.last.CompareAndSwap(last, next) {
			return next
		}
	}
}
