// Package queue implements the single bounded multi-producer/multi-consumer
// channel that decouples the dispatcher (called on the host's notification
// thread) from the worker pool's remote writes.
//
// A Go buffered channel already gives FIFO-per-producer ordering and
// fair-enough consumption across readers for free; Queue adds the two things
// a bare channel lacks for this use case: an explicit, idempotent Close with
// a typed error for producers racing the shutdown, and a timed Receive.
package queue

import (
	"errors"
	"sync"
	"time"

	"github.com/lijunwangs/solana-accountsdb-plugin-bigtable/types"
)

// ErrClosed is returned by Offer once the queue has been closed. The plugin
// shim converts this into the host's error type.
var ErrClosed = errors.New("queue: pipeline shutting down")

// DefaultCapacity is the default bound on in-flight WorkItems.
const DefaultCapacity = 40960

// Queue is a bounded MPMC channel of types.WorkItem.
type Queue struct {
	items  chan types.WorkItem
	closed chan struct{}
	closeO sync.Once
}

// New allocates a Queue with the given capacity. A non-positive capacity
// falls back to DefaultCapacity.
func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{
		items:  make(chan types.WorkItem, capacity),
		closed: make(chan struct{}),
	}
}

// Offer enqueues item, blocking the caller while the queue is full. This
// block is the pipeline's intentional backpressure mechanism: it is
// preferable to slow the host than to drop or buffer unbounded.
//
// Offer returns ErrClosed if the queue has already been closed, whether or
// not it was full at the time.
func (q *Queue) Offer(item types.WorkItem) error {
	select {
	case <-q.closed:
		return ErrClosed
	default:
	}
	select {
	case q.items <- item:
		return nil
	case <-q.closed:
		return ErrClosed
	}
}

// Receive blocks for up to timeout waiting for an item. It returns
// ok == false both on timeout and once the queue is closed and drained;
// callers distinguish the two via Closed.
func (q *Queue) Receive(timeout time.Duration) (item types.WorkItem, ok bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case item, ok = <-q.items:
		return item, ok
	case <-timer.C:
		return types.WorkItem{}, false
	}
}

// Closed reports whether Close has been called and the queue has been fully
// drained by consumers.
func (q *Queue) Closed() bool {
	select {
	case <-q.closed:
		return len(q.items) == 0
	default:
		return false
	}
}

// Len reports the current occupancy of the queue.
func (q *Queue) Len() int {
	return len(q.items)
}

// Cap reports the queue's fixed capacity.
func (q *Queue) Cap() int {
	return cap(q.items)
}

// Close marks the queue closed: further Offer calls fail with ErrClosed.
// It does not close the underlying channel, since in-flight Receive calls
// from workers still need to drain whatever was buffered before Close was
// observed; workers learn the queue is closed via Closed() once drained,
// or simply stop polling once the dispatcher's exit flag is set (see
// package lifecycle).
func (q *Queue) Close() {
	q.closeO.Do(func() {
		close(q.closed)
	})
}
