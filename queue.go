package pas

import (
	"runtime"
	"sync/atomic"
	"time"
)

// Backoff bounds for FrameQueue.Wait.
const (
	waitSpins    = 64
	waitMinSleep = 50 * time.Microsecond
	waitMaxSleep = 2 * time.Millisecond
)

type queueNode struct {
	next atomic.Pointer[queueNode]
	list *DrawList
}

// FrameQueue is an unbounded FIFO of draw lists between producer goroutines
// and the render thread.
//
// Submit never blocks and never drops. Any number of goroutines may submit;
// a single goroutine consumes with TryTake or Wait. Lists submitted by one
// goroutine are taken in the order that goroutine submitted them.
//
// There is no backpressure: a producer that outpaces the consumer grows the
// queue without bound. Len exposes the depth for monitoring.
type FrameQueue struct {
	head atomic.Pointer[queueNode] // consumer side, points at a sentinel
	tail atomic.Pointer[queueNode] // producer side
	size atomic.Int64
}

// NewFrameQueue creates an empty queue.
func NewFrameQueue() *FrameQueue {
	q := &FrameQueue{}
	sentinel := &queueNode{}
	q.head.Store(sentinel)
	q.tail.Store(sentinel)
	return q
}

// Submit enqueues list.
func (q *FrameQueue) Submit(list *DrawList) {
	n := &queueNode{list: list}
	for {
		tail := q.tail.Load()
		next := tail.next.Load()
		if tail != q.tail.Load() {
			continue
		}
		if next != nil {
			// Tail is lagging; help advance it.
			q.tail.CompareAndSwap(tail, next)
			continue
		}
		if tail.next.CompareAndSwap(nil, n) {
			q.tail.CompareAndSwap(tail, n)
			q.size.Add(1)
			return
		}
	}
}

// TryTake dequeues the oldest list without blocking.
// Only one goroutine may call TryTake or Wait at a time.
func (q *FrameQueue) TryTake() (*DrawList, bool) {
	head := q.head.Load()
	next := head.next.Load()
	if next == nil {
		return nil, false
	}
	list := next.list
	next.list = nil
	q.head.Store(next)
	q.size.Add(-1)
	return list, true
}

// Wait dequeues the oldest list, waiting with bounded backoff while the queue
// is empty: it first yields the processor, then sleeps for increasing
// intervals up to a small cap. Between attempts it calls idle, if non-nil;
// Wait gives up and returns false as soon as idle returns true.
func (q *FrameQueue) Wait(idle func() bool) (*DrawList, bool) {
	sleep := waitMinSleep
	for attempt := 0; ; attempt++ {
		if list, ok := q.TryTake(); ok {
			return list, true
		}
		if idle != nil && idle() {
			return nil, false
		}
		if attempt < waitSpins {
			runtime.Gosched()
			continue
		}
		time.Sleep(sleep)
		if sleep < waitMaxSleep {
			sleep *= 2
		}
	}
}

// Len returns the number of queued lists. The value is a snapshot and may be
// stale by the time it is read.
func (q *FrameQueue) Len() int {
	if n := q.size.Load(); n > 0 {
		return int(n)
	}
	return 0
}
