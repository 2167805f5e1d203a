package schedulers

import (
	"container/heap"
	"time"

	"github.com/roach88/pushrx/rx"
)

// Item is one deferred delivery.
type Item struct {
	When time.Time
	What rx.Observer[rx.Reschedule]

	// Owner is the lifetime of the strand that deferred the item. Once it
	// stops the item is dropped instead of delivered.
	Owner rx.Subscription

	seq uint64
}

// Queue is a min-priority queue of deferred items ordered by time, then by
// insertion order. Items deferred for the same instant come out first in,
// first out.
//
// Queue is not safe for concurrent use; owners guard it with their own lock.
type Queue struct {
	items itemHeap
	seq   uint64
}

// Push adds an item.
func (q *Queue) Push(when time.Time, owner rx.Subscription, what rx.Observer[rx.Reschedule]) {
	q.seq++
	heap.Push(&q.items, Item{When: when, What: what, Owner: owner, seq: q.seq})
}

// Peek returns the earliest item without removing it.
func (q *Queue) Peek() (Item, bool) {
	if len(q.items) == 0 {
		return Item{}, false
	}
	return q.items[0], true
}

// Pop removes and returns the earliest item.
func (q *Queue) Pop() (Item, bool) {
	if len(q.items) == 0 {
		return Item{}, false
	}
	return heap.Pop(&q.items).(Item), true
}

// Len returns the number of queued items.
func (q *Queue) Len() int {
	return len(q.items)
}

type itemHeap []Item

func (h itemHeap) Len() int { return len(h) }

func (h itemHeap) Less(i, j int) bool {
	if !h[i].When.Equal(h[j].When) {
		return h[i].When.Before(h[j].When)
	}
	return h[i].seq < h[j].seq
}

func (h itemHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *itemHeap) Push(x any) { *h = append(*h, x.(Item)) }

func (h *itemHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	// drop the reference so the observer can be collected
	old[n-1] = Item{}
	*h = old[:n-1]
	return it
}

// Dispatch delivers one popped item. It reports the time requested through
// the item's Reschedule, if any. An item whose owner or observer stopped is
// dropped. When the observer does not reschedule it is completed.
func Dispatch(it Item) (at time.Time, again bool) {
	if it.Owner.IsStopped() || it.What.IsStopped() {
		return time.Time{}, false
	}
	it.What.Next(func(t time.Time) {
		again = true
		at = t
	})
	if again && !it.What.IsStopped() {
		return at, true
	}
	it.What.Complete()
	return time.Time{}, false
}
