package cache

import (
	"container/heap"
	"time"
)

// groupEntry is one slot in a track's group log. A nil Group means the
// slot has expired and is pending removal from the head of the log.
type groupEntry struct {
	sequence  uint64
	group     *Group
	expires   time.Time
	hasExpiry bool
}

// expiryHeap orders live log entries by expiration deadline, earliest
// first. It backs the per-track eviction sweep described for the
// broadcast cache: O(log N) amortized eviction on every mutation.
type expiryHeap []*groupEntry

func (h expiryHeap) Len() int            { return len(h) }
func (h expiryHeap) Less(i, j int) bool  { return h[i].expires.Before(h[j].expires) }
func (h expiryHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *expiryHeap) Push(x interface{}) { *h = append(*h, x.(*groupEntry)) }
func (h *expiryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

var _ heap.Interface = (*expiryHeap)(nil)

// pendingGroup is one entry in a consumer's priority heap of groups
// discovered since the consumer's last poll but not yet delivered.
type pendingGroup struct {
	reader *GroupReader
}

// priorityHeap orders pending groups by ascending numeric priority
// (lower value delivered first), tie-breaking on sequence number
// according to the subscription's configured GroupOrder.
type priorityHeap struct {
	items []pendingGroup
	order GroupOrderFunc
}

// GroupOrderFunc reports whether group a should be delivered before
// group b when their priorities tie.
type GroupOrderFunc func(a, b *GroupReader) bool

func newPriorityHeap(order GroupOrderFunc) *priorityHeap {
	return &priorityHeap{order: order}
}

func (h *priorityHeap) Len() int { return len(h.items) }

func (h *priorityHeap) Less(i, j int) bool {
	a, b := h.items[i].reader, h.items[j].reader
	if a.Priority() != b.Priority() {
		return a.Priority() < b.Priority()
	}
	return h.order(a, b)
}

func (h *priorityHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *priorityHeap) Push(x interface{}) {
	h.items = append(h.items, x.(pendingGroup))
}

func (h *priorityHeap) Pop() interface{} {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}

var _ heap.Interface = (*priorityHeap)(nil)

// AscOrder delivers the lower sequence number first on a priority tie.
func AscOrder(a, b *GroupReader) bool { return a.Sequence() < b.Sequence() }

// DescOrder delivers the higher sequence number first on a priority tie.
func DescOrder(a, b *GroupReader) bool { return a.Sequence() > b.Sequence() }
