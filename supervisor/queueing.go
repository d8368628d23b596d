package supervisor

import (
	"container/heap"
	"context"
	"sync"

	"github.com/hupe1980/schedmesh/core"
)

type queueItem struct {
	subtaskID string
	priority  core.Priority
	seq       uint64
	index     int
}

// itemHeap orders by descending priority, then submission order.
type itemHeap []*queueItem

func (h itemHeap) Len() int { return len(h) }

func (h itemHeap) Less(i, j int) bool {
	if !h[i].priority.Equal(h[j].priority) {
		return h[j].priority.Less(h[i].priority)
	}
	return h[i].seq < h[j].seq
}

func (h itemHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *itemHeap) Push(x any) {
	it := x.(*queueItem)
	it.index = len(*h)
	*h = append(*h, it)
}

func (h *itemHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	it.index = -1
	*h = old[:n-1]
	return it
}

// Queueing is a per-session priority queue of subtasks waiting for a slot.
type Queueing struct {
	sessionID string

	mu    sync.Mutex
	items itemHeap
	byID  map[string]*queueItem
	seq   uint64
}

// NewQueueing creates an empty queue for a session.
func NewQueueing(sessionID string) *Queueing {
	return &Queueing{sessionID: sessionID, byID: make(map[string]*queueItem)}
}

// AddSubtasks enqueues subtask ids with their priorities. Ids already queued
// have their priority replaced.
func (q *Queueing) AddSubtasks(ids []string, priorities []core.Priority) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, id := range ids {
		if it, ok := q.byID[id]; ok {
			it.priority = priorities[i].Clone()
			heap.Fix(&q.items, it.index)
			continue
		}
		q.seq++
		it := &queueItem{subtaskID: id, priority: priorities[i].Clone(), seq: q.seq}
		heap.Push(&q.items, it)
		q.byID[id] = it
	}
}

// UpdateSubtaskPriority applies a batch of priority updates in order. Result i
// reports whether updates[i] named a queued subtask.
func (q *Queueing) UpdateSubtaskPriority(ctx context.Context, updates []core.PriorityUpdate) ([]bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]bool, len(updates))
	for i, u := range updates {
		it, ok := q.byID[u.SubtaskID]
		if !ok {
			continue
		}
		it.priority = u.Priority.Clone()
		heap.Fix(&q.items, it.index)
		out[i] = true
	}
	return out, nil
}

// Pop removes and returns up to limit subtask ids, highest priority first.
func (q *Queueing) Pop(limit int) []string {
	entries := q.PopEntries(limit)
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.SubtaskID
	}
	return out
}

// PopEntries is Pop returning each id with the priority it was queued at,
// including any update applied while it waited.
func (q *Queueing) PopEntries(limit int) []core.PriorityUpdate {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]core.PriorityUpdate, 0, limit)
	for len(out) < limit && q.items.Len() > 0 {
		it := heap.Pop(&q.items).(*queueItem)
		delete(q.byID, it.subtaskID)
		out = append(out, core.PriorityUpdate{SubtaskID: it.subtaskID, Priority: it.priority})
	}
	return out
}

// Remove drops the given ids and returns how many were queued.
func (q *Queueing) Remove(ids []string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, id := range ids {
		it, ok := q.byID[id]
		if !ok {
			continue
		}
		heap.Remove(&q.items, it.index)
		delete(q.byID, id)
		n++
	}
	return n
}

// Priority returns the queued priority of id.
func (q *Queueing) Priority(id string) (core.Priority, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	it, ok := q.byID[id]
	if !ok {
		return nil, false
	}
	return it.priority.Clone(), true
}

// Len returns the number of queued subtasks.
func (q *Queueing) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

var _ core.SubtaskQueueing = (*Queueing)(nil)
