// Package scheduler implements the shard's priority-queue event scheduler:
// a binary heap ordered by (due_ms, seq), seq breaking ties stably
// (spec.md §3 Scheduler events, §4.2.4).
//
// No third-party priority-queue or scheduler library appears anywhere in
// the retrieval pack, so this is built on the standard library's
// container/heap, the idiomatic Go choice for an ordered work queue — see
// DESIGN.md for the full justification.
package scheduler

import (
	"container/heap"
	"sync/atomic"
)

// Event is one scheduled occurrence. Kind and the id fields identify what
// to do at fire time; the event carries only ids so that the subject's
// deletion between scheduling and firing is handled by a nil-check at
// fire time rather than by cancelling the event (spec.md §3).
type Event struct {
	DueMs int64
	Seq   uint64
	Kind  Kind
	// IDs is free-form payload (character id, boss id, room prefix, ...)
	// interpreted by the kind-specific handler at fire time.
	IDs any
}

// Kind enumerates scheduler event kinds (spec.md §3).
type Kind int

const (
	KindRoomMessage Kind = iota
	KindEnsureSingletonNPC
	KindCombatAct
	KindBossTelegraph
	KindBossResolve
	KindMobWander
	KindPartyBuildNext
	KindTick
)

// Queue is a binary heap of Events ordered by (DueMs, Seq).
type Queue struct {
	heap eventHeap
	seq  atomic.Uint64
}

// NewQueue returns an empty scheduler queue.
func NewQueue() *Queue {
	q := &Queue{}
	heap.Init(&q.heap)
	return q
}

// Schedule enqueues an event due at dueMs, assigning the next sequence
// number, and returns that sequence number (useful for cancellation-by-seq
// patterns like the boss pattern's seq check at resolve time).
func (q *Queue) Schedule(dueMs int64, kind Kind, ids any) uint64 {
	seq := q.seq.Add(1)
	heap.Push(&q.heap, Event{DueMs: dueMs, Seq: seq, Kind: kind, IDs: ids})
	return seq
}

// Len returns the number of pending events.
func (q *Queue) Len() int { return q.heap.Len() }

// PeekDue returns the due time of the earliest event, and whether the
// queue is non-empty.
func (q *Queue) PeekDue() (int64, bool) {
	if q.heap.Len() == 0 {
		return 0, false
	}
	return q.heap[0].DueMs, true
}

// Pop removes and returns the earliest event.
func (q *Queue) Pop() Event {
	return heap.Pop(&q.heap).(Event)
}

// DrainDue pops and returns every event whose DueMs is <= nowMs, in
// (DueMs, Seq) order.
func (q *Queue) DrainDue(nowMs int64) []Event {
	var due []Event
	for q.heap.Len() > 0 && q.heap[0].DueMs <= nowMs {
		due = append(due, q.Pop())
	}
	return due
}

type eventHeap []Event

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool {
	if h[i].DueMs != h[j].DueMs {
		return h[i].DueMs < h[j].DueMs
	}
	return h[i].Seq < h[j].Seq
}
func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(Event))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	ev := old[n-1]
	*h = old[:n-1]
	return ev
}
