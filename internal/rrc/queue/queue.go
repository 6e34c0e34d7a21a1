// SPDX-License-Identifier: AGPL-3.0-or-later
// rrc - radio resource control core for a tactical MANET radio
// Copyright (C) 2026 Tactical Mesh Contributors

// Package queue implements the fixed-capacity FIFOs the classifier and
// scheduler share: single-consumer, multi-producer, O(1) enqueue/dequeue
// under normal operation, with the spec's same-or-lower-priority drop
// policy on overflow.
package queue

import (
	"sync"

	"github.com/tacticalmesh/rrc/internal/rrc/types"
)

// DefaultCapacity is the per-queue bound used when config does not
// override it (the spec allows 10-20; 16 sits in the middle).
const DefaultCapacity = 16

// Queue is a bounded single-consumer, multi-producer FIFO of frames. All
// exported methods are safe for concurrent use; callers needing several
// operations to be atomic (e.g. "peek then conditionally dequeue") must
// still synchronize externally — see QueueSet for that higher-level lock.
type Queue struct {
	mu       sync.Mutex
	capacity int
	items    []types.Frame
}

// New creates a Queue with the given capacity. A non-positive capacity
// falls back to DefaultCapacity.
func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{
		capacity: capacity,
		items:    make([]types.Frame, 0, capacity),
	}
}

// Enqueue admits f. If the queue is full, it first tries to drop the
// oldest frame whose priority is the same as or lower (worse) than f's;
// dropped reports that frame and ok is still true. If every queued
// frame outranks f, the new frame is rejected: ok is false and dropped
// is the zero Frame.
func (q *Queue) Enqueue(f types.Frame) (dropped types.Frame, droppedAny bool, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) >= q.capacity {
		idx := -1
		for i := range q.items {
			if q.items[i].Priority >= f.Priority {
				idx = i
				break
			}
		}
		if idx == -1 {
			return types.Frame{}, false, false
		}
		dropped = q.items[idx]
		q.items = append(q.items[:idx], q.items[idx+1:]...)
		droppedAny = true
	}

	q.items = append(q.items, f)
	return dropped, droppedAny, true
}

// Dequeue removes and returns the oldest frame, if any.
func (q *Queue) Dequeue() (types.Frame, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return types.Frame{}, false
	}
	f := q.items[0]
	q.items = q.items[1:]
	return f, true
}

// Peek returns the oldest frame without removing it.
func (q *Queue) Peek() (types.Frame, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return types.Frame{}, false
	}
	return q.items[0], true
}

// Requeue pushes f back onto the front of the queue. Used when a
// scheduled transmission is aborted (slot check failure, unusable next
// hop) and the head frame must remain the head frame, per spec S5.
func (q *Queue) Requeue(f types.Frame) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) >= q.capacity {
		return false
	}
	q.items = append([]types.Frame{f}, q.items...)
	return true
}

func (q *Queue) IsEmpty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) == 0
}

func (q *Queue) IsFull() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) >= q.capacity
}

func (q *Queue) Count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
