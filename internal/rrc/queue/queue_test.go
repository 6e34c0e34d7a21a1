// SPDX-License-Identifier: AGPL-3.0-or-later
// rrc - radio resource control core for a tactical MANET radio
// Copyright (C) 2026 Tactical Mesh Contributors

package queue_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tacticalmesh/rrc/internal/rrc/queue"
	"github.com/tacticalmesh/rrc/internal/rrc/types"
)

func frame(src uint8, class types.PriorityClass) types.Frame {
	f := types.NewFrame(src, 1, types.Sms, []byte("x"), 10)
	f.Priority = class
	return f
}

func TestQueueFIFOOrdering(t *testing.T) {
	t.Parallel()
	q := queue.New(4)

	for i := uint8(0); i < 3; i++ {
		_, _, ok := q.Enqueue(frame(i, types.ClassP3))
		require.True(t, ok)
	}

	for i := uint8(0); i < 3; i++ {
		f, ok := q.Dequeue()
		require.True(t, ok)
		assert.Equal(t, i, f.Src, "frames must dequeue in enqueue order")
	}
}

func TestQueueCapacityAndFullness(t *testing.T) {
	t.Parallel()
	q := queue.New(2)
	assert.True(t, q.IsEmpty())

	_, _, ok := q.Enqueue(frame(1, types.ClassP3))
	require.True(t, ok)
	_, _, ok = q.Enqueue(frame(2, types.ClassP3))
	require.True(t, ok)

	assert.True(t, q.IsFull())
	assert.Equal(t, 2, q.Count())
}

func TestQueueOverflowDropsOldestSameOrLowerPriority(t *testing.T) {
	t.Parallel()
	q := queue.New(2)

	_, _, ok := q.Enqueue(frame(1, types.ClassP3))
	require.True(t, ok)
	_, _, ok = q.Enqueue(frame(2, types.ClassP3))
	require.True(t, ok)

	// Queue full of P3; a new P3 frame should evict the oldest P3 frame.
	dropped, droppedAny, ok := q.Enqueue(frame(3, types.ClassP3))
	require.True(t, ok)
	require.True(t, droppedAny)
	assert.Equal(t, uint8(1), dropped.Src)

	f, _ := q.Dequeue()
	assert.Equal(t, uint8(2), f.Src)
	f, _ = q.Dequeue()
	assert.Equal(t, uint8(3), f.Src)
}

func TestQueueOverflowRejectsWhenAllHigherPriority(t *testing.T) {
	t.Parallel()
	q := queue.New(1)

	_, _, ok := q.Enqueue(frame(1, types.ClassP0))
	require.True(t, ok)

	// P3 is lower priority than the queued P0 frame; nothing qualifies to
	// drop, so the new frame is rejected outright.
	_, droppedAny, ok := q.Enqueue(frame(2, types.ClassP3))
	assert.False(t, ok)
	assert.False(t, droppedAny)
	assert.Equal(t, 1, q.Count())
}

func TestQueueRequeuePreservesHead(t *testing.T) {
	t.Parallel()
	q := queue.New(4)
	_, _, _ = q.Enqueue(frame(1, types.ClassP0))
	_, _, _ = q.Enqueue(frame(2, types.ClassP0))

	f, ok := q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, uint8(1), f.Src)

	require.True(t, q.Requeue(f))

	f, ok = q.Peek()
	require.True(t, ok)
	assert.Equal(t, uint8(1), f.Src, "requeued frame must remain at the head")
}

func TestQueueSetRoutesByPriority(t *testing.T) {
	t.Parallel()
	qs := queue.NewQueueSet(4)

	sms := types.NewFrame(1, 2, types.Sms, []byte("hi"), 10)
	_, _, ok := qs.Enqueue(sms)
	require.True(t, ok)
	assert.Equal(t, 1, qs.Data[types.ClassP3.DataQueueIndex()].Count())

	voice := types.NewFrame(1, 2, types.AnalogVoicePttData, []byte("v"), 10)
	_, _, ok = qs.Enqueue(voice)
	require.True(t, ok)
	assert.Equal(t, 1, qs.AnalogVoice.Count())
}

func TestQueueSetGlobalDequeueOrder(t *testing.T) {
	t.Parallel()
	qs := queue.NewQueueSet(4)

	p1 := types.NewFrame(1, 2, types.Video, []byte("v"), 10)
	p0 := types.NewFrame(1, 2, types.DigitalVoice, []byte("v"), 10)
	relay := types.NewFrame(1, 2, types.Relay, []byte("v"), 10)
	voice := types.NewFrame(1, 2, types.AnalogVoicePttData, []byte("v"), 10)

	_, _, _ = qs.Enqueue(p1)
	_, _, _ = qs.Enqueue(p0)
	_, _, _ = qs.Enqueue(relay)
	_, _, _ = qs.Enqueue(voice)

	// voiceActive=false: voice must NOT be dequeued even though non-empty.
	f, ok := qs.GlobalDequeue(false)
	require.True(t, ok)
	assert.Equal(t, types.ClassP0, f.Priority, "P0 precedes P1 when voice FSM is not ActiveTx")

	f, ok = qs.GlobalDequeue(false)
	require.True(t, ok)
	assert.Equal(t, types.ClassP1, f.Priority)

	f, ok = qs.GlobalDequeue(false)
	require.True(t, ok)
	assert.Equal(t, types.ClassRxRelay, f.Priority)

	f, ok = qs.GlobalDequeue(true)
	require.True(t, ok)
	assert.Equal(t, types.ClassAnalogVoicePtt, f.Priority)
}
