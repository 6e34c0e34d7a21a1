// SPDX-License-Identifier: AGPL-3.0-or-later
// rrc - radio resource control core for a tactical MANET radio
// Copyright (C) 2026 Tactical Mesh Contributors

package scheduler_test

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tacticalmesh/rrc/internal/rrc/queue"
	"github.com/tacticalmesh/rrc/internal/rrc/scheduler"
	"github.com/tacticalmesh/rrc/internal/rrc/types"
	"github.com/tacticalmesh/rrc/internal/rrc/voicefsm"
)

type alwaysAllow struct{}

func (alwaysAllow) CheckSlot(context.Context, uint8, types.PriorityClass) bool { return true }
func (alwaysAllow) Usable(uint8) bool                                         { return true }

type denySlotCheck struct{}

func (denySlotCheck) CheckSlot(context.Context, uint8, types.PriorityClass) bool { return false }

type fixedNCOwner struct{ owns bool }

func (f fixedNCOwner) OwnsSlot(int) bool { return f.owns }

func frame(dst uint8, dt types.DataType) types.Frame {
	return types.NewFrame(254, dst, dt, []byte("x"), 10)
}

func TestUnsynchronizedForcesListenOnly(t *testing.T) {
	t.Parallel()
	qs := queue.NewQueueSet(8)
	qs.Data[types.ClassP0.DataQueueIndex()].Enqueue(frame(1, types.DigitalVoice))
	s := scheduler.New(qs, nil, alwaysAllow{}, fixedNCOwner{}, alwaysAllow{}, nil, 1)

	out := s.Decide(context.Background(), 1, false)
	assert.True(t, out.Idle)
	assert.False(t, out.Transmitted)
}

func TestMVSlotVoiceExclusivity(t *testing.T) {
	// P4: in MV when ActiveTx with an available analog-voice frame, that
	// frame transmits even though data[0] also has traffic.
	t.Parallel()
	qs := queue.NewQueueSet(8)
	voice := voicefsm.New(254, qs)
	voice.PressPTT(nil)
	voice.OnContentionResult(true, time.Now())
	voice.OnCCReceived()
	require.True(t, voice.EnqueueVoiceFrame(frame(1, types.AnalogVoicePttData)))
	qs.Data[types.ClassP0.DataQueueIndex()].Enqueue(frame(1, types.DigitalVoice))

	s := scheduler.New(qs, voice, alwaysAllow{}, fixedNCOwner{}, alwaysAllow{}, nil, 1)
	out := s.Decide(context.Background(), 0, true)

	require.True(t, out.Transmitted)
	assert.Equal(t, types.ClassAnalogVoicePtt, out.Frame.Priority)
}

func TestMVSlotFallsBackToP0WithoutActiveVoice(t *testing.T) {
	t.Parallel()
	qs := queue.NewQueueSet(8)
	voice := voicefsm.New(254, qs)
	qs.Data[types.ClassP0.DataQueueIndex()].Enqueue(frame(1, types.DigitalVoice))

	s := scheduler.New(qs, voice, alwaysAllow{}, fixedNCOwner{}, alwaysAllow{}, nil, 1)
	out := s.Decide(context.Background(), 0, true)

	require.True(t, out.Transmitted)
	assert.Equal(t, types.ClassP0, out.Frame.Priority)
}

func TestDUSlotPrefersP0OverP1(t *testing.T) {
	t.Parallel()
	qs := queue.NewQueueSet(8)
	qs.Data[types.ClassP0.DataQueueIndex()].Enqueue(frame(1, types.DigitalVoice))
	qs.Data[types.ClassP1.DataQueueIndex()].Enqueue(frame(1, types.Video))

	s := scheduler.New(qs, nil, alwaysAllow{}, fixedNCOwner{}, alwaysAllow{}, nil, 1)
	out := s.Decide(context.Background(), 2, true)

	require.True(t, out.Transmitted)
	assert.Equal(t, types.ClassP0, out.Frame.Priority)
}

func TestDUSlotIdleWhenEmpty(t *testing.T) {
	t.Parallel()
	qs := queue.NewQueueSet(8)
	s := scheduler.New(qs, nil, alwaysAllow{}, fixedNCOwner{}, alwaysAllow{}, nil, 1)
	out := s.Decide(context.Background(), 2, true)
	assert.True(t, out.Idle)
}

func TestGUSlotContentionFailureIsIdle(t *testing.T) {
	t.Parallel()
	qs := queue.NewQueueSet(8)
	qs.Data[types.ClassP2.DataQueueIndex()].Enqueue(frame(1, types.File))
	s := scheduler.New(qs, nil, alwaysAllow{}, fixedNCOwner{}, alwaysAllow{}, func(*rand.Rand) bool { return false }, 1)

	out := s.Decide(context.Background(), 5, true)
	assert.True(t, out.Idle)
	assert.Equal(t, 1, qs.Data[types.ClassP2.DataQueueIndex()].Count())
}

func TestGUSlotOrderP2ThenP3ThenRxRelay(t *testing.T) {
	t.Parallel()
	qs := queue.NewQueueSet(8)
	qs.Data[types.ClassP3.DataQueueIndex()].Enqueue(frame(1, types.Sms))
	qs.RxRelay.Enqueue(frame(1, types.Relay))
	s := scheduler.New(qs, nil, alwaysAllow{}, fixedNCOwner{}, alwaysAllow{}, func(*rand.Rand) bool { return true }, 1)

	out := s.Decide(context.Background(), 5, true)
	require.True(t, out.Transmitted)
	assert.Equal(t, types.ClassP3, out.Frame.Priority)
}

func TestNCSlotOwnerTransmitsFromNCQueue(t *testing.T) {
	t.Parallel()
	qs := queue.NewQueueSet(8)
	qs.NC.Enqueue(frame(1, types.ToL3))
	s := scheduler.New(qs, nil, alwaysAllow{}, fixedNCOwner{owns: true}, alwaysAllow{}, nil, 1)

	out := s.Decide(context.Background(), 9, true)
	assert.True(t, out.Transmitted)
}

func TestNCSlotNonOwnerListensOnly(t *testing.T) {
	t.Parallel()
	qs := queue.NewQueueSet(8)
	qs.NC.Enqueue(frame(1, types.ToL3))
	s := scheduler.New(qs, nil, alwaysAllow{}, fixedNCOwner{owns: false}, alwaysAllow{}, nil, 1)

	out := s.Decide(context.Background(), 9, true)
	assert.True(t, out.Idle)
	assert.Equal(t, 1, qs.NC.Count())
}

func TestSlotCheckFailureRequeuesHeadAndMarksUnavailable(t *testing.T) {
	// S5: slot contention bounce — head frame stays at the head, slot
	// goes idle, SlotUnavailable reported for the counter.
	t.Parallel()
	qs := queue.NewQueueSet(8)
	head := frame(1, types.DigitalVoice)
	qs.Data[types.ClassP0.DataQueueIndex()].Enqueue(head)

	s := scheduler.New(qs, nil, denySlotCheck{}, fixedNCOwner{}, alwaysAllow{}, nil, 1)
	out := s.Decide(context.Background(), 2, true)

	assert.True(t, out.Idle)
	assert.True(t, out.SlotUnavailable)
	f, ok := qs.Data[types.ClassP0.DataQueueIndex()].Peek()
	require.True(t, ok)
	assert.Equal(t, head.Src, f.Src)
}
