// SPDX-License-Identifier: AGPL-3.0-or-later
// rrc - radio resource control core for a tactical MANET radio
// Copyright (C) 2026 Tactical Mesh Contributors

package voicefsm_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tacticalmesh/rrc/internal/rrc/queue"
	"github.com/tacticalmesh/rrc/internal/rrc/types"
	"github.com/tacticalmesh/rrc/internal/rrc/voicefsm"
)

func TestPTTReservationHappyPath(t *testing.T) {
	// S2: Inactive -> PTT press -> CR at P0 -> contention success ->
	// CrSent -> CC received -> ActiveTx -> three voice frames transmit.
	t.Parallel()
	qs := queue.NewQueueSet(8)
	f := voicefsm.New(254, qs)

	started := f.PressPTT([]byte("cr"))
	require.True(t, started)
	assert.Equal(t, 1, qs.Data[types.ClassP0.DataQueueIndex()].Count())

	now := time.Now()
	f.OnContentionResult(true, now)
	assert.Equal(t, voicefsm.CrSent, f.State())

	f.OnCCReceived()
	assert.Equal(t, voicefsm.ActiveTx, f.State())

	for i := 0; i < 3; i++ {
		ok := f.EnqueueVoiceFrame(types.NewFrame(254, 1, types.AnalogVoicePttData, []byte("v"), 10))
		assert.True(t, ok)
	}
	assert.Equal(t, 3, qs.AnalogVoice.Count())
}

func TestPTTContentionFailureStaysInactive(t *testing.T) {
	t.Parallel()
	qs := queue.NewQueueSet(8)
	f := voicefsm.New(254, qs)

	f.PressPTT([]byte("cr"))
	f.OnContentionResult(false, time.Now())
	assert.Equal(t, voicefsm.Inactive, f.State())
}

func TestCCWithoutCrSentIsNoop(t *testing.T) {
	t.Parallel()
	qs := queue.NewQueueSet(8)
	f := voicefsm.New(254, qs)
	f.OnCCReceived()
	assert.Equal(t, voicefsm.Inactive, f.State())
}

func TestEndCallDrainsAnalogVoiceAndReturnsToInactive(t *testing.T) {
	t.Parallel()
	qs := queue.NewQueueSet(8)
	f := voicefsm.New(254, qs)
	f.PressPTT(nil)
	f.OnContentionResult(true, time.Now())
	f.OnCCReceived()
	f.EnqueueVoiceFrame(types.NewFrame(254, 1, types.AnalogVoicePttData, []byte("v"), 10))

	f.OnEndCall()
	assert.Equal(t, voicefsm.Inactive, f.State())
	assert.True(t, qs.AnalogVoice.IsEmpty())
}

func TestTickTimesOutWaitingForCC(t *testing.T) {
	t.Parallel()
	qs := queue.NewQueueSet(8)
	f := voicefsm.New(254, qs)
	f.PressPTT(nil)
	start := time.Now()
	f.OnContentionResult(true, start)

	err := f.Tick(start.Add(voicefsm.NCSlotTimeout - time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, voicefsm.CrSent, f.State())

	err = f.Tick(start.Add(voicefsm.NCSlotTimeout + time.Millisecond))
	require.Error(t, err)
	assert.Equal(t, voicefsm.Inactive, f.State())
}

func TestEnqueueVoiceFrameRejectedOutsideActiveTx(t *testing.T) {
	t.Parallel()
	qs := queue.NewQueueSet(8)
	f := voicefsm.New(254, qs)
	ok := f.EnqueueVoiceFrame(types.NewFrame(254, 1, types.AnalogVoicePttData, []byte("v"), 10))
	assert.False(t, ok)
	assert.True(t, qs.AnalogVoice.IsEmpty())
}

func TestPressPTTWhileNotInactiveIsNoop(t *testing.T) {
	t.Parallel()
	qs := queue.NewQueueSet(8)
	f := voicefsm.New(254, qs)
	f.PressPTT(nil)
	f.OnContentionResult(true, time.Now())

	started := f.PressPTT(nil)
	assert.False(t, started)
	assert.Equal(t, 1, qs.Data[types.ClassP0.DataQueueIndex()].Count())
}
