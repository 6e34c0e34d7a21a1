// SPDX-License-Identifier: AGPL-3.0-or-later
// rrc - radio resource control core for a tactical MANET radio
// Copyright (C) 2026 Tactical Mesh Contributors

// Package voicefsm implements the PTT/CR/CC reservation handshake that
// grants exclusive access to the MV slot.
package voicefsm

import (
	"time"

	"github.com/tacticalmesh/rrc/internal/rrc/queue"
	"github.com/tacticalmesh/rrc/internal/rrc/rrcerr"
	"github.com/tacticalmesh/rrc/internal/rrc/types"
)

// State is the voice-reservation state.
type State int

const (
	Inactive State = iota
	CrSent
	ActiveTx
)

func (s State) String() string {
	switch s {
	case Inactive:
		return "Inactive"
	case CrSent:
		return "CrSent"
	case ActiveTx:
		return "ActiveTx"
	default:
		return "Unknown"
	}
}

// NCSlotTimeout is how long CrSent waits for a CC before reverting to
// Inactive and surfacing a reservation-timeout error.
const NCSlotTimeout = 2000 * time.Millisecond

// FSM drives the voice reservation handshake. It owns the CR control
// frame construction and the analog_voice queue but not the scheduler's
// per-slot dequeue decision.
type FSM struct {
	state       State
	crSentSince time.Time
	localNode   uint8
	analogVoice *queue.Queue
	p0          *queue.Queue
}

// New builds an FSM bound to the analog_voice and data[0] (P0) queues
// it enqueues control/voice traffic into.
func New(localNode uint8, qs *queue.QueueSet) *FSM {
	return &FSM{
		state:       Inactive,
		localNode:   localNode,
		analogVoice: qs.AnalogVoice,
		p0:          qs.Data[types.ClassP0.DataQueueIndex()],
	}
}

// State returns the current voice-FSM state.
func (f *FSM) State() State {
	return f.state
}

// PressPTT handles a PTT press while Inactive. It enqueues a CR control
// frame at P0 and returns true if the FSM is now awaiting a contention
// attempt. A press while not Inactive is a no-op, matching the spec's
// handling of only the Inactive+PTT-press transition.
func (f *FSM) PressPTT(ccPayload []byte) bool {
	if f.state != Inactive {
		return false
	}
	cr := types.NewFrame(f.localNode, f.localNode, types.AnalogVoicePttData, ccPayload, types.DefaultInitialTTL)
	cr.Priority = types.ClassP0
	f.p0.Enqueue(cr)
	return true
}

// OnContentionResult reports the outcome of the DU/GU contention
// attempt following a CR enqueue. On success the FSM moves to CrSent
// and starts the CC-wait timer; on failure it remains Inactive.
func (f *FSM) OnContentionResult(success bool, now time.Time) {
	if f.state != Inactive || !success {
		return
	}
	f.state = CrSent
	f.crSentSince = now
}

// OnCCReceived grants exclusive MV-slot access: CrSent -> ActiveTx.
func (f *FSM) OnCCReceived() {
	if f.state == CrSent {
		f.state = ActiveTx
	}
}

// OnEndCall handles end_call or PTT release while ActiveTx: drains the
// analog_voice queue and reverts to Inactive.
func (f *FSM) OnEndCall() {
	if f.state != ActiveTx {
		return
	}
	for !f.analogVoice.IsEmpty() {
		f.analogVoice.Dequeue()
	}
	f.state = Inactive
}

// Tick checks the CrSent CC-wait timeout. If the FSM has been in CrSent
// longer than NCSlotTimeout, it reverts to Inactive and returns a
// Protocol-kind reservation-timeout error to be logged by the caller.
func (f *FSM) Tick(now time.Time) error {
	if f.state != CrSent {
		return nil
	}
	if now.Sub(f.crSentSince) < NCSlotTimeout {
		return nil
	}
	f.state = Inactive
	return rrcerr.ReservationTimeout(nil)
}

// EnqueueVoiceFrame admits a voice payload into analog_voice while
// ActiveTx. It is a no-op (dropping the frame) outside ActiveTx, since
// only an active reservation owns the MV slot.
func (f *FSM) EnqueueVoiceFrame(frame types.Frame) bool {
	if f.state != ActiveTx {
		return false
	}
	_, _, ok := f.analogVoice.Enqueue(frame)
	return ok
}
