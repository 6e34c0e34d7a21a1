// SPDX-License-Identifier: AGPL-3.0-or-later
// rrc - radio resource control core for a tactical MANET radio
// Copyright (C) 2026 Tactical Mesh Contributors

// Package scheduler implements the per-slot TDMA decision: which queue,
// if any, transmits in the current slot, subject to the fixed slot
// schedule, voice-FSM exclusivity, and L2/link-quality confirmation.
package scheduler

import (
	"context"
	"math/rand"

	"github.com/tacticalmesh/rrc/internal/rrc/queue"
	"github.com/tacticalmesh/rrc/internal/rrc/types"
	"github.com/tacticalmesh/rrc/internal/rrc/voicefsm"
)

// Class is a TDMA slot class.
type Class int

const (
	MV Class = iota // Managed Voice (reservation)
	DU              // Dynamic Use
	GU              // General Use
	NC              // Network Control
)

func (c Class) String() string {
	switch c {
	case MV:
		return "MV"
	case DU:
		return "DU"
	case GU:
		return "GU"
	case NC:
		return "NC"
	default:
		return "Unknown"
	}
}

// ClassOf returns the fixed slot schedule's class for a 0-indexed slot
// (0 = MV, 1-3 = DU, 4-7 = GU, 8-9 = NC).
func ClassOf(slotIndex int) Class {
	switch {
	case slotIndex == 0:
		return MV
	case slotIndex >= 1 && slotIndex <= 3:
		return DU
	case slotIndex >= 4 && slotIndex <= 7:
		return GU
	default:
		return NC
	}
}

// SlotChecker confirms, via L2, that a candidate next hop has an
// allocated slot of the required class before transmission.
type SlotChecker interface {
	CheckSlot(ctx context.Context, nextHop uint8, class types.PriorityClass) bool
}

// NCOwner answers whether this node owns the NC slot at slotIndex.
type NCOwner interface {
	OwnsSlot(slotIndex int) bool
}

// LinkUsability answers the link-quality tracker's usability predicate.
type LinkUsability interface {
	Usable(nodeID uint8) bool
}

// ContentionFunc decides GU-slot admission, given the scheduler's own
// rand source for determinism in tests. The spec's legacy default is a
// placeholder pseudo-random 50% admit; treat it as pluggable rather
// than reinterpreted as real CSMA/CA.
type ContentionFunc func(rnd *rand.Rand) bool

// DefaultContention implements the spec's literal `rand() % 100 < 50`.
func DefaultContention(rnd *rand.Rand) bool {
	return rnd.Intn(100) < 50
}

// Outcome is the result of one slot decision, including the idle reason
// and counters the caller should surface.
type Outcome struct {
	Transmitted     bool
	Frame           types.Frame
	Idle            bool
	SlotUnavailable bool // L2 SlotCheck or usability rejected the candidate
}

// Scheduler drives one slot decision at a time. It does not own the
// clock; the caller advances time via the timesync package and invokes
// Decide once per 10ms boundary.
type Scheduler struct {
	Queues     *queue.QueueSet
	Voice      *voicefsm.FSM
	SlotCheck  SlotChecker
	NCOwner    NCOwner
	Usability  LinkUsability
	Contention ContentionFunc
	rnd        *rand.Rand
}

// New builds a Scheduler. A nil contention func defaults to
// DefaultContention, seeded from seed (pass a fixed seed in tests for
// determinism).
func New(qs *queue.QueueSet, voice *voicefsm.FSM, slotCheck SlotChecker, ncOwner NCOwner, usability LinkUsability, contention ContentionFunc, seed int64) *Scheduler {
	if contention == nil {
		contention = DefaultContention
	}
	return &Scheduler{
		Queues:     qs,
		Voice:      voice,
		SlotCheck:  slotCheck,
		NCOwner:    ncOwner,
		Usability:  usability,
		Contention: contention,
		rnd:        rand.New(rand.NewSource(seed)),
	}
}

// Decide makes the per-slot transmission decision for slotIndex
// (0..9). synchronized=false forces listen-only, per §4.5.
func (s *Scheduler) Decide(ctx context.Context, slotIndex int, synchronized bool) Outcome {
	if !synchronized {
		return Outcome{Idle: true}
	}

	class := ClassOf(slotIndex)
	switch class {
	case NC:
		return s.decideNC(slotIndex)
	case MV:
		return s.decideMV(ctx)
	case DU:
		return s.decideDU(ctx)
	case GU:
		return s.decideGU(ctx)
	default:
		return Outcome{Idle: true}
	}
}

func (s *Scheduler) decideNC(slotIndex int) Outcome {
	if s.NCOwner == nil || !s.NCOwner.OwnsSlot(slotIndex) {
		return Outcome{Idle: true} // listen for beacons, fed elsewhere
	}
	f, ok := s.Queues.NC.Dequeue()
	if !ok {
		return Outcome{Idle: true}
	}
	return Outcome{Transmitted: true, Frame: f}
}

func (s *Scheduler) decideMV(ctx context.Context) Outcome {
	if s.Voice != nil && s.Voice.State() == voicefsm.ActiveTx && !s.Queues.AnalogVoice.IsEmpty() {
		return s.tryTransmit(ctx, s.Queues.AnalogVoice, types.ClassAnalogVoicePtt)
	}
	if !s.Queues.Data[types.ClassP0.DataQueueIndex()].IsEmpty() {
		return s.tryTransmit(ctx, s.Queues.Data[types.ClassP0.DataQueueIndex()], types.ClassP0)
	}
	return Outcome{Idle: true}
}

func (s *Scheduler) decideDU(ctx context.Context) Outcome {
	for _, class := range []types.PriorityClass{types.ClassP0, types.ClassP1} {
		q := s.Queues.Data[class.DataQueueIndex()]
		if !q.IsEmpty() {
			return s.tryTransmit(ctx, q, class)
		}
	}
	return Outcome{Idle: true}
}

func (s *Scheduler) decideGU(ctx context.Context) Outcome {
	if !s.Contention(s.rnd) {
		return Outcome{Idle: true}
	}
	for _, class := range []types.PriorityClass{types.ClassP2, types.ClassP3} {
		q := s.Queues.Data[class.DataQueueIndex()]
		if !q.IsEmpty() {
			return s.tryTransmit(ctx, q, class)
		}
	}
	if !s.Queues.RxRelay.IsEmpty() {
		return s.tryTransmit(ctx, s.Queues.RxRelay, types.ClassRxRelay)
	}
	return Outcome{Idle: true}
}

// tryTransmit dequeues the head of q and confirms it via L2 SlotCheck
// and the link-quality usability predicate before committing. On
// failure the frame is returned to the head of its queue (S5) and the
// slot goes idle with SlotUnavailable set.
func (s *Scheduler) tryTransmit(ctx context.Context, q *queue.Queue, class types.PriorityClass) Outcome {
	f, ok := q.Dequeue()
	if !ok {
		return Outcome{Idle: true}
	}

	allowed := true
	if s.SlotCheck != nil {
		allowed = s.SlotCheck.CheckSlot(ctx, f.NextHop, class)
	}
	if allowed && s.Usability != nil {
		allowed = s.Usability.Usable(f.NextHop)
	}

	if !allowed {
		q.Requeue(f)
		return Outcome{Idle: true, SlotUnavailable: true, Frame: f}
	}

	return Outcome{Transmitted: true, Frame: f}
}
