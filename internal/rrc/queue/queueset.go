// SPDX-License-Identifier: AGPL-3.0-or-later
// rrc - radio resource control core for a tactical MANET radio
// Copyright (C) 2026 Tactical Mesh Contributors

package queue

import "github.com/tacticalmesh/rrc/internal/rrc/types"

// NumDataClasses is the number of P0..P3 data queues.
const NumDataClasses = 4

// QueueSet is the full set of queues RRC owns: one reservation-only
// analog voice queue, four priority data queues, one RX-relay queue for
// frames awaiting forwarding, and one network-control queue for beacons
// and piggyback TLVs.
type QueueSet struct {
	AnalogVoice *Queue
	Data        [NumDataClasses]*Queue
	RxRelay     *Queue
	NC          *Queue
}

// NewQueueSet allocates a QueueSet with the given per-queue capacity.
func NewQueueSet(capacity int) *QueueSet {
	qs := &QueueSet{
		AnalogVoice: New(capacity),
		RxRelay:     New(capacity),
		NC:          New(capacity),
	}
	for i := range qs.Data {
		qs.Data[i] = New(capacity)
	}
	return qs
}

// ForClass returns the queue a given priority class dequeues from. NC
// has no PriorityClass of its own (it is fed directly by the scheduler
// in NC slots) so it is not reachable through this accessor.
func (qs *QueueSet) ForClass(class types.PriorityClass) *Queue {
	switch class {
	case types.ClassAnalogVoicePtt:
		return qs.AnalogVoice
	case types.ClassP0, types.ClassP1, types.ClassP2, types.ClassP3:
		return qs.Data[class.DataQueueIndex()]
	case types.ClassRxRelay:
		return qs.RxRelay
	default:
		return nil
	}
}

// Enqueue routes f into the queue its priority class selects.
func (qs *QueueSet) Enqueue(f types.Frame) (dropped types.Frame, droppedAny bool, ok bool) {
	q := qs.ForClass(f.Priority)
	if q == nil {
		return types.Frame{}, false, false
	}
	return q.Enqueue(f)
}

// GlobalDequeue implements the scheduler's default cross-class ordering
// from spec §4.2: analog voice first when voiceActive and non-empty,
// then data[0..3] in ascending index order, then rx_relay, else nothing
// to send. Slot-class rules in the scheduler package narrow this further
// per slot; this is the ordering used when a slot imposes no narrower
// restriction of its own.
func (qs *QueueSet) GlobalDequeue(voiceActive bool) (types.Frame, bool) {
	if voiceActive {
		if f, ok := qs.AnalogVoice.Dequeue(); ok {
			return f, true
		}
	}
	for i := range qs.Data {
		if f, ok := qs.Data[i].Dequeue(); ok {
			return f, true
		}
	}
	if f, ok := qs.RxRelay.Dequeue(); ok {
		return f, true
	}
	return types.Frame{}, false
}

// Depths reports the current occupancy of every queue, keyed by a
// human-readable name, for metrics and the state dump.
func (qs *QueueSet) Depths() map[string]int {
	d := map[string]int{
		"analog_voice": qs.AnalogVoice.Count(),
		"rx_relay":     qs.RxRelay.Count(),
		"nc":           qs.NC.Count(),
	}
	for i := range qs.Data {
		d[types.PriorityClass(int(types.ClassP0)+i).String()] = qs.Data[i].Count()
	}
	return d
}
