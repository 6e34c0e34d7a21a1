// SPDX-License-Identifier: AGPL-3.0-or-later
// rrc - radio resource control core for a tactical MANET radio
// Copyright (C) 2026 Tactical Mesh Contributors

// Package timesync implements the frame clock, cold-start acquisition,
// and beacon-averaging resynchronization described in the radio's
// superframe timing model.
package timesync

import "fmt"

const (
	// SlotDurationMs is the duration of a single TDMA slot.
	SlotDurationMs = 10
	// SlotsPerFrame is the number of slots in one superframe.
	SlotsPerFrame = 10
	// FrameDurationMs is the full superframe duration.
	FrameDurationMs = SlotDurationMs * SlotsPerFrame

	// MaxScanTimeMs is how long a node listens before it may declare
	// itself Master.
	MaxScanTimeMs = 200
)

// Status is the node's synchronization role.
type Status int

const (
	Unsynchronized Status = iota
	Master
	MasterHeard
)

func (s Status) String() string {
	switch s {
	case Unsynchronized:
		return "Unsynchronized"
	case Master:
		return "Master"
	case MasterHeard:
		return "MasterHeard"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Beacon is one received network-control beacon: a source node id and
// its network timestamp, both within a single superframe.
type Beacon struct {
	SourceID  uint8
	NetworkTs int64
}

// State is the frame clock: local_time_ms within the superframe, the
// derived slot index, and the node's synchronization status.
type State struct {
	Synchronized bool
	Status       Status
	LocalTimeMs  int64
	SlotIndex    int
	MasterID     uint8
	FrameCounter uint64

	scanElapsedMs int64
}

// New returns a fresh Unsynchronized clock at local time 0.
func New() *State {
	return &State{Status: Unsynchronized}
}

// Advance moves the local clock forward by deltaMs (normally
// SlotDurationMs per tick), wrapping modulo the superframe and bumping
// the frame counter on wraparound. It also tracks scan time for
// cold-start Master declaration while Unsynchronized.
func (s *State) Advance(deltaMs int64) {
	if deltaMs < 0 {
		deltaMs = 0
	}
	total := s.LocalTimeMs + deltaMs
	wraps := total / FrameDurationMs
	s.LocalTimeMs = total % FrameDurationMs
	s.FrameCounter += uint64(wraps)
	s.SlotIndex = int(s.LocalTimeMs / SlotDurationMs)

	if s.Status == Unsynchronized {
		s.scanElapsedMs += deltaMs
	}
}

// ShouldDeclareMaster reports whether a node still Unsynchronized after
// MaxScanTimeMs of silence may promote itself to Master.
func (s *State) ShouldDeclareMaster() bool {
	return s.Status == Unsynchronized && s.scanElapsedMs >= MaxScanTimeMs
}

// DeclareMaster promotes a silent, Unsynchronized node to Master of its
// own superframe.
func (s *State) DeclareMaster() {
	s.Status = Master
	s.Synchronized = true
}

// Resync implements beacon averaging (property P3, scenario S6):
// offset_i = (beacon_ts_i mod FRAME_DURATION) − (local_ts mod
// FRAME_DURATION), averaged by integer mean across all beacons, added
// to local time and reduced modulo the frame duration (wrapped
// non-negative). The node adopts the first beacon's source as
// master_id and transitions to MasterHeard.
//
// Returns false without modifying state if beacons is empty.
func (s *State) Resync(beacons []Beacon) bool {
	if len(beacons) == 0 {
		return false
	}

	localMod := s.LocalTimeMs % FrameDurationMs
	var sum int64
	for _, b := range beacons {
		offset := (b.NetworkTs % FrameDurationMs) - localMod
		sum += offset
	}
	avg := sum / int64(len(beacons))

	s.LocalTimeMs = wrapNonNegative(s.LocalTimeMs+avg, FrameDurationMs)
	s.SlotIndex = int(s.LocalTimeMs / SlotDurationMs)
	s.Synchronized = true
	s.Status = MasterHeard
	s.MasterID = beacons[0].SourceID
	return true
}

// wrapNonNegative reduces v modulo m, always returning a value in
// [0, m) even for negative v — property P3.
func wrapNonNegative(v, m int64) int64 {
	r := v % m
	if r < 0 {
		r += m
	}
	return r
}
