// SPDX-License-Identifier: AGPL-3.0-or-later
// rrc - radio resource control core for a tactical MANET radio
// Copyright (C) 2026 Tactical Mesh Contributors

package types

import "fmt"

// DefaultMTU is the payload size ceiling for the modern, configurable-MTU
// core this repository implements (see SPEC_FULL.md Open Question 1 —
// the legacy fixed-16-byte core is not built here).
const DefaultMTU = 256

// DefaultInitialTTL is the TTL a freshly admitted frame is stamped with.
// The spec allows 10-16; 12 sits in the middle of that range.
const DefaultInitialTTL = 12

// Frame is the unit of L2 transmission. Checksum covers Payload[:PayloadLen];
// NewFrame sets it and the RX path verifies it, while dequeue does not.
type Frame struct {
	Src           uint8
	Dst           uint8
	NextHop       uint8
	RxLocal       bool // true if this frame arrived from L2 rather than being locally originated
	TTL           uint8
	InitialTTL    uint8
	Priority      PriorityClass
	DataType      DataType
	Payload       []byte
	PayloadLen    int
	Checksum      uint16
}

// NewFrame builds a Frame from a payload, stamping TTL and computing the
// checksum. It does not validate MTU — callers (the classifier) must do
// that before calling NewFrame, since the rejection needs to happen
// before any Frame exists at all.
func NewFrame(src, dst uint8, dt DataType, payload []byte, initialTTL uint8) Frame {
	buf := make([]byte, len(payload))
	copy(buf, payload)
	f := Frame{
		Src:        src,
		Dst:        dst,
		NextHop:    dst,
		TTL:        initialTTL,
		InitialTTL: initialTTL,
		Priority:   dt.PriorityClass(),
		DataType:   dt,
		Payload:    buf,
		PayloadLen: len(buf),
	}
	f.Checksum = Checksum16(f.Payload, f.PayloadLen)
	return f
}

// VerifyChecksum reports whether the frame's stored checksum still
// matches its payload and length.
func (f *Frame) VerifyChecksum() bool {
	return VerifyChecksum16(f.Payload, f.PayloadLen, f.Checksum)
}

// DecrementTTL decreases TTL by one for a relay hop, never letting it go
// negative. It reports whether the frame is still alive after the
// decrement (TTL > 0).
func (f *Frame) DecrementTTL() bool {
	if f.TTL == 0 {
		return false
	}
	f.TTL--
	return f.TTL > 0
}

// DirectNeighbor reports whether the frame's invariant "next_hop ==
// destination iff destination is a direct neighbor" is satisfied, given
// the caller's knowledge of whether Dst is a direct neighbor.
func (f *Frame) DirectNeighbor(isDirectNeighbor bool) bool {
	return (f.NextHop == f.Dst) == isDirectNeighbor
}

func (f Frame) String() string {
	return fmt.Sprintf("Frame{src=%d dst=%d nextHop=%d ttl=%d/%d class=%s type=%s len=%d}",
		f.Src, f.Dst, f.NextHop, f.TTL, f.InitialTTL, f.Priority, f.DataType, f.PayloadLen)
}
