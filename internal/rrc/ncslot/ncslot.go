// SPDX-License-Identifier: AGPL-3.0-or-later
// rrc - radio resource control core for a tactical MANET radio
// Copyright (C) 2026 Tactical Mesh Contributors

// Package ncslot implements the 40-slot network-control super-cycle
// assignment algorithm: compact round-robin, a seedex hash picker, and
// a linear-probe fallback, each node claiming exactly one of 40 slots.
package ncslot

import (
	"github.com/cespare/xxhash/v2"
	"github.com/tacticalmesh/rrc/internal/rrc/rrcerr"
)

// NumSlots is the width of the NC super-cycle bitmap (two 10-frame
// cycles x 2 NC slots/frame).
const NumSlots = 40

// maxSeedexTries bounds the seedex probing round before falling back to
// linear probing.
const maxSeedexTries = 16

// Bitmap tracks which of the 40 NC slots are claimed and by whom.
// A slot is "taken" for assignment purposes iff its bit is set and the
// owner is not self.
type Bitmap struct {
	owner  [NumSlots]uint8
	taken  [NumSlots]bool
	selfID uint8
}

// NewBitmap creates an empty bitmap for a node identified by selfID.
func NewBitmap(selfID uint8) *Bitmap {
	return &Bitmap{selfID: selfID}
}

// Set marks slot as claimed by owner.
func (b *Bitmap) Set(slot int, owner uint8) {
	b.taken[slot] = true
	b.owner[slot] = owner
}

// Clear frees slot, e.g. on neighbor eviction.
func (b *Bitmap) Clear(slot int) {
	b.taken[slot] = false
	b.owner[slot] = 0
}

// takenByOther reports whether slot is claimed by a node other than
// self — the only sense in which a slot blocks a new assignment.
func (b *Bitmap) takenByOther(slot int) bool {
	return b.taken[slot] && b.owner[slot] != b.selfID
}

// Assign implements the spec §4.7 algorithm in order: compact
// round-robin, seedex hash probing, linear probe fallback. On success
// it claims the slot for selfID and returns its index (0-based
// internally, 1..40 in the wire TLV per the spec's 1-indexed
// description — callers add 1 when publishing). Returns an
// NcSlotConflict error if all 40 positions are taken by others.
func Assign(b *Bitmap, nodeID uint8, activeNodeCount int, epoch uint32) (int, error) {
	if activeNodeCount > 0 && activeNodeCount <= NumSlots {
		candidate := int(nodeID) % activeNodeCount
		if !b.takenByOther(candidate) {
			b.Set(candidate, nodeID)
			return candidate, nil
		}
	}

	for try := 0; try < maxSeedexTries; try++ {
		candidate := seedexHash(nodeID, epoch, try)
		if !b.takenByOther(candidate) {
			b.Set(candidate, nodeID)
			return candidate, nil
		}
	}

	start := int(nodeID) % NumSlots
	for i := 0; i < NumSlots; i++ {
		candidate := (start + i) % NumSlots
		if !b.takenByOther(candidate) {
			b.Set(candidate, nodeID)
			return candidate, nil
		}
	}

	return -1, rrcerr.NcSlotConflict(nil)
}

// seedexHash mixes (node_id << 16) ^ epoch ^ (try * 0x9e3779b1) through
// two rounds of a 32-bit integer hash (xxhash over the mixed seed,
// folded to 32 bits) and reduces the result modulo NumSlots.
func seedexHash(nodeID uint8, epoch uint32, try int) int {
	seed := (uint32(nodeID) << 16) ^ epoch ^ (uint32(try) * 0x9e3779b1)

	buf := [4]byte{byte(seed), byte(seed >> 8), byte(seed >> 16), byte(seed >> 24)}
	h1 := xxhash.Sum64(buf[:])

	buf2 := [8]byte{
		byte(h1), byte(h1 >> 8), byte(h1 >> 16), byte(h1 >> 24),
		byte(h1 >> 32), byte(h1 >> 40), byte(h1 >> 48), byte(h1 >> 56),
	}
	h2 := xxhash.Sum64(buf2[:])

	return int(uint32(h2) % NumSlots)
}
