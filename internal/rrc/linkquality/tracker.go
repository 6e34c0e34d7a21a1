// SPDX-License-Identifier: AGPL-3.0-or-later
// rrc - radio resource control core for a tactical MANET radio
// Copyright (C) 2026 Tactical Mesh Contributors

package linkquality

import (
	"sync"
	"time"
)

// NeighborLinkState is the per-neighbor record the tracker maintains.
type NeighborLinkState struct {
	NodeID       uint8
	RSSI         float64
	SNR          float64
	PER          float64
	LastUpdateNs int64
	LinkActive   bool
	Score        float64
	NCSlot       int // 0 means unassigned; valid range is 1..40 once assigned.

	hasPrev bool
}

// TopologyUpdate is emitted to L3 whenever a PHY update changes
// link_active or exceeds a change threshold (spec §4.3, property P6).
type TopologyUpdate struct {
	NodeID      uint8
	RSSI        float64
	SNR         float64
	PER         float64
	LinkActive  bool
	TimestampNs int64
}

// TriggerFunc is invoked synchronously, before Update returns, exactly
// once per qualifying PHY update — property P6 "before the next update
// is processed".
type TriggerFunc func(TopologyUpdate)

// Tracker maps neighbor id to NeighborLinkState and decides, on every
// PHY update, whether an OLSR TopologyUpdate must fire.
type Tracker struct {
	mu         sync.RWMutex
	neighbors  map[uint8]*NeighborLinkState
	thresholds Thresholds
	onTrigger  TriggerFunc
	now        func() time.Time
}

// New creates a Tracker. onTrigger may be nil if the caller only wants
// the tracker's state (e.g. in tests); now defaults to time.Now.
func New(thresholds Thresholds, onTrigger TriggerFunc) *Tracker {
	return &Tracker{
		neighbors:  make(map[uint8]*NeighborLinkState),
		thresholds: thresholds,
		onTrigger:  onTrigger,
		now:        time.Now,
	}
}

// SetClock overrides the tracker's notion of "now", for deterministic
// staleness tests.
func (t *Tracker) SetClock(now func() time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.now = now
}

// Update applies a PHY metric reading for a neighbor. It is idempotent
// under duplicate (same-timestamp, same-value) updates (property/law L3)
// and enforces last_update_ns monotone non-decreasing by silently
// ignoring strictly-stale updates rather than erroring — a radio's PHY
// layer can legitimately deliver readings out of arrival order under
// retransmission, and discarding them is the safe default.
func (t *Tracker) Update(nodeID uint8, rssiDBM, snrDB, perPct float64, timestampNs int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, ok := t.neighbors[nodeID]
	if !ok {
		n = &NeighborLinkState{NodeID: nodeID}
		t.neighbors[nodeID] = n
	}

	if ok && timestampNs < n.LastUpdateNs {
		return // out-of-order, drop to preserve monotonicity
	}

	wasActive := n.LinkActive
	hadPrev := n.hasPrev
	prevRSSI, prevSNR, prevPER := n.RSSI, n.SNR, n.PER

	n.hasPrev = true
	n.RSSI, n.SNR, n.PER = rssiDBM, snrDB, perPct
	n.LastUpdateNs = timestampNs
	n.LinkActive = isLinkActive(rssiDBM, snrDB, perPct, t.thresholds)
	n.Score = computeScore(rssiDBM, snrDB, perPct)

	changed := !hadPrev ||
		abs(rssiDBM-prevRSSI) > t.thresholds.RSSIChangeDBM ||
		abs(snrDB-prevSNR) > t.thresholds.SNRChangeDB ||
		abs(perPct-prevPER) > t.thresholds.PERChangePct
	transitioned := n.LinkActive != wasActive

	if (changed || transitioned) && t.onTrigger != nil {
		t.onTrigger(TopologyUpdate{
			NodeID:      nodeID,
			RSSI:        rssiDBM,
			SNR:         snrDB,
			PER:         perPct,
			LinkActive:  n.LinkActive,
			TimestampNs: timestampNs,
		})
	}
}

// LinkCost returns the ETX-flavored routing cost for nodeID, and false
// if the neighbor is unknown.
func (t *Tracker) LinkCost(nodeID uint8) (float64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, ok := t.neighbors[nodeID]
	if !ok {
		return 0, false
	}
	return computeLinkCost(n.PER, n.Score), true
}

// Usable implements the scheduler's stricter usability predicate, and
// treats a stale neighbor (no update within StaleAfter) as unusable —
// spec §4.3 "treated as Unknown and not usable".
func (t *Tracker) Usable(nodeID uint8) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, ok := t.neighbors[nodeID]
	if !ok {
		return false
	}
	if t.stale(n) {
		return false
	}
	return isUsableLocked(n, t.thresholds)
}

// IsDirectNeighbor reports whether nodeID is a tracked, non-stale,
// link-active neighbor. Implements classifier.NeighborChecker.
func (t *Tracker) IsDirectNeighbor(nodeID uint8) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, ok := t.neighbors[nodeID]
	if !ok {
		return false
	}
	return !t.stale(n) && n.LinkActive
}

func (t *Tracker) stale(n *NeighborLinkState) bool {
	if !n.hasPrev {
		return true
	}
	age := t.now().Sub(time.Unix(0, n.LastUpdateNs))
	return age > t.thresholds.StaleAfter
}

// Snapshot returns a copy of a neighbor's state, for the state dump and
// NC slot bookkeeping. The bool reports whether nodeID is tracked.
func (t *Tracker) Snapshot(nodeID uint8) (NeighborLinkState, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, ok := t.neighbors[nodeID]
	if !ok {
		return NeighborLinkState{}, false
	}
	return *n, true
}

// All returns a copy of every tracked neighbor's state, keyed by id.
func (t *Tracker) All() map[uint8]NeighborLinkState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[uint8]NeighborLinkState, len(t.neighbors))
	for id, n := range t.neighbors {
		out[id] = *n
	}
	return out
}

// SetNCSlot records the NC slot index assigned to a neighbor, as
// reported via its beacon's piggyback TLV (spec §4.7).
func (t *Tracker) SetNCSlot(nodeID uint8, slot int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, ok := t.neighbors[nodeID]
	if !ok {
		n = &NeighborLinkState{NodeID: nodeID}
		t.neighbors[nodeID] = n
	}
	n.NCSlot = slot
}

// Evict removes a neighbor, freeing its NC slot bit (spec §4.7 eviction
// after two super-cycles of silence).
func (t *Tracker) Evict(nodeID uint8) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.neighbors, nodeID)
}
