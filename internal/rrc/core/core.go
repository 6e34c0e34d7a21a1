// SPDX-License-Identifier: AGPL-3.0-or-later
// rrc - radio resource control core for a tactical MANET radio
// Copyright (C) 2026 Tactical Mesh Contributors

// Package core wires the classifier, queue set, link-quality tracker,
// time-sync clock, voice FSM, scheduler, and NC slot assignor into the
// single RrcCore value the spec describes: one owner of all RRC mutable
// state, driven by a 10ms tick plus asynchronous IPC events.
package core

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tacticalmesh/rrc/internal/config"
	"github.com/tacticalmesh/rrc/internal/rrc/classifier"
	"github.com/tacticalmesh/rrc/internal/rrc/connctx"
	"github.com/tacticalmesh/rrc/internal/rrc/ipc"
	"github.com/tacticalmesh/rrc/internal/rrc/linkquality"
	"github.com/tacticalmesh/rrc/internal/rrc/ncslot"
	"github.com/tacticalmesh/rrc/internal/rrc/queue"
	"github.com/tacticalmesh/rrc/internal/rrc/rrcerr"
	"github.com/tacticalmesh/rrc/internal/rrc/scheduler"
	"github.com/tacticalmesh/rrc/internal/rrc/timesync"
	"github.com/tacticalmesh/rrc/internal/rrc/types"
	"github.com/tacticalmesh/rrc/internal/rrc/voicefsm"
)

// ncSlotsPerSupercycle is the width of the NC super-cycle in frames (two
// 10-frame cycles), each contributing the two NC slots (8,9) of spec
// §4.7 — 20 frames * 2 = ncslot.NumSlots.
const ncSlotsPerSupercycle = ncslot.NumSlots / 2

// Metrics is the subset of internal/metrics.Metrics the core updates.
// Defined locally so core has no import-time dependency on the concrete
// Prometheus registration, only the counters/gauges it touches.
type Metrics interface {
	IncSlotUnavailable()
	IncChecksumMismatch()
	IncTTLExpiredRelay()
	IncBufferFull(class string)
	IncReservationTimeout()
	IncNCSlotConflict()
	IncTopologyUpdatesEmitted()
	SetQueueDepths(depths map[string]int)
	SetCurrentSlot(slot int)
	SetSynchronized(synced bool)
	SetVoiceFSMState(state int)
}

// Core owns every piece of RRC mutable state described by the spec: the
// queue set, the classifier, the link-quality tracker, the superframe
// clock, the voice FSM, the slot scheduler, the NC bitmap, and the
// per-destination connection contexts. External collaborators observe
// it only through the ipc couplings; nothing here is package-level
// global state.
type Core struct {
	mu sync.Mutex

	cfg    *config.Config
	nodeID uint8

	queues     *queue.QueueSet
	classifier *classifier.Classifier
	tracker    *linkquality.Tracker
	clock      *timesync.State
	voice      *voicefsm.FSM
	sched      *scheduler.Scheduler
	nc         *ncslot.Bitmap
	conn       *connctx.Manager

	l3  ipc.L3Client
	l2  ipc.L2Client
	l7  ipc.L7Sink
	phy ipc.PhySource
	rx  ipc.L2Source

	metrics Metrics

	myNCSlot        int // -1 until assigned
	activeNodeCount int
	epoch           uint32
	now             func() time.Time
}

// Deps bundles the external couplings and collaborators New needs. Bus
// satisfies all five ipc client/source interfaces; callers wiring a
// multi-process deployment may pass distinct implementations instead.
type Deps struct {
	L3  ipc.L3Client
	L2  ipc.L2Client
	L7  ipc.L7Sink
	Phy ipc.PhySource
	Rx  ipc.L2Source
}

// New builds a Core from cfg and its external couplings. It sets
// activeNodeCount, the NC slot compact-round-robin guess (spec §4.7 step
// 1), to 1; nothing updates it afterwards.
func New(cfg *config.Config, deps Deps, m Metrics) *Core {
	c := &Core{
		cfg:             cfg,
		nodeID:          cfg.NodeID,
		l3:              deps.L3,
		l2:              deps.L2,
		l7:              deps.L7,
		phy:             deps.Phy,
		rx:              deps.Rx,
		metrics:         m,
		myNCSlot:        -1,
		activeNodeCount: 1,
		now:             time.Now,
	}

	c.queues = queue.NewQueueSet(cfg.Queues.Capacity)
	c.tracker = linkquality.New(thresholdsFromConfig(cfg.LinkQuality), c.onTopologyTrigger)
	c.classifier = classifier.New(c.queues, routeResolver{l3: c.l3, nodeID: c.nodeID}, c.tracker, cfg.Queues.MTU, cfg.Queues.InitialTTL)
	c.clock = timesync.New()
	c.voice = voicefsm.New(cfg.NodeID, c.queues)
	c.nc = ncslot.NewBitmap(cfg.NodeID)
	c.conn = connctx.NewManager()
	c.sched = scheduler.New(c.queues, c.voice, c, c, c.tracker, scheduler.DefaultContention, int64(cfg.NodeID)+1)

	return c
}

func thresholdsFromConfig(lq config.LinkQuality) linkquality.Thresholds {
	return linkquality.Thresholds{
		RSSIActiveDBM: lq.RSSIActiveDBM,
		SNRActiveDB:   lq.SNRActiveDB,
		PERActivePct:  lq.PERActivePct,
		RSSIChangeDBM: lq.RSSIChangeDBM,
		SNRChangeDB:   lq.SNRChangeDB,
		PERChangePct:  lq.PERChangePct,
		UsableRSSIDBM: lq.UsableRSSIDBM,
		UsableSNRDB:   lq.UsableSNRDB,
		UsablePERPct:  lq.UsablePERPct,
		StaleAfter:    lq.StaleAfter(),
	}
}

// routeResolver adapts the L3 coupling to classifier.RouteResolver.
type routeResolver struct {
	l3     ipc.L3Client
	nodeID uint8
}

func (r routeResolver) ResolveRoute(ctx context.Context, dest uint8) (uint8, bool) {
	req := ipc.RouteRequest{
		RequestID: ipc.NextRequestID(),
		SrcNode:   r.nodeID,
		DestNode:  dest,
		Deadline:  time.Now().Add(ipc.DefaultDeadline),
	}
	resp, err := r.l3.RequestRoute(ctx, req)
	if err != nil || !resp.RouteValid {
		return 0, false
	}
	return resp.NextHop, true
}

// CheckSlot implements scheduler.SlotChecker by delegating to the L2
// coupling with the tighter slot-check deadline.
func (c *Core) CheckSlot(ctx context.Context, nextHop uint8, class types.PriorityClass) bool {
	if c.l2 == nil {
		return true
	}
	resp, err := c.l2.CheckSlot(ctx, ipc.SlotCheckRequest{
		RequestID:     ipc.NextRequestID(),
		NextHop:       nextHop,
		PriorityClass: class,
		Deadline:      time.Now().Add(ipc.SlotCheckDeadline),
	})
	if err != nil {
		if c.metrics != nil {
			c.metrics.IncSlotUnavailable()
		}
		return false
	}
	if !resp.Success && c.metrics != nil {
		c.metrics.IncSlotUnavailable()
	}
	return resp.Success
}

// OwnsSlot implements scheduler.NCOwner: true iff this node's assigned
// NC slot matches the current position in the 40-slot super-cycle.
func (c *Core) OwnsSlot(slotIndex int) bool {
	if c.myNCSlot < 0 {
		return false
	}
	global := int(c.clock.FrameCounter%uint64(ncSlotsPerSupercycle))*2 + (slotIndex - 8)
	return global == c.myNCSlot
}

// onTopologyTrigger is the tracker's TriggerFunc: it publishes a
// TopologyUpdate to L3 synchronously, before Update returns, satisfying
// property P6. Publish errors are logged but never propagated; only
// successful publishes are counted — a topology push is best-effort; the next PHY update will
// retry if the link is still in a reportable state.
func (c *Core) onTopologyTrigger(u linkquality.TopologyUpdate) {
	if c.l3 == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), ipc.DefaultDeadline)
	defer cancel()

	err := c.l3.PublishTopologyUpdate(ctx, ipc.TopologyUpdate{
		ReportingNode: c.nodeID,
		Neighbors: []ipc.NeighborSummary{{
			ID:         u.NodeID,
			RSSI:       u.RSSI,
			SNR:        u.SNR,
			PER:        u.PER,
			LinkActive: u.LinkActive,
			LastSeen:   time.Unix(0, u.TimestampNs),
		}},
	})
	if err != nil {
		slog.Warn("failed to publish topology update", "neighbor", u.NodeID, "error", err)
		return
	}
	if c.metrics != nil {
		c.metrics.IncTopologyUpdatesEmitted()
	}
}

// AdmitMessage runs an inbound ApplicationMessage through the classifier
// and, on acceptance, records the traffic against the destination's
// connection context (spec §4.6).
func (c *Core) AdmitMessage(ctx context.Context, msg types.ApplicationMessage) types.AdmissionOutcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	outcome := c.classifier.Admit(ctx, msg)
	if outcome.Accepted {
		c.conn.OnAdmission(msg.Dst, msg.DataType.PriorityClass())
	} else if outcome.Reason == types.DropBufferFull && c.metrics != nil {
		c.metrics.IncBufferFull(msg.DataType.PriorityClass().String())
	}
	return outcome
}

// PressPTT handles an L7-originated PTT press, enqueueing the CR control
// frame (spec §4.5).
func (c *Core) PressPTT(ccPayload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.voice.PressPTT(ccPayload)
}

// ReceiveCC handles an L7/L2-reported CC receipt for the voice
// reservation handshake.
func (c *Core) ReceiveCC() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.voice.OnCCReceived()
}

// EndCall handles an end_call or PTT-release event.
func (c *Core) EndCall() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.voice.OnEndCall()
}

// Tick advances the superframe clock by one slot duration and runs the
// scheduler's per-slot decision, handing a transmitted frame off to L2.
// It is the single place that advances the slot clock and runs the
// scheduler; PressPTT, ReceiveCC and EndCall drive the voice FSM
// directly. The caller (Run's tick loop, or a test) must not call it
// concurrently with itself.
func (c *Core) Tick(ctx context.Context) scheduler.Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.clock.Advance(int64(timesync.SlotDurationMs))

	if c.clock.ShouldDeclareMaster() {
		c.clock.DeclareMaster()
	}

	if err := c.voice.Tick(c.now()); err != nil {
		if rerr, ok := err.(*rrcerr.Error); ok && c.metrics != nil && rerr.Code() == "ReservationTimeout" {
			c.metrics.IncReservationTimeout()
		}
		slog.Warn("voice reservation timed out waiting for CC", "error", err)
	}

	outcome := c.sched.Decide(ctx, c.clock.SlotIndex, c.clock.Synchronized)
	if outcome.SlotUnavailable && c.metrics != nil {
		c.metrics.IncSlotUnavailable()
	}
	if outcome.Transmitted || outcome.SlotUnavailable {
		if outcome.Frame.DataType == types.AnalogVoicePttData {
			c.voice.OnContentionResult(outcome.Transmitted, c.now())
		}
	}
	if outcome.Transmitted {
		c.conn.OnTransmitSuccess(outcome.Frame.Dst)
		if c.l2 != nil {
			if err := c.l2.TransmitFrame(ctx, outcome.Frame); err != nil {
				slog.Warn("failed to hand frame to L2", "error", err)
			}
		}
	}

	if c.metrics != nil {
		c.metrics.SetCurrentSlot(c.clock.SlotIndex)
		c.metrics.SetSynchronized(c.clock.Synchronized)
		c.metrics.SetVoiceFSMState(int(c.voice.State()))
		c.metrics.SetQueueDepths(c.queues.Depths())
	}

	return outcome
}

// HandlePhyUpdate feeds a PHY metric reading into the link-quality
// tracker, gated by RfStatus per spec §6. The tracker's TriggerFunc
// fires synchronously inside Update if the reading changes
// link_active or exceeds a change threshold.
func (c *Core) HandlePhyUpdate(u ipc.LinkQualityUpdate) {
	if c.phy != nil {
		status := c.phy.Status()
		if !status.PowerOK || !status.TempOK || !status.PLLLock {
			slog.Debug("dropping PHY update, RfStatus not healthy", "neighbor", u.NeighborID)
			return
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tracker.Update(u.NeighborID, u.RSSIDBM, u.SNRDB, u.PERPct, u.TimestampNs)
}

// HandleRxFrame processes one inbound frame reported by L2: checksum
// verification, local delivery, or TTL-decremented relay re-admission
// (spec §4.6).
func (c *Core) HandleRxFrame(ctx context.Context, rx ipc.RxFrame) {
	f := rx.Frame
	if !f.VerifyChecksum() {
		if c.metrics != nil {
			c.metrics.IncChecksumMismatch()
		}
		slog.Debug("dropping frame with checksum mismatch", "src", f.Src)
		return
	}

	if f.Dst == c.nodeID {
		msg := types.ApplicationMessage{
			Src:        f.Src,
			Dst:        f.Dst,
			DataType:   f.DataType,
			Payload:    f.Payload,
			PayloadLen: f.PayloadLen,
			Timestamp:  c.now(),
		}
		if c.l7 != nil {
			if err := c.l7.Deliver(ctx, msg); err != nil {
				slog.Warn("failed to deliver uplink message to L7", "error", err)
			}
		}
		return
	}

	alive := f.DecrementTTL()
	if !alive {
		if c.metrics != nil {
			c.metrics.IncTTLExpiredRelay()
		}
		slog.Debug("dropping relay frame, TTL expired", "src", f.Src, "dst", f.Dst)
		return
	}

	c.mu.Lock()
	usable := c.tracker.Usable(f.NextHop)
	c.mu.Unlock()
	if !usable {
		slog.Debug("dropping relay frame, no usable route", "src", f.Src, "dst", f.Dst)
		return
	}

	f.RxLocal = true
	f.Priority = types.ClassRxRelay
	f.DataType = types.Relay
	c.mu.Lock()
	_, _, ok := c.queues.Enqueue(f)
	c.mu.Unlock()
	if !ok && c.metrics != nil {
		c.metrics.IncBufferFull(types.ClassRxRelay.String())
	}
}

// HandleBeacons processes a batch of NC-slot beacons received while
// listening (not owning) the current NC slot: it feeds them to the
// superframe clock's averaging resync (spec §4.4) and, for the beacon
// whose piggyback TLV carries an NC slot claim, records it in the
// bitmap and tracker (spec §4.7).
func (c *Core) HandleBeacons(beacons []timesync.Beacon, claims map[uint8]int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clock.Resync(beacons)
	for nodeID, slot1Indexed := range claims {
		c.tracker.SetNCSlot(nodeID, slot1Indexed)
		c.nc.Set(slot1Indexed-1, nodeID)
	}
}

// SweepConnectionContexts applies the Setup/Connected timeout rules to
// every connection context (spec §4.6).
func (c *Core) SweepConnectionContexts() []uint8 {
	return c.conn.Sweep()
}

// AssignNCSlot runs the spec §4.7 assignment algorithm for this node, if
// it does not already own a slot, publishing the result via the NC
// bitmap and a piggyback TLV request to L2.
func (c *Core) AssignNCSlot(ctx context.Context) error {
	c.mu.Lock()
	if c.myNCSlot >= 0 {
		c.mu.Unlock()
		return nil
	}
	slot, err := ncslot.Assign(c.nc, c.nodeID, c.activeNodeCount, c.epoch)
	if err != nil {
		c.mu.Unlock()
		if c.metrics != nil {
			c.metrics.IncNCSlotConflict()
		}
		return err
	}
	c.myNCSlot = slot
	c.mu.Unlock()

	if c.l2 != nil {
		// Wire TLV uses the spec's 1-indexed NC slot numbering; the
		// bitmap and myNCSlot stay 0-based internally.
		payload := []byte{c.nodeID, byte(slot + 1)}
		if err := c.l2.SendNCRequest(ctx, payload); err != nil {
			slog.Warn("failed to publish NC slot claim", "error", err)
		}
	}
	return nil
}

// EvictStaleNeighbor frees nodeID's NC slot and tracker entry after two
// super-cycles of silence (spec §4.7).
func (c *Core) EvictStaleNeighbor(nodeID uint8, slot int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nc.Clear(slot)
	c.tracker.Evict(nodeID)
}

// Snapshot is the JSON/YAML-serializable state dump the `rrc dump`
// subcommand and the loopback state server expose.
type Snapshot struct {
	NodeID       uint8                                 `json:"node_id" yaml:"node_id"`
	Synchronized bool                                  `json:"synchronized" yaml:"synchronized"`
	Status       string                                `json:"status" yaml:"status"`
	SlotIndex    int                                   `json:"slot_index" yaml:"slot_index"`
	MasterID     uint8                                 `json:"master_id" yaml:"master_id"`
	FrameCounter uint64                                `json:"frame_counter" yaml:"frame_counter"`
	VoiceState   string                                `json:"voice_state" yaml:"voice_state"`
	MyNCSlot     int                                   `json:"my_nc_slot" yaml:"my_nc_slot"`
	QueueDepths  map[string]int                        `json:"queue_depths" yaml:"queue_depths"`
	Neighbors    map[uint8]linkquality.NeighborLinkState `json:"neighbors" yaml:"neighbors"`
}

// Dump returns a point-in-time snapshot of the core's state, for the
// operator-facing dump surface.
func (c *Core) Dump() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		NodeID:       c.nodeID,
		Synchronized: c.clock.Synchronized,
		Status:       c.clock.Status.String(),
		SlotIndex:    c.clock.SlotIndex,
		MasterID:     c.clock.MasterID,
		FrameCounter: c.clock.FrameCounter,
		VoiceState:   c.voice.State().String(),
		MyNCSlot:     c.myNCSlot,
		QueueDepths:  c.queues.Depths(),
		Neighbors:    c.tracker.All(),
	}
}

// CheckpointEnvelope is the durable form of the state the spec allows
// RRC to persist for faster rejoin after restart (§6 "Persisted
// state"): the neighbor table and the node's own NC slot claim.
type CheckpointEnvelope struct {
	SchemaVersion int                                  `json:"schema_version" yaml:"schema_version"`
	NodeID        uint8                                 `json:"node_id" yaml:"node_id"`
	MyNCSlot      int                                   `json:"my_nc_slot" yaml:"my_nc_slot"`
	Neighbors     map[uint8]linkquality.NeighborLinkState `json:"neighbors" yaml:"neighbors"`
}

const checkpointSchemaVersion = 1

// Checkpoint builds the current CheckpointEnvelope for persistence.
func (c *Core) Checkpoint() CheckpointEnvelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CheckpointEnvelope{
		SchemaVersion: checkpointSchemaVersion,
		NodeID:        c.nodeID,
		MyNCSlot:      c.myNCSlot,
		Neighbors:     c.tracker.All(),
	}
}

// Restore seeds the tracker and NC bitmap from a previously-saved
// checkpoint, for faster rejoin on restart. It is a best-effort warm
// start: staleness and change-detection on the next real PHY update
// still govern whether the restored state is trusted.
func (c *Core) Restore(env CheckpointEnvelope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if env.NodeID != c.nodeID {
		return
	}
	for id, n := range env.Neighbors {
		c.tracker.Update(id, n.RSSI, n.SNR, n.PER, n.LastUpdateNs)
		if n.NCSlot > 0 {
			c.tracker.SetNCSlot(id, n.NCSlot)
			c.nc.Set(n.NCSlot-1, id)
		}
	}
	if env.MyNCSlot >= 0 {
		c.myNCSlot = env.MyNCSlot
		c.nc.Set(env.MyNCSlot, c.nodeID)
	}
}
