// SPDX-License-Identifier: AGPL-3.0-or-later
// rrc - radio resource control core for a tactical MANET radio
// Copyright (C) 2026 Tactical Mesh Contributors

// Package ipc models the four external couplings (L7, L3, L2, PHY) as
// Go interfaces over request/response pairs carrying a request id and
// deadline. The default implementations are in-process buffered
// channels, matching the spec's note that a single-process build needs
// no real transport; multi-process deployments can satisfy the same
// interfaces over a different wire.
package ipc

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/tacticalmesh/rrc/internal/rrc/rrcerr"
	"github.com/tacticalmesh/rrc/internal/rrc/types"
)

// DefaultDeadline is the request timeout used when a caller does not
// specify one.
const DefaultDeadline = 5 * time.Second

// SlotCheckDeadline is the tighter deadline for L2 slot checks (one
// slot duration).
const SlotCheckDeadline = 10 * time.Millisecond

// VoiceCCDeadline bounds how long the voice FSM waits for a CC.
const VoiceCCDeadline = 2 * time.Second

var requestSeq uint64

// NextRequestID returns a process-unique request id for matching
// responses to requests.
func NextRequestID() uint64 {
	return atomic.AddUint64(&requestSeq, 1)
}

// RouteRequest asks L3 for a next hop to dest_node.
type RouteRequest struct {
	RequestID uint64
	SrcNode   uint8
	DestNode  uint8
	Deadline  time.Time
}

// RouteResponse is L3's answer, or a NoRoute outcome when RouteValid is
// false.
type RouteResponse struct {
	RequestID      uint64
	DestNode       uint8
	NextHop        uint8
	HopCount       int
	LinkQuality    float64
	RouteValid     bool
	RouteLifetimeS int
}

// NeighborSummary is one row of a TopologyUpdate's neighbor list.
type NeighborSummary struct {
	ID         uint8
	RSSI       float64
	SNR        float64
	PER        float64
	LinkActive bool
	LastSeen   time.Time
}

// TopologyUpdate is pushed to L3 whenever the link-quality tracker
// detects a reportable change.
type TopologyUpdate struct {
	ReportingNode uint8
	Neighbors     []NeighborSummary
}

// DiscoveryTrigger asks L3 to prioritize route discovery for dest_node.
type DiscoveryTrigger struct {
	DestNode uint8
	Urgent   bool
}

// L3Client is the outbound coupling to OLSR-like routing.
type L3Client interface {
	RequestRoute(ctx context.Context, req RouteRequest) (RouteResponse, error)
	PublishTopologyUpdate(ctx context.Context, update TopologyUpdate) error
	RequestDiscovery(ctx context.Context, trigger DiscoveryTrigger) error
}

// SlotCheckRequest asks L2 to confirm a next hop has an allocated slot
// of the required class.
type SlotCheckRequest struct {
	RequestID     uint64
	NextHop       uint8
	PriorityClass types.PriorityClass
	Deadline      time.Time
}

// SlotCheckResponse is L2's answer.
type SlotCheckResponse struct {
	RequestID      uint64
	Success        bool
	AssignedSlot   int
	SlotBitmapLow  uint32
	SlotBitmapHigh uint8
}

// SlotInfo is one entry of a SlotTableUpdate.
type SlotInfo struct {
	SlotIndex int
	Class     int
	OwnerID   uint8
}

// RxFrame is an inbound frame reported by L2, with PHY metrics
// attached at reception time.
type RxFrame struct {
	Frame types.Frame
	RSSI  float64
	SNR   float64
}

// L2Client is the outbound coupling to the TDMA slot layer.
type L2Client interface {
	CheckSlot(ctx context.Context, req SlotCheckRequest) (SlotCheckResponse, error)
	PublishSlotTable(ctx context.Context, slots []SlotInfo) error
	SendNCRequest(ctx context.Context, payload []byte) error
	// TransmitFrame hands a scheduler-selected frame to L2 for
	// over-the-air transmission in the slot just granted. It is not part
	// of spec §6's named request/response pairs (the spec stops at
	// confirming slot availability); it is the hand-off the control-flow
	// paragraph of §2 describes as "frame is handed to L2 for
	// transmission".
	TransmitFrame(ctx context.Context, frame types.Frame) error
}

// L7Sink delivers decoded uplink traffic back to the application layer.
// Admission outcomes do not pass through it; Core.AdmitMessage returns
// them to its caller.
type L7Sink interface {
	Deliver(ctx context.Context, msg types.ApplicationMessage) error
}

// LinkQualityUpdate is the PHY layer's per-neighbor metric push.
type LinkQualityUpdate struct {
	NeighborID  uint8
	RSSIDBM     float64
	SNRDB       float64
	PERPct      float64
	TimestampNs int64
	UpdateCount uint64
}

// RfStatus gates whether any neighbor reading is accepted.
type RfStatus struct {
	PowerOK bool
	TempOK  bool
	PLLLock bool
}

// PhySource is the inbound coupling from the PHY driver.
type PhySource interface {
	Updates() <-chan LinkQualityUpdate
	Status() RfStatus
}

// L2Source is the inbound coupling carrying frames L2 received over the
// air and wants delivered into rx_relay.
type L2Source interface {
	RxFrames() <-chan RxFrame
}

// AwaitResponse blocks on ch until a response matching requestID
// arrives, ctx is cancelled, or deadline elapses — whichever comes
// first. Responses that don't match requestID are dropped per the
// spec's ordering guarantee.
func AwaitResponse[T any](ctx context.Context, ch <-chan T, requestID uint64, idOf func(T) uint64, deadline time.Time) (T, error) {
	var zero T
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return zero, rrcerr.PeerUnavailable(ctx.Err())
		case <-timer.C:
			return zero, rrcerr.New(rrcerr.KindTransport, "Timeout", nil)
		case resp, ok := <-ch:
			if !ok {
				return zero, rrcerr.PeerUnavailable(nil)
			}
			if idOf(resp) != requestID {
				continue // stale/mismatched response, discard
			}
			return resp, nil
		}
	}
}
