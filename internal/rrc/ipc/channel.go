// SPDX-License-Identifier: AGPL-3.0-or-later
// rrc - radio resource control core for a tactical MANET radio
// Copyright (C) 2026 Tactical Mesh Contributors

package ipc

import (
	"context"
	"time"

	"github.com/tacticalmesh/rrc/internal/rrc/rrcerr"
	"github.com/tacticalmesh/rrc/internal/rrc/types"
)

// ChannelBus is the in-process default transport for the four external
// couplings: single-producer/single-consumer buffered channels, with a
// bounded wait on send (at most one slot = 10ms) matching §5's
// suspension-point rule.
type ChannelBus struct {
	SendWait time.Duration

	routeReq  chan RouteRequest
	routeResp chan RouteResponse
	topology  chan TopologyUpdate
	discovery chan DiscoveryTrigger

	slotReq   chan SlotCheckRequest
	slotResp  chan SlotCheckResponse
	slotTable chan []SlotInfo
	ncReq     chan []byte

	uplink chan types.ApplicationMessage
	phy    chan LinkQualityUpdate
	txOut  chan types.Frame
	rxIn   chan RxFrame
}

// NewChannelBus allocates a ChannelBus with the given per-channel
// buffer depth.
func NewChannelBus(bufSize int) *ChannelBus {
	return &ChannelBus{
		SendWait:  time.Duration(10) * time.Millisecond,
		routeReq:  make(chan RouteRequest, bufSize),
		routeResp: make(chan RouteResponse, bufSize),
		topology:  make(chan TopologyUpdate, bufSize),
		discovery: make(chan DiscoveryTrigger, bufSize),
		slotReq:   make(chan SlotCheckRequest, bufSize),
		slotResp:  make(chan SlotCheckResponse, bufSize),
		slotTable: make(chan []SlotInfo, bufSize),
		ncReq:     make(chan []byte, bufSize),
		uplink:    make(chan types.ApplicationMessage, bufSize),
		phy:       make(chan LinkQualityUpdate, bufSize),
		txOut:     make(chan types.Frame, bufSize),
		rxIn:      make(chan RxFrame, bufSize),
	}
}

func (b *ChannelBus) send(ctx context.Context, timeout time.Duration, fn func() bool) error {
	if fn() {
		return nil
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return rrcerr.PeerUnavailable(ctx.Err())
	case <-timer.C:
		return rrcerr.ChannelFull(nil)
	}
}

// --- L3Client ---

func (b *ChannelBus) RequestRoute(ctx context.Context, req RouteRequest) (RouteResponse, error) {
	err := b.send(ctx, b.SendWait, func() bool {
		select {
		case b.routeReq <- req:
			return true
		default:
			return false
		}
	})
	if err != nil {
		return RouteResponse{}, err
	}
	deadline := req.Deadline
	if deadline.IsZero() {
		deadline = time.Now().Add(DefaultDeadline)
	}
	return AwaitResponse(ctx, b.routeResp, req.RequestID, func(r RouteResponse) uint64 { return r.RequestID }, deadline)
}

func (b *ChannelBus) PublishTopologyUpdate(ctx context.Context, update TopologyUpdate) error {
	return b.send(ctx, b.SendWait, func() bool {
		select {
		case b.topology <- update:
			return true
		default:
			return false
		}
	})
}

func (b *ChannelBus) RequestDiscovery(ctx context.Context, trigger DiscoveryTrigger) error {
	return b.send(ctx, b.SendWait, func() bool {
		select {
		case b.discovery <- trigger:
			return true
		default:
			return false
		}
	})
}

// RouteRequests exposes the request channel for an L3-side consumer.
func (b *ChannelBus) RouteRequests() <-chan RouteRequest { return b.routeReq }

// RespondRoute delivers an L3-side response back to the waiting caller.
func (b *ChannelBus) RespondRoute(resp RouteResponse) { b.routeResp <- resp }

// --- L2Client ---

func (b *ChannelBus) CheckSlot(ctx context.Context, req SlotCheckRequest) (SlotCheckResponse, error) {
	err := b.send(ctx, SlotCheckDeadline, func() bool {
		select {
		case b.slotReq <- req:
			return true
		default:
			return false
		}
	})
	if err != nil {
		return SlotCheckResponse{}, err
	}
	deadline := req.Deadline
	if deadline.IsZero() {
		deadline = time.Now().Add(SlotCheckDeadline)
	}
	return AwaitResponse(ctx, b.slotResp, req.RequestID, func(r SlotCheckResponse) uint64 { return r.RequestID }, deadline)
}

func (b *ChannelBus) PublishSlotTable(ctx context.Context, slots []SlotInfo) error {
	return b.send(ctx, b.SendWait, func() bool {
		select {
		case b.slotTable <- slots:
			return true
		default:
			return false
		}
	})
}

func (b *ChannelBus) SendNCRequest(ctx context.Context, payload []byte) error {
	return b.send(ctx, b.SendWait, func() bool {
		select {
		case b.ncReq <- payload:
			return true
		default:
			return false
		}
	})
}

func (b *ChannelBus) TransmitFrame(ctx context.Context, frame types.Frame) error {
	return b.send(ctx, b.SendWait, func() bool {
		select {
		case b.txOut <- frame:
			return true
		default:
			return false
		}
	})
}

// TransmittedFrames exposes the outbound-frame channel for an L2-side
// consumer.
func (b *ChannelBus) TransmittedFrames() <-chan types.Frame { return b.txOut }

// PushRxFrame is the L2-side producer call delivering a received frame
// into RRC's inbound path.
func (b *ChannelBus) PushRxFrame(f RxFrame) {
	b.rxIn <- f
}

// RxFrames implements L2Source for an RRC-side consumer.
func (b *ChannelBus) RxFrames() <-chan RxFrame { return b.rxIn }

// SlotCheckRequests exposes the request channel for an L2-side consumer.
func (b *ChannelBus) SlotCheckRequests() <-chan SlotCheckRequest { return b.slotReq }

// RespondSlotCheck delivers an L2-side response back to the waiting caller.
func (b *ChannelBus) RespondSlotCheck(resp SlotCheckResponse) { b.slotResp <- resp }

// --- L7Sink ---

func (b *ChannelBus) Deliver(ctx context.Context, msg types.ApplicationMessage) error {
	return b.send(ctx, b.SendWait, func() bool {
		select {
		case b.uplink <- msg:
			return true
		default:
			return false
		}
	})
}

// Uplink exposes the delivered-message channel for an L7-side consumer.
func (b *ChannelBus) Uplink() <-chan types.ApplicationMessage { return b.uplink }

// --- PhySource ---

func (b *ChannelBus) Updates() <-chan LinkQualityUpdate { return b.phy }

func (b *ChannelBus) Status() RfStatus {
	return RfStatus{PowerOK: true, TempOK: true, PLLLock: true}
}

// PushPhyUpdate is the PHY-side producer call.
func (b *ChannelBus) PushPhyUpdate(u LinkQualityUpdate) {
	b.phy <- u
}
