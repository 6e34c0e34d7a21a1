// SPDX-License-Identifier: AGPL-3.0-or-later
// rrc - radio resource control core for a tactical MANET radio
// Copyright (C) 2026 Tactical Mesh Contributors

// Package classifier implements the admission layer: it turns an
// ApplicationMessage from L7 into exactly one enqueued Frame, or a typed
// rejection, per the datatype-to-priority table in the spec.
package classifier

import (
	"context"
	"log/slog"

	"github.com/tacticalmesh/rrc/internal/rrc/queue"
	"github.com/tacticalmesh/rrc/internal/rrc/types"
)

// RouteResolver answers "what's the next hop to reach dest", consulting
// L3 when dest is not a direct neighbor. Implemented by the IPC fabric's
// L3 client.
type RouteResolver interface {
	ResolveRoute(ctx context.Context, dest uint8) (nextHop uint8, ok bool)
}

// NeighborChecker answers whether a node id is currently a tracked
// direct neighbor. Implemented by the link-quality tracker.
type NeighborChecker interface {
	IsDirectNeighbor(id uint8) bool
}

// Classifier is the admission layer. It is stateless aside from its
// collaborators; all mutable state lives in the QueueSet it is given.
type Classifier struct {
	MTU        int
	InitialTTL uint8

	Queues    *queue.QueueSet
	Routes    RouteResolver
	Neighbors NeighborChecker
}

// New builds a Classifier. mtu and initialTTL of zero fall back to the
// package defaults from the types package.
func New(qs *queue.QueueSet, routes RouteResolver, neighbors NeighborChecker, mtu int, initialTTL uint8) *Classifier {
	if mtu <= 0 {
		mtu = types.DefaultMTU
	}
	if initialTTL == 0 {
		initialTTL = types.DefaultInitialTTL
	}
	return &Classifier{
		MTU:        mtu,
		InitialTTL: initialTTL,
		Queues:     qs,
		Routes:     routes,
		Neighbors:  neighbors,
	}
}

// Admit classifies and admits msg, returning the outcome to report back
// to L7. It never panics on malformed input; a declared payload length
// that exceeds MTU, is negative, or exceeds the payload actually carried
// is treated as PayloadTooLarge.
func (c *Classifier) Admit(ctx context.Context, msg types.ApplicationMessage) types.AdmissionOutcome {
	if msg.DataType == types.Unknown {
		slog.Warn("classifying message with unknown datatype", "src", msg.Src, "dst", msg.Dst)
	}

	if msg.PayloadLen > c.MTU || len(msg.Payload) > c.MTU {
		return types.Dropped(types.DropPayloadTooLarge)
	}
	if msg.PayloadLen < 0 || msg.PayloadLen > len(msg.Payload) {
		return types.Dropped(types.DropPayloadTooLarge)
	}

	f := types.NewFrame(msg.Src, msg.Dst, msg.DataType, msg.Payload[:msg.PayloadLen], c.InitialTTL)

	if c.Neighbors != nil && !c.Neighbors.IsDirectNeighbor(msg.Dst) {
		nextHop, ok := c.Routes.ResolveRoute(ctx, msg.Dst)
		if !ok {
			return types.Dropped(types.DropNoRouteAvailable)
		}
		f.NextHop = nextHop
	}

	dropped, droppedAny, ok := c.Queues.Enqueue(f)
	if !ok {
		return types.Dropped(types.DropBufferFull)
	}
	if droppedAny {
		slog.Debug("queue overflow, dropped oldest same-or-lower-priority frame",
			"queue_class", f.Priority, "dropped_src", dropped.Src)
	}
	return types.Accepted()
}
