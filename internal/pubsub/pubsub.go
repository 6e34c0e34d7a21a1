// SPDX-License-Identifier: AGPL-3.0-or-later
// rrc - radio resource control core for a tactical MANET radio
// Copyright (C) 2026 Tactical Mesh Contributors

// Package pubsub is RRC's internal event fan-out: topology-update
// observers, state-dump subscribers, and (optionally) a Redis transport
// for sharing that fan-out across processes on the same node.
package pubsub

import (
	"context"

	"github.com/tacticalmesh/rrc/internal/config"
)

type PubSub interface {
	Publish(topic string, message []byte) error
	Subscribe(topic string) Subscription
	Close() error
}

type Subscription interface {
	Close() error
	Channel() <-chan []byte
}

func MakePubSub(ctx context.Context, cfg *config.Config) (PubSub, error) {
	if cfg.Redis.Enabled {
		return makePubSubFromRedis(ctx, cfg)
	}
	return makeInMemoryPubSub(cfg)
}
