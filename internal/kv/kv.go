// SPDX-License-Identifier: AGPL-3.0-or-later
// rrc - radio resource control core for a tactical MANET radio
// Copyright (C) 2026 Tactical Mesh Contributors

// Package kv provides the key-value store RRC checkpoints its neighbor
// table and its own NC slot claim into, so a restarted node can
// rejoin the network without waiting out a full cold-start scan.
package kv

import (
	"context"
	"fmt"
	"time"

	"github.com/tacticalmesh/rrc/internal/config"
)

// KV is the checkpoint store contract. RRC is single-instance per node
// (see SPEC_FULL.md Non-goals), so the distributed-lock primitives the
// teacher's KV interface carries have no RRC caller and are dropped.
type KV interface {
	Has(ctx context.Context, key string) (bool, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Scan(ctx context.Context, cursor uint64, match string, count int64) ([]string, uint64, error)
	Close() error
}

// MakeKV creates a new key-value store client, backed by Redis when
// configured and by an in-process map otherwise.
func MakeKV(ctx context.Context, cfg *config.Config) (KV, error) {
	if cfg.Redis.Enabled {
		redisKV, err := makeRedisKV(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis kv: %w", err)
		}
		return redisKV, nil
	}

	return makeInMemoryKV(ctx, cfg)
}
