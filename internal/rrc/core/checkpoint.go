// SPDX-License-Identifier: AGPL-3.0-or-later
// rrc - radio resource control core for a tactical MANET radio
// Copyright (C) 2026 Tactical Mesh Contributors

package core

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tacticalmesh/rrc/internal/kv"
)

// checkpointKeyPrefix namespaces RRC's checkpoint records in a KV store
// that may be shared with other node subsystems.
const checkpointKeyPrefix = "rrc:checkpoint:"

// Checkpointer persists and restores a Core's CheckpointEnvelope through
// a kv.KV store, on the cadence configured by Checkpoint.IntervalS.
type Checkpointer struct {
	store    kv.KV
	interval time.Duration
}

// NewCheckpointer wraps store for periodic saves every interval.
func NewCheckpointer(store kv.KV, interval time.Duration) *Checkpointer {
	return &Checkpointer{store: store, interval: interval}
}

func checkpointKey(nodeID uint8) string {
	return fmt.Sprintf("%s%d", checkpointKeyPrefix, nodeID)
}

// Save serializes env and writes it to the KV store under this node's key.
func (c *Checkpointer) Save(ctx context.Context, env CheckpointEnvelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	return c.store.Set(ctx, checkpointKey(env.NodeID), data)
}

// Load fetches and deserializes the checkpoint for nodeID. The bool
// reports whether a checkpoint existed.
func (c *Checkpointer) Load(ctx context.Context, nodeID uint8) (CheckpointEnvelope, bool, error) {
	key := checkpointKey(nodeID)
	has, err := c.store.Has(ctx, key)
	if err != nil {
		return CheckpointEnvelope{}, false, fmt.Errorf("checking checkpoint existence: %w", err)
	}
	if !has {
		return CheckpointEnvelope{}, false, nil
	}

	data, err := c.store.Get(ctx, key)
	if err != nil {
		return CheckpointEnvelope{}, false, fmt.Errorf("reading checkpoint: %w", err)
	}

	var env CheckpointEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return CheckpointEnvelope{}, false, fmt.Errorf("unmarshal checkpoint: %w", err)
	}
	return env, true, nil
}
