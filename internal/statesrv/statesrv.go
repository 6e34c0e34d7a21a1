// SPDX-License-Identifier: AGPL-3.0-or-later
// rrc - radio resource control core for a tactical MANET radio
// Copyright (C) 2026 Tactical Mesh Contributors

// Package statesrv serves a running Core's state snapshot as JSON over a
// loopback HTTP listener, the same "small HTTP endpoint serving JSON"
// shape as internal/metrics, reused here for an operator dump instead
// of a Prometheus scrape target.
package statesrv

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tacticalmesh/rrc/internal/rrc/core"
)

const readTimeout = 3 * time.Second

// Dumper is the subset of core.Core the state server needs.
type Dumper interface {
	Dump() core.Snapshot
}

// Serve blocks serving the node's state snapshot as JSON on addr until
// the listener fails.
func Serve(addr string, dumper Dumper) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/state", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(dumper.Dump()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readTimeout,
	}
	if err := server.ListenAndServe(); err != nil {
		return fmt.Errorf("state server on %s: %w", addr, err)
	}
	return nil
}

// Fetch queries a running instance's state snapshot over the loopback
// server, for the `rrc dump` subcommand.
func Fetch(addr string) (core.Snapshot, error) {
	client := http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://%s/state", addr))
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("querying state server at %s: %w", addr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return core.Snapshot{}, fmt.Errorf("state server at %s returned %s", addr, resp.Status)
	}

	var snap core.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return core.Snapshot{}, fmt.Errorf("decoding state snapshot: %w", err)
	}
	return snap, nil
}
