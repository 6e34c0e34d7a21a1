// SPDX-License-Identifier: AGPL-3.0-or-later
// rrc - radio resource control core for a tactical MANET radio
// Copyright (C) 2026 Tactical Mesh Contributors

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/tacticalmesh/rrc/internal/kv"
	"github.com/tacticalmesh/rrc/internal/metrics"
	"github.com/tacticalmesh/rrc/internal/rrc/core"
	"github.com/tacticalmesh/rrc/internal/rrc/ipc"
	"github.com/tacticalmesh/rrc/internal/statesrv"
)

// ipcBufferSize is the buffered channel depth for the in-process
// ChannelBus wiring every external coupling, since L3/L2/L7/PHY
// transports are out of scope (spec.md §1) and the bus is the default
// implementation.
const ipcBufferSize = 64

func newRunCommand() *cobra.Command {
	var configPath string
	var nodeID uint8
	var stateAddr string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "start the tick loop and IPC listeners for a single RRC node",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRun(cmd, configPath, nodeID, stateAddr)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file overlaying the defaults")
	cmd.Flags().Uint8Var(&nodeID, "node-id", 0, "this node's address")
	cmd.Flags().StringVar(&stateAddr, "state-addr", "127.0.0.1:9091", "loopback address the state-dump server listens on")
	return cmd
}

func runRun(cmd *cobra.Command, configPath string, nodeID uint8, stateAddr string) (err error) {
	cfg, loadErr := loadConfig(configPath)
	if loadErr != nil {
		slog.Error("configuration error", "error", loadErr)
		os.Exit(ExitConfigError)
	}
	if nodeID != 0 {
		cfg.NodeID = nodeID
	}
	setupLogger(cfg)

	defer func() {
		if r := recover(); r != nil {
			slog.Error("unrecoverable invariant violation", "panic", r)
			os.Exit(ExitInvariantPanic)
		}
	}()

	bus := ipc.NewChannelBus(ipcBufferSize)
	deps := core.Deps{L3: bus, L2: bus, L7: bus, Phy: bus, Rx: bus}

	m := metrics.NewMetrics()
	c := core.New(cfg, deps, m)

	store, err := kv.MakeKV(cmd.Context(), cfg)
	if err != nil {
		slog.Error("failed to start IPC/KV backing store", "error", err)
		os.Exit(ExitIPCStartupFailed)
	}

	var checkpoint *core.Checkpointer
	if cfg.Checkpoint.Enabled {
		checkpoint = core.NewCheckpointer(store, cfg.Checkpoint.Interval())
		if env, ok, loadErr := checkpoint.Load(cmd.Context(), cfg.NodeID); loadErr != nil {
			slog.Warn("failed to load checkpoint, starting cold", "error", loadErr)
		} else if ok {
			c.Restore(env)
			slog.Info("restored checkpoint", "node_id", cfg.NodeID)
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	go func() {
		if err := metrics.CreateMetricsServer(cfg); err != nil {
			slog.Error("metrics server stopped", "error", err)
		}
	}()
	go func() {
		if err := statesrv.Serve(stateAddr, c); err != nil {
			slog.Error("state server stopped", "error", err)
		}
	}()

	slog.Info("rrc node starting", "node_id", cfg.NodeID, "state_addr", stateAddr)
	if err := c.Run(ctx, checkpoint); err != nil && ctx.Err() == nil {
		return fmt.Errorf("core run loop exited: %w", err)
	}
	slog.Info("rrc node stopped")
	return nil
}
