// SPDX-License-Identifier: AGPL-3.0-or-later
// rrc - radio resource control core for a tactical MANET radio
// Copyright (C) 2026 Tactical Mesh Contributors

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/tacticalmesh/rrc/internal/config"
	"gopkg.in/yaml.v3"
)

// Exit codes per the lifecycle CLI's external contract: 0 clean, 2
// configuration error, 3 IPC startup failure, 4 an unrecoverable
// invariant violation recovered as a panic.
const (
	ExitOK               = 0
	ExitConfigError      = 2
	ExitIPCStartupFailed = 3
	ExitInvariantPanic   = 4
)

// NewCommand builds the rrc root command with its run and dump
// subcommands.
func NewCommand(version, commit string) *cobra.Command {
	root := &cobra.Command{
		Use:     "rrc",
		Version: fmt.Sprintf("%s - %s", version, commit),
		Annotations: map[string]string{
			"version": version,
			"commit":  commit,
		},
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}
	root.AddCommand(newRunCommand())
	root.AddCommand(newDumpCommand())
	return root
}

// loadConfig resolves a Config, layering an optional --config file over
// the literal defaults DefaultConfig establishes.
func loadConfig(path string) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setupLogger(cfg *config.Config) {
	var logger *slog.Logger
	switch cfg.LogLevel {
	case config.LogLevelDebug:
		logger = slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: slog.LevelDebug}))
	case config.LogLevelWarn:
		logger = slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelWarn}))
	case config.LogLevelError:
		logger = slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelError}))
	default:
		logger = slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: slog.LevelInfo}))
	}
	slog.SetDefault(logger)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
}
