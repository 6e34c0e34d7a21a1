// SPDX-License-Identifier: AGPL-3.0-or-later
// rrc - radio resource control core for a tactical MANET radio
// Copyright (C) 2026 Tactical Mesh Contributors

package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tacticalmesh/rrc/internal/statesrv"
)

func newDumpCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "query a running rrc node's state snapshot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := statesrv.Fetch(addr)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(snap, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding state snapshot: %w", err)
			}
			cmd.Println(string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:9091", "host:port of the running node's state server")
	return cmd
}
