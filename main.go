// SPDX-License-Identifier: AGPL-3.0-or-later
// rrc - radio resource control core for a tactical MANET radio
// Copyright (C) 2026 Tactical Mesh Contributors

package main

import (
	"fmt"
	"os"

	"github.com/tacticalmesh/rrc/cmd"
)

// version and commit are overridden at build time via -ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	root := cmd.NewCommand(version, commit)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return cmd.ExitConfigError
	}
	return cmd.ExitOK
}
