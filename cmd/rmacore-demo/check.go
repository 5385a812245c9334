// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/luxfi/rmacore/config"
)

// checkCmd validates a configuration built from flags, the way the
// teacher's own "check" subcommand validates consensus parameters before
// a run rather than after one fails.
func checkCmd() *cobra.Command {
	var teamsMax, stxMax int
	var stxAuto bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a transport core configuration",
		Long:  "Build a config.Config from flags and report whether it satisfies config.Valid().",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			cfg.TeamsMax = teamsMax
			cfg.StxMax = stxMax
			cfg.StxAuto = stxAuto

			if err := cfg.Valid(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			fmt.Printf("configuration OK: teams_max=%d stx_max=%d stx_auto=%v\n", cfg.TeamsMax, cfg.StxMax, cfg.StxAuto)
			return nil
		},
	}

	cmd.Flags().IntVar(&teamsMax, "teams-max", 32, "maximum simultaneous teams")
	cmd.Flags().IntVar(&stxMax, "stx-max", 1, "STX pool size")
	cmd.Flags().BoolVar(&stxAuto, "stx-auto", false, "derive STX pool size from the provider's reported transmit-context count")

	return cmd
}
