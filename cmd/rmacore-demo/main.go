// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "rmacore-demo",
	Short: "Reference driver for the rmacore PGAS/RMA transport core",
	Long: `rmacore-demo brings up a small in-process run of the transport core over
the ZeroMQ-backed reference provider, exercises team splitting and a
pSync-gated reduction, and tears everything back down.

It is a demonstration and manual-inspection tool, not a load generator or
a production launcher: the out-of-band exchange it uses is the in-memory
KVS, and the "fabric" is loopback ZeroMQ sockets on one host.`,
}

func main() {
	rootCmd.AddCommand(runCmd(), checkCmd())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
