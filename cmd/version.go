package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "0.1.0"

// BuildDate is set at build time via ldflags.
var BuildDate = "unknown"

// GitCommit is set at build time via ldflags.
var GitCommit = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("kiosk-controller v%s\n", Version)
		if BuildDate != "unknown" {
			fmt.Printf("build date: %s\n", BuildDate)
		}
		if GitCommit != "unknown" {
			fmt.Printf("git commit: %s\n", GitCommit)
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
