package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"kiosk-controller/pkg/config"
)

var cfgFile string

// cfg is populated by initConfig and consumed by every subcommand.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "kiosk-controller",
	Short: "Keeps a kiosk browser pointed at a reachable AIDA64 RemoteSensor panel",
	Long: `kiosk-controller watches a single AIDA64 RemoteSensor panel on the
local network, falls back to bounded LAN discovery when it stops answering,
and keeps a kiosk-mode browser window pointed at whichever target is
currently confirmed up — without ever navigating the browser itself.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runController()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default: /etc/kiosk-controller.json)")
}

func initConfig() {
	loaded, path, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}
	cfg = loaded
	if path != "" {
		fmt.Fprintln(os.Stderr, "using config file:", path)
	}
}
