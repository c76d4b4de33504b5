package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"kiosk-controller/pkg/control"
	"kiosk-controller/pkg/crash"
	"kiosk-controller/pkg/logging"
	"kiosk-controller/pkg/metrics"
	"kiosk-controller/pkg/router"
)

var debugLogging bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the controller (default when invoked with no subcommand)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runController()
	},
}

func init() {
	runCmd.Flags().BoolVar(&debugLogging, "debug", false, "enable debug-level logging")
	rootCmd.AddCommand(runCmd)
}

func runController() error {
	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		fmt.Fprintln(os.Stderr, "could not create cache dir:", err)
	}

	log := logging.New(logging.Options{LogFile: cfg.LogFile, Level: slog.LevelInfo, Debug: debugLogging})
	if _, err := exec.LookPath("ip"); err != nil {
		log.Error("required OS tool not found", "tool", "ip")
		os.Exit(2)
	}
	for _, tool := range []string{"wmctrl", "xdotool"} {
		if _, err := exec.LookPath(tool); err != nil {
			log.Warn("window tool not found, continuing without it", "tool", tool)
		}
	}
	for env, def := range map[string]string{"DISPLAY": cfg.DefaultDisplay, "XAUTHORITY": cfg.DefaultXauthority} {
		if os.Getenv(env) == "" {
			log.Warn("environment variable not set, using configured default", "var", env, "value", def)
		}
	}

	crash.SetCrashLogFile(cfg.LogFile + ".crash")
	crash.SetSentinelFile(cfg.CacheDir + "/kiosk-controller.pid")

	if crash.StartSentinel() {
		log.Warn("previous run did not shut down cleanly")
	}
	defer crash.StopSentinel()

	splashHTML, err := os.ReadFile(cfg.SplashFile)
	if err != nil {
		log.Warn("splash file unreadable, writing and using the built-in default", "path", cfg.SplashFile, "error", err)
		splashHTML = []byte(router.DefaultSplash())
		if err := os.WriteFile(cfg.SplashFile, splashHTML, 0o644); err != nil {
			log.Warn("could not write default splash file", "error", err)
		}
	}

	collectors := metrics.New()
	rtr := router.New(string(splashHTML), cfg.PanelTitleToken)
	srv := rtr.Server(cfg.RouterPort, collectors)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("shutting down")
		cancel()
	}()

	crash.SafeGo("router", func() {
		if err := router.Run(ctx, srv); err != nil {
			log.Error("router server failed", "error", err)
		}
	})

	controller := control.New(cfg, log, rtr, collectors)
	log.Info("controller starting", "router_port", cfg.RouterPort, "aida_port", cfg.AidaPort)
	fmt.Fprintf(os.Stderr, "starting in %s mode\n", logging.Mode("DOWN"))
	controller.Run(ctx)

	fmt.Fprintln(os.Stderr, "kiosk-controller stopped")
	return nil
}
