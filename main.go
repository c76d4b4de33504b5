package main

import (
	"os"
	"os/signal"
	"syscall"

	"kiosk-controller/cmd"
	"kiosk-controller/pkg/crash"
)

func main() {
	defer crash.Handler()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		crash.StopSentinel()
		os.Exit(0)
	}()

	cmd.Execute()
}
