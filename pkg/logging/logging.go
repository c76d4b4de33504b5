// Package logging sets up the controller's structured logger: plain slog
// text output, in the attribute-pair style used throughout the control loop,
// written both to stderr and to a rotating log file. Log lines are not
// colored, and the format does not change when stderr is not a terminal.
package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures New.
type Options struct {
	LogFile string
	Level   slog.Level
	Debug   bool
}

// New builds the process-wide logger: slog.TextHandler fanned out to stderr
// and a lumberjack rotating file handler at LogFile.
func New(opts Options) *slog.Logger {
	rotator := &lumberjack.Logger{
		Filename:   opts.LogFile,
		MaxSize:    5,
		MaxBackups: 3,
		MaxAge:     14,
		Compress:   true,
	}

	level := opts.Level
	if opts.Debug {
		level = slog.LevelDebug
	}

	out := io.MultiWriter(os.Stderr, rotator)
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
}

// Mode colors an FSM mode string for terminal output (the startup line
// printed by the run command).
func Mode(mode string) string {
	if mode == "UP" {
		return color.GreenString(mode)
	}
	return color.RedString(mode)
}
