// Package crash provides global panic recovery and crash logging for the
// kiosk controller, plus a sentinel file that detects an unclean previous
// shutdown (killed from outside, power loss, OOM).
package crash

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

// Info describes one captured panic.
type Info struct {
	Time         time.Time
	Error        interface{}
	StackTrace   string
	GoVersion    string
	OS           string
	Arch         string
	NumGoroutine int
	NumCPU       int
	MemStats     runtime.MemStats
}

var crashLogFile = "kiosk_controller_crash.log"
var sentinelFile = "kiosk-controller.pid"

// SetCrashLogFile overrides the crash log destination; called once from
// cmd/run.go after the config file (and its CacheDir) is resolved.
func SetCrashLogFile(path string) {
	crashLogFile = path
}

// SetSentinelFile overrides the sentinel marker path.
func SetSentinelFile(path string) {
	sentinelFile = path
}

// Handler is the top-level recover, deferred once in main().
func Handler() {
	if r := recover(); r != nil {
		handleCrash(r)
	}
}

func handleCrash(r interface{}) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	info := Info{
		Time:         time.Now(),
		Error:        r,
		StackTrace:   string(debug.Stack()),
		GoVersion:    runtime.Version(),
		OS:           runtime.GOOS,
		Arch:         runtime.GOARCH,
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemStats:     memStats,
	}

	logCrash(info)
	printCrashMessage(info)
	os.Exit(1)
}

func logCrash(info Info) {
	if err := os.MkdirAll(filepath.Dir(crashLogFile), 0o755); err != nil {
		return
	}
	f, err := os.OpenFile(crashLogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = f.WriteString(formatCrashLog(info))
}

func formatCrashLog(info Info) string {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 80) + "\n")
	sb.WriteString(fmt.Sprintf("CRASH REPORT - %s\n", info.Time.Format("2006-01-02 15:04:05")))
	sb.WriteString(strings.Repeat("=", 80) + "\n")
	sb.WriteString(fmt.Sprintf("Error: %v\n", info.Error))
	sb.WriteString(fmt.Sprintf("Go version: %s\n", info.GoVersion))
	sb.WriteString(fmt.Sprintf("OS/Arch: %s/%s\n", info.OS, info.Arch))
	sb.WriteString(fmt.Sprintf("CPUs: %d\n", info.NumCPU))
	sb.WriteString(fmt.Sprintf("Goroutines: %d\n", info.NumGoroutine))
	sb.WriteString("\n--- Memory ---\n")
	sb.WriteString(fmt.Sprintf("Alloc: %s\n", formatBytes(info.MemStats.Alloc)))
	sb.WriteString(fmt.Sprintf("Sys: %s\n", formatBytes(info.MemStats.Sys)))
	sb.WriteString(fmt.Sprintf("HeapObjects: %d\n", info.MemStats.HeapObjects))
	sb.WriteString(fmt.Sprintf("NumGC: %d\n", info.MemStats.NumGC))
	sb.WriteString("\n--- Stack ---\n")
	sb.WriteString(info.StackTrace)
	sb.WriteString(strings.Repeat("=", 80) + "\n")

	return sb.String()
}

func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}

func printCrashMessage(info Info) {
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "kiosk-controller crashed unexpectedly")
	fmt.Fprintf(os.Stderr, "  error: %v\n", info.Error)
	absPath, err := filepath.Abs(crashLogFile)
	if err != nil {
		absPath = crashLogFile
	}
	fmt.Fprintf(os.Stderr, "  crash report written to: %s\n", absPath)
	fmt.Fprintln(os.Stderr)
}

// WrapGoroutine wraps f with its own panic recovery, exiting the process on
// panic (a background worker should never die silently). Used as
// `go crash.WrapGoroutine("probe-loop", f)()`.
func WrapGoroutine(name string, f func()) func() {
	return func() {
		defer func() {
			if r := recover(); r != nil {
				info := Info{
					Time:       time.Now(),
					Error:      fmt.Sprintf("goroutine %q: %v", name, r),
					StackTrace: string(debug.Stack()),
					GoVersion:  runtime.Version(),
					OS:         runtime.GOOS,
					Arch:       runtime.GOARCH,
				}
				logCrash(info)
				printCrashMessage(info)
				os.Exit(1)
			}
		}()
		f()
	}
}

// SafeGo starts f in a new goroutine wrapped with WrapGoroutine.
func SafeGo(name string, f func()) {
	go WrapGoroutine(name, f)()
}

// RecoverAndLog recovers a panic, logs it, and lets the calling goroutine
// return normally instead of crashing the process. Intended for non-critical
// background work such as a single discovery sweep.
func RecoverAndLog(name string) {
	if r := recover(); r != nil {
		info := Info{
			Time:       time.Now(),
			Error:      fmt.Sprintf("recovered in %q: %v", name, r),
			StackTrace: string(debug.Stack()),
			GoVersion:  runtime.Version(),
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
		}
		logCrash(info)
		fmt.Fprintf(os.Stderr, "[warn] recovered panic in %s: %v\n", name, r)
	}
}

// StartSentinel writes the sentinel marker and reports whether one already
// existed, meaning the previous run ended without StopSentinel being called.
func StartSentinel() (wasUnclean bool) {
	if _, err := os.Stat(sentinelFile); err == nil {
		wasUnclean = true
		content, _ := os.ReadFile(sentinelFile)
		fmt.Fprintln(os.Stderr, "warning: previous run did not shut down cleanly")
		if len(content) > 0 {
			fmt.Fprintf(os.Stderr, "  previous start: %s\n", string(content))
		}
		if _, err := os.Stat(crashLogFile); err == nil {
			absPath, _ := filepath.Abs(crashLogFile)
			fmt.Fprintf(os.Stderr, "  crash report found: %s\n", absPath)
		} else {
			fmt.Fprintln(os.Stderr, "  no crash report — process was likely killed externally")
		}
	}

	if err := os.MkdirAll(filepath.Dir(sentinelFile), 0o755); err == nil {
		content := fmt.Sprintf("%s (pid %d)", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		_ = os.WriteFile(sentinelFile, []byte(content), 0o644)
	}

	return wasUnclean
}

// StopSentinel removes the sentinel marker on clean shutdown.
func StopSentinel() {
	_ = os.Remove(sentinelFile)
}
