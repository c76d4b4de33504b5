// Package browser supervises the kiosk Firefox process: starting it against
// a dedicated profile, detecting whether its window actually exists (not
// just whether the process is alive), and restarting it when either check
// fails for too long.
package browser

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// candidateBinaries mirrors the original controller's which_any: Firefox
// ships under different binary names across distros.
var candidateBinaries = []string{"firefox-esr", "firefox"}

var candidateClasses = []string{"firefox", "Firefox", "firefox-esr", "Navigator"}

// Supervisor drives one Firefox instance against url, restarting it per the
// configured grace/timeout windows.
type Supervisor struct {
	URL          string
	ProfileDir   string
	StartupGrace time.Duration
	KillTimeout  time.Duration
	TitleToken   string
	Env          []string // DISPLAY, XAUTHORITY propagated from config

	cmd                *exec.Cmd
	startedAt          time.Time
	windowMissingSince time.Time
}

// New returns a Supervisor for the given target URL and profile directory.
func New(url, profileDir string, startupGrace, killTimeout time.Duration, titleToken string, env []string) *Supervisor {
	return &Supervisor{
		URL:          url,
		ProfileDir:   profileDir,
		StartupGrace: startupGrace,
		KillTimeout:  killTimeout,
		TitleToken:   titleToken,
		Env:          env,
	}
}

func resolveBinary() (string, error) {
	for _, name := range candidateBinaries {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no firefox binary found (tried %v)", candidateBinaries)
}

// IsRunning reports whether a Firefox process is alive for ProfileDir, via
// `pgrep -f <profile-dir>`, matching the original's pgrep_profile.
func (s *Supervisor) IsRunning(ctx context.Context) bool {
	out, err := exec.CommandContext(ctx, "pgrep", "-f", s.ProfileDir).Output()
	if err != nil {
		return false
	}
	return len(strings.TrimSpace(string(out))) > 0
}

// HasWindow reports whether a kiosk browser window is mapped, trying
// `wmctrl -lx` first (fast, class-based) and falling back to `xdotool
// search` across the known Firefox window classes, matching the original's
// find_firefox_window_id.
func (s *Supervisor) HasWindow(ctx context.Context) bool {
	if out, err := exec.CommandContext(ctx, "wmctrl", "-lx").Output(); err == nil {
		for _, line := range strings.Split(string(out), "\n") {
			lower := strings.ToLower(line)
			if strings.Contains(lower, "firefox") {
				return true
			}
		}
	}

	for _, class := range candidateClasses {
		out, err := exec.CommandContext(ctx, "xdotool", "search", "--onlyvisible", "--class", class).Output()
		if err != nil {
			continue
		}
		if len(strings.TrimSpace(string(out))) > 0 {
			return true
		}
	}
	return false
}

// Start launches a fresh Firefox process pointed at URL in kiosk mode.
func (s *Supervisor) Start(ctx context.Context) error {
	bin, err := resolveBinary()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.ProfileDir, 0o755); err != nil {
		return fmt.Errorf("creating profile dir: %w", err)
	}

	cmd := exec.Command(bin, "--kiosk", "--no-remote", "--new-instance",
		"-profile", s.ProfileDir, s.URL)
	cmd.Env = append(os.Environ(), s.Env...)
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting firefox: %w", err)
	}
	s.cmd = cmd
	s.startedAt = time.Now()
	s.windowMissingSince = time.Time{}

	go cmd.Wait() // reap without blocking; liveness is polled via pgrep

	return nil
}

// Kill terminates any Firefox process bound to ProfileDir: SIGTERM first,
// SIGKILL after KillTimeout if it hasn't exited.
func (s *Supervisor) Kill(ctx context.Context) error {
	if err := exec.CommandContext(ctx, "pkill", "-TERM", "-f", s.ProfileDir).Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
			return nil // no matching process; already dead
		}
	}

	deadline := time.Now().Add(s.KillTimeout)
	for time.Now().Before(deadline) {
		if !s.IsRunning(ctx) {
			return nil
		}
		time.Sleep(200 * time.Millisecond)
	}

	return exec.CommandContext(ctx, "pkill", "-KILL", "-f", s.ProfileDir).Run()
}

// Restart kills any existing instance and starts a fresh one.
func (s *Supervisor) Restart(ctx context.Context) error {
	if err := s.Kill(ctx); err != nil {
		return fmt.Errorf("killing existing browser: %w", err)
	}
	return s.Start(ctx)
}

// EnsureRunning implements the original's ensure_running logic: start if not
// running; if running but within StartupGrace of launch, give it time; if
// the window has been missing continuously for WindowMissingTimeout, restart.
func (s *Supervisor) EnsureRunning(ctx context.Context, windowMissingTimeout time.Duration, now time.Time) (restarted bool, reason string, err error) {
	if !s.IsRunning(ctx) {
		return true, "not_running", s.Start(ctx)
	}

	if now.Sub(s.startedAt) < s.StartupGrace {
		return false, "", nil
	}

	if s.HasWindow(ctx) {
		s.windowMissingSince = time.Time{}
		return false, "", nil
	}

	if s.windowMissingSince.IsZero() {
		s.windowMissingSince = now
		return false, "", nil
	}

	if now.Sub(s.windowMissingSince) >= windowMissingTimeout {
		s.windowMissingSince = time.Time{}
		return true, "window_missing", s.Restart(ctx)
	}
	return false, "", nil
}

// Navigate is a no-op: the browser never navigates directly. It always
// points at the loopback router, which swaps its own iframe src. Kept as a
// documented method so callers don't accidentally wire direct navigation.
func (s *Supervisor) Navigate(string) error {
	return fmt.Errorf("browser.Navigate is intentionally unimplemented: the router owns target switching")
}
