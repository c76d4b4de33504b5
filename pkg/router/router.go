// Package router runs the loopback HTTP server the kiosk browser points at
// once and never again: it serves an iframe shell that polls /state.json
// and swaps its src, so the controller can redirect the browser to a new
// panel target without ever touching the browser process itself.
package router

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kiosk-controller/pkg/metrics"
)

// State is the JSON document served at /state.json and consumed by the
// shell page's polling script: {mode, target_ip, url, ts}.
type State struct {
	Mode     string    `json:"mode"`
	TargetIP string    `json:"target_ip"`
	URL      string    `json:"url"`
	Ts       time.Time `json:"ts"`
}

// Router holds the mutable snapshot the HTTP handlers read, and exposes
// Update for the control loop to publish new state.
type Router struct {
	mu    sync.RWMutex
	state State

	splashHTML string
	titleToken string
}

// New returns a Router initialized to the DOWN/splash state. splashHTML is
// read once at server start by the caller (cfg.SplashFile, falling back to
// DefaultSplash on read error) and served unchanged for the router's life.
func New(splashHTML, titleToken string) *Router {
	return &Router{
		state:      State{Mode: "DOWN", Ts: time.Now()},
		splashHTML: splashHTML,
		titleToken: titleToken,
	}
}

// Update replaces the published state. Called by pkg/control on every tick,
// so Ts is the time of the latest push, not of the last mode change.
func (r *Router) Update(mode, targetIP, url string, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = State{Mode: mode, TargetIP: targetIP, URL: url, Ts: at}
}

// Snapshot returns a copy of the current state.
func (r *Router) Snapshot() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Server builds the *http.Server to listen on 127.0.0.1:port, with handlers
// for the shell page, state JSON, splash fallback and (when collectors is
// non-nil) Prometheus metrics.
func (r *Router) Server(port int, collectors *metrics.Collectors) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/", r.handleShell)
	mux.HandleFunc("/state.json", r.handleState)
	mux.HandleFunc("/splash", r.handleSplash)
	if collectors != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(collectors.Registry, promhttp.HandlerOpts{}))
	}

	return &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

const shellPage = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>kiosk</title>
<style>html,body{margin:0;height:100%;background:#000;overflow:hidden}
iframe{border:0;width:100vw;height:100vh}</style>
</head><body>
<iframe id="frame" src="/splash"></iframe>
<script>
let current = "";
async function poll() {
  try {
    const res = await fetch("/state.json", {cache: "no-store"});
    const state = await res.json();
    const next = state.mode === "UP" ? state.url : "/splash";
    if (next !== current) {
      current = next;
      document.getElementById("frame").src = next;
    }
  } catch (e) {
    // transient fetch failures just retry on the next tick
  }
  setTimeout(poll, 1000);
}
poll();
</script>
</body></html>`

func (r *Router) handleShell(w http.ResponseWriter, req *http.Request) {
	if req.URL.Path != "/" {
		http.NotFound(w, req)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, shellPage)
}

func (r *Router) handleState(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	json.NewEncoder(w).Encode(r.Snapshot())
}

func (r *Router) handleSplash(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, r.splashHTML)
}

// Run starts the server and blocks until ctx is cancelled, then shuts it
// down gracefully.
func Run(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
