// Package control wires the probe, cache, discovery, FSM, router and
// browser supervisor together into the controller's main tick loop.
package control

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"kiosk-controller/pkg/browser"
	"kiosk-controller/pkg/cache"
	"kiosk-controller/pkg/config"
	"kiosk-controller/pkg/discover"
	"kiosk-controller/pkg/fsm"
	"kiosk-controller/pkg/metrics"
	"kiosk-controller/pkg/netinfo"
	"kiosk-controller/pkg/probe"
	"kiosk-controller/pkg/router"
)

// Controller runs the periodic tick that implements the availability
// state machine: probe the current target, react to FSM transitions by
// running discovery and pushing a new target through the router, and keep
// the browser process alive and pointed at the router.
type Controller struct {
	cfg     *config.Config
	log     *slog.Logger
	prober  *probe.Prober
	store   *cache.Store
	netinfo *netinfo.Introspector
	machine *fsm.Machine
	rtr     *router.Router
	sup     *browser.Supervisor
	metrics *metrics.Collectors
	limiter *rate.Limiter

	target          string    // last confirmed-good IP; "" if none yet
	lastDiscoveryTs time.Time // wall-clock time discovery last ran, zero if never
}

// New assembles a Controller from its configured components.
func New(cfg *config.Config, log *slog.Logger, rtr *router.Router, collectors *metrics.Collectors) *Controller {
	return &Controller{
		cfg:     cfg,
		log:     log,
		prober:  probe.New(cfg.AidaPort, cfg.AidaHealthPath, cfg.ConnectTimeout, cfg.ReadTimeout),
		store:   cache.New(cfg.CacheFile),
		netinfo: netinfo.New(),
		machine: fsm.New(cfg.FailsToDown, cfg.OksToUp, cfg.RecoveryWindow),
		rtr:     rtr,
		sup: browser.New(cfg.RouterURL(), cfg.ProfileDir, cfg.FirefoxStartupGrace,
			cfg.FirefoxKillTimeout, cfg.PanelTitleToken, x11Env(cfg)),
		metrics: collectors,
		limiter: rate.NewLimiter(rate.Limit(cfg.DiscoveryWorkers), cfg.DiscoveryWorkers),
	}
}

func x11Env(cfg *config.Config) []string {
	display := os.Getenv("DISPLAY")
	if display == "" {
		display = cfg.DefaultDisplay
	}
	xauth := os.Getenv("XAUTHORITY")
	if xauth == "" {
		xauth = cfg.DefaultXauthority
	}
	return []string{
		"DISPLAY=" + display,
		"XAUTHORITY=" + xauth,
	}
}

// Run ticks every cfg.CheckInterval until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.CheckInterval)
	defer ticker.Stop()

	c.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.tick(ctx)
		}
	}
}

func (c *Controller) tick(ctx context.Context) {
	now := time.Now()

	ok := c.probeCurrentTarget(ctx)
	if c.metrics != nil {
		c.metrics.RecordProbe(ok)
	}

	transition := c.machine.Observe(ok, now)
	if transition.Changed {
		c.log.Info("fsm transition", "from", transition.From, "to", transition.To, "target", c.target)
	}
	if c.metrics != nil {
		c.metrics.SetMode(string(c.machine.Mode()))
	}

	switch c.machine.Mode() {
	case fsm.Up:
		if err := c.store.RecordSuccess(c.target, now); err != nil {
			c.log.Warn("cache write failed", "error", err)
		}
		c.rtr.Update("UP", c.target, c.cfg.PanelURL(c.target), now)
	case fsm.Down:
		c.rtr.Update("DOWN", "", "", now)
		if c.machine.ShouldDiscover(now) && c.discoveryDue(now) {
			c.lastDiscoveryTs = now
			c.runDiscovery(ctx, now)
		}
	}

	restarted, reason, err := c.sup.EnsureRunning(ctx, c.cfg.WindowMissingToRestart, now)
	if err != nil {
		c.log.Warn("browser ensure-running failed", "error", err)
	}
	if restarted {
		c.log.Info("browser restarted", "reason", reason)
		if c.metrics != nil {
			c.metrics.BrowserRestarts.WithLabelValues(reason).Inc()
		}
	}
}

// discoveryDue reports whether at least cfg.DiscoveryCooldown wall-seconds
// have passed since discovery last ran, win or lose. Gating here (rather
// than only on the FSM's recovery window) keeps a stuck-DOWN target from
// triggering a full sweep on every check_interval tick.
func (c *Controller) discoveryDue(now time.Time) bool {
	return c.lastDiscoveryTs.IsZero() || now.Sub(c.lastDiscoveryTs) >= c.cfg.DiscoveryCooldown
}

func (c *Controller) probeCurrentTarget(ctx context.Context) bool {
	if c.target == "" {
		return false
	}
	return c.prober.Check(ctx, c.target)
}

func (c *Controller) runDiscovery(ctx context.Context, now time.Time) {
	dctx, cancel := context.WithTimeout(ctx, c.cfg.DiscoveryBudget)
	defer cancel()

	net, err := c.netinfo.LocalNetwork(dctx)
	if err != nil {
		c.log.Warn("discovery: local network lookup failed", "error", err)
		return
	}

	seeds := c.buildSeeds(dctx)
	runID := uuid.NewString()

	if c.metrics != nil {
		c.metrics.DiscoveryRuns.Inc()
	}
	start := time.Now()
	c.log.Info("discovery: starting sweep", "run_id", runID, "network", net.Network, "seeds", len(seeds))

	result, err := discover.Discover(dctx, c.prober, discover.Options{
		Network: net.Network,
		Seeds:   seeds,
		Workers: c.cfg.DiscoveryWorkers,
		Limiter: c.limiter,
	})

	if c.metrics != nil {
		c.metrics.DiscoveryDuration.Observe(time.Since(start).Seconds())
	}

	if err != nil {
		c.log.Info("discovery: no target found", "run_id", runID, "error", err)
		return
	}

	c.log.Info("discovery: found target", "run_id", runID, "ip", result.IP, "attempts", result.Attempts, "elapsed", result.Elapsed)
	if c.metrics != nil {
		c.metrics.DiscoveryFound.Inc()
	}
	c.target = result.IP
	if err := c.store.RecordSuccess(c.target, now); err != nil {
		c.log.Warn("cache write failed", "error", err)
	}
}

func (c *Controller) buildSeeds(ctx context.Context) []string {
	var seeds []string
	if ips, err := c.store.IPs(); err == nil {
		seeds = append(seeds, ips...)
	}
	if neighbors, err := c.netinfo.NeighborCandidates(ctx); err == nil {
		seeds = append(seeds, neighbors...)
	}
	return seeds
}
