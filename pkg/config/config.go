// Package config loads the kiosk controller's immutable runtime configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// Config holds every tunable the control loop, discovery, router and
// browser supervisor need. It is read-only once Load returns.
type Config struct {
	// Panel / health probe
	AidaPort       int           `mapstructure:"aida_port" yaml:"aida_port"`
	AidaHealthPath string        `mapstructure:"aida_health_path" yaml:"aida_health_path"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`

	// Control loop / hysteresis
	CheckInterval  time.Duration `mapstructure:"check_interval" yaml:"check_interval"`
	FailsToDown    int           `mapstructure:"fails_to_down" yaml:"fails_to_down"`
	OksToUp        int           `mapstructure:"oks_to_up" yaml:"oks_to_up"`
	RecoveryWindow time.Duration `mapstructure:"recovery_window" yaml:"recovery_window"`

	// Discovery
	DiscoveryBudget   time.Duration `mapstructure:"discovery_budget" yaml:"discovery_budget"`
	DiscoveryCooldown time.Duration `mapstructure:"discovery_cooldown" yaml:"discovery_cooldown"`
	DiscoveryWorkers  int           `mapstructure:"discovery_workers" yaml:"discovery_workers"`

	// Browser supervisor
	FirefoxStartupGrace    time.Duration `mapstructure:"firefox_startup_grace" yaml:"firefox_startup_grace"`
	FirefoxKillTimeout     time.Duration `mapstructure:"firefox_kill_timeout" yaml:"firefox_kill_timeout"`
	NavCooldown            time.Duration `mapstructure:"nav_cooldown" yaml:"nav_cooldown"`
	NavFailsToRestart      int           `mapstructure:"nav_fails_to_restart" yaml:"nav_fails_to_restart"`
	WindowMissingToRestart time.Duration `mapstructure:"window_missing_to_restart" yaml:"window_missing_to_restart"`

	// Router
	RouterPort int `mapstructure:"router_port" yaml:"router_port"`

	// Paths
	CacheDir   string `mapstructure:"cache_dir" yaml:"cache_dir"`
	CacheFile  string `mapstructure:"cache_file" yaml:"cache_file"`
	ProfileDir string `mapstructure:"profile_dir" yaml:"profile_dir"`
	SplashFile string `mapstructure:"splash_file" yaml:"splash_file"`
	LogFile    string `mapstructure:"log_file" yaml:"log_file"`

	// X11
	DefaultDisplay    string `mapstructure:"default_display" yaml:"default_display"`
	DefaultXauthority string `mapstructure:"default_xauthority" yaml:"default_xauthority"`

	PanelTitleToken string `mapstructure:"panel_title_token" yaml:"panel_title_token"`
}

// envOverrides mirrors the original controller's per-field environment
// variable table (original_source/main.py's _ENV_MAP): every field except
// panel_title_token can be pinned independently of the config file, applied
// after the file loads.
var envOverrides = map[string]string{
	"KIOSK_ROUTER_PORT":                   "router_port",
	"KIOSK_AIDA_PORT":                     "aida_port",
	"KIOSK_AIDA_HEALTH_PATH":              "aida_health_path",
	"KIOSK_CHECK_INTERVAL_SEC":            "check_interval",
	"KIOSK_FAILS_TO_DOWN":                 "fails_to_down",
	"KIOSK_OKS_TO_UP":                     "oks_to_up",
	"KIOSK_RECOVERY_WINDOW_SEC":           "recovery_window",
	"KIOSK_DISCOVERY_BUDGET_SEC":          "discovery_budget",
	"KIOSK_DISCOVERY_COOLDOWN_SEC":        "discovery_cooldown",
	"KIOSK_DISCOVERY_WORKERS":             "discovery_workers",
	"KIOSK_CONNECT_TIMEOUT_SEC":           "connect_timeout",
	"KIOSK_READ_TIMEOUT_SEC":              "read_timeout",
	"KIOSK_FIREFOX_STARTUP_GRACE_SEC":     "firefox_startup_grace",
	"KIOSK_FIREFOX_KILL_TIMEOUT_SEC":      "firefox_kill_timeout",
	"KIOSK_NAV_COOLDOWN_SEC":              "nav_cooldown",
	"KIOSK_NAV_FAILS_TO_RESTART":          "nav_fails_to_restart",
	"KIOSK_WINDOW_MISSING_TO_RESTART_SEC": "window_missing_to_restart",
	"KIOSK_CACHE_DIR":                     "cache_dir",
	"KIOSK_CACHE_FILE":                    "cache_file",
	"KIOSK_PROFILE_DIR":                   "profile_dir",
	"KIOSK_SPLASH_FILE":                   "splash_file",
	"KIOSK_LOG_FILE":                      "log_file",
	"KIOSK_DISPLAY":                       "default_display",
	"KIOSK_XAUTHORITY":                    "default_xauthority",
}

func defaults() map[string]any {
	home, _ := os.UserHomeDir()
	cacheDir := filepath.Join(home, ".cache", "aida64")
	return map[string]any{
		"router_port":               8765,
		"aida_port":                 1111,
		"aida_health_path":          "/api?sensors=STIME",
		"check_interval":            "2s",
		"fails_to_down":             3,
		"oks_to_up":                 2,
		"recovery_window":           "12s",
		"discovery_budget":          "10s",
		"discovery_cooldown":        "90s",
		"discovery_workers":         64,
		"connect_timeout":           "450ms",
		"read_timeout":              "750ms",
		"firefox_startup_grace":     "10s",
		"firefox_kill_timeout":      "4s",
		"nav_cooldown":              "2s",
		"nav_fails_to_restart":      3,
		"window_missing_to_restart": "20s",
		"cache_dir":                 cacheDir,
		"cache_file":                filepath.Join(cacheDir, "target_ips.json"),
		"profile_dir":               filepath.Join(home, ".mozilla", "kiosk-profile"),
		"splash_file":               filepath.Join(cacheDir, "loading.html"),
		"log_file":                  filepath.Join(cacheDir, "kiosk_controller.log"),
		"default_display":           ":0",
		"default_xauthority":        filepath.Join(home, ".Xauthority"),
		"panel_title_token":         "AIDA64 RemoteSensor",
	}
}

// Load resolves Config using, highest precedence first: the --config flag
// path, the KIOSK_CONTROLLER_CONFIG env var, /etc/kiosk-controller.json,
// then compiled-in defaults. Per-field env vars (envOverrides) are applied
// last, on top of whatever file was loaded.
func Load(flagPath string) (*Config, string, error) {
	v := viper.New()
	for k, val := range defaults() {
		v.SetDefault(k, val)
	}

	path := flagPath
	if path == "" {
		path = os.Getenv("KIOSK_CONTROLLER_CONFIG")
	}
	if path == "" {
		if _, err := os.Stat("/etc/kiosk-controller.json"); err == nil {
			path = "/etc/kiosk-controller.json"
		}
	}

	usedPath := ""
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, "", fmt.Errorf("reading config %s: %w", path, err)
		}
		usedPath = path
	}

	for env, key := range envOverrides {
		if raw, ok := os.LookupEnv(env); ok && raw != "" {
			v.Set(key, raw)
		}
	}

	// Duration fields also accept a bare number, read as seconds (integer
	// values in the config file and the KIOSK_*_SEC env vars).
	for key, def := range defaults() {
		s, ok := def.(string)
		if !ok {
			continue
		}
		if _, err := time.ParseDuration(s); err != nil {
			continue
		}
		if secs, err := strconv.ParseFloat(fmt.Sprint(v.Get(key)), 64); err == nil {
			v.Set(key, time.Duration(secs*float64(time.Second)))
		}
	}

	var cfg Config
	if err := v.UnmarshalExact(&cfg); err != nil {
		return nil, "", fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, "", err
	}

	return &cfg, usedPath, nil
}

func (c *Config) validate() error {
	if c.AidaPort <= 0 || c.AidaPort > 65535 {
		return fmt.Errorf("aida_port out of range: %d", c.AidaPort)
	}
	if c.RouterPort <= 0 || c.RouterPort > 65535 {
		return fmt.Errorf("router_port out of range: %d", c.RouterPort)
	}
	if c.FailsToDown < 1 || c.OksToUp < 1 {
		return fmt.Errorf("fails_to_down and oks_to_up must be >= 1")
	}
	if c.DiscoveryWorkers < 1 {
		return fmt.Errorf("discovery_workers must be >= 1")
	}
	return nil
}

// RouterURL is the single URL ever handed to the browser supervisor.
func (c *Config) RouterURL() string {
	return fmt.Sprintf("http://127.0.0.1:%d/", c.RouterPort)
}

// PanelURL builds the direct panel URL for a trusted target IP.
func (c *Config) PanelURL(ip string) string {
	return fmt.Sprintf("http://%s:%d/", ip, c.AidaPort)
}
