// Package config holds the CLI configuration struct, its persistence
// under the user's config directory, and the startup validation that
// gates the driver loop.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/arvindn/genaicost/internal/analytics"
	"github.com/arvindn/genaicost/internal/plan"
)

// Platform selects which providers the driver runs.
type Platform string

const (
	PlatformCodex  Platform = "codex"
	PlatformClaude Platform = "claude"
	PlatformAll    Platform = "all"
)

var validPlatforms = []Platform{PlatformCodex, PlatformClaude, PlatformAll}

var validPlans = []plan.Name{
	plan.Free, plan.PAYG, plan.Tier1, plan.Tier2,
	plan.Pro, plan.Max5, plan.Max20, plan.Custom,
}

// Config is the process configuration assembled from the settings file
// and CLI flag overrides, validated once before the driver starts.
type Config struct {
	Platform           Platform  `json:"platform"`
	Plan               plan.Name `json:"plan"`
	CustomLimitTokens  int64     `json:"custom_limit_tokens,omitempty"`
	CustomLimitCost    float64   `json:"custom_limit_cost,omitempty"`
	RefreshRateSeconds int       `json:"refresh_rate_seconds"`
	Timezone           string    `json:"timezone"`
	ResetHour          int       `json:"reset_hour"`
	Theme              string    `json:"theme"`
}

func DefaultConfig() Config {
	return Config{
		Platform:           PlatformAll,
		Plan:               plan.Custom,
		RefreshRateSeconds: 10,
		Timezone:           "UTC",
		ResetHour:          0,
		Theme:              "Gruvbox",
	}
}

func ConfigDir() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(os.Getenv("APPDATA"), "genaicost")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "genaicost")
}

func ConfigPath() string {
	return filepath.Join(ConfigDir(), "settings.json")
}

// DataDir is where the Codex usage log, the sqlite mirror, and the
// last-used-flags file live.
func DataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".genai-code-usage-monitor")
}

// CodexLogPath is the append-only usage log the monitored application
// writes through the CLI's log-usage helper.
func CodexLogPath() string {
	return filepath.Join(DataDir(), "usage_log.jsonl")
}

// StorePath is the sqlite mirror used to warm-start the aggregators
// after a restart.
func StorePath() string {
	return filepath.Join(DataDir(), "usage.db")
}

// LastUsedPath holds the previous run's flags; absence is not an error.
func LastUsedPath() string {
	return filepath.Join(DataDir(), "last_used.json")
}

func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.RefreshRateSeconds <= 0 {
		cfg.RefreshRateSeconds = DefaultConfig().RefreshRateSeconds
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "UTC"
	}
	if cfg.Theme == "" {
		cfg.Theme = DefaultConfig().Theme
	}
	cfg.Platform = Platform(strings.ToLower(strings.TrimSpace(string(cfg.Platform))))
	cfg.Plan = plan.Name(strings.ToLower(strings.TrimSpace(string(cfg.Plan))))
	if cfg.Platform == "" {
		cfg.Platform = PlatformAll
	}
	if cfg.Plan == "" {
		cfg.Plan = plan.Custom
	}

	return cfg, nil
}

// Validate checks flag combinations before the driver starts. Every
// failure wraps analytics.ErrConfigError; the process exits with code 1.
func (c Config) Validate() error {
	if !lo.Contains(validPlatforms, c.Platform) {
		return fmt.Errorf("%w: unknown platform %q (want codex, claude, or all)", analytics.ErrConfigError, c.Platform)
	}
	if !lo.Contains(validPlans, c.Plan) {
		return fmt.Errorf("%w: unknown plan %q", analytics.ErrConfigError, c.Plan)
	}
	if c.CustomLimitTokens != 0 && c.Plan != plan.Custom {
		return fmt.Errorf("%w: --custom-limit-tokens requires --plan custom (got %q)", analytics.ErrConfigError, c.Plan)
	}
	if c.CustomLimitTokens < 0 {
		return fmt.Errorf("%w: --custom-limit-tokens must be positive", analytics.ErrConfigError)
	}
	if c.CustomLimitCost < 0 {
		return fmt.Errorf("%w: --custom-limit-cost must be positive", analytics.ErrConfigError)
	}
	if c.RefreshRateSeconds < 1 || c.RefreshRateSeconds > 60 {
		return fmt.Errorf("%w: --refresh-rate must be between 1 and 60 seconds", analytics.ErrConfigError)
	}
	if c.ResetHour < 0 || c.ResetHour > 23 {
		return fmt.Errorf("%w: --reset-hour must be between 0 and 23", analytics.ErrConfigError)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("%w: unknown timezone %q", analytics.ErrConfigError, c.Timezone)
	}
	return nil
}

// Location resolves the display timezone. Callers must Validate first;
// on a bad zone this falls back to UTC rather than failing mid-render.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// RefreshRate returns the driver tick period.
func (c Config) RefreshRate() time.Duration {
	return time.Duration(c.RefreshRateSeconds) * time.Second
}

// Limits resolves the plan limits in effect for this run. For the
// custom plan the token limit starts at the user override (or zero,
// meaning "let the P90 calculator fill it in each tick").
func (c Config) Limits() plan.Limits {
	if c.Plan == plan.Custom {
		return plan.WithCustomLimits(c.CustomLimitTokens, c.CustomLimitCost, c.CustomLimitCost > 0)
	}
	return plan.Default(c.Plan)
}

// saveMu guards read-modify-write cycles on the config file.
var saveMu sync.Mutex

func Save(cfg Config) error {
	return SaveTo(ConfigPath(), cfg)
}

func SaveTo(path string, cfg Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	saveMu.Lock()
	defer saveMu.Unlock()

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return os.Rename(tmp, path)
}

// SaveLastUsed persists the effective flags for the next run.
func SaveLastUsed(cfg Config) error {
	return SaveTo(LastUsedPath(), cfg)
}

// LoadLastUsed restores the previous run's flags; a missing file
// returns the defaults.
func LoadLastUsed() (Config, error) {
	return LoadFrom(LastUsedPath())
}
