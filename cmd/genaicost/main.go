package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/arvindn/genaicost/internal/aggregator"
	"github.com/arvindn/genaicost/internal/config"
	"github.com/arvindn/genaicost/internal/monitor"
	"github.com/arvindn/genaicost/internal/plan"
	"github.com/arvindn/genaicost/internal/record"
	"github.com/arvindn/genaicost/internal/sources"
	"github.com/arvindn/genaicost/internal/store"
	"github.com/arvindn/genaicost/internal/tui"
	"github.com/arvindn/genaicost/internal/version"
)

func main() {
	if os.Getenv("GENAICOST_DEBUG") != "" {
		log.SetOutput(os.Stderr)
	} else {
		log.SetOutput(io.Discard)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		fmt.Fprintf(os.Stderr, "Config path: %s\n", config.ConfigPath())
		os.Exit(1)
	}

	var (
		flagPlatform    string
		flagPlan        string
		flagCustomTok   int64
		flagCustomCost  float64
		flagRefreshRate int
		flagTimezone    string
		flagResetHour   int
		flagNoUI        bool
	)

	root := cobra.Command{
		Use:     "genaicost",
		Short:   "genaicost is a terminal dashboard for generative-AI API spend across Codex and Claude.",
		Version: version.String(),
		Run: func(cmd *cobra.Command, _ []string) {
			if cmd.Flags().Changed("platform") {
				cfg.Platform = config.Platform(flagPlatform)
			}
			if cmd.Flags().Changed("plan") {
				cfg.Plan = planName(flagPlan)
			}
			if cmd.Flags().Changed("custom-limit-tokens") {
				cfg.CustomLimitTokens = flagCustomTok
			}
			if cmd.Flags().Changed("custom-limit-cost") {
				cfg.CustomLimitCost = flagCustomCost
			}
			if cmd.Flags().Changed("refresh-rate") {
				cfg.RefreshRateSeconds = flagRefreshRate
			}
			if cmd.Flags().Changed("timezone") {
				cfg.Timezone = flagTimezone
			}
			if cmd.Flags().Changed("reset-hour") {
				cfg.ResetHour = flagResetHour
			}

			os.Exit(runDashboard(cfg, flagNoUI))
		},
	}

	root.Flags().StringVar(&flagPlatform, "platform", string(cfg.Platform), "providers to run: codex, claude, or all")
	root.Flags().StringVar(&flagPlan, "plan", string(cfg.Plan), "active plan: free, payg, tier1, tier2, pro, max5, max20, custom")
	root.Flags().Int64Var(&flagCustomTok, "custom-limit-tokens", cfg.CustomLimitTokens, "token limit override for --plan custom")
	root.Flags().Float64Var(&flagCustomCost, "custom-limit-cost", cfg.CustomLimitCost, "cost limit override in USD")
	root.Flags().IntVar(&flagRefreshRate, "refresh-rate", cfg.RefreshRateSeconds, "driver tick period in seconds (1-60)")
	root.Flags().StringVar(&flagTimezone, "timezone", cfg.Timezone, "timezone for display of block boundaries")
	root.Flags().IntVar(&flagResetHour, "reset-hour", cfg.ResetHour, "hour of day (0-23) at which daily views roll")
	root.Flags().BoolVar(&flagNoUI, "no-ui", false, "run the driver without the terminal UI")

	root.AddCommand(newTelemetryCommand())
	root.AddCommand(newLogUsageCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func planName(raw string) plan.Name {
	return plan.Name(strings.ToLower(strings.TrimSpace(raw)))
}

func runDashboard(cfg config.Config, noUI bool) int {
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "genaicost: %v\n", err)
		return 1
	}

	// A platform that pins Claude needs its transcripts directory to
	// exist; running "all" tolerates a missing side and surfaces it as
	// a source-health banner instead.
	if cfg.Platform == config.PlatformClaude {
		root := sources.ClaudeProjectsRoot()
		if info, err := os.Stat(root); err != nil || !info.IsDir() {
			fmt.Fprintf(os.Stderr, "genaicost: claude projects directory not found at %s\n", root)
			return 2
		}
	}

	if err := config.SaveLastUsed(cfg); err != nil {
		log.Printf("genaicost: saving last-used flags: %v", err)
	}

	mirror, err := store.Open(config.StorePath())
	if err != nil {
		log.Printf("genaicost: usage mirror unavailable: %v", err)
		mirror = nil
	} else {
		defer mirror.Close()
	}

	driver := monitor.NewDriver(cfg.RefreshRate(), providerConfigs(cfg, mirror)...)
	driver.ResetHour = cfg.ResetHour
	defer driver.Close()

	warmStart(driver, mirror)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go driver.Run(ctx)

	if noUI {
		<-ctx.Done()
		return 0
	}

	model := tui.NewModel(driver, tui.ThemeByName(cfg.Theme), cfg.Location(), cfg.RefreshRate())
	program := tea.NewProgram(model, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		program.Quit()
	}()

	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "genaicost: %v\n", err)
		return 1
	}
	return 0
}

func providerConfigs(cfg config.Config, mirror *store.Store) []monitor.ProviderConfig {
	var sink monitor.RecordSink
	if mirror != nil {
		sink = mirror
	}

	var configs []monitor.ProviderConfig
	if cfg.Platform == config.PlatformCodex || cfg.Platform == config.PlatformAll {
		configs = append(configs, monitor.ProviderConfig{
			Provider: record.ProviderCodex,
			Source:   sources.NewCodexSource(),
			Limits:   cfg.Limits(),
			Sink:     sink,
		})
	}
	if cfg.Platform == config.PlatformClaude || cfg.Platform == config.PlatformAll {
		configs = append(configs, monitor.ProviderConfig{
			Provider: record.ProviderClaude,
			Source:   sources.NewClaudeSource(),
			Limits:   cfg.Limits(),
			Sink:     sink,
		})
	}
	return configs
}

// warmStart seeds the aggregators from the sqlite mirror so a restart
// does not lose the analysis window. Source pulls re-delivering the
// same records are absorbed by dedup.
func warmStart(driver *monitor.Driver, mirror *store.Store) {
	if mirror == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().UTC().Add(-aggregator.DefaultAnalysisWindow)
	for _, provider := range []record.Provider{record.ProviderCodex, record.ProviderClaude} {
		recs, err := mirror.LoadSince(ctx, provider, cutoff)
		if err != nil {
			log.Printf("genaicost: warm start for %s: %v", provider, err)
			continue
		}
		driver.Seed(provider, recs)
	}
	_ = mirror.PruneBefore(ctx, cutoff)
}
