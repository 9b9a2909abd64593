package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/arvindn/genaicost/internal/config"
	"github.com/arvindn/genaicost/internal/record"
	"github.com/arvindn/genaicost/internal/sources"
	"github.com/arvindn/genaicost/internal/store"
)

func newTelemetryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "telemetry",
		Short: "Inspect the ingestion pipeline and its local usage mirror.",
	}
	cmd.AddCommand(newTelemetryStatsCommand())
	cmd.AddCommand(newTelemetryDoctorCommand())
	return cmd
}

func newTelemetryStatsCommand() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print record counts from the local usage mirror.",
		RunE: func(_ *cobra.Command, _ []string) error {
			s, err := store.Open(dbPath)
			if err != nil {
				return fmt.Errorf("open usage mirror: %w", err)
			}
			defer s.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			stats, err := s.Stats(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("mirror:          %s\n", dbPath)
			fmt.Printf("total records:   %d\n", stats.TotalRecords)
			fmt.Printf("unknown models:  %d\n", stats.UnknownModels)

			providers := make([]string, 0, len(stats.ByProvider))
			for p := range stats.ByProvider {
				providers = append(providers, string(p))
			}
			sort.Strings(providers)
			for _, p := range providers {
				fmt.Printf("  %-8s %d\n", p, stats.ByProvider[record.Provider(p)])
			}

			if stats.TotalRecords > 0 {
				fmt.Printf("oldest:          %s\n", stats.OldestRecord)
				fmt.Printf("newest:          %s\n", stats.NewestRecord)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db-path", config.StorePath(), "path to the usage mirror database")
	return cmd
}

func newTelemetryDoctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that every ingestion path is readable.",
		Run: func(_ *cobra.Command, _ []string) {
			ok := true

			claudeRoot := sources.ClaudeProjectsRoot()
			if info, err := os.Stat(claudeRoot); err == nil && info.IsDir() {
				fmt.Printf("ok    claude projects directory: %s\n", claudeRoot)
			} else {
				fmt.Printf("warn  claude projects directory missing: %s\n", claudeRoot)
				ok = false
			}

			codexLog := config.CodexLogPath()
			if _, err := os.Stat(codexLog); err == nil {
				fmt.Printf("ok    codex usage log: %s\n", codexLog)
			} else {
				fmt.Printf("warn  codex usage log not yet written: %s\n", codexLog)
			}

			if s, err := store.Open(config.StorePath()); err == nil {
				s.Close()
				fmt.Printf("ok    usage mirror: %s\n", config.StorePath())
			} else {
				fmt.Printf("fail  usage mirror: %v\n", err)
				ok = false
			}

			if ok {
				fmt.Println("all ingestion paths healthy")
			}
		},
	}
}
