package main

import (
	"github.com/spf13/cobra"

	"github.com/arvindn/genaicost/internal/config"
	"github.com/arvindn/genaicost/internal/sources"
)

// newLogUsageCommand is the writer helper the monitored application
// calls to append one per-call usage entry to the Codex log.
func newLogUsageCommand() *cobra.Command {
	var entry sources.CodexUsageEntry
	var logPath string

	cmd := &cobra.Command{
		Use:   "log-usage",
		Short: "Append one Codex usage entry to the local usage log.",
		RunE: func(_ *cobra.Command, _ []string) error {
			return sources.AppendCodexUsage(logPath, entry)
		},
	}

	cmd.Flags().StringVar(&logPath, "log-path", config.CodexLogPath(), "path to the usage log")
	cmd.Flags().StringVar(&entry.Model, "model", "", "model name (required)")
	cmd.Flags().Int64Var(&entry.InputTokens, "input-tokens", 0, "input token count")
	cmd.Flags().Int64Var(&entry.OutputTokens, "output-tokens", 0, "output token count")
	cmd.Flags().StringVar(&entry.MessageID, "message-id", "", "message id for deduplication")
	cmd.Flags().StringVar(&entry.RequestID, "request-id", "", "request id for deduplication")
	cmd.Flags().StringVar(&entry.Timestamp, "timestamp", "", "RFC3339 timestamp (defaults to now)")
	_ = cmd.MarkFlagRequired("model")

	return cmd
}
