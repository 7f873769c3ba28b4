package main

import (
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run the pipeline once and exit",
	Long: `Scan fetches all disclosure sources, processes every unseen document
through the prefilter, extraction, and decision gates, dispatches any
authorized actions, and prints a one-line summary.`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().Bool("comment-only", false, "clamp trade authorizations to comments for this scan")

	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadBotConfig()
	if err != nil {
		return err
	}
	if commentOnly, _ := cmd.Flags().GetBool("comment-only"); commentOnly {
		cfg.Market.CommentOnly = &commentOnly
	}

	logger := newLogger(cmd)
	m, cleanup, err := buildMonitor(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	summary, err := m.Cycle(cmd.Context())
	if err != nil {
		return err
	}
	printSummary(summary)
	return nil
}
