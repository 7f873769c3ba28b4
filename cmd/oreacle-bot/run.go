package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll the disclosure sources on a schedule",
	Long: `Run starts the polling loop: one pipeline pass immediately, then one
every monitor.interval (default 15m) until interrupted. A failed cycle is
logged and the schedule continues.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadBotConfig()
	if err != nil {
		return err
	}

	logger := newLogger(cmd)
	m, cleanup, err := buildMonitor(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cycle := func() {
		summary, err := m.Cycle(ctx)
		if err != nil {
			logger.Error("cycle failed", "error", err)
			return
		}
		printSummary(summary)
	}

	cycle()

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(fmt.Sprintf("@every %s", cfg.Monitor.Interval), cycle); err != nil {
		return fmt.Errorf("scheduling cycles: %w", err)
	}
	scheduler.Start()
	logger.Info("polling started", "interval", cfg.Monitor.Interval)

	<-ctx.Done()
	logger.Info("shutting down")
	<-scheduler.Stop().Done()
	return nil
}
