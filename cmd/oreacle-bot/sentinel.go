package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mikhailtal/oreacle-bot/internal/feed"
	"github.com/mikhailtal/oreacle-bot/internal/manifold"
	"github.com/mikhailtal/oreacle-bot/internal/sentinel"
)

var sentinelCmd = &cobra.Command{
	Use:   "sentinel",
	Short: "Check for monthly production and sales bulletins",
	Long: `Sentinel searches the disclosure archive for the configured company's
monthly production and sales bulletins, parses the reported figures, and
prints them. With --post the figures are commented on each market listed
under sentinel.markets. Without --post nothing is published.`,
	RunE: runSentinel,
}

func init() {
	sentinelCmd.Flags().Bool("post", false, "post a comment on each configured market")

	rootCmd.AddCommand(sentinelCmd)
}

func runSentinel(cmd *cobra.Command, args []string) error {
	cfg, err := loadBotConfig()
	if err != nil {
		return err
	}

	srcCfg := cfg.Sources
	srcCfg.StockCode = cfg.Sentinel.StockCode
	srcCfg.DaysBack = cfg.Sentinel.DaysBack

	source := feed.NewCNInfo(srcCfg, sentinel.SearchKeywords, nil)
	client := manifold.NewClient(cfg.Market, nil)
	s := sentinel.New(source, client, cfg.Sentinel.Markets, newLogger(cmd))

	post, _ := cmd.Flags().GetBool("post")
	res, err := s.Run(cmd.Context(), post)
	if err != nil {
		return err
	}

	fmt.Printf("fetched=%d reports=%d commented=%d failed=%d\n",
		res.Fetched, res.ReportsFound, res.CommentsPosted, res.Failed)
	return nil
}
