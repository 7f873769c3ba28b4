package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mikhailtal/oreacle-bot/internal/ladder"
	"github.com/mikhailtal/oreacle-bot/internal/manifold"
)

var ladderCmd = &cobra.Command{
	Use:   "ladder [slug-prefix]",
	Short: "Check deadline ladders for monotonicity violations",
	Long: `Ladder fetches markets whose slug starts with the given prefix (default:
the configured market slug up to its first date), groups them by base
question, and flags pairs where an earlier deadline trades above a later
one. Violations are printed; with --post a comment is published to the
overpriced market.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLadder,
}

func init() {
	ladderCmd.Flags().Float64("min-violation", ladder.DefaultMinViolation, "minimum probability gap to flag")
	ladderCmd.Flags().Bool("post", false, "post a comment on each violating market")

	rootCmd.AddCommand(ladderCmd)
}

func runLadder(cmd *cobra.Command, args []string) error {
	cfg, err := loadBotConfig()
	if err != nil {
		return err
	}

	prefix := cfg.Market.Slug
	if len(args) == 1 {
		prefix = args[0]
	}

	client := manifold.NewClient(cfg.Market, nil)
	markets, err := client.RelatedMarkets(cmd.Context(), prefix)
	if err != nil {
		return err
	}

	minViolation, _ := cmd.Flags().GetFloat64("min-violation")
	violations := ladder.NewChecker(minViolation).Check(markets)
	if len(violations) == 0 {
		fmt.Printf("no violations across %d markets\n", len(markets))
		return nil
	}

	post, _ := cmd.Flags().GetBool("post")
	for _, v := range violations {
		fmt.Println(v)
		if !post {
			continue
		}
		if _, err := client.PostComment(cmd.Context(), v.Earlier.ID, ladder.ViolationComment(v)); err != nil {
			return fmt.Errorf("posting violation comment: %w", err)
		}
	}
	return nil
}
