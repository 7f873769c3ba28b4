package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mikhailtal/oreacle-bot/internal/dedup"
	"github.com/mikhailtal/oreacle-bot/pkg/types"
)

var storeCmd = &cobra.Command{
	Use:   "store [source item-id]",
	Short: "Inspect the seen-document store",
	Long: `Store reports per-source counts from the dedup database and lists
documents that were claimed but never finished processing. Pending
documents are retried automatically on the next scan.

With a source and item ID, reports whether that document has been seen.`,
	Args: cobra.RangeArgs(0, 2),
	RunE: runStore,
}

func init() {
	storeCmd.Flags().Bool("pending", false, "list claimed-but-unprocessed documents")
	storeCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(storeCmd)
}

func runStore(cmd *cobra.Command, args []string) error {
	cfg, err := decodeBotConfig()
	if err != nil {
		return err
	}

	store, err := dedup.Open(cfg.Monitor.DBPath)
	if err != nil {
		return fmt.Errorf("opening seen store: %w", err)
	}
	defer store.Close()

	if len(args) == 2 {
		seen, err := store.HasSeen(types.SourceName(args[0]), args[1])
		if err != nil {
			return err
		}
		fmt.Println(seen)
		return nil
	}
	if len(args) == 1 {
		return fmt.Errorf("provide both a source and an item ID")
	}

	asJSON, _ := cmd.Flags().GetBool("json")

	if pending, _ := cmd.Flags().GetBool("pending"); pending {
		records, err := store.Pending()
		if err != nil {
			return err
		}
		if asJSON {
			return json.NewEncoder(os.Stdout).Encode(records)
		}
		for _, r := range records {
			fmt.Printf("%s\t%s\t%s\t%s\n", r.Source, r.ItemID, r.FirstSeen.Format("2006-01-02 15:04"), r.Title)
		}
		return nil
	}

	stats, err := store.PerSourceStats()
	if err != nil {
		return err
	}
	if asJSON {
		return json.NewEncoder(os.Stdout).Encode(stats)
	}
	for _, s := range stats {
		fmt.Printf("%s\ttotal=%d\tprocessed=%d\tpending=%d\n", s.Source, s.Total, s.Processed, s.Total-s.Processed)
	}
	return nil
}
