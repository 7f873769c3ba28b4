// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mikhailtal/oreacle-bot/internal/dedup"
	"github.com/mikhailtal/oreacle-bot/internal/extract"
	"github.com/mikhailtal/oreacle-bot/internal/feed"
	"github.com/mikhailtal/oreacle-bot/internal/journal"
	"github.com/mikhailtal/oreacle-bot/internal/manifold"
	"github.com/mikhailtal/oreacle-bot/internal/monitor"
	"github.com/mikhailtal/oreacle-bot/internal/phrasebook"
	"github.com/mikhailtal/oreacle-bot/internal/translate"
	"github.com/mikhailtal/oreacle-bot/pkg/types"
)

// defaultKeywords are the search terms sent to the announcement sources.
var defaultKeywords = []string{"枧下窝", "采矿许可证", "宜春 锂"}

// decodeBotConfig unmarshals the viper state into a BotConfig with
// defaults applied, filling credentials from .secrets/ where the file
// left them empty.
func decodeBotConfig() (types.BotConfig, error) {
	var cfg types.BotConfig
	if err := viper.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
	}); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Market.APIKey = secretDefault("manifold-api-key", cfg.Market.APIKey)
	cfg.Analyzer.APIKey = secretDefault("analyzer-api-key", cfg.Analyzer.APIKey)

	cfg.ApplyDefaults()
	return cfg, nil
}

// loadBotConfig is decodeBotConfig plus the pre-cycle validation used by
// commands that dispatch to the market.
func loadBotConfig() (types.BotConfig, error) {
	cfg, err := decodeBotConfig()
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// buildMonitor assembles the full pipeline from configuration. The
// returned cleanup closes the seen store.
func buildMonitor(cfg types.BotConfig, logger *slog.Logger) (*monitor.Monitor, func(), error) {
	pb, err := loadPhrasebook(cfg)
	if err != nil {
		return nil, nil, err
	}

	store, err := dedup.Open(cfg.Monitor.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening seen store: %w", err)
	}

	sink, err := journal.Open(cfg.Monitor.JournalPath)
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("opening journal: %w", err)
	}

	sources := feed.All(cfg.Sources, defaultKeywords, &http.Client{Timeout: cfg.Sources.Timeout})
	extractor := extract.New(cfg.Analyzer, &http.Client{Timeout: cfg.Analyzer.Timeout})
	market := manifold.NewClient(cfg.Market, nil)
	translator := translate.New(secretDefault("deepl-api-key", ""), nil, logger)

	m := monitor.New(cfg, sources, store, extractor, market, sink, translator, pb, logger)
	return m, func() { store.Close() }, nil
}

func loadPhrasebook(cfg types.BotConfig) (*phrasebook.Phrasebook, error) {
	if cfg.Monitor.PhrasebookPath == "" {
		return phrasebook.Default(), nil
	}
	pb, err := phrasebook.Load(cfg.Monitor.PhrasebookPath)
	if err != nil {
		return nil, fmt.Errorf("loading phrasebook: %w", err)
	}
	return pb, nil
}

func printSummary(s monitor.Summary) {
	fmt.Printf("fetched=%d new=%d relevant=%d commented=%d traded=%d failed=%d\n",
		s.Fetched, s.New, s.Relevant, s.Commented, s.Traded, s.Failed)
}
