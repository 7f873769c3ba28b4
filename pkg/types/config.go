// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"
)

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SourcesConfig holds settings for the disclosure sources.
type SourcesConfig struct {
	HTTPConfig `yaml:",inline"`

	// StockCode is the listed-company code the cninfo and szse searches
	// filter on (e.g. "300750").
	StockCode string `json:"stock_code" yaml:"stock_code"`

	// DaysBack is the search window for announcement queries (default 90).
	DaysBack int `json:"days_back" yaml:"days_back"`

	// PageSize is the number of results requested per keyword (default 30).
	PageSize int `json:"page_size" yaml:"page_size"`

	// JiangxiIndexes are the natural-resources index pages scanned for
	// mining-rights notices.
	JiangxiIndexes []string `json:"jiangxi_indexes" yaml:"jiangxi_indexes"`
}

// AnalyzerConfig holds settings for the structured extraction backend.
type AnalyzerConfig struct {
	HTTPConfig `yaml:",inline"`

	// Model is the analyzer model identifier (e.g. "gpt-4o-mini").
	Model string `json:"model" yaml:"model"`

	// APIKey is the analyzer credential. When empty the deterministic
	// fallback backend is selected instead.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for transient analyzer
	// failures (default 3). Schema failures are never retried.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// FallbackMaxConfidence caps the confidence the pattern fallback may
	// report (default 0.5).
	FallbackMaxConfidence float64 `json:"fallback_max_confidence" yaml:"fallback_max_confidence"`
}

// GateConfig holds the decision-gate thresholds.
type GateConfig struct {
	// MinConfidence is the minimum extraction confidence for a trade
	// authorization (default 0.75).
	MinConfidence float64 `json:"min_confidence" yaml:"min_confidence"`
}

// MarketConfig holds settings for the Manifold market collaborator.
type MarketConfig struct {
	HTTPConfig `yaml:",inline"`

	// Slug identifies the target market.
	Slug string `json:"slug" yaml:"slug"`

	// APIKey is the Manifold credential.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// CommentOnly clamps any trade authorization down to a comment before
	// dispatch. Defaults to true: trading must be enabled explicitly.
	// A pointer so an omitted key is distinguishable from an explicit
	// false.
	CommentOnly *bool `json:"comment_only,omitempty" yaml:"comment_only"`

	// TradeAmount is the limit-order size in M$ (default 5).
	TradeAmount int `json:"trade_amount" yaml:"trade_amount"`

	// TradePrice is the limit probability for orders (default 0.55).
	TradePrice float64 `json:"trade_price" yaml:"trade_price"`
}

// IsCommentOnly reports the effective comment-only setting. An unset
// value counts as true.
func (m MarketConfig) IsCommentOnly() bool {
	return m.CommentOnly == nil || *m.CommentOnly
}

// SentinelConfig holds settings for the monthly-sales sentinel, which
// watches a listed company's production and sales bulletins rather than
// mining-rights disclosures.
type SentinelConfig struct {
	// StockCode is the listed-company code whose monthly bulletins are
	// watched (default "002594", BYD).
	StockCode string `json:"stock_code" yaml:"stock_code"`

	// Markets are the Manifold market slugs that receive monthly-report
	// comments.
	Markets []string `json:"markets" yaml:"markets"`

	// DaysBack is the search window for bulletin queries (default 7).
	DaysBack int `json:"days_back" yaml:"days_back"`
}

// MonitorConfig holds settings for the polling loop.
type MonitorConfig struct {
	// Interval is the delay between polling cycles (default 15m).
	Interval time.Duration `json:"interval" yaml:"interval"`

	// DBPath is the seen-store sqlite file (default "tmp/oreacle.db").
	DBPath string `json:"db_path" yaml:"db_path"`

	// JournalPath is the CSV audit log (default "tmp/decisions.csv").
	JournalPath string `json:"journal_path" yaml:"journal_path"`

	// PhrasebookPath is the YAML phrasebook file. Empty selects the
	// built-in phrasebook.
	PhrasebookPath string `json:"phrasebook_path" yaml:"phrasebook_path"`

	// ExtractTimeout bounds one extraction call (default 60s).
	ExtractTimeout time.Duration `json:"extract_timeout" yaml:"extract_timeout"`
}

// BotConfig groups all component configurations.
type BotConfig struct {
	Sources  SourcesConfig  `json:"sources" yaml:"sources"`
	Analyzer AnalyzerConfig `json:"analyzer" yaml:"analyzer"`
	Gate     GateConfig     `json:"gate" yaml:"gate"`
	Market   MarketConfig   `json:"market" yaml:"market"`
	Sentinel SentinelConfig `json:"sentinel" yaml:"sentinel"`
	Monitor  MonitorConfig  `json:"monitor" yaml:"monitor"`
}

// ApplyDefaults fills zero-valued fields with production defaults.
func (c *BotConfig) ApplyDefaults() {
	if c.Sources.Timeout <= 0 {
		c.Sources.Timeout = 20 * time.Second
	}
	if c.Sources.UserAgent == "" {
		c.Sources.UserAgent = "oreacle-bot/1.0"
	}
	if c.Sources.DaysBack <= 0 {
		c.Sources.DaysBack = 90
	}
	if c.Sources.PageSize <= 0 {
		c.Sources.PageSize = 30
	}
	if c.Analyzer.Timeout <= 0 {
		c.Analyzer.Timeout = 30 * time.Second
	}
	if c.Analyzer.MaxRetries <= 0 {
		c.Analyzer.MaxRetries = 3
	}
	if c.Analyzer.FallbackMaxConfidence <= 0 {
		c.Analyzer.FallbackMaxConfidence = 0.5
	}
	if c.Gate.MinConfidence <= 0 {
		c.Gate.MinConfidence = 0.75
	}
	if c.Market.Timeout <= 0 {
		c.Market.Timeout = 20 * time.Second
	}
	if c.Market.CommentOnly == nil {
		commentOnly := true
		c.Market.CommentOnly = &commentOnly
	}
	if c.Market.TradeAmount <= 0 {
		c.Market.TradeAmount = 5
	}
	if c.Market.TradePrice <= 0 {
		c.Market.TradePrice = 0.55
	}
	if c.Sentinel.StockCode == "" {
		c.Sentinel.StockCode = "002594"
	}
	if c.Sentinel.DaysBack <= 0 {
		c.Sentinel.DaysBack = 7
	}
	if c.Monitor.Interval <= 0 {
		c.Monitor.Interval = 15 * time.Minute
	}
	if c.Monitor.DBPath == "" {
		c.Monitor.DBPath = "tmp/oreacle.db"
	}
	if c.Monitor.JournalPath == "" {
		c.Monitor.JournalPath = "tmp/decisions.csv"
	}
	if c.Monitor.ExtractTimeout <= 0 {
		c.Monitor.ExtractTimeout = 60 * time.Second
	}
}

// Validate rejects configurations that cannot run a cycle. A missing
// credential for an enabled feature is fatal here, before any cycle runs.
func (c *BotConfig) Validate() error {
	if c.Market.Slug == "" {
		return fmt.Errorf("market.slug is required")
	}
	if c.Market.APIKey == "" {
		return fmt.Errorf("market.api_key is required (set .secrets/manifold-api-key)")
	}
	if c.Market.TradePrice > 1.0 {
		return fmt.Errorf("market.trade_price %v out of range (0,1]", c.Market.TradePrice)
	}
	if c.Gate.MinConfidence > 1 {
		return fmt.Errorf("gate.min_confidence %v out of range [0,1]", c.Gate.MinConfidence)
	}
	return nil
}
