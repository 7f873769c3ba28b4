// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package feed fetches disclosure documents from the monitored sources
// and normalizes them into the canonical Document record. A source
// failure is transient by contract: the caller treats it as zero
// documents this cycle and retries next cycle.
package feed

import (
	"context"
	"net/http"
	"time"

	"github.com/mikhailtal/oreacle-bot/pkg/types"
)

// Source is one disclosure collaborator.
type Source interface {
	// Name identifies the source for dedup keys and logs.
	Name() types.SourceName

	// FetchNew returns the documents currently visible at the source.
	// Sources re-yield the same documents every poll; deduplication is
	// the pipeline's job, not the source's.
	FetchNew(ctx context.Context) ([]types.Document, error)
}

// All builds the production source set from configuration. Keywords drive
// the cninfo and szse searches; the jiangxi scanner walks index pages.
func All(cfg types.SourcesConfig, keywords []string, client *http.Client) []Source {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return []Source{
		NewCNInfo(cfg, keywords, client),
		NewSZSE(cfg, keywords, client),
		NewJiangxi(cfg, client),
	}
}

// searchWindow returns the inclusive date range string used by the
// announcement search APIs ("start~end").
func searchWindow(daysBack int, now time.Time) string {
	const layout = "2006-01-02"
	start := now.AddDate(0, 0, -daysBack)
	return start.Format(layout) + "~" + now.Format(layout)
}
