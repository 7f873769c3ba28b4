// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mikhailtal/oreacle-bot/internal/httputil"
	"github.com/mikhailtal/oreacle-bot/pkg/types"
)

// cninfoAPIBase is the announcement search endpoint. Declared as a var so
// tests can substitute an httptest server.
var cninfoAPIBase = "http://www.cninfo.com.cn/new/hisAnnouncement/query"

const cninfoStaticBase = "http://static.cninfo.com.cn/"

// CNInfo searches the cninfo disclosure archive by keyword, scoped to the
// configured stock code.
type CNInfo struct {
	client   *http.Client
	cfg      types.SourcesConfig
	keywords []string
}

// NewCNInfo builds the cninfo source.
func NewCNInfo(cfg types.SourcesConfig, keywords []string, client *http.Client) *CNInfo {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &CNInfo{client: client, cfg: cfg, keywords: keywords}
}

// Name returns the source identifier.
func (s *CNInfo) Name() types.SourceName { return types.SourceCNInfo }

// FetchNew runs one search per keyword and merges the results. A failing
// keyword aborts the fetch; the caller treats the whole source as empty
// this cycle.
func (s *CNInfo) FetchNew(ctx context.Context) ([]types.Document, error) {
	now := time.Now().UTC()
	window := searchWindow(s.cfg.DaysBack, now)

	var docs []types.Document
	for _, kw := range s.keywords {
		page, err := s.search(ctx, kw, window)
		if err != nil {
			return nil, fmt.Errorf("cninfo search %q: %w", kw, err)
		}
		docs = append(docs, page...)
	}
	return docs, nil
}

func (s *CNInfo) search(ctx context.Context, keyword, window string) ([]types.Document, error) {
	form := url.Values{
		"pageNum":   {"1"},
		"pageSize":  {fmt.Sprintf("%d", s.cfg.PageSize)},
		"column":    {"szse"},
		"tabName":   {"fulltext"},
		"stock":     {s.cfg.StockCode},
		"searchkey": {keyword},
		"seDate":    {window},
		"sortName":  {"time"},
		"sortType":  {"desc"},
		"isHLtitle": {"true"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cninfoAPIBase, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	req.Header.Set("Origin", "http://www.cninfo.com.cn")
	req.Header.Set("Referer", "http://www.cninfo.com.cn/")

	resp, err := httputil.DoWithRetry(ctx, s.client, req, 0)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cninfo returned HTTP %d", resp.StatusCode)
	}

	var payload struct {
		Announcements []cninfoAnnouncement `json:"announcements"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("parsing cninfo response: %w", err)
	}

	fetched := time.Now().UTC()
	docs := make([]types.Document, 0, len(payload.Announcements))
	for _, a := range payload.Announcements {
		id := a.AnnouncementID
		if id == "" {
			id = a.AdjunctURL
		}
		if id == "" {
			continue
		}

		link := a.AdjunctURL
		if link != "" && !strings.HasPrefix(link, "http") {
			link = cninfoStaticBase + strings.TrimPrefix(link, "/")
		}

		docs = append(docs, types.Document{
			SourceID:    id,
			SourceName:  types.SourceCNInfo,
			Title:       stripHighlight(a.AnnouncementTitle),
			RawText:     stripHighlight(a.AnnouncementTitle),
			URL:         link,
			PublishedAt: msTime(a.AnnouncementTime),
			FetchedAt:   fetched,
			Keyword:     keyword,
		})
	}
	return docs, nil
}

type cninfoAnnouncement struct {
	AnnouncementID    string `json:"announcementId"`
	AnnouncementTitle string `json:"announcementTitle"`
	AnnouncementTime  int64  `json:"announcementTime"`
	AdjunctURL        string `json:"adjunctUrl"`
}

// stripHighlight removes the <em> markers cninfo wraps around matched
// keywords when isHLtitle is set.
func stripHighlight(s string) string {
	s = strings.ReplaceAll(s, "<em>", "")
	return strings.ReplaceAll(s, "</em>", "")
}

// msTime converts a millisecond epoch to time, zero when absent.
func msTime(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
