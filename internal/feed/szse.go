// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mikhailtal/oreacle-bot/internal/httputil"
	"github.com/mikhailtal/oreacle-bot/pkg/types"
)

// szseAPIBase is the listed-notice search endpoint. Declared as a var so
// tests can substitute an httptest server.
var szseAPIBase = "http://www.szse.cn/api/disc/announcement/annList"

const szseDownloadBase = "http://disc.static.szse.cn/download/"

// SZSE searches the exchange's listed-company notices by keyword.
type SZSE struct {
	client   *http.Client
	cfg      types.SourcesConfig
	keywords []string
}

// NewSZSE builds the szse source.
func NewSZSE(cfg types.SourcesConfig, keywords []string, client *http.Client) *SZSE {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &SZSE{client: client, cfg: cfg, keywords: keywords}
}

// Name returns the source identifier.
func (s *SZSE) Name() types.SourceName { return types.SourceSZSE }

// FetchNew runs one search per keyword and merges the results.
func (s *SZSE) FetchNew(ctx context.Context) ([]types.Document, error) {
	now := time.Now().UTC()
	window := searchWindow(s.cfg.DaysBack, now)

	var docs []types.Document
	for _, kw := range s.keywords {
		page, err := s.search(ctx, kw, window)
		if err != nil {
			return nil, fmt.Errorf("szse search %q: %w", kw, err)
		}
		docs = append(docs, page...)
	}
	return docs, nil
}

func (s *SZSE) search(ctx context.Context, keyword, window string) ([]types.Document, error) {
	body := map[string]any{
		"seDate":      window,
		"channelCode": []string{"listedNotice_disc"},
		"pageSize":    s.cfg.PageSize,
		"pageNum":     1,
		"keyword":     keyword,
		"plateCode":   []string{"szse"},
		"secCode":     []string{s.cfg.StockCode},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, szseAPIBase, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	req.Header.Set("Origin", "http://www.szse.cn")
	req.Header.Set("Referer", "http://www.szse.cn/disclosure/listed/notice/")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := httputil.DoWithRetry(ctx, s.client, req, 0)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("szse returned HTTP %d", resp.StatusCode)
	}

	var parsed struct {
		Data struct {
			Announcements []szseAnnouncement `json:"announcements"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("parsing szse response: %w", err)
	}

	fetched := time.Now().UTC()
	docs := make([]types.Document, 0, len(parsed.Data.Announcements))
	for _, a := range parsed.Data.Announcements {
		id := a.ID
		if id == "" {
			id = a.SeqID
		}
		if id == "" {
			id = a.AttachPath
		}
		if id == "" {
			continue
		}

		link := a.AttachPath
		if link != "" && !strings.HasPrefix(link, "http") {
			link = szseDownloadBase + strings.TrimPrefix(link, "/")
		}

		docs = append(docs, types.Document{
			SourceID:    id,
			SourceName:  types.SourceSZSE,
			Title:       a.Title,
			RawText:     a.Title,
			URL:         link,
			PublishedAt: parseSZSETime(a.PublishTime),
			FetchedAt:   fetched,
			Keyword:     keyword,
		})
	}
	return docs, nil
}

type szseAnnouncement struct {
	ID          string `json:"id"`
	SeqID       string `json:"seqId"`
	Title       string `json:"title"`
	PublishTime string `json:"publishTime"`
	AttachPath  string `json:"attachPath"`
}

func parseSZSETime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		return time.Time{}
	}
	return t
}
