// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/mikhailtal/oreacle-bot/internal/httputil"
	"github.com/mikhailtal/oreacle-bot/pkg/types"
)

// defaultJiangxiIndexes are the natural-resources announcement sections
// scanned when no index pages are configured: mining-rights transfer
// notices for the province and the Yichun municipal column.
var defaultJiangxiIndexes = []string{
	"https://bnr.jiangxi.gov.cn/jxszrzyt/kyqjygggs/kyqjygsg/",
	"https://bnr.jiangxi.gov.cn/jxszrzyt/ckqcrgggs/ckqcrgsg/",
	"https://www.yichun.gov.cn/ycsrmzf/gytdsyqhkyqcr/",
}

// regionHint filters index links down to notices about the watched
// region. Titles without a region hint are skipped at the source to keep
// the feed small; the pipeline prefilter does the real relevance work.
var regionHint = regexp.MustCompile(`宜春|宜丰|奉新|袁州`)

// Jiangxi scans provincial natural-resources index pages for
// mining-rights notices. Unlike the exchange archives there is no search
// API; the page's anchor list is the feed.
type Jiangxi struct {
	client  *http.Client
	cfg     types.SourcesConfig
	indexes []string
}

// NewJiangxi builds the jiangxi source.
func NewJiangxi(cfg types.SourcesConfig, client *http.Client) *Jiangxi {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	indexes := cfg.JiangxiIndexes
	if len(indexes) == 0 {
		indexes = defaultJiangxiIndexes
	}
	return &Jiangxi{client: client, cfg: cfg, indexes: indexes}
}

// Name returns the source identifier.
func (s *Jiangxi) Name() types.SourceName { return types.SourceJiangxi }

// FetchNew scans every index page. An unreachable index contributes
// nothing rather than failing the source: these government pages go down
// routinely and independently.
func (s *Jiangxi) FetchNew(ctx context.Context) ([]types.Document, error) {
	var docs []types.Document
	var lastErr error
	failed := 0

	for _, index := range s.indexes {
		page, err := s.scanIndex(ctx, index)
		if err != nil {
			failed++
			lastErr = err
			continue
		}
		docs = append(docs, page...)
	}

	if failed == len(s.indexes) && lastErr != nil {
		return nil, fmt.Errorf("all %d jiangxi indexes failed, last: %w", failed, lastErr)
	}
	return docs, nil
}

func (s *Jiangxi) scanIndex(ctx context.Context, index string) ([]types.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, index, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, s.client, req, 0)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("jiangxi index %s returned HTTP %d", index, resp.StatusCode)
	}

	page, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing jiangxi index %s: %w", index, err)
	}

	base, err := url.Parse(index)
	if err != nil {
		return nil, fmt.Errorf("parsing index url %s: %w", index, err)
	}

	fetched := time.Now().UTC()
	var docs []types.Document
	page.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		title := strings.TrimSpace(a.Text())
		if title == "" || !regionHint.MatchString(title) {
			return
		}

		href, _ := a.Attr("href")
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		link := base.ResolveReference(ref).String()

		docs = append(docs, types.Document{
			// Notice pages have no stable numeric ID; the resolved URL
			// is unique in practice.
			SourceID:   link,
			SourceName: types.SourceJiangxi,
			Title:      title,
			RawText:    title,
			URL:        link,
			FetchedAt:  fetched,
		})
	})
	return docs, nil
}
