// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sentinel watches a listed company's monthly production and
// sales bulletins and posts the structured numbers as market comments.
// Unlike the disclosure pipeline it never trades; the bulletins are
// routine filings whose value is the data, not a resolution signal.
package sentinel

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/mikhailtal/oreacle-bot/internal/feed"
	"github.com/mikhailtal/oreacle-bot/internal/manifold"
	"github.com/mikhailtal/oreacle-bot/pkg/types"
)

// SearchKeywords are the disclosure-search terms that surface monthly
// bulletins.
var SearchKeywords = []string{"产销快报", "销量快报", "月度销量"}

// monthlyKeywords gates the parser. A bulletin title must contain one of
// these before any number extraction is attempted.
var monthlyKeywords = []string{
	"月度销量", "月度产量", "产销快报", "销量快报",
	"monthly sales", "monthly production", "monthly delivery",
	"sales volume", "production volume",
}

var (
	periodRe = regexp.MustCompile(`(\d{4})[年-](\d{1,2})`)
	totalRe  = regexp.MustCompile(`(?:总销量|汽车销量)(?:约为|为)?[:：\s]*(\d+(?:,\d{3})*(?:\.\d+)?万?)(?:辆|台)`)
	nevRe    = regexp.MustCompile(`新能源汽车销量(?:约为|为)?[:：\s]*(\d+(?:,\d{3})*(?:\.\d+)?万?)(?:辆|台)`)
	bevRe    = regexp.MustCompile(`纯电动汽车(?:销量)?(?:约为|为)?[:：\s]*(\d+(?:,\d{3})*(?:\.\d+)?万?)(?:辆|台)`)
	phevRe   = regexp.MustCompile(`(?:插电式混合动力|混合动力)汽车(?:销量)?(?:约为|为)?[:：\s]*(\d+(?:,\d{3})*(?:\.\d+)?万?)(?:辆|台)`)
	yoyRe    = regexp.MustCompile(`同比(?:增长|上升|增加)(?:约)?(\d+(?:\.\d+)?)%`)
)

// Report is one parsed monthly bulletin.
type Report struct {
	// Period is the reporting month, "YYYY-MM", when the title states it.
	Period string

	TotalSales int
	NEVSales   int
	BEVSales   int
	PHEVSales  int

	// YoYGrowth is the stated year-over-year sales growth in percent.
	// Nil when the bulletin does not state one.
	YoYGrowth *float64

	Doc types.Document
}

// IsMonthlyReport reports whether a bulletin title looks like a monthly
// sales or production report.
func IsMonthlyReport(title string) bool {
	lower := strings.ToLower(title)
	for _, kw := range monthlyKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Parse extracts the sales figures from a bulletin. The second return is
// false when the document is not a monthly report or when no meaningful
// figure could be extracted.
func Parse(doc types.Document) (Report, bool) {
	if !IsMonthlyReport(doc.Title) {
		return Report{}, false
	}

	r := Report{Doc: doc}
	if m := periodRe.FindStringSubmatch(doc.Title); m != nil {
		month := m[2]
		if len(month) == 1 {
			month = "0" + month
		}
		r.Period = m[1] + "-" + month
	}

	text := doc.Title + "\n" + doc.RawText
	r.TotalSales = findCount(totalRe, text)
	r.NEVSales = findCount(nevRe, text)
	r.BEVSales = findCount(bevRe, text)
	r.PHEVSales = findCount(phevRe, text)
	if m := yoyRe.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			r.YoYGrowth = &v
		}
	}

	if r.TotalSales == 0 && r.NEVSales == 0 {
		return Report{}, false
	}
	return r, true
}

func findCount(re *regexp.Regexp, text string) int {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	return parseCount(m[1])
}

// parseCount reads vehicle-count strings: "123,456", "12.34万", "123万".
// 万 multiplies by ten thousand.
func parseCount(s string) int {
	s = strings.ReplaceAll(s, ",", "")
	mult := 1.0
	if strings.HasSuffix(s, "万") {
		mult = 10000
		s = strings.TrimSuffix(s, "万")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int(v * mult)
}

// Comment renders a report as Manifold markdown.
func Comment(r Report) string {
	var b strings.Builder
	period := r.Period
	if period == "" {
		period = "latest"
	}
	fmt.Fprintf(&b, "📊 **Monthly Sales Report: %s**\n\n", period)

	if r.TotalSales > 0 {
		fmt.Fprintf(&b, "- **Total sales**: %s vehicles\n", groupDigits(r.TotalSales))
	}
	if r.NEVSales > 0 {
		fmt.Fprintf(&b, "- **NEV sales**: %s vehicles", groupDigits(r.NEVSales))
		if r.TotalSales > 0 {
			fmt.Fprintf(&b, " (%.1f%% of total)", float64(r.NEVSales)/float64(r.TotalSales)*100)
		}
		b.WriteString("\n")
	}
	if r.BEVSales > 0 {
		fmt.Fprintf(&b, "- **BEV sales**: %s vehicles\n", groupDigits(r.BEVSales))
	}
	if r.PHEVSales > 0 {
		fmt.Fprintf(&b, "- **PHEV sales**: %s vehicles\n", groupDigits(r.PHEVSales))
	}
	if r.YoYGrowth != nil {
		fmt.Fprintf(&b, "\n**Growth**: %+.1f%% YoY\n", *r.YoYGrowth)
	}

	fmt.Fprintf(&b, "\n**Source**: [%s](%s)\n", r.Doc.Title, r.Doc.URL)
	b.WriteString("\n*Automated analysis by Oreacle Bot*\n")
	return b.String()
}

// groupDigits formats n with thousands separators.
func groupDigits(n int) string {
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteString(",")
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// Market is the subset of the Manifold client the sentinel dispatches to.
type Market interface {
	GetMarketBySlug(ctx context.Context, slug string) (manifold.Market, error)
	PostComment(ctx context.Context, contractID, markdown string) (string, error)
}

// Result counts what one sentinel check did.
type Result struct {
	Fetched        int
	ReportsFound   int
	CommentsPosted int
	Failed         int
}

// Sentinel runs the monthly-report check over one bulletin source.
type Sentinel struct {
	source feed.Source
	market Market
	slugs  []string
	logger *slog.Logger
}

// New assembles a sentinel. Slugs are the markets that receive comments.
func New(source feed.Source, market Market, slugs []string, logger *slog.Logger) *Sentinel {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sentinel{source: source, market: market, slugs: slugs, logger: logger}
}

// Run fetches recent bulletins, parses the monthly reports among them,
// and, when post is set, comments the figures on each configured market.
// Without post the check only reports what it found. A failed comment is
// counted, never fatal; the error return is reserved for a failed fetch.
func (s *Sentinel) Run(ctx context.Context, post bool) (Result, error) {
	docs, err := s.source.FetchNew(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("fetching bulletins: %w", err)
	}

	res := Result{Fetched: len(docs)}
	for _, doc := range docs {
		r, ok := Parse(doc)
		if !ok {
			continue
		}
		res.ReportsFound++
		s.logger.Info("monthly report parsed",
			"period", r.Period, "total", r.TotalSales, "nev", r.NEVSales, "url", r.Doc.URL)
		if !post {
			continue
		}

		markdown := Comment(r)
		for _, slug := range s.slugs {
			mkt, err := s.market.GetMarketBySlug(ctx, slug)
			if err != nil {
				s.logger.Error("market lookup failed", "slug", slug, "error", err)
				res.Failed++
				continue
			}
			if _, err := s.market.PostComment(ctx, mkt.ID, markdown); err != nil {
				s.logger.Error("comment failed", "slug", slug, "error", err)
				res.Failed++
				continue
			}
			res.CommentsPosted++
		}
	}
	return res, nil
}
