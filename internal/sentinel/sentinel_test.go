// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sentinel

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikhailtal/oreacle-bot/internal/manifold"
	"github.com/mikhailtal/oreacle-bot/pkg/types"
)

type fakeSource struct {
	docs []types.Document
	err  error
}

func (f *fakeSource) Name() types.SourceName { return types.SourceCNInfo }
func (f *fakeSource) FetchNew(context.Context) ([]types.Document, error) {
	return f.docs, f.err
}

type fakeMarket struct {
	lookupErr  error
	commentErr error
	comments   []string
}

func (f *fakeMarket) GetMarketBySlug(_ context.Context, slug string) (manifold.Market, error) {
	if f.lookupErr != nil {
		return manifold.Market{}, f.lookupErr
	}
	return manifold.Market{ID: "m-" + slug, Slug: slug}, nil
}

func (f *fakeMarket) PostComment(_ context.Context, contractID, markdown string) (string, error) {
	if f.commentErr != nil {
		return "", f.commentErr
	}
	f.comments = append(f.comments, markdown)
	return "c1", nil
}

func bulletin(title, text string) types.Document {
	return types.Document{
		SourceID:   "b1",
		SourceName: types.SourceCNInfo,
		Title:      title,
		RawText:    text,
		URL:        "http://static.cninfo.com.cn/b1.pdf",
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseMonthlyBulletin(t *testing.T) {
	doc := bulletin(
		"比亚迪2026年7月产销快报",
		"本月汽车销量为341,030辆，其中新能源汽车销量为330,000辆，纯电动汽车146,000辆，插电式混合动力汽车184,000辆，同比增长约21.3%。",
	)

	r, ok := Parse(doc)
	require.True(t, ok)

	assert.Equal(t, "2026-07", r.Period)
	assert.Equal(t, 341030, r.TotalSales)
	assert.Equal(t, 330000, r.NEVSales)
	assert.Equal(t, 146000, r.BEVSales)
	assert.Equal(t, 184000, r.PHEVSales)
	require.NotNil(t, r.YoYGrowth)
	assert.InDelta(t, 21.3, *r.YoYGrowth, 1e-9)
}

func TestParseWanMultiplier(t *testing.T) {
	doc := bulletin("2026年6月销量快报", "汽车销量为34.1万辆，新能源汽车销量为33万辆")

	r, ok := Parse(doc)
	require.True(t, ok)

	assert.Equal(t, 341000, r.TotalSales)
	assert.Equal(t, 330000, r.NEVSales)
	assert.Nil(t, r.YoYGrowth)
}

func TestParseRejectsNonMonthlyTitles(t *testing.T) {
	doc := bulletin("2026年半年度报告", "汽车销量为341,030辆")

	_, ok := Parse(doc)
	assert.False(t, ok)
}

func TestParseRejectsReportWithoutFigures(t *testing.T) {
	doc := bulletin("2026年7月产销快报", "详见附件。")

	_, ok := Parse(doc)
	assert.False(t, ok, "a monthly title with no extractable figures is not a report")
}

func TestCommentRendersFigures(t *testing.T) {
	growth := 21.3
	c := Comment(Report{
		Period:     "2026-07",
		TotalSales: 341030,
		NEVSales:   330000,
		YoYGrowth:  &growth,
		Doc:        bulletin("产销快报", "x"),
	})

	assert.Contains(t, c, "2026-07")
	assert.Contains(t, c, "341,030 vehicles")
	assert.Contains(t, c, "330,000 vehicles")
	assert.Contains(t, c, "96.8% of total")
	assert.Contains(t, c, "+21.3% YoY")
	assert.Contains(t, c, "Automated analysis by Oreacle Bot")
}

func TestRunPostsToEveryConfiguredMarket(t *testing.T) {
	src := &fakeSource{docs: []types.Document{
		bulletin("2026年7月产销快报", "汽车销量为341,030辆"),
		bulletin("董事会决议公告", "无关内容"),
	}}
	mkt := &fakeMarket{}
	s := New(src, mkt, []string{"byd-deliveries", "byd-nev-share"}, testLogger())

	res, err := s.Run(context.Background(), true)
	require.NoError(t, err)

	assert.Equal(t, Result{Fetched: 2, ReportsFound: 1, CommentsPosted: 2}, res)
	require.Len(t, mkt.comments, 2)
	assert.Contains(t, mkt.comments[0], "341,030")
}

func TestRunWithoutPostOnlyCounts(t *testing.T) {
	src := &fakeSource{docs: []types.Document{bulletin("2026年7月产销快报", "汽车销量为341,030辆")}}
	mkt := &fakeMarket{}
	s := New(src, mkt, []string{"byd-deliveries"}, testLogger())

	res, err := s.Run(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 1, res.ReportsFound)
	assert.Zero(t, res.CommentsPosted)
	assert.Empty(t, mkt.comments)
}

func TestRunCountsCommentFailures(t *testing.T) {
	src := &fakeSource{docs: []types.Document{bulletin("2026年7月产销快报", "汽车销量为341,030辆")}}
	mkt := &fakeMarket{commentErr: errors.New("api down")}
	s := New(src, mkt, []string{"byd-deliveries"}, testLogger())

	res, err := s.Run(context.Background(), true)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Failed)
	assert.Zero(t, res.CommentsPosted)
}

func TestRunFetchFailureIsFatal(t *testing.T) {
	src := &fakeSource{err: errors.New("timeout")}
	s := New(src, &fakeMarket{}, nil, testLogger())

	_, err := s.Run(context.Background(), true)
	require.Error(t, err)
}
