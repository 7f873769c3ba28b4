// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikhailtal/oreacle-bot/pkg/types"
)

func sampleEntry() Entry {
	return Entry{
		Timestamp: time.Date(2026, 3, 15, 8, 30, 0, 0, time.UTC),
		Doc: types.Document{
			SourceID:   "notice-42",
			SourceName: types.SourceJiangxi,
			Title:      "采矿权延续公示",
			URL:        "https://bnr.jiangxi.gov.cn/notice/42.html",
		},
		Prefiltered: true,
		Extraction: types.Extraction{
			MineMatch:     types.MatchTarget,
			ProposedLabel: types.LabelYes,
			Confidence:    0.91,
			Authority:     "江西省自然资源厅",
			RiskFlags:     []string{"历史文件"},
			Evidence: []types.Evidence{
				{ExactQuote: "延续获批", TranslatedQuote: "renewal approved"},
			},
		},
		Decision: types.Decision{
			FinalLabel:       types.LabelYes,
			ActionAuthorized: true,
			AuthorizedAction: types.ActionCommentAndTrade,
			Reasons:          []string{"confidence 0.91 >= 0.75", "trade authorized"},
		},
		CommentPosted: true,
		TradePlaced:   true,
	}
}

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "sub", "decisions.csv"))
	require.NoError(t, err)
	return j
}

func TestAppendAndReadBack(t *testing.T) {
	j := openTestJournal(t)
	require.NoError(t, j.Append(sampleEntry()))

	rows, err := j.Rows()
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	require.Len(t, row, len(header))
	_, err = uuid.Parse(row[0])
	assert.NoError(t, err, "row id should be a UUID")
	assert.Equal(t, "2026-03-15T08:30:00Z", row[1])
	assert.Equal(t, "jiangxi", row[2])
	assert.Equal(t, "notice-42", row[3])
	assert.Equal(t, "采矿权延续公示", row[5])
	assert.Equal(t, "true", row[6])
	assert.Equal(t, "TARGET_MATCH", row[7])
	assert.Equal(t, "YES_CONDITION", row[8])
	assert.Equal(t, "0.910", row[9])
	assert.Equal(t, "延续获批", row[11])
	assert.Equal(t, "renewal approved", row[12])
	assert.Equal(t, "历史文件", row[13])
	assert.Equal(t, "COMMENT_AND_TRADE", row[15])
	assert.Equal(t, "confidence 0.91 >= 0.75; trade authorized", row[18])
}

func TestAppendAccumulates(t *testing.T) {
	j := openTestJournal(t)
	for i := 0; i < 3; i++ {
		require.NoError(t, j.Append(sampleEntry()))
	}

	rows, err := j.Rows()
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestOpenPreservesExistingRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decisions.csv")

	j, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Append(sampleEntry()))

	// Reopening must not truncate or re-write the header.
	j2, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j2.Append(sampleEntry()))

	rows, err := j2.Rows()
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestAppendZeroValueStages(t *testing.T) {
	j := openTestJournal(t)

	// A document rejected by the prefilter has no extraction or decision.
	require.NoError(t, j.Append(Entry{
		Doc: types.Document{SourceID: "x", SourceName: types.SourceCNInfo},
	}))

	rows, err := j.Rows()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "false", rows[0][6])
	assert.Equal(t, "", rows[0][7])
	assert.Equal(t, "", rows[0][15])
}

func TestRowsEmptyJournal(t *testing.T) {
	j := openTestJournal(t)
	rows, err := j.Rows()
	require.NoError(t, err)
	assert.Empty(t, rows)
}
