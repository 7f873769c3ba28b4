// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package journal appends one audit row per evaluated document to a
// local CSV file.
package journal

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mikhailtal/oreacle-bot/pkg/types"
)

var header = []string{
	"row_id", "timestamp", "source", "doc_id", "doc_url", "doc_title",
	"passed_prefilter", "mine_match", "proposed_label", "confidence",
	"authority", "zh_quote", "en_quote", "risk_flags",
	"final_label", "action", "comment_posted", "trade_placed", "reasons",
}

// Entry is one audit row. Zero values are written as-is for documents
// that never reached a stage.
type Entry struct {
	Timestamp     time.Time
	Doc           types.Document
	Prefiltered   bool
	Extraction    types.Extraction
	Decision      types.Decision
	CommentPosted bool
	TradePlaced   bool
}

// Journal writes entries to a CSV file, creating it with a header row on
// first use.
type Journal struct {
	path string
}

// Open prepares the journal file, creating parent directories as needed.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("creating journal file: %w", err)
		}
		w := csv.NewWriter(f)
		w.Write(header)
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return nil, fmt.Errorf("writing journal header: %w", err)
		}
		if err := f.Close(); err != nil {
			return nil, fmt.Errorf("closing journal file: %w", err)
		}
	}

	return &Journal{path: path}, nil
}

// Append writes one entry. The file is opened per call so an abrupt
// shutdown loses at most the row being written.
func (j *Journal) Append(e Entry) error {
	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening journal: %w", err)
	}
	defer f.Close()

	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	zh, en := "", ""
	if len(e.Extraction.Evidence) > 0 {
		zh = e.Extraction.Evidence[0].ExactQuote
		en = e.Extraction.Evidence[0].TranslatedQuote
	}

	record := []string{
		uuid.NewString(),
		ts.UTC().Format(time.RFC3339),
		string(e.Doc.SourceName),
		e.Doc.SourceID,
		e.Doc.URL,
		e.Doc.Title,
		strconv.FormatBool(e.Prefiltered),
		string(e.Extraction.MineMatch),
		string(e.Extraction.ProposedLabel),
		strconv.FormatFloat(e.Extraction.Confidence, 'f', 3, 64),
		e.Extraction.Authority,
		zh,
		en,
		strings.Join(e.Extraction.RiskFlags, "|"),
		string(e.Decision.FinalLabel),
		string(e.Decision.AuthorizedAction),
		strconv.FormatBool(e.CommentPosted),
		strconv.FormatBool(e.TradePlaced),
		strings.Join(e.Decision.Reasons, "; "),
	}

	w := csv.NewWriter(f)
	if err := w.Write(record); err != nil {
		return fmt.Errorf("writing journal row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing journal row: %w", err)
	}
	return nil
}

// Rows reads back all entries as raw records, header excluded. Mostly
// for inspection tooling and tests.
func (j *Journal) Rows() ([][]string, error) {
	f, err := os.Open(j.path)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading journal: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}
	return records[1:], nil
}
