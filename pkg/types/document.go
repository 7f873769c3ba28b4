// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// SourceName identifies which collaborator produced a document.
type SourceName string

const (
	SourceCNInfo  SourceName = "cninfo"
	SourceSZSE    SourceName = "szse"
	SourceJiangxi SourceName = "jiangxi"
)

// Document is the canonical record every source normalizes into. The
// deduplication key is (SourceName, SourceID); SourceID is unique only
// within its source. A Document is immutable once fetched.
type Document struct {
	// SourceID identifies the document within its source (announcement ID,
	// attachment path, or page URL, whichever the source provides).
	SourceID string `json:"source_id" yaml:"source_id"`

	// SourceName identifies the producing source.
	SourceName SourceName `json:"source_name" yaml:"source_name"`

	// Title is the announcement or page title.
	Title string `json:"title" yaml:"title"`

	// RawText is the text the pipeline analyzes. For list-style sources
	// this is the title plus any excerpt the listing exposes.
	RawText string `json:"raw_text" yaml:"raw_text"`

	// URL links to the original document or attachment.
	URL string `json:"url" yaml:"url"`

	// PublishedAt is the source's publication timestamp, when known.
	PublishedAt time.Time `json:"published_at,omitempty" yaml:"published_at,omitempty"`

	// FetchedAt records when the source yielded the document.
	FetchedAt time.Time `json:"fetched_at" yaml:"fetched_at"`

	// Keyword is the search keyword that surfaced the document, if any.
	Keyword string `json:"keyword,omitempty" yaml:"keyword,omitempty"`
}

// Key returns the dedup key components.
func (d Document) Key() (SourceName, string) {
	return d.SourceName, d.SourceID
}
