// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract produces a normalized Extraction from a document. Two
// backends implement the same contract: a structured external analyzer
// and a deterministic pattern fallback. The backend is selected once per
// process based on credential availability, never per document.
package extract

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/mikhailtal/oreacle-bot/internal/phrasebook"
	"github.com/mikhailtal/oreacle-bot/pkg/types"
)

// Backend turns one document into an Extraction. Implementations must be
// safe for concurrent use.
type Backend interface {
	// Name identifies the backend ("analyzer" or "fallback").
	Name() string

	// Extract analyzes the document's raw text against the phrasebook.
	Extract(ctx context.Context, doc types.Document, pb *phrasebook.Phrasebook) (types.Extraction, error)
}

// SchemaError reports an analyzer payload that does not conform to the
// Extraction schema. It is surfaced to the caller, never retried and
// never coerced into a default label: acting on a malformed result is
// more dangerous than skipping the document this cycle.
type SchemaError struct {
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("extraction schema violation: %s: %s", e.Field, e.Reason)
}

// IsSchemaError reports whether err wraps a SchemaError.
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}

// backoffBase controls the base duration for retry backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// Extractor wraps the selected backend with retry for transient failures.
type Extractor struct {
	backend    Backend
	maxRetries int
}

// New selects the backend from configuration: the analyzer when an API
// key is configured, the deterministic fallback otherwise. The choice is
// made here, once, for the process lifetime.
func New(cfg types.AnalyzerConfig, client *http.Client) *Extractor {
	var backend Backend
	if cfg.APIKey != "" {
		backend = NewAnalyzerBackend(cfg, client)
	} else {
		backend = NewFallbackBackend(cfg.FallbackMaxConfidence)
	}
	return &Extractor{backend: backend, maxRetries: cfg.MaxRetries}
}

// NewWithBackend wires an explicit backend; used by tests.
func NewWithBackend(backend Backend, maxRetries int) *Extractor {
	return &Extractor{backend: backend, maxRetries: maxRetries}
}

// BackendName returns the selected backend's identifier.
func (e *Extractor) BackendName() string {
	return e.backend.Name()
}

// Extract runs the backend with exponential backoff on transient errors.
// Schema violations and context cancellation abort immediately.
func (e *Extractor) Extract(ctx context.Context, doc types.Document, pb *phrasebook.Phrasebook) (types.Extraction, error) {
	maxRetries := e.maxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return types.Extraction{}, ctx.Err()
			case <-time.After(backoff):
			}
		}

		result, err := e.backend.Extract(ctx, doc, pb)
		if err == nil {
			return result, nil
		}
		if IsSchemaError(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return types.Extraction{}, err
		}
		lastErr = err
	}
	return types.Extraction{}, fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}

// validate checks a decoded analyzer payload against the Extraction
// schema and normalizes it. Every violation is a *SchemaError.
func validate(w wireExtraction) (types.Extraction, error) {
	match := types.MineMatch(w.MineMatch)
	if !types.ValidMatches[match] {
		return types.Extraction{}, &SchemaError{Field: "mine_match", Reason: fmt.Sprintf("unknown value %q", w.MineMatch)}
	}

	label := types.Label(w.ProposedLabel)
	if !types.ValidLabels[label] {
		return types.Extraction{}, &SchemaError{Field: "proposed_label", Reason: fmt.Sprintf("unknown value %q", w.ProposedLabel)}
	}

	if w.Confidence < 0.0 || w.Confidence > 1.0 {
		return types.Extraction{}, &SchemaError{Field: "confidence", Reason: fmt.Sprintf("%v out of range [0,1]", w.Confidence)}
	}

	evidence := make([]types.Evidence, 0, len(w.Evidence))
	for i, ev := range w.Evidence {
		if ev.ExactQuote == "" {
			return types.Extraction{}, &SchemaError{Field: fmt.Sprintf("evidence[%d].exact_quote", i), Reason: "empty quote"}
		}
		evidence = append(evidence, types.Evidence{
			ExactQuote:      ev.ExactQuote,
			TranslatedQuote: ev.Translated,
			LocationHint:    ev.Where,
		})
	}

	return types.Extraction{
		MineMatch:     match,
		ProposedLabel: label,
		Confidence:    w.Confidence,
		Authority:     w.Authority,
		KeyTermsZH:    w.KeyTermsZH,
		KeyTermsEN:    w.KeyTermsEN,
		Evidence:      evidence,
		RiskFlags:     w.Hazards,
	}, nil
}

// wireExtraction is the analyzer's JSON payload shape.
type wireExtraction struct {
	MineMatch     string         `json:"mine_match"`
	ProposedLabel string         `json:"proposed_label"`
	Confidence    float64        `json:"confidence"`
	Authority     string         `json:"authority,omitempty"`
	KeyTermsZH    []string       `json:"key_terms_found_zh"`
	KeyTermsEN    []string       `json:"key_terms_found_en"`
	Evidence      []wireEvidence `json:"evidence"`
	Hazards       []string       `json:"hazards"`
}

type wireEvidence struct {
	ExactQuote string `json:"exact_zh_quote"`
	Translated string `json:"en_literal"`
	Where      string `json:"where_in_doc"`
}
