// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package translate turns Chinese evidence quotes into English for
// rendered comments. Translation is best-effort: any failure returns the
// input unchanged so the pipeline never blocks on it.
package translate

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DeepLAPIBase is overridable for tests.
var DeepLAPIBase = "https://api.deepl.com/v2/translate"

// Translator converts text to English.
type Translator interface {
	Translate(ctx context.Context, text string) string
}

// Passthrough returns text unchanged. Used when no translation key is
// configured.
type Passthrough struct{}

func (Passthrough) Translate(_ context.Context, text string) string { return text }

// DeepL translates via the DeepL v2 API.
type DeepL struct {
	client *http.Client
	apiKey string
	logger *slog.Logger
}

// NewDeepL builds a DeepL translator.
func NewDeepL(apiKey string, client *http.Client, logger *slog.Logger) *DeepL {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DeepL{client: client, apiKey: apiKey, logger: logger}
}

// New picks a backend based on whether an API key is configured.
func New(apiKey string, client *http.Client, logger *slog.Logger) Translator {
	if apiKey == "" {
		return Passthrough{}
	}
	return NewDeepL(apiKey, client, logger)
}

// Translate returns the English rendering of text, or text itself when
// the call fails or yields nothing.
func (d *DeepL) Translate(ctx context.Context, text string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}

	form := url.Values{
		"auth_key":    {d.apiKey},
		"text":        {text},
		"target_lang": {"EN"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, DeepLAPIBase, strings.NewReader(form.Encode()))
	if err != nil {
		d.logger.Warn("deepl request build failed", "error", err)
		return text
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := d.client.Do(req)
	if err != nil {
		d.logger.Warn("deepl translate failed", "error", err)
		return text
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		d.logger.Warn("deepl translate failed", "status", resp.StatusCode)
		return text
	}

	var parsed struct {
		Translations []struct {
			Text string `json:"text"`
		} `json:"translations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		d.logger.Warn("deepl response parse failed", "error", err)
		return text
	}

	parts := make([]string, 0, len(parsed.Translations))
	for _, t := range parsed.Translations {
		parts = append(parts, t.Text)
	}
	joined := strings.Join(parts, "\n")
	if joined == "" {
		return text
	}
	return joined
}
