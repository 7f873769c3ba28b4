// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikhailtal/oreacle-bot/internal/phrasebook"
	"github.com/mikhailtal/oreacle-bot/pkg/types"
)

// chatServer wraps an extraction payload in the chat-completions envelope.
func chatServer(t *testing.T, payload string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.Header.Get("Authorization"), "Bearer ")

		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}

		envelope := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": payload}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(envelope)
	}))
}

func analyzerFor(ts *httptest.Server) *AnalyzerBackend {
	return NewAnalyzerBackend(types.AnalyzerConfig{APIKey: "sk-test", Model: "test-model"}, ts.Client())
}

func swapAPIBase(t *testing.T, url string) {
	t.Helper()
	old := analyzerAPIBase
	analyzerAPIBase = url
	t.Cleanup(func() { analyzerAPIBase = old })
}

const validPayload = `{
	"mine_match": "TARGET_MATCH",
	"proposed_label": "YES_CONDITION",
	"confidence": 0.85,
	"key_terms_found_zh": ["延续"],
	"key_terms_found_en": ["license renewal"],
	"evidence": [{"exact_zh_quote": "采矿许可证延续获批", "en_literal": "license renewal approved", "where_in_doc": "para 1"}],
	"hazards": []
}`

func TestAnalyzerExtract(t *testing.T) {
	ts := chatServer(t, validPayload, http.StatusOK)
	defer ts.Close()
	swapAPIBase(t, ts.URL)

	doc := testDoc("枧下窝矿区采矿许可证延续获批")
	got, err := analyzerFor(ts).Extract(context.Background(), doc, phrasebook.Default())
	require.NoError(t, err)

	assert.Equal(t, types.MatchTarget, got.MineMatch)
	assert.Equal(t, types.LabelYes, got.ProposedLabel)
	assert.Equal(t, 0.85, got.Confidence)
	require.Len(t, got.Evidence, 1)
}

func TestAnalyzerDegradesMatchToLocalMatcher(t *testing.T) {
	// Analyzer claims TARGET_MATCH, but the document never names the
	// facility — only the region. The local matcher wins downward.
	ts := chatServer(t, validPayload, http.StatusOK)
	defer ts.Close()
	swapAPIBase(t, ts.URL)

	doc := testDoc("宜春市采矿许可证延续公告")
	got, err := analyzerFor(ts).Extract(context.Background(), doc, phrasebook.Default())
	require.NoError(t, err)

	assert.Equal(t, types.MatchPossible, got.MineMatch)
}

func TestAnalyzerSchemaViolations(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not json", `this is not json`},
		{"unknown enum", `{"mine_match": "KINDA", "proposed_label": "YES_CONDITION", "confidence": 0.8, "key_terms_found_zh": [], "key_terms_found_en": [], "evidence": [], "hazards": []}`},
		{"confidence out of range", `{"mine_match": "TARGET_MATCH", "proposed_label": "YES_CONDITION", "confidence": 1.5, "key_terms_found_zh": [], "key_terms_found_en": [], "evidence": [], "hazards": []}`},
		{"unknown label", `{"mine_match": "TARGET_MATCH", "proposed_label": "DEFINITELY", "confidence": 0.8, "key_terms_found_zh": [], "key_terms_found_en": [], "evidence": [], "hazards": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := chatServer(t, tt.payload, http.StatusOK)
			defer ts.Close()
			swapAPIBase(t, ts.URL)

			_, err := analyzerFor(ts).Extract(context.Background(), testDoc("x"), phrasebook.Default())
			require.Error(t, err)
			assert.True(t, IsSchemaError(err), "expected schema error, got: %v", err)
		})
	}
}

func TestAnalyzerHTTPErrorIsNotSchemaError(t *testing.T) {
	ts := chatServer(t, "", http.StatusServiceUnavailable)
	defer ts.Close()
	swapAPIBase(t, ts.URL)

	_, err := analyzerFor(ts).Extract(context.Background(), testDoc("x"), phrasebook.Default())
	require.Error(t, err)
	assert.False(t, IsSchemaError(err), "transient HTTP failures must stay retryable")
	assert.Contains(t, err.Error(), "503")
}

func TestAnalyzerSendsPhrasebookContext(t *testing.T) {
	var gotBody chatRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		envelope := fmt.Sprintf(`{"choices": [{"message": {"content": %q}}]}`, validPayload)
		w.Write([]byte(envelope))
	}))
	defer ts.Close()
	swapAPIBase(t, ts.URL)

	doc := testDoc("枧下窝公告文本")
	_, err := analyzerFor(ts).Extract(context.Background(), doc, phrasebook.Default())
	require.NoError(t, err)

	require.Len(t, gotBody.Messages, 2)
	user := gotBody.Messages[1].Content
	assert.Contains(t, user, "枧下窝公告文本")
	assert.Contains(t, user, "恢复生产")
	assert.Contains(t, user, doc.URL)
	require.NotNil(t, gotBody.ResponseFormat)
	assert.Equal(t, "json_schema", gotBody.ResponseFormat.Type)
	assert.True(t, gotBody.ResponseFormat.JSONSchema.Strict)
}
