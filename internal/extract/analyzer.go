// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mikhailtal/oreacle-bot/internal/phrasebook"
	"github.com/mikhailtal/oreacle-bot/pkg/types"
)

// analyzerAPIBase is the chat-completions endpoint. Declared as a var so
// tests can substitute an httptest server.
var analyzerAPIBase = "https://api.openai.com/v1/chat/completions"

const analyzerSystemPrompt = `You are a compliance-grade, extractive information extractor for Chinese regulatory documents about mining licenses.
Rules:
- Output ONLY valid JSON that matches the provided schema.
- Be EXTRACTIVE: include exact Chinese quotes for every claim.
- Do NOT infer production resumption unless an explicit phrase appears.
- If exploration-only or an unrelated mine or entity, label accordingly.`

// AnalyzerBackend calls the external structured analyzer. Responses must
// validate against the Extraction schema or the call fails with a
// *SchemaError.
type AnalyzerBackend struct {
	client *http.Client
	cfg    types.AnalyzerConfig
}

// NewAnalyzerBackend builds the analyzer-backed extractor.
func NewAnalyzerBackend(cfg types.AnalyzerConfig, client *http.Client) *AnalyzerBackend {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &AnalyzerBackend{client: client, cfg: cfg}
}

// Name returns the backend identifier.
func (b *AnalyzerBackend) Name() string { return "analyzer" }

// Extract sends the document text plus phrasebook context to the analyzer
// and validates the structured response. The local alias matcher runs on
// the same text; when it is more cautious than the analyzer's match, the
// weaker strength wins.
func (b *AnalyzerBackend) Extract(ctx context.Context, doc types.Document, pb *phrasebook.Phrasebook) (types.Extraction, error) {
	reqBody := chatRequest{
		Model:       b.cfg.Model,
		Temperature: 0,
		ResponseFormat: &responseFormat{
			Type: "json_schema",
			JSONSchema: &jsonSchemaSpec{
				Name:   "Extraction",
				Strict: true,
				Schema: json.RawMessage(extractionSchema),
			},
		},
		Messages: []chatMessage{
			{Role: "system", Content: analyzerSystemPrompt},
			{Role: "user", Content: buildUserPrompt(doc, pb)},
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return types.Extraction{}, fmt.Errorf("encoding analyzer request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, analyzerAPIBase, bytes.NewReader(payload))
	if err != nil {
		return types.Extraction{}, fmt.Errorf("creating analyzer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.cfg.APIKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return types.Extraction{}, fmt.Errorf("analyzer request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return types.Extraction{}, fmt.Errorf("analyzer returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return types.Extraction{}, &SchemaError{Field: "response", Reason: fmt.Sprintf("unparsable envelope: %v", err)}
	}
	if len(cr.Choices) == 0 {
		return types.Extraction{}, &SchemaError{Field: "choices", Reason: "empty"}
	}

	var wire wireExtraction
	if err := json.Unmarshal([]byte(cr.Choices[0].Message.Content), &wire); err != nil {
		return types.Extraction{}, &SchemaError{Field: "content", Reason: fmt.Sprintf("unparsable payload: %v", err)}
	}

	result, err := validate(wire)
	if err != nil {
		return types.Extraction{}, err
	}

	result.MineMatch = weakerMatch(result.MineMatch, MatchMine(doc.RawText, pb))
	return result, nil
}

func buildUserPrompt(doc types.Document, pb *phrasebook.Phrasebook) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "ALLOWED YES PHRASES (ZH): %s\n", strings.Join(pb.YesZH, ", "))
	fmt.Fprintf(&sb, "ALLOWED YES PHRASES (EN): %s\n", strings.Join(pb.YesEN, ", "))
	fmt.Fprintf(&sb, "ALLOWED NO PHRASES (ZH): %s\n", strings.Join(pb.NoZH, ", "))
	fmt.Fprintf(&sb, "MINE CANONICAL NAMES: %s\n", strings.Join(pb.MineAliases, ", "))
	fmt.Fprintf(&sb, "\nDOC_URL: %s\n\nTEXT (Chinese or mixed):\n\n%s\n\nReturn JSON only.\n", doc.URL, doc.RawText)
	return sb.String()
}

// extractionSchema is the strict JSON schema the analyzer must satisfy.
const extractionSchema = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "mine_match": {"type": "string", "enum": ["TARGET_MATCH", "POSSIBLE_MATCH", "NO_MATCH"]},
    "proposed_label": {"type": "string", "enum": ["YES_CONDITION", "NO_CONDITION", "AMBIGUOUS", "IRRELEVANT"]},
    "confidence": {"type": "number", "minimum": 0, "maximum": 1},
    "authority": {"type": ["string", "null"]},
    "key_terms_found_zh": {"type": "array", "items": {"type": "string"}},
    "key_terms_found_en": {"type": "array", "items": {"type": "string"}},
    "evidence": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "properties": {
          "exact_zh_quote": {"type": "string"},
          "en_literal": {"type": "string"},
          "where_in_doc": {"type": "string"}
        },
        "required": ["exact_zh_quote", "en_literal", "where_in_doc"]
      }
    },
    "hazards": {"type": "array", "items": {"type": "string"}}
  },
  "required": ["mine_match", "proposed_label", "confidence", "evidence", "key_terms_found_zh", "key_terms_found_en", "hazards"]
}`

type chatRequest struct {
	Model          string          `json:"model"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Messages       []chatMessage   `json:"messages"`
}

type responseFormat struct {
	Type       string          `json:"type"`
	JSONSchema *jsonSchemaSpec `json:"json_schema,omitempty"`
}

type jsonSchemaSpec struct {
	Name   string          `json:"name"`
	Strict bool            `json:"strict"`
	Schema json.RawMessage `json:"schema"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}
