package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"avatar-relay/internal/models"

	"github.com/rs/zerolog"
)

// Tool types understood by the Responses API
const (
	ToolTypeFileSearch = "file_search"
)

// Tool is a provider-side tool declaration
type Tool struct {
	Type           string   `json:"type"`
	VectorStoreIDs []string `json:"vector_store_ids,omitempty"`
	MaxNumResults  int      `json:"max_num_results,omitempty"`
}

// FileSearchTool declares provider-native retrieval over one vector store
func FileSearchTool(indexID string, maxResults int) Tool {
	return Tool{
		Type:           ToolTypeFileSearch,
		VectorStoreIDs: []string{indexID},
		MaxNumResults:  maxResults,
	}
}

// GenerateRequest represents the request format for the Responses API
type GenerateRequest struct {
	Model        string              `json:"model"`
	Input        models.Conversation `json:"input"`
	Instructions string              `json:"instructions,omitempty"`
	Tools        []Tool              `json:"tools,omitempty"`
}

// responsesOutput represents the part of a Responses API reply the relay reads
type responsesOutput struct {
	Output []struct {
		Type    string `json:"type"`
		Role    string `json:"role"`
		Content []struct {
			Type string  `json:"type"`
			Text *string `json:"text"`
		} `json:"content"`
	} `json:"output"`
}

// ExtractOutputText returns output[-1].content[0].text from a Responses API body
func ExtractOutputText(body []byte) (string, error) {
	var parsed responsesOutput
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", MalformedError("extract_output", ProviderOpenAI, fmt.Sprintf("failed to parse response: %v", err))
	}

	if len(parsed.Output) == 0 {
		return "", MalformedError("extract_output", ProviderOpenAI, "response has no output items")
	}

	last := parsed.Output[len(parsed.Output)-1]
	if len(last.Content) == 0 {
		return "", MalformedError("extract_output", ProviderOpenAI, "last output item has no content")
	}

	if last.Content[0].Text == nil {
		return "", MalformedError("extract_output", ProviderOpenAI, "first content block has no text")
	}

	return *last.Content[0].Text, nil
}

// TextGenerator produces a single text answer for a generation request
type TextGenerator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// LLMService handles communication with the language-model provider
type LLMService struct {
	upstream Upstream
	baseURL  string
	apiKey   string
	logger   zerolog.Logger
}

// NewLLMService creates a new LLM service instance
func NewLLMService(upstream Upstream, baseURL, apiKey string, logger zerolog.Logger) *LLMService {
	return &LLMService{
		upstream: upstream,
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		logger:   logger.With().Str("component", "llm").Logger(),
	}
}

func (s *LLMService) responsesURL() string {
	return s.baseURL + "/responses"
}

// Generate sends a generation request and extracts the answer text
func (s *LLMService) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	resp, err := s.upstream.SendExpectSuccess(ctx, UpstreamRequest{
		Operation: "generate",
		Provider:  ProviderOpenAI,
		URL:       s.responsesURL(),
		Headers:   BearerAuth(s.apiKey),
		Body:      req,
	})
	if err != nil {
		return "", err
	}

	text, err := ExtractOutputText(resp.Body)
	if err != nil {
		return "", err
	}

	RequestLogger(ctx, s.logger).Debug().
		Str("model", req.Model).
		Int("turns", len(req.Input)).
		Int("tools", len(req.Tools)).
		Int("answer_len", len(text)).
		Msg("generation completed")

	return text, nil
}

// Forward relays an arbitrary JSON payload to the generation endpoint unchanged
func (s *LLMService) Forward(ctx context.Context, payload json.RawMessage) (*UpstreamResponse, error) {
	return s.upstream.Send(ctx, UpstreamRequest{
		Operation: "forward_chat",
		Provider:  ProviderOpenAI,
		URL:       s.responsesURL(),
		Headers:   BearerAuth(s.apiKey),
		Body:      payload,
	})
}

// embeddingRequest is the body of an embeddings call
type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

// embeddingResponse represents the part of an embeddings reply the relay reads
type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed returns the provider's embedding vector for a single query string
func (s *LLMService) Embed(ctx context.Context, model, text string) ([]float32, error) {
	resp, err := s.upstream.SendExpectSuccess(ctx, UpstreamRequest{
		Operation: "embed",
		Provider:  ProviderOpenAI,
		URL:       s.baseURL + "/embeddings",
		Headers:   BearerAuth(s.apiKey),
		Body:      embeddingRequest{Model: model, Input: text},
	})
	if err != nil {
		return nil, err
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return nil, MalformedError("embed", ProviderOpenAI, fmt.Sprintf("failed to parse embedding: %v", err))
	}
	if len(parsed.Data) == 0 || len(parsed.Data[0].Embedding) == 0 {
		return nil, MalformedError("embed", ProviderOpenAI, "response has no embedding")
	}

	return parsed.Data[0].Embedding, nil
}
