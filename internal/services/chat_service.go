package services

import (
	"context"
	"fmt"
	"time"

	"avatar-relay/config"
	"avatar-relay/internal/models"

	"github.com/rs/zerolog"
)

// Responder produces the final answer for a conversation
type Responder interface {
	Respond(ctx context.Context, conv models.Conversation, tools []Tool) (string, error)
}

// ChatService runs one chat turn through the configured retrieval mode
type ChatService struct {
	persona   config.PersonaConfig
	gate      RetrievalGate
	fetcher   ContextFetcher
	responder Responder
	limit     *HistoryLimit
	logger    zerolog.Logger
}

// NewChatService wires the orchestration steps. gate and fetcher are only used
// in explicit mode and may be nil in provider mode.
func NewChatService(persona config.PersonaConfig, gate RetrievalGate, fetcher ContextFetcher, responder Responder, limit *HistoryLimit, logger zerolog.Logger) *ChatService {
	return &ChatService{
		persona:   persona,
		gate:      gate,
		fetcher:   fetcher,
		responder: responder,
		limit:     limit,
		logger:    logger.With().Str("component", "chat").Str("mode", string(persona.Mode())).Logger(),
	}
}

// Respond answers the conversation. Upstream calls happen one after another.
func (s *ChatService) Respond(ctx context.Context, conv models.Conversation) (string, error) {
	if len(conv) == 0 {
		return "", InvalidRequestError("conversation is empty")
	}
	if err := s.limit.Check(conv); err != nil {
		return "", err
	}

	start := time.Now()
	var (
		reply string
		err   error
	)

	switch s.persona.Mode() {
	case config.ModeProvider:
		reply, err = s.respondWithProviderTool(ctx, conv)
	default:
		reply, err = s.respondWithExplicitRetrieval(ctx, conv)
	}
	if err != nil {
		return "", err
	}

	RequestLogger(ctx, s.logger).Info().
		Int("turns", len(conv)).
		Dur("duration", time.Since(start)).
		Msg("chat turn answered")

	return reply, nil
}

func (s *ChatService) respondWithExplicitRetrieval(ctx context.Context, conv models.Conversation) (string, error) {
	input := conv

	if s.gate != nil && s.fetcher != nil && s.gate.ShouldRetrieve(ctx, conv) {
		last, _ := conv.Last()
		block, err := s.fetcher.Search(ctx, last.Content)
		if err != nil {
			return "", fmt.Errorf("failed to fetch context: %w", err)
		}
		input = InjectContext(conv, block)
		RequestLogger(ctx, s.logger).Debug().Int("context_len", len(block)).Msg("context injected")
	}

	return s.responder.Respond(ctx, input, nil)
}

func (s *ChatService) respondWithProviderTool(ctx context.Context, conv models.Conversation) (string, error) {
	tool := s.persona.Tool()
	if tool == nil {
		return "", fmt.Errorf("provider mode requires a retrieval tool")
	}
	return s.responder.Respond(ctx, conv, []Tool{FileSearchTool(tool.IndexID, tool.MaxResults)})
}
