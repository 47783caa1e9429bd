package services

import (
	"context"

	"avatar-relay/config"
	"avatar-relay/internal/models"

	"github.com/rs/zerolog"
)

// PersonaResponder generates the final in-character answer
type PersonaResponder struct {
	llm     TextGenerator
	persona config.PersonaConfig
	logger  zerolog.Logger
}

// NewPersonaResponder creates a responder for the given persona
func NewPersonaResponder(llm TextGenerator, persona config.PersonaConfig, logger zerolog.Logger) *PersonaResponder {
	return &PersonaResponder{
		llm:     llm,
		persona: persona,
		logger:  logger.With().Str("component", "responder").Logger(),
	}
}

// Respond returns the model's answer verbatim. Replies longer than the persona's
// sentence cap are logged, never shortened.
func (r *PersonaResponder) Respond(ctx context.Context, conv models.Conversation, tools []Tool) (string, error) {
	reply, err := r.llm.Generate(ctx, GenerateRequest{
		Model:        r.persona.ModelID(),
		Input:        conv,
		Instructions: r.persona.SystemInstructions(),
		Tools:        tools,
	})
	if err != nil {
		return "", err
	}

	if sentences := CountSentences(reply); sentences > r.persona.MaxSentences() {
		RequestLogger(ctx, r.logger).Warn().
			Int("sentences", sentences).
			Int("max_sentences", r.persona.MaxSentences()).
			Msg("reply exceeds persona sentence limit")
	}

	return reply, nil
}
