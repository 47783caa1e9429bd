package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"avatar-relay/config"
	"avatar-relay/internal/models"

	"github.com/rs/zerolog"
)

// affirmativePattern matches the standalone word "ja", optionally followed by a period
var affirmativePattern = regexp.MustCompile(`(?i)\bja\.?\b`)

// IsAffirmative reports whether a classifier answer means "retrieve"
func IsAffirmative(output string) bool {
	return affirmativePattern.MatchString(strings.TrimSpace(output))
}

// RetrievalGate decides per turn whether a document lookup is warranted
type RetrievalGate interface {
	ShouldRetrieve(ctx context.Context, conv models.Conversation) bool
}

// BuildClassifierInstructions renders the constrained-output instruction for the classifier
func BuildClassifierInstructions(vocabulary []string) string {
	var b strings.Builder
	b.WriteString("Je bent een classificatiemodel. Bepaal of het laatste bericht van de gebruiker een opzoeking in de kennisbank vereist.\n")
	b.WriteString("Antwoord met \"ja\" als aan minstens een van deze voorwaarden is voldaan:\n")
	b.WriteString("1. De gebruiker vraagt om specifieke informatie.\n")
	b.WriteString("2. De gebruiker stelt een inhoudelijke vraag over een onderwerp.\n")
	b.WriteString("3. De gebruiker vraagt om verduidelijking of uitleg.\n")
	fmt.Fprintf(&b, "4. Het bericht gaat over een van deze onderwerpen: %s.\n", strings.Join(vocabulary, ", "))
	b.WriteString("Antwoord uitsluitend met het woord \"ja\" of het woord \"nee\" en niets anders.\n")
	b.WriteString("Als het bericht niet duidelijk aan een van de voorwaarden voldoet, antwoord dan \"nee\".")
	return b.String()
}

// RelevanceClassifier asks the language model for a ja/nee retrieval decision.
// Any failure yields false so the turn falls back to plain generation.
type RelevanceClassifier struct {
	llm          TextGenerator
	model        string
	instructions string
	matcher      *VocabularyMatcher
	logger       zerolog.Logger
}

// NewRelevanceClassifier creates a classifier for the given persona
func NewRelevanceClassifier(llm TextGenerator, persona config.PersonaConfig, logger zerolog.Logger) *RelevanceClassifier {
	vocabulary := persona.Vocabulary()
	return &RelevanceClassifier{
		llm:          llm,
		model:        persona.ClassifierModelID(),
		instructions: BuildClassifierInstructions(vocabulary),
		matcher:      NewVocabularyMatcher(vocabulary),
		logger:       logger.With().Str("component", "classifier").Logger(),
	}
}

// ShouldRetrieve implements RetrievalGate
func (c *RelevanceClassifier) ShouldRetrieve(ctx context.Context, conv models.Conversation) bool {
	output, err := c.llm.Generate(ctx, GenerateRequest{
		Model:        c.model,
		Input:        conv,
		Instructions: c.instructions,
	})
	if err != nil {
		RequestLogger(ctx, c.logger).Warn().Err(err).Msg("classifier call failed, skipping retrieval")
		return false
	}

	decision := IsAffirmative(output)

	if event := RequestLogger(ctx, c.logger).Debug(); event.Enabled() {
		if last, ok := conv.Last(); ok {
			event = event.Strs("vocabulary_hits", c.matcher.Matches(last.Content))
		}
		event.Str("raw", output).Bool("retrieve", decision).Msg("classifier decision")
	}

	return decision
}
