package services

import (
	"fmt"
	"strings"

	"avatar-relay/internal/models"

	"github.com/jdkato/prose/v2"
	"github.com/weaviate/tiktoken-go"
)

// CountSentences segments text with prose and returns the sentence count
func CountSentences(text string) int {
	if strings.TrimSpace(text) == "" {
		return 0
	}

	doc, err := prose.NewDocument(text,
		prose.WithTagging(false),
		prose.WithExtraction(false))
	if err != nil {
		return 1
	}

	return len(doc.Sentences())
}

// TokenCounter measures text in model tokens
type TokenCounter interface {
	Count(text string) int
}

// TiktokenCounter counts tokens with a tiktoken encoding
type TiktokenCounter struct {
	encoding *tiktoken.Tiktoken
}

// NewTiktokenCounter loads the named encoding, e.g. "cl100k_base"
func NewTiktokenCounter(encoding string) (*TiktokenCounter, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer %s: %w", encoding, err)
	}
	return &TiktokenCounter{encoding: enc}, nil
}

// Count implements TokenCounter
func (c *TiktokenCounter) Count(text string) int {
	return len(c.encoding.Encode(text, nil, nil))
}

// HistoryLimit rejects conversations larger than a token budget.
// A zero budget accepts everything.
type HistoryLimit struct {
	counter   TokenCounter
	maxTokens int
}

// NewHistoryLimit creates a limit; counter may be nil when maxTokens is zero
func NewHistoryLimit(counter TokenCounter, maxTokens int) *HistoryLimit {
	return &HistoryLimit{counter: counter, maxTokens: maxTokens}
}

// Check returns ErrInvalidRequestBody when conv exceeds the budget
func (l *HistoryLimit) Check(conv models.Conversation) error {
	if l == nil || l.maxTokens <= 0 || l.counter == nil {
		return nil
	}

	total := 0
	for _, turn := range conv {
		total += l.counter.Count(turn.Content)
		if total > l.maxTokens {
			return InvalidRequestError(fmt.Sprintf("conversation exceeds %d tokens", l.maxTokens))
		}
	}
	return nil
}
