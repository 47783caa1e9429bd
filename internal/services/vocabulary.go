package services

import (
	"strings"
	"unicode"

	"github.com/jdkato/prose/v2"
)

// VocabularyMatcher finds topic-vocabulary terms in free text.
// Terms and text go through the same tokenizer so multi-word and
// hyphenated terms match however prose splits them.
type VocabularyMatcher struct {
	terms []vocabularyTerm
}

type vocabularyTerm struct {
	term   string
	tokens []string
}

// NewVocabularyMatcher tokenizes every vocabulary term once
func NewVocabularyMatcher(vocabulary []string) *VocabularyMatcher {
	m := &VocabularyMatcher{}
	for _, term := range vocabulary {
		tokens := tokenize(term)
		if len(tokens) == 0 {
			continue
		}
		m.terms = append(m.terms, vocabularyTerm{term: term, tokens: tokens})
	}
	return m
}

// Matches returns the vocabulary terms present in text, in vocabulary order
func (m *VocabularyMatcher) Matches(text string) []string {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil
	}

	var hits []string
	for _, t := range m.terms {
		if containsSequence(tokens, t.tokens) {
			hits = append(hits, t.term)
		}
	}
	return hits
}

// tokenize returns lower-cased word tokens with punctuation removed
func tokenize(text string) []string {
	doc, err := prose.NewDocument(text,
		prose.WithSegmentation(false),
		prose.WithTagging(false),
		prose.WithExtraction(false))
	if err != nil {
		return strings.Fields(strings.ToLower(text))
	}

	tokens := make([]string, 0, len(doc.Tokens()))
	for _, tok := range doc.Tokens() {
		word := strings.ToLower(tok.Text)
		if isPunctuation(word) {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

func containsSequence(haystack, needle []string) bool {
	if len(needle) > len(haystack) {
		return false
	}
outer:
	for i := 0; i+len(needle) <= len(haystack); i++ {
		for j := range needle {
			if haystack[i+j] != needle[j] {
				continue outer
			}
		}
		return true
	}
	return false
}

// isPunctuation checks if string contains only punctuation
func isPunctuation(s string) bool {
	for _, r := range s {
		if !unicode.IsPunct(r) && !unicode.IsSymbol(r) {
			return false
		}
	}
	return len(s) > 0
}
