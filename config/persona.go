package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// RetrievalMode selects how document retrieval is orchestrated for a chat turn
type RetrievalMode string

const (
	// ModeExplicit gates a local retrieval call behind the relevance classifier
	ModeExplicit RetrievalMode = "explicit"
	// ModeProvider hands a file_search tool to the language-model provider
	ModeProvider RetrievalMode = "provider"
)

// ParseRetrievalMode validates a configured mode string
func ParseRetrievalMode(s string) (RetrievalMode, error) {
	switch RetrievalMode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeExplicit:
		return ModeExplicit, nil
	case ModeProvider:
		return ModeProvider, nil
	default:
		return "", fmt.Errorf("unknown retrieval mode %q (want %q or %q)", s, ModeExplicit, ModeProvider)
	}
}

// ToolConfig names the document index the provider searches in provider mode
type ToolConfig struct {
	IndexID    string
	MaxResults int
}

// PersonaOptions is the mutable input used to build a PersonaConfig
type PersonaOptions struct {
	SystemInstructions string
	ModelID            string
	ClassifierModelID  string
	ResponseLanguage   string
	MaxSentences       int
	Mode               RetrievalMode
	Tool               *ToolConfig
	Vocabulary         []string
}

// PersonaConfig is the process-wide persona definition.
// Fields are private and copied on construction so request paths can only read it.
type PersonaConfig struct {
	systemInstructions string
	modelID            string
	classifierModelID  string
	responseLanguage   string
	maxSentences       int
	mode               RetrievalMode
	tool               *ToolConfig
	vocabulary         []string
}

// NewPersonaConfig freezes opts into a PersonaConfig
func NewPersonaConfig(opts PersonaOptions) (PersonaConfig, error) {
	if opts.ModelID == "" {
		return PersonaConfig{}, fmt.Errorf("persona model id is required")
	}
	if opts.Mode == "" {
		opts.Mode = ModeExplicit
	}
	if opts.Mode == ModeProvider && (opts.Tool == nil || opts.Tool.MaxResults <= 0) {
		return PersonaConfig{}, fmt.Errorf("provider mode requires a tool configuration with max results > 0")
	}
	if opts.SystemInstructions == "" {
		opts.SystemInstructions = DefaultPersonaInstructions
	}
	if opts.ClassifierModelID == "" {
		opts.ClassifierModelID = opts.ModelID
	}
	if opts.ResponseLanguage == "" {
		opts.ResponseLanguage = "nl"
	}
	if opts.MaxSentences == 0 {
		opts.MaxSentences = 3
	}
	if len(opts.Vocabulary) == 0 {
		opts.Vocabulary = DefaultTopicVocabulary
	}

	p := PersonaConfig{
		systemInstructions: opts.SystemInstructions,
		modelID:            opts.ModelID,
		classifierModelID:  opts.ClassifierModelID,
		responseLanguage:   opts.ResponseLanguage,
		maxSentences:       opts.MaxSentences,
		mode:               opts.Mode,
		vocabulary:         append([]string(nil), opts.Vocabulary...),
	}
	if opts.Tool != nil {
		tool := *opts.Tool
		p.tool = &tool
	}
	return p, nil
}

func (p PersonaConfig) SystemInstructions() string { return p.systemInstructions }
func (p PersonaConfig) ModelID() string            { return p.modelID }
func (p PersonaConfig) ClassifierModelID() string  { return p.classifierModelID }
func (p PersonaConfig) ResponseLanguage() string   { return p.responseLanguage }
func (p PersonaConfig) MaxSentences() int          { return p.maxSentences }
func (p PersonaConfig) Mode() RetrievalMode        { return p.mode }

// Tool returns a copy of the tool configuration, or nil in explicit mode
func (p PersonaConfig) Tool() *ToolConfig {
	if p.tool == nil {
		return nil
	}
	tool := *p.tool
	return &tool
}

// Vocabulary returns a copy of the topic vocabulary
func (p PersonaConfig) Vocabulary() []string {
	return append([]string(nil), p.vocabulary...)
}

// PersonaFile is the on-disk override for persona text and topic vocabulary
type PersonaFile struct {
	Instructions string   `json:"instructions"`
	Vocabulary   []string `json:"vocabulary"`
}

// LoadPersonaFile reads a persona override from a JSON file
func LoadPersonaFile(path string) (*PersonaFile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var persona PersonaFile
	decoder := json.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&persona); err != nil {
		return nil, fmt.Errorf("decode persona file %s: %w", path, err)
	}

	return &persona, nil
}
