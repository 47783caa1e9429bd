package services

import (
	"context"
	"testing"
	"time"

	"avatar-relay/config"
	"avatar-relay/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Mocks
// ============================================================================

type MockTextGenerator struct {
	mock.Mock
}

func (m *MockTextGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type MockDocumentIndex struct {
	mock.Mock
}

func (m *MockDocumentIndex) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockDocumentIndex) Search(ctx context.Context, query string, limits SearchLimits) ([]models.RetrievalResult, error) {
	args := m.Called(ctx, query, limits)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RetrievalResult), args.Error(1)
}

type MockRetrievalCache struct {
	mock.Mock
}

func (m *MockRetrievalCache) Get(ctx context.Context, key string) ([]models.RetrievalResult, bool, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]models.RetrievalResult), args.Bool(1), args.Error(2)
}

func (m *MockRetrievalCache) Set(ctx context.Context, key string, results []models.RetrievalResult, ttl time.Duration) error {
	args := m.Called(ctx, key, results, ttl)
	return args.Error(0)
}

type MockRetrievalGate struct {
	mock.Mock
}

func (m *MockRetrievalGate) ShouldRetrieve(ctx context.Context, conv models.Conversation) bool {
	args := m.Called(ctx, conv)
	return args.Bool(0)
}

type MockContextFetcher struct {
	mock.Mock
}

func (m *MockContextFetcher) Search(ctx context.Context, query string) (string, error) {
	args := m.Called(ctx, query)
	return args.String(0), args.Error(1)
}

type MockResponder struct {
	mock.Mock
}

func (m *MockResponder) Respond(ctx context.Context, conv models.Conversation, tools []Tool) (string, error) {
	args := m.Called(ctx, conv, tools)
	return args.String(0), args.Error(1)
}

// ============================================================================
// Test Helpers
// ============================================================================

func explicitPersona(t *testing.T) config.PersonaConfig {
	t.Helper()
	persona, err := config.NewPersonaConfig(config.PersonaOptions{
		SystemInstructions: "Je bent Imce.",
		ModelID:            "responder-model",
		ClassifierModelID:  "classifier-model",
		Mode:               config.ModeExplicit,
		Vocabulary:         []string{"datalek", "persoonsgegevens"},
	})
	require.NoError(t, err)
	return persona
}

func providerPersona(t *testing.T) config.PersonaConfig {
	t.Helper()
	persona, err := config.NewPersonaConfig(config.PersonaOptions{
		SystemInstructions: "Je bent Imce.",
		ModelID:            "responder-model",
		Mode:               config.ModeProvider,
		Tool:               &config.ToolConfig{IndexID: "vs_123", MaxResults: 2},
	})
	require.NoError(t, err)
	return persona
}

func userTurn(content string) models.Turn {
	return models.Turn{Role: models.RoleUser, Content: content}
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}
