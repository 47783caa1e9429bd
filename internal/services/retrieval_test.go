package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"avatar-relay/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var defaultLimits = SearchLimits{MaxResults: 3, ScoreThreshold: 0.7}

func sampleResults(n int) []models.RetrievalResult {
	texts := make([]string, n)
	scores := make([]float64, n)
	for i := range texts {
		texts[i] = fmt.Sprintf("Fragmenttekst nummer %d over gegevensbescherming.", i+1)
		scores[i] = 0.95 - float64(i)*0.05
	}
	return models.Ranked(texts, scores)
}

// ============================================================================
// Rendering
// ============================================================================

func TestRenderContextBlock_EmptyIsFallback(t *testing.T) {
	assert.Equal(t, NoInformationFallback, RenderContextBlock(nil))
	assert.Equal(t, NoInformationFallback, RenderContextBlock([]models.RetrievalResult{}))
}

func TestRenderContextBlock_LabelsEachFragment(t *testing.T) {
	for k := 1; k <= 3; k++ {
		t.Run(fmt.Sprintf("%d results", k), func(t *testing.T) {
			results := sampleResults(k)
			block := RenderContextBlock(results)

			assert.True(t, strings.HasPrefix(block, ContextIntro))
			assert.Equal(t, k, strings.Count(block, "[Fragment "))

			previous := -1
			for _, r := range results {
				segment := fmt.Sprintf("[Fragment %d]: %s", r.Rank, r.Text)
				idx := strings.Index(block, segment)
				require.GreaterOrEqual(t, idx, 0, "missing %q", segment)
				assert.Greater(t, idx, previous, "fragments out of order")
				previous = idx
			}
		})
	}
}

// ============================================================================
// Fetcher
// ============================================================================

func newMockIndex() *MockDocumentIndex {
	index := new(MockDocumentIndex)
	index.On("Name").Return("test-index")
	return index
}

func TestRetrievalFetcher_Search(t *testing.T) {
	index := newMockIndex()
	results := sampleResults(2)
	index.On("Search", mock.Anything, "Wat is een datalek?", defaultLimits).Return(results, nil)

	fetcher := NewRetrievalFetcher(index, defaultLimits, nil, 0, testLogger())

	block, err := fetcher.Search(context.Background(), "Wat is een datalek?")

	require.NoError(t, err)
	assert.Equal(t, RenderContextBlock(results), block)
	index.AssertExpectations(t)
}

func TestRetrievalFetcher_NoResultsRendersFallback(t *testing.T) {
	index := newMockIndex()
	index.On("Search", mock.Anything, mock.Anything, mock.Anything).Return([]models.RetrievalResult{}, nil)

	fetcher := NewRetrievalFetcher(index, defaultLimits, nil, 0, testLogger())

	for _, query := range []string{"Wat is een datalek?", "Hoe laat is het?", ""} {
		block, err := fetcher.Search(context.Background(), query)
		require.NoError(t, err)
		assert.Equal(t, NoInformationFallback, block)
	}
}

func TestRetrievalFetcher_PropagatesIndexFailure(t *testing.T) {
	index := newMockIndex()
	index.On("Search", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, RejectedError("vector_store_search", ProviderOpenAI, 404, []byte(`{"error":"no such store"}`)))

	fetcher := NewRetrievalFetcher(index, defaultLimits, nil, 0, testLogger())

	_, err := fetcher.Search(context.Background(), "Wat is een datalek?")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUpstreamRejected))
}

func TestRetrievalFetcher_CapsAndReranks(t *testing.T) {
	index := newMockIndex()
	oversized := []models.RetrievalResult{
		{Rank: 4, Text: "a", Score: 0.9},
		{Rank: 9, Text: "b", Score: 0.85},
		{Rank: 2, Text: "c", Score: 0.8},
		{Rank: 1, Text: "d", Score: 0.75},
	}
	index.On("Search", mock.Anything, mock.Anything, mock.Anything).Return(oversized, nil)

	fetcher := NewRetrievalFetcher(index, defaultLimits, nil, 0, testLogger())

	block, err := fetcher.Search(context.Background(), "vraag")

	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(block, "[Fragment "))
	assert.Contains(t, block, "[Fragment 1]: a")
	assert.Contains(t, block, "[Fragment 2]: b")
	assert.Contains(t, block, "[Fragment 3]: c")
	assert.NotContains(t, block, ": d")
}

func TestRetrievalFetcher_CacheHitSkipsIndex(t *testing.T) {
	index := newMockIndex()
	cache := new(MockRetrievalCache)
	results := sampleResults(1)
	cache.On("Get", mock.Anything, mock.AnythingOfType("string")).Return(results, true, nil)

	fetcher := NewRetrievalFetcher(index, defaultLimits, cache, time.Minute, testLogger())

	block, err := fetcher.Search(context.Background(), "Wat is een datalek?")

	require.NoError(t, err)
	assert.Equal(t, RenderContextBlock(results), block)
	index.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
}

func TestRetrievalFetcher_CacheMissStoresResults(t *testing.T) {
	index := newMockIndex()
	cache := new(MockRetrievalCache)
	results := sampleResults(2)

	cache.On("Get", mock.Anything, mock.AnythingOfType("string")).Return(nil, false, nil)
	index.On("Search", mock.Anything, "vraag", defaultLimits).Return(results, nil)
	cache.On("Set", mock.Anything, mock.AnythingOfType("string"), results, time.Minute).Return(nil)

	fetcher := NewRetrievalFetcher(index, defaultLimits, cache, time.Minute, testLogger())

	_, err := fetcher.Search(context.Background(), "vraag")

	require.NoError(t, err)
	cache.AssertExpectations(t)
	index.AssertExpectations(t)
}

func TestRetrievalFetcher_CacheErrorsAreIgnored(t *testing.T) {
	index := newMockIndex()
	cache := new(MockRetrievalCache)
	results := sampleResults(1)

	cache.On("Get", mock.Anything, mock.Anything).Return(nil, false, errors.New("connection refused"))
	cache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("connection refused"))
	index.On("Search", mock.Anything, mock.Anything, mock.Anything).Return(results, nil)

	fetcher := NewRetrievalFetcher(index, defaultLimits, cache, time.Minute, testLogger())

	block, err := fetcher.Search(context.Background(), "vraag")

	require.NoError(t, err)
	assert.Equal(t, RenderContextBlock(results), block)
}

// ============================================================================
// Vector store backend
// ============================================================================

func TestVectorStoreIndex_Search(t *testing.T) {
	server, client := setupUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/vector_stores/vs_123/search", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body vectorStoreSearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Wat is een datalek?", body.Query)
		assert.Equal(t, 3, body.MaxNumResults)
		assert.False(t, body.RewriteQuery)
		assert.Equal(t, 0.7, body.RankingOptions.ScoreThreshold)

		w.Write([]byte(`{
			"object": "vector_store.search_results.page",
			"search_query": "Wat is een datalek?",
			"data": [
				{"file_id": "file_1", "filename": "avg.pdf", "score": 0.91, "content": [{"type": "text", "text": "Een datalek is een inbreuk op de beveiliging."}]},
				{"file_id": "file_2", "filename": "meldplicht.pdf", "score": 0.83, "content": [{"type": "text", "text": "Meld een datalek binnen 72 uur."}]}
			],
			"has_more": false
		}`))
	})

	index := NewVectorStoreIndex(client, server.URL, "sk-test", "vs_123")

	results, err := index.Search(context.Background(), "Wat is een datalek?", defaultLimits)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, models.RetrievalResult{Rank: 1, Text: "Een datalek is een inbreuk op de beveiliging.", Score: 0.91}, results[0])
	assert.Equal(t, models.RetrievalResult{Rank: 2, Text: "Meld een datalek binnen 72 uur.", Score: 0.83}, results[1])
	assert.Equal(t, "vector_store:vs_123", index.Name())
}

func TestVectorStoreIndex_EmptyPage(t *testing.T) {
	server, client := setupUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"object":"vector_store.search_results.page","data":[]}`))
	})

	index := NewVectorStoreIndex(client, server.URL, "sk-test", "vs_123")

	results, err := index.Search(context.Background(), "Hoe laat is het?", defaultLimits)

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestVectorStoreIndex_MalformedPage(t *testing.T) {
	bodies := []string{
		`{"object":"vector_store.search_results.page"}`,
		`{"data":[{"file_id":"file_1","score":0.9,"content":[]}]}`,
	}

	for _, body := range bodies {
		server, client := setupUpstream(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		})

		index := NewVectorStoreIndex(client, server.URL, "sk-test", "vs_123")

		_, err := index.Search(context.Background(), "vraag", defaultLimits)
		assert.True(t, errors.Is(err, ErrMalformedUpstreamResponse), "body %s", body)
	}
}
