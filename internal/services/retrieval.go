package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"avatar-relay/internal/models"
	"avatar-relay/internal/repositories"

	"github.com/rs/zerolog"
)

const (
	// ContextIntro opens every rendered context block
	ContextIntro = "Gebruik de volgende achtergrondinformatie om de vraag te beantwoorden, zonder te vermelden waar deze informatie vandaan komt:"

	// NoInformationFallback replaces the context block when nothing qualifies
	NoInformationFallback = "Er is geen relevante achtergrondinformatie gevonden. Geef eerlijk aan dat je hierover geen informatie hebt en nodig de gebruiker uit om een andere vraag te stellen."
)

// RenderContextBlock renders ranked results into a single context block.
// An empty result set renders as NoInformationFallback.
func RenderContextBlock(results []models.RetrievalResult) string {
	if len(results) == 0 {
		return NoInformationFallback
	}

	var b strings.Builder
	b.WriteString(ContextIntro)
	for _, r := range results {
		fmt.Fprintf(&b, "\n[Fragment %d]: %s", r.Rank, r.Text)
	}
	return b.String()
}

// SearchLimits are fixed per deployment and sent with every search
type SearchLimits struct {
	MaxResults     int
	ScoreThreshold float64
}

// DocumentIndex is a semantic-search provider
type DocumentIndex interface {
	Name() string
	Search(ctx context.Context, query string, limits SearchLimits) ([]models.RetrievalResult, error)
}

// ContextFetcher turns a query into a rendered context block
type ContextFetcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// RetrievalFetcher queries a DocumentIndex and renders the ContextBlock
type RetrievalFetcher struct {
	index    DocumentIndex
	limits   SearchLimits
	cache    repositories.RetrievalCache
	cacheTTL time.Duration
	logger   zerolog.Logger
}

// NewRetrievalFetcher creates a fetcher; cache may be nil
func NewRetrievalFetcher(index DocumentIndex, limits SearchLimits, cache repositories.RetrievalCache, cacheTTL time.Duration, logger zerolog.Logger) *RetrievalFetcher {
	return &RetrievalFetcher{
		index:    index,
		limits:   limits,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger.With().Str("component", "retrieval").Str("index", index.Name()).Logger(),
	}
}

// Search implements ContextFetcher. Index failures are returned, never hidden.
func (f *RetrievalFetcher) Search(ctx context.Context, query string) (string, error) {
	results, err := f.results(ctx, query)
	if err != nil {
		return "", err
	}
	return RenderContextBlock(results), nil
}

func (f *RetrievalFetcher) results(ctx context.Context, query string) ([]models.RetrievalResult, error) {
	key := f.cacheKey(query)

	if f.cache != nil {
		cached, ok, err := f.cache.Get(ctx, key)
		if err != nil {
			RequestLogger(ctx, f.logger).Warn().Err(err).Msg("retrieval cache read failed")
		} else if ok {
			RequestLogger(ctx, f.logger).Debug().Int("results", len(cached)).Msg("retrieval cache hit")
			return cached, nil
		}
	}

	start := time.Now()
	results, err := f.index.Search(ctx, query, f.limits)
	if err != nil {
		return nil, fmt.Errorf("document search failed: %w", err)
	}
	results = normalizeResults(results, f.limits.MaxResults)

	RequestLogger(ctx, f.logger).Debug().
		Int("results", len(results)).
		Dur("duration", time.Since(start)).
		Msg("document search completed")

	if f.cache != nil {
		if err := f.cache.Set(ctx, key, results, f.cacheTTL); err != nil {
			RequestLogger(ctx, f.logger).Warn().Err(err).Msg("retrieval cache write failed")
		}
	}

	return results, nil
}

func (f *RetrievalFetcher) cacheKey(query string) string {
	sum := sha256.Sum256([]byte(query))
	return fmt.Sprintf("%s:%d:%.3f:%s", f.index.Name(), f.limits.MaxResults, f.limits.ScoreThreshold, hex.EncodeToString(sum[:]))
}

// normalizeResults caps the result count and makes ranks 1-based and contiguous
func normalizeResults(results []models.RetrievalResult, max int) []models.RetrievalResult {
	if max > 0 && len(results) > max {
		results = results[:max]
	}
	out := make([]models.RetrievalResult, len(results))
	for i, r := range results {
		r.Rank = i + 1
		out[i] = r
	}
	return out
}

// vectorStoreSearchRequest is the body of a vector store search
type vectorStoreSearchRequest struct {
	Query          string         `json:"query"`
	MaxNumResults  int            `json:"max_num_results"`
	RewriteQuery   bool           `json:"rewrite_query"`
	RankingOptions rankingOptions `json:"ranking_options"`
}

type rankingOptions struct {
	ScoreThreshold float64 `json:"score_threshold"`
}

// vectorStoreSearchResponse represents the part of a search page the relay reads
type vectorStoreSearchResponse struct {
	Data *[]struct {
		FileID  string  `json:"file_id"`
		Score   float64 `json:"score"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"data"`
}

// VectorStoreIndex searches a hosted vector store of the language-model provider
type VectorStoreIndex struct {
	upstream Upstream
	baseURL  string
	apiKey   string
	storeID  string
}

// NewVectorStoreIndex creates a DocumentIndex for one vector store
func NewVectorStoreIndex(upstream Upstream, baseURL, apiKey, storeID string) *VectorStoreIndex {
	return &VectorStoreIndex{
		upstream: upstream,
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		storeID:  storeID,
	}
}

// Name implements DocumentIndex
func (i *VectorStoreIndex) Name() string {
	return "vector_store:" + i.storeID
}

// Search implements DocumentIndex. The score threshold is applied by the provider.
func (i *VectorStoreIndex) Search(ctx context.Context, query string, limits SearchLimits) ([]models.RetrievalResult, error) {
	resp, err := i.upstream.SendExpectSuccess(ctx, UpstreamRequest{
		Operation: "vector_store_search",
		Provider:  ProviderOpenAI,
		URL:       fmt.Sprintf("%s/vector_stores/%s/search", i.baseURL, i.storeID),
		Headers:   BearerAuth(i.apiKey),
		Body: vectorStoreSearchRequest{
			Query:          query,
			MaxNumResults:  limits.MaxResults,
			RewriteQuery:   false,
			RankingOptions: rankingOptions{ScoreThreshold: limits.ScoreThreshold},
		},
	})
	if err != nil {
		return nil, err
	}

	var parsed vectorStoreSearchResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return nil, MalformedError("vector_store_search", ProviderOpenAI, fmt.Sprintf("failed to parse search results: %v", err))
	}
	if parsed.Data == nil {
		return nil, MalformedError("vector_store_search", ProviderOpenAI, "search response has no data list")
	}

	texts := make([]string, 0, len(*parsed.Data))
	scores := make([]float64, 0, len(*parsed.Data))
	for n, item := range *parsed.Data {
		if len(item.Content) == 0 {
			return nil, MalformedError("vector_store_search", ProviderOpenAI, fmt.Sprintf("result %d has no content", n))
		}
		texts = append(texts, item.Content[0].Text)
		scores = append(scores, item.Score)
	}

	return models.Ranked(texts, scores), nil
}
