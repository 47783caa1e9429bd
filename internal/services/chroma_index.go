package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"avatar-relay/internal/db"
	"avatar-relay/internal/models"
)

// Embedder turns a query into a vector
type Embedder interface {
	Embed(ctx context.Context, model, text string) ([]float32, error)
}

// ChromaQuerier is the subset of the ChromaDB client used for search
type ChromaQuerier interface {
	GetCollection(ctx context.Context, name string) (*db.Collection, error)
	Query(ctx context.Context, collectionID string, queryEmbeddings [][]float32, nResults int) (*db.QueryResponse, error)
}

// ChromaIndex searches a ChromaDB collection that was populated out of band.
// The collection is looked up once; a failed lookup is retried on the next search.
type ChromaIndex struct {
	embedder       Embedder
	embeddingModel string
	client         ChromaQuerier
	collection     string

	mu       sync.Mutex
	resolved *db.Collection
}

// NewChromaIndex creates a DocumentIndex over one ChromaDB collection
func NewChromaIndex(embedder Embedder, embeddingModel string, client ChromaQuerier, collection string) *ChromaIndex {
	return &ChromaIndex{
		embedder:       embedder,
		embeddingModel: embeddingModel,
		client:         client,
		collection:     collection,
	}
}

// Name implements DocumentIndex
func (i *ChromaIndex) Name() string {
	return "chroma:" + i.collection
}

// Search implements DocumentIndex
func (i *ChromaIndex) Search(ctx context.Context, query string, limits SearchLimits) ([]models.RetrievalResult, error) {
	collection, err := i.resolve(ctx)
	if err != nil {
		return nil, chromaError("chroma_get_collection", err)
	}

	embedding, err := i.embedder.Embed(ctx, i.embeddingModel, query)
	if err != nil {
		return nil, err
	}

	resp, err := i.client.Query(ctx, collection.ID, [][]float32{embedding}, limits.MaxResults)
	if err != nil {
		return nil, chromaError("chroma_query", err)
	}

	// One query embedding was sent, so only the first row is meaningful
	if len(resp.Documents) == 0 || len(resp.Distances) == 0 {
		return []models.RetrievalResult{}, nil
	}
	documents, distances := resp.Documents[0], resp.Distances[0]
	if len(documents) != len(distances) {
		return nil, MalformedError("chroma_query", ProviderChroma,
			fmt.Sprintf("got %d documents and %d distances", len(documents), len(distances)))
	}

	space := collection.Space()
	texts := make([]string, 0, len(documents))
	scores := make([]float64, 0, len(documents))
	for n, doc := range documents {
		score := similarity(space, float64(distances[n]))
		if score < limits.ScoreThreshold {
			continue
		}
		texts = append(texts, doc)
		scores = append(scores, score)
	}

	return models.Ranked(texts, scores), nil
}

func (i *ChromaIndex) resolve(ctx context.Context) (*db.Collection, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.resolved != nil {
		return i.resolved, nil
	}

	collection, err := i.client.GetCollection(ctx, i.collection)
	if err != nil {
		return nil, err
	}
	i.resolved = collection
	return collection, nil
}

// similarity maps a ChromaDB distance to cosine similarity, assuming
// unit-length embeddings. l2 distances are squared, so d = 2 - 2cos.
func similarity(space string, distance float64) float64 {
	switch space {
	case db.SpaceCosine, db.SpaceIP:
		return 1 - distance
	default:
		return 1 - distance/2
	}
}

func chromaError(operation string, err error) error {
	var statusErr *db.StatusError
	if errors.As(err, &statusErr) {
		return RejectedError(operation, ProviderChroma, statusErr.Status, []byte(statusErr.Body))
	}
	return NewUpstreamError(ErrUpstreamUnavailable, operation, ProviderChroma, err)
}
