package db

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ChromaDBClient wraps the ChromaDB v2 HTTP API calls used for read-only search
type ChromaDBClient struct {
	rootURL    string
	baseURL    string
	httpClient *http.Client
	tenant     string
	database   string
}

// ChromaDBConfig holds configuration for ChromaDB connection
type ChromaDBConfig struct {
	Host     string
	Port     int
	URL      string // Overrides Host and Port, e.g. "https://chroma.internal:8443"
	Tenant   string // default: "default_tenant"
	Database string // default: "default_database"
	Timeout  time.Duration
}

// Distance functions a collection can be indexed with
const (
	SpaceL2     = "l2"
	SpaceCosine = "cosine"
	SpaceIP     = "ip"
)

// Collection represents a ChromaDB collection
type Collection struct {
	ID            string                 `json:"id"`
	Name          string                 `json:"name"`
	Metadata      map[string]interface{} `json:"metadata"`
	Configuration map[string]interface{} `json:"configuration_json"`
}

// Space returns the collection's distance function. Older servers keep it in
// metadata under "hnsw:space", newer ones in configuration_json.hnsw.space.
// ChromaDB falls back to l2 when neither is set.
func (c *Collection) Space() string {
	if space, ok := c.Metadata["hnsw:space"].(string); ok && space != "" {
		return space
	}
	if hnsw, ok := c.Configuration["hnsw"].(map[string]interface{}); ok {
		if space, ok := hnsw["space"].(string); ok && space != "" {
			return space
		}
	}
	return SpaceL2
}

// QueryResponse represents the response from a query
type QueryResponse struct {
	IDs       [][]string                 `json:"ids"`
	Documents [][]string                 `json:"documents"`
	Metadatas [][]map[string]interface{} `json:"metadatas"`
	Distances [][]float32                `json:"distances"`
}

// StatusError is returned when ChromaDB answers with an unexpected status
type StatusError struct {
	Operation string
	Status    int
	Body      string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s failed (status %d): %s", e.Operation, e.Status, e.Body)
}

// NewChromaDBClient creates a new ChromaDB client with v2 API support
func NewChromaDBClient(config ChromaDBConfig) *ChromaDBClient {
	if config.Tenant == "" {
		config.Tenant = "default_tenant"
	}
	if config.Database == "" {
		config.Database = "default_database"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	rootURL := strings.TrimRight(config.URL, "/")
	if rootURL == "" {
		rootURL = fmt.Sprintf("http://%s:%d", config.Host, config.Port)
	}

	// ChromaDB v2 API uses tenant and database in the path
	baseURL := fmt.Sprintf("%s/api/v2/tenants/%s/databases/%s",
		rootURL, url.PathEscape(config.Tenant), url.PathEscape(config.Database))

	return &ChromaDBClient{
		rootURL: rootURL,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		tenant:   config.Tenant,
		database: config.Database,
	}
}

// Heartbeat checks if ChromaDB is alive
func (c *ChromaDBClient) Heartbeat(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.rootURL+"/api/v2/heartbeat", nil)
	if err != nil {
		return fmt.Errorf("failed to create heartbeat request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("heartbeat request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Operation: "heartbeat", Status: resp.StatusCode}
	}

	return nil
}

// GetCollection retrieves a collection by name
func (c *ChromaDBClient) GetCollection(ctx context.Context, name string) (*Collection, error) {
	endpoint := fmt.Sprintf("%s/collections/%s", c.baseURL, url.PathEscape(name))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &StatusError{Operation: "get collection " + name, Status: resp.StatusCode, Body: string(body)}
	}

	var collection Collection
	if err := json.NewDecoder(resp.Body).Decode(&collection); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &collection, nil
}

// Query searches a collection, addressed by ID, for the documents nearest to
// the query embeddings
func (c *ChromaDBClient) Query(ctx context.Context, collectionID string, queryEmbeddings [][]float32, nResults int) (*QueryResponse, error) {
	payload := map[string]interface{}{
		"query_embeddings": queryEmbeddings,
		"n_results":        nResults,
		"include":          []string{"documents", "distances"},
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/collections/%s/query", c.baseURL, url.PathEscape(collectionID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &StatusError{Operation: "query", Status: resp.StatusCode, Body: string(body)}
	}

	var queryResp QueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&queryResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &queryResp, nil
}
