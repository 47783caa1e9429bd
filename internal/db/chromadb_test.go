package db

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// TestNewChromaDBClient tests client initialization
func TestNewChromaDBClient(t *testing.T) {
	tests := []struct {
		name        string
		config      ChromaDBConfig
		wantBaseURL string
	}{
		{
			name: "default config",
			config: ChromaDBConfig{
				Host: "localhost",
				Port: 8001,
			},
			wantBaseURL: "http://localhost:8001/api/v2/tenants/default_tenant/databases/default_database",
		},
		{
			name: "custom config with tenant and database",
			config: ChromaDBConfig{
				Host:     "chromadb.example.com",
				Port:     9000,
				Tenant:   "custom_tenant",
				Database: "custom_db",
				Timeout:  60 * time.Second,
			},
			wantBaseURL: "http://chromadb.example.com:9000/api/v2/tenants/custom_tenant/databases/custom_db",
		},
		{
			name: "url overrides host and port",
			config: ChromaDBConfig{
				Host: "ignored",
				Port: 1,
				URL:  "https://chroma.internal:8443/",
			},
			wantBaseURL: "https://chroma.internal:8443/api/v2/tenants/default_tenant/databases/default_database",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewChromaDBClient(tt.config)

			if client == nil {
				t.Fatal("Expected non-nil client")
			}

			if client.httpClient == nil {
				t.Error("Expected non-nil HTTP client")
			}

			if client.baseURL != tt.wantBaseURL {
				t.Errorf("Expected base URL %s, got %s", tt.wantBaseURL, client.baseURL)
			}
		})
	}
}

func TestChromaDBClient_Heartbeat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/heartbeat" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"nanosecond heartbeat": 1}`))
	}))
	defer server.Close()

	client := NewChromaDBClient(ChromaDBConfig{URL: server.URL})

	if err := client.Heartbeat(context.Background()); err != nil {
		t.Fatalf("Heartbeat failed: %v", err)
	}
}

// TestChromaDBClient_Query tests the query call against a resolved collection ID
func TestChromaDBClient_Query(t *testing.T) {
	var gotPayload map[string]interface{}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/tenants/default_tenant/databases/default_database/collections/col-123/query", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		json.NewDecoder(r.Body).Decode(&gotPayload)
		w.Write([]byte(`{"ids":[["a","b"]],"documents":[["first","second"]],"distances":[[0.1,0.4]]}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewChromaDBClient(ChromaDBConfig{URL: server.URL})

	resp, err := client.Query(context.Background(), "col-123", [][]float32{{0.1, 0.2}}, 3)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	if len(resp.Documents) != 1 || len(resp.Documents[0]) != 2 {
		t.Fatalf("Expected 2 documents, got %v", resp.Documents)
	}
	if resp.Documents[0][1] != "second" {
		t.Errorf("Expected second document 'second', got %s", resp.Documents[0][1])
	}
	if resp.Distances[0][0] != 0.1 {
		t.Errorf("Expected distance 0.1, got %f", resp.Distances[0][0])
	}
	if gotPayload["n_results"] != float64(3) {
		t.Errorf("Expected n_results 3, got %v", gotPayload["n_results"])
	}
}

func TestChromaDBClient_GetCollection(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/tenants/default_tenant/databases/default_database/collections/documents", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"col-123","name":"documents","metadata":{"hnsw:space":"cosine"}}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewChromaDBClient(ChromaDBConfig{URL: server.URL})

	collection, err := client.GetCollection(context.Background(), "documents")
	if err != nil {
		t.Fatalf("GetCollection failed: %v", err)
	}
	if collection.ID != "col-123" {
		t.Errorf("Expected ID col-123, got %s", collection.ID)
	}
	if collection.Space() != SpaceCosine {
		t.Errorf("Expected space cosine, got %s", collection.Space())
	}
}

func TestChromaDBClient_GetCollectionMissing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"collection not found"}`))
	}))
	defer server.Close()

	client := NewChromaDBClient(ChromaDBConfig{URL: server.URL})

	_, err := client.GetCollection(context.Background(), "missing")
	if err == nil {
		t.Fatal("Expected error for missing collection")
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Expected StatusError, got %T", err)
	}
	if statusErr.Status != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", statusErr.Status)
	}
}

func TestCollection_Space(t *testing.T) {
	tests := []struct {
		name       string
		collection Collection
		want       string
	}{
		{name: "default", collection: Collection{}, want: SpaceL2},
		{name: "metadata", collection: Collection{Metadata: map[string]interface{}{"hnsw:space": "ip"}}, want: SpaceIP},
		{
			name: "configuration",
			collection: Collection{Configuration: map[string]interface{}{
				"hnsw": map[string]interface{}{"space": "cosine"},
			}},
			want: SpaceCosine,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.collection.Space(); got != tt.want {
				t.Errorf("Expected space %s, got %s", tt.want, got)
			}
		})
	}
}

// TestChromaDBClient_LiveHeartbeat checks a locally running ChromaDB
func TestChromaDBClient_LiveHeartbeat(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	client := NewChromaDBClient(ChromaDBConfig{
		Host: "localhost",
		Port: 8001,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Heartbeat(ctx); err != nil {
		t.Skipf("ChromaDB not reachable: %v", err)
	}
	t.Log("✅ Heartbeat successful")
}
