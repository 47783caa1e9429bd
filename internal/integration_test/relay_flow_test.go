// Package integration_test contains integration tests that exercise a running relay
// against the real providers.
//
// Prerequisites:
// - Relay server running on localhost:8000 (RELAY_URL overrides)
// - HEYGEN_API_KEY and OPENAI_API_KEY configured for that server
// - A vector store configured when retrieval is enabled
//
// Run with: go test -v ./internal/integration_test/... -tags=integration
//go:build integration

package integration_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func relayURL() string {
	if url := os.Getenv("RELAY_URL"); url != "" {
		return url
	}
	return "http://localhost:8000"
}

var httpClient = &http.Client{Timeout: 90 * time.Second}

func TestRelayHealth(t *testing.T) {
	resp, err := httpClient.Get(relayURL() + "/health")
	require.NoError(t, err, "relay must be running")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestRelayHomePage(t *testing.T) {
	resp, err := httpClient.Get(relayURL() + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
}

func TestRelayTokenFlow(t *testing.T) {
	resp, err := httpClient.Post(relayURL()+"/api/heygen/get-token", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.True(t, json.Valid(body), "token response must be JSON: %s", body)

	if resp.StatusCode != http.StatusOK {
		t.Skipf("avatar provider answered %d: %s", resp.StatusCode, body)
	}

	var token struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &token))
	assert.NotEmpty(t, token.Data.Token)
	t.Log("✅ Received avatar session token")
}

func TestRelayRAGChatFlow(t *testing.T) {
	payload, err := json.Marshal(map[string]interface{}{
		"text": []map[string]string{
			{"role": "user", "content": "Wat is een datalek?"},
		},
	})
	require.NoError(t, err)

	resp, err := httpClient.Post(relayURL()+"/api/openai/response", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("chat failed with %d: %s", resp.StatusCode, body["error"])
	}

	assert.NotEmpty(t, body["response"])
	t.Logf("✅ Persona answered: %s", body["response"])
}

func TestRelayRejectsInvalidChatBody(t *testing.T) {
	resp, err := httpClient.Post(relayURL()+"/api/openai/response", "application/json", bytes.NewReader([]byte(`{"message":"hallo"}`)))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
