//go:build e2e

// Package e2e exercises a running search server over HTTP. With Kafka
// ingestion enabled documents are indexed asynchronously, so searches poll
// until the document shows up.
//
// Run with:
//
//	go test -v -tags=e2e -timeout=120s ./test/e2e/...
package e2e

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serverURL() string {
	if v := os.Getenv("E2E_SERVER_URL"); v != "" {
		return v
	}
	return "http://localhost:8080"
}

func TestServerHealth(t *testing.T) {
	client := &http.Client{Timeout: 5 * time.Second}
	for _, path := range []string{"/health/live", "/health/ready"} {
		t.Run(path, func(t *testing.T) {
			resp, err := client.Get(serverURL() + path)
			if err != nil {
				t.Skipf("server unavailable: %v", err)
			}
			defer resp.Body.Close()
			assert.Equal(t, http.StatusOK, resp.StatusCode)
		})
	}
}

// TestIngestAndSearch exercises the document lifecycle:
// ingest, wait for indexing, search, match.
func TestIngestAndSearch(t *testing.T) {
	client := &http.Client{Timeout: 10 * time.Second}
	if _, err := client.Get(serverURL() + "/health/live"); err != nil {
		t.Skipf("server unavailable: %v", err)
	}

	now := time.Now().UnixNano()
	id := now % 1_000_000_000
	word := fmt.Sprintf("e2eслово%d", now)
	payload := fmt.Sprintf(`{"id":%d,"text":"пушистый %s","status":"ACTUAL","ratings":[4,5]}`, id, word)

	resp, err := client.Post(serverURL()+"/api/v1/documents", "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	resp.Body.Close()
	require.Contains(t, []int{http.StatusCreated, http.StatusAccepted}, resp.StatusCode)

	var found bool
	for attempt := 0; attempt < 30 && !found; attempt++ {
		searchResp, err := client.Get(serverURL() + "/api/v1/search?q=" + url.QueryEscape(word))
		require.NoError(t, err)
		var body struct {
			Results []struct {
				ID     int64 `json:"id"`
				Rating int   `json:"rating"`
			} `json:"results"`
		}
		err = json.NewDecoder(searchResp.Body).Decode(&body)
		searchResp.Body.Close()
		require.NoError(t, err)
		if len(body.Results) > 0 {
			assert.Equal(t, id, body.Results[0].ID)
			assert.Equal(t, 4, body.Results[0].Rating)
			found = true
			break
		}
		time.Sleep(time.Second)
	}
	require.True(t, found, "document %d not searchable within 30s", id)

	matchResp, err := client.Get(fmt.Sprintf("%s/api/v1/match/%d?q=%s", serverURL(), id, url.QueryEscape(word+" -пушистый")))
	require.NoError(t, err)
	defer matchResp.Body.Close()
	var match struct {
		Terms []string `json:"terms"`
	}
	require.NoError(t, json.NewDecoder(matchResp.Body).Decode(&match))
	assert.Empty(t, match.Terms)

	dup, err := client.Post(serverURL()+"/api/v1/documents", "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	dup.Body.Close()
	// Kafka ingestion without PostgreSQL only detects duplicates at indexing time.
	assert.Contains(t, []int{http.StatusConflict, http.StatusAccepted}, dup.StatusCode)
}

func TestCacheStats(t *testing.T) {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(serverURL() + "/api/v1/cache/stats")
	if err != nil {
		t.Skipf("server unavailable: %v", err)
	}
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	if stats["status"] == "disabled" {
		t.Skip("cache is disabled")
	}
	for _, field := range []string{"hits", "misses", "total", "hit_rate"} {
		assert.Contains(t, stats, field)
	}
}
