// Package e2e exercises a running `bm25search serve` over HTTP. Tests skip
// when the service is not reachable.
//
// Run with:
//
//	E2E_SEARCH_URL=http://localhost:8080 go test -v ./test/e2e/...
package e2e

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"testing"
	"time"
)

func searchURL() string {
	return envOrDefault("E2E_SEARCH_URL", "http://localhost:8080")
}

func getJSON(t *testing.T, client *http.Client, path string, into any) int {
	t.Helper()
	resp, err := client.Get(searchURL() + path)
	if err != nil {
		t.Skipf("search service unavailable: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	if into != nil && resp.StatusCode == http.StatusOK {
		if err := json.Unmarshal(body, into); err != nil {
			t.Fatalf("decoding %s: %v: %s", path, err, body)
		}
	}
	return resp.StatusCode
}

// TestServiceHealth verifies liveness and readiness.
func TestServiceHealth(t *testing.T) {
	client := &http.Client{Timeout: 5 * time.Second}
	for _, path := range []string{"/health/live", "/health/ready"} {
		t.Run(path, func(t *testing.T) {
			if code := getJSON(t, client, path, nil); code != http.StatusOK {
				t.Errorf("expected 200, got %d", code)
			}
		})
	}
}

// TestSearchRanking checks ordering and that every returned hit can be
// fetched as a document.
func TestSearchRanking(t *testing.T) {
	client := &http.Client{Timeout: 10 * time.Second}

	var stats struct {
		Documents int `json:"documents"`
	}
	if code := getJSON(t, client, "/api/v1/index/stats", &stats); code != http.StatusOK {
		t.Fatalf("index stats: expected 200, got %d", code)
	}
	if stats.Documents == 0 {
		t.Fatal("index reports zero documents")
	}

	var result struct {
		TotalHits int `json:"total_hits"`
		Results   []struct {
			DocID int     `json:"doc_id"`
			Score float64 `json:"score"`
		} `json:"results"`
	}
	q := url.QueryEscape(envOrDefault("E2E_QUERY", "police said"))
	if code := getJSON(t, client, "/api/v1/search?q="+q+"&limit=10", &result); code != http.StatusOK {
		t.Fatalf("search: expected 200, got %d", code)
	}
	t.Logf("total_hits=%d returned=%d", result.TotalHits, len(result.Results))

	for i := 1; i < len(result.Results); i++ {
		prev, cur := result.Results[i-1], result.Results[i]
		if prev.Score < cur.Score || (prev.Score == cur.Score && prev.DocID > cur.DocID) {
			t.Errorf("results out of order at %d: %+v before %+v", i, prev, cur)
		}
	}
	for _, r := range result.Results {
		if r.Score <= 0 {
			t.Errorf("doc %d returned with non-positive score %v", r.DocID, r.Score)
		}
		var doc struct {
			Text string `json:"text"`
		}
		path := "/api/v1/documents/" + strconv.Itoa(r.DocID)
		if code := getJSON(t, client, path, &doc); code != http.StatusOK || doc.Text == "" {
			t.Errorf("%s: status %d, empty text %v", path, code, doc.Text == "")
		}
	}
}

// TestRepeatedSearchHitsCache issues the same query twice and expects the
// second to be served from cache.
func TestRepeatedSearchHitsCache(t *testing.T) {
	client := &http.Client{Timeout: 5 * time.Second}

	var before map[string]any
	getJSON(t, client, "/api/v1/cache/stats", &before)
	if before["status"] == "disabled" {
		t.Skip("cache is disabled")
	}

	q := "/api/v1/search?q=" + url.QueryEscape("e2e cache probe "+time.Now().Format(time.RFC3339Nano))
	getJSON(t, client, q, nil)
	getJSON(t, client, q, nil)

	var after map[string]any
	getJSON(t, client, "/api/v1/cache/stats", &after)
	hitsBefore, _ := before["hits"].(float64)
	hitsAfter, _ := after["hits"].(float64)
	if hitsAfter < hitsBefore+1 {
		t.Errorf("expected cache hits to grow, before=%v after=%v", hitsBefore, hitsAfter)
	}
}

// TestSearchAnalytics verifies that searches are counted.
func TestSearchAnalytics(t *testing.T) {
	client := &http.Client{Timeout: 5 * time.Second}
	getJSON(t, client, "/api/v1/search?q=analytics", nil)

	var stats map[string]any
	if code := getJSON(t, client, "/api/v1/analytics", &stats); code != http.StatusOK {
		t.Fatalf("analytics: expected 200, got %d", code)
	}
	if total, _ := stats["total_searches"].(float64); total < 1 {
		t.Errorf("expected at least 1 search recorded, got %v", stats["total_searches"])
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
