package analysis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/greenroom-ai/traceviz/pkg/cache"
	apperrors "github.com/greenroom-ai/traceviz/pkg/errors"
)

func sampleTrace() map[string]any {
	return map[string]any{
		"query":             "sour candy gummies",
		"intent":            "product_search",
		"intent_confidence": 0.92,
		"entities": []map[string]any{
			{"type": "flavor", "value": "sour candy", "confidence": 0.9},
		},
		"products": []map[string]any{
			{"name": "Sour Bites", "score": 0.85, "reasoning": "flavor match"},
		},
		"response":          "Try our Sour Bites.",
		"model_used":        "mistral_7b_v3",
		"role_selected":     "budtender",
		"language_detected": "en",
	}
}

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	backend, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	t.Cleanup(func() { backend.Close() })
	return NewClient(baseURL, backend)
}

func TestClient_AnalyzeDecision(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/analyze-decision" {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		var req analyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Query != "sour candy gummies" {
			t.Errorf("request query = %q", req.Query)
		}
		if req.SessionID != "s1" {
			t.Errorf("request session_id = %q", req.SessionID)
		}
		json.NewEncoder(w).Encode(sampleTrace())
	}))
	defer server.Close()

	c := testClient(t, server.URL)

	tr, err := c.AnalyzeDecision(context.Background(), "sour candy gummies", Options{SessionID: "s1", Refresh: true})
	if err != nil {
		t.Fatalf("AnalyzeDecision failed: %v", err)
	}

	if tr.Query != "sour candy gummies" {
		t.Errorf("trace query = %q", tr.Query)
	}
	if tr.Intent == nil || *tr.Intent != "product_search" {
		t.Errorf("trace intent = %v, want product_search", tr.Intent)
	}
	if len(tr.Entities) != 1 || len(tr.Products) != 1 {
		t.Errorf("entities/products = %d/%d, want 1/1", len(tr.Entities), len(tr.Products))
	}
}

func TestClient_AnalyzeDecision_EmptyQuery(t *testing.T) {
	c := testClient(t, "http://unused.invalid")

	_, err := c.AnalyzeDecision(context.Background(), "   ", Options{})
	if err == nil {
		t.Fatal("expected error for blank query")
	}
	if !apperrors.Is(err, apperrors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestClient_AnalyzeDecision_TraceUnavailable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	c := testClient(t, server.URL)

	_, err := c.AnalyzeDecision(context.Background(), "anything", Options{Refresh: true})
	if err == nil {
		t.Fatal("expected error for missing trace")
	}
	if !apperrors.Is(err, apperrors.ErrCodeTraceUnavailable) {
		t.Errorf("expected TRACE_UNAVAILABLE, got %v", err)
	}
}

func TestClient_AnalyzeDecision_ModelUnavailableNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(errorBody{Error: "model_unavailable", Message: "model is down"})
	}))
	defer server.Close()

	c := testClient(t, server.URL)

	_, err := c.AnalyzeDecision(context.Background(), "anything", Options{Refresh: true})
	if err == nil {
		t.Fatal("expected error when model is unavailable")
	}
	if !apperrors.Is(err, apperrors.ErrCodeModelUnavailable) {
		t.Errorf("expected MODEL_UNAVAILABLE, got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server calls = %d, want 1 (terminal errors must not retry)", got)
	}
}

func TestClient_AnalyzeDecision_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(sampleTrace())
	}))
	defer server.Close()

	c := testClient(t, server.URL)

	tr, err := c.AnalyzeDecision(context.Background(), "sour candy gummies", Options{Refresh: true})
	if err != nil {
		t.Fatalf("AnalyzeDecision after transient failures: %v", err)
	}
	if tr.ModelUsed != "mistral_7b_v3" {
		t.Errorf("trace model = %q", tr.ModelUsed)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server calls = %d, want 3", got)
	}
}

func TestClient_AnalyzeDecision_CachesResponses(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(sampleTrace())
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	ctx := context.Background()

	for range 2 {
		if _, err := c.AnalyzeDecision(ctx, "sour candy gummies", Options{SessionID: "s1"}); err != nil {
			t.Fatalf("AnalyzeDecision: %v", err)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server calls = %d, want 1 (second fetch should hit cache)", got)
	}

	// A different session must not share the cache entry.
	if _, err := c.AnalyzeDecision(ctx, "sour candy gummies", Options{SessionID: "s2"}); err != nil {
		t.Fatalf("AnalyzeDecision: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("server calls = %d, want 2 (sessions are cached separately)", got)
	}
}

func TestIsModelUnavailable(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{name: "match", body: `{"error":"model_unavailable","message":"down"}`, want: true},
		{name: "other error", body: `{"error":"overloaded"}`, want: false},
		{name: "not json", body: `service unavailable`, want: false},
		{name: "empty", body: ``, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isModelUnavailable([]byte(tt.body)); got != tt.want {
				t.Errorf("isModelUnavailable(%q) = %v, want %v", tt.body, got, tt.want)
			}
		})
	}
}
