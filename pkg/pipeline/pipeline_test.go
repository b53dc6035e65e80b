package pipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/greenroom-ai/traceviz/pkg/cache"
	"github.com/greenroom-ai/traceviz/pkg/integrations/analysis"
)

func sampleTraceJSON() []byte {
	data, _ := json.Marshal(map[string]any{
		"query":             "sour candy gummies",
		"intent":            "product_search",
		"intent_confidence": 0.92,
		"entities": []map[string]any{
			{"type": "flavor", "value": "sour candy", "confidence": 0.9},
		},
		"products": []map[string]any{
			{"name": "Sour Bites", "score": 0.85, "reasoning": "flavor match"},
		},
		"response": "Try our Sour Bites.",
	})
	return data
}

func writeTraceFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trace.json")
	if err := os.WriteFile(path, sampleTraceJSON(), 0644); err != nil {
		t.Fatalf("write trace file: %v", err)
	}
	return path
}

func testRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return NewRunner(c, nil, nil)
}

func TestValidateAndSetDefaults(t *testing.T) {
	var opts Options
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatJSON {
		t.Errorf("default formats = %v, want [json]", opts.Formats)
	}
	if opts.Logger == nil {
		t.Error("default logger not set")
	}

	// Idempotent.
	opts.Formats = nil
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("second ValidateAndSetDefaults: %v", err)
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"json", "dot", "svg"}); err != nil {
		t.Errorf("valid formats rejected: %v", err)
	}
	if err := ValidateFormats([]string{"png"}); err == nil {
		t.Error("png should be rejected")
	}
	if err := (&Options{Formats: []string{"bogus"}}).ValidateAndSetDefaults(); err == nil {
		t.Error("bogus format should fail validation")
	}
}

func TestExecuteFromTraceFile(t *testing.T) {
	r := testRunner(t)

	result, err := r.Execute(context.Background(), Options{
		Query:     "sour candy gummies",
		TraceFile: writeTraceFile(t),
		Formats:   []string{FormatJSON, FormatDOT},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if result.Stats.NodeCount != 11 || result.Stats.EdgeCount != 13 {
		t.Errorf("stats = %d nodes / %d edges, want 11/13",
			result.Stats.NodeCount, result.Stats.EdgeCount)
	}
	if result.GraphHash == "" {
		t.Error("GraphHash not computed")
	}
	if len(result.Artifacts[FormatJSON]) == 0 {
		t.Error("json artifact missing")
	}
	if len(result.Artifacts[FormatDOT]) == 0 {
		t.Error("dot artifact missing")
	}
	if result.CacheInfo.FetchHit {
		t.Error("trace file fetches must not report a cache hit")
	}
	if err := result.Graph.Validate(); err != nil {
		t.Errorf("result graph invalid: %v", err)
	}
}

func TestExecuteEmptyQuery(t *testing.T) {
	r := testRunner(t)

	result, err := r.Execute(context.Background(), Options{Query: "   "})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !result.Graph.IsEmpty() {
		t.Errorf("empty query compiled %d nodes, want empty graph", len(result.Graph.Nodes))
	}

	// The JSON artifact carries explicit empty arrays, not null.
	var decoded struct {
		Nodes []any `json:"nodes"`
		Edges []any `json:"edges"`
	}
	if err := json.Unmarshal(result.Artifacts[FormatJSON], &decoded); err != nil {
		t.Fatalf("decode json artifact: %v", err)
	}
	if decoded.Nodes == nil || decoded.Edges == nil {
		t.Error("empty graph should serialize nodes/edges as [], not null")
	}
}

func TestExecuteCachesTraceFetches(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write(sampleTraceJSON())
	}))
	defer server.Close()

	r := testRunner(t)
	opts := Options{
		Query: "sour candy gummies",
		// Client-side HTTP caching is disabled so hits land on the runner's
		// trace cache.
		Analysis: analysis.NewClient(server.URL, nil),
	}

	first, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	if first.CacheInfo.FetchHit {
		t.Error("first fetch should miss the cache")
	}

	second, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if !second.CacheInfo.FetchHit {
		t.Error("second fetch should hit the trace cache")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("analysis calls = %d, want 1", got)
	}
	if first.GraphHash != second.GraphHash {
		t.Errorf("graph hash changed across cached runs: %q vs %q", first.GraphHash, second.GraphHash)
	}
}

func TestExecuteCachesArtifacts(t *testing.T) {
	r := testRunner(t)
	opts := Options{
		Query:     "sour candy gummies",
		TraceFile: writeTraceFile(t),
		Formats:   []string{FormatDOT},
	}

	first, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	if first.CacheInfo.RenderHit {
		t.Error("first render should miss the cache")
	}

	second, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if !second.CacheInfo.RenderHit {
		t.Error("second render should hit the artifact cache")
	}
	if string(first.Artifacts[FormatDOT]) != string(second.Artifacts[FormatDOT]) {
		t.Error("cached artifact differs from rendered artifact")
	}
}

func TestExecuteRefreshBypassesTraceCache(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write(sampleTraceJSON())
	}))
	defer server.Close()

	r := testRunner(t)
	opts := Options{
		Query:    "sour candy gummies",
		Analysis: analysis.NewClient(server.URL, nil),
		Refresh:  true,
	}

	for range 2 {
		if _, err := r.Execute(context.Background(), opts); err != nil {
			t.Fatalf("Execute: %v", err)
		}
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("analysis calls with refresh = %d, want 2", got)
	}
}

func TestFetchMissingTraceFile(t *testing.T) {
	r := testRunner(t)

	_, err := r.Fetch(context.Background(), Options{
		Query:     "q",
		TraceFile: filepath.Join(t.TempDir(), "nope.json"),
	})
	if err == nil {
		t.Error("missing trace file should fail")
	}
}

func TestDetailedArtifactsCachedSeparately(t *testing.T) {
	plain := (&Options{Formats: []string{FormatDOT}}).ArtifactKeyOpts(FormatDOT)
	detailed := (&Options{Formats: []string{FormatDOT}, Detailed: true}).ArtifactKeyOpts(FormatDOT)
	if plain == detailed {
		t.Error("detailed DOT must use a distinct artifact cache key")
	}

	// JSON output ignores the detailed flag.
	plainJSON := (&Options{}).ArtifactKeyOpts(FormatJSON)
	detailedJSON := (&Options{Detailed: true}).ArtifactKeyOpts(FormatJSON)
	if plainJSON != detailedJSON {
		t.Error("detailed flag must not change the json artifact key")
	}
}
