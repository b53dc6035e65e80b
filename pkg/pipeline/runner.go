package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/greenroom-ai/traceviz/pkg/cache"
	"github.com/greenroom-ai/traceviz/pkg/compile"
	"github.com/greenroom-ai/traceviz/pkg/graph"
	"github.com/greenroom-ai/traceviz/pkg/integrations/analysis"
	"github.com/greenroom-ai/traceviz/pkg/observability"
	"github.com/greenroom-ai/traceviz/pkg/render"
	"github.com/greenroom-ai/traceviz/pkg/trace"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete fetch → compile → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Fetch
	fetchStart := time.Now()
	observability.Pipeline().OnFetchStart(ctx, opts.Query)
	t, fetchHit, err := r.FetchWithCacheInfo(ctx, opts)
	result.Stats.FetchTime = time.Since(fetchStart)
	observability.Pipeline().OnFetchComplete(ctx, opts.Query, result.Stats.FetchTime, err)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	result.CacheInfo.FetchHit = fetchHit

	r.Logger.Info("fetched decision trace",
		"query", opts.Query,
		"cached", fetchHit,
		"duration", result.Stats.FetchTime)

	// Stage 2: Compile (pure, never cached)
	compileStart := time.Now()
	observability.Pipeline().OnCompileStart(ctx, opts.Query)
	g := compile.Compile(t)
	err = g.Validate()
	result.Stats.CompileTime = time.Since(compileStart)
	result.Stats.NodeCount = len(g.Nodes)
	result.Stats.EdgeCount = len(g.Edges)
	observability.Pipeline().OnCompileComplete(ctx, opts.Query, len(g.Nodes), len(g.Edges), result.Stats.CompileTime, err)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	result.Graph = g

	// Content hash for cache keys and API responses.
	data, err := graph.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("serialize graph: %w", err)
	}
	result.GraphHash = cache.Hash(data)

	r.Logger.Info("compiled graph",
		"nodes", len(g.Nodes),
		"edges", len(g.Edges),
		"duration", result.Stats.CompileTime)

	// Stage 3: Render
	renderStart := time.Now()
	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, g, result.GraphHash, opts)
	result.Stats.RenderTime = time.Since(renderStart)
	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, result.Stats.RenderTime, err)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// FetchWithCacheInfo obtains the decision trace with caching and returns
// cache hit info. Precedence: a trace file beats the analysis service, and
// an empty query short-circuits to an empty trace without any fetch.
func (r *Runner) FetchWithCacheInfo(ctx context.Context, opts Options) (trace.DecisionTrace, bool, error) {
	if opts.TraceFile != "" {
		data, err := os.ReadFile(opts.TraceFile)
		if err != nil {
			return trace.DecisionTrace{}, false, fmt.Errorf("read trace file: %w", err)
		}
		t, err := trace.Parse(data)
		if err != nil {
			return trace.DecisionTrace{}, false, fmt.Errorf("parse trace file %s: %w", opts.TraceFile, err)
		}
		return t, false, nil
	}

	if (trace.DecisionTrace{Query: opts.Query}).IsEmpty() {
		return trace.DecisionTrace{}, false, nil
	}

	cacheKey := r.Keyer.TraceKey(opts.Query, opts.TraceKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if t, err := trace.Parse(data); err == nil {
				observability.Cache().OnCacheHit(ctx, "trace")
				return t, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "trace")
	}

	client := opts.Analysis
	if client == nil {
		client = analysis.NewClient("", r.Cache)
	}
	t, err := client.AnalyzeDecision(ctx, opts.Query, analysis.Options{
		SessionID: opts.SessionID,
		Refresh:   opts.Refresh,
	})
	if err != nil {
		return trace.DecisionTrace{}, false, err
	}

	if data, err := trace.Marshal(*t); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLTrace)
		observability.Cache().OnCacheSet(ctx, "trace", len(data))
	}

	return *t, false, nil
}

// Fetch is a convenience wrapper that calls FetchWithCacheInfo and discards
// the cache hit info.
func (r *Runner) Fetch(ctx context.Context, opts Options) (trace.DecisionTrace, error) {
	t, _, err := r.FetchWithCacheInfo(ctx, opts)
	return t, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit
// info. The graph hash keys the artifact cache entries.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, g graph.Graph, graphHash string, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	// Try to get all formats from cache unless a refresh was requested
	allCached := !opts.Refresh
	artifacts := make(map[string][]byte)

	for _, format := range opts.Formats {
		if opts.Refresh {
			break
		}
		cacheKey := r.Keyer.ArtifactKey(graphHash, opts.ArtifactKeyOpts(format))
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "artifact")
			artifacts[format] = data
		} else {
			observability.Cache().OnCacheMiss(ctx, "artifact")
			allCached = false
			break
		}
	}

	if allCached && len(artifacts) == len(opts.Formats) {
		return artifacts, true, nil
	}

	// Render all formats
	rendered, err := r.renderFormats(ctx, g, opts)
	if err != nil {
		return nil, false, err
	}

	// Cache each format
	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(graphHash, opts.ArtifactKeyOpts(format))
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact)
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}

	return rendered, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Render(ctx context.Context, g graph.Graph, graphHash string, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, g, graphHash, opts)
	return artifacts, err
}

func (r *Runner) renderFormats(ctx context.Context, g graph.Graph, opts Options) (map[string][]byte, error) {
	out := make(map[string][]byte, len(opts.Formats))
	renderOpts := render.Options{Detailed: opts.Detailed}

	for _, format := range opts.Formats {
		switch format {
		case FormatJSON:
			data, err := graph.Marshal(g)
			if err != nil {
				return nil, fmt.Errorf("marshal graph: %w", err)
			}
			out[format] = data
		case FormatDOT:
			out[format] = []byte(render.ToDOT(g, renderOpts))
		case FormatSVG:
			svg, err := render.RenderSVG(ctx, render.ToDOT(g, renderOpts))
			if err != nil {
				return nil, fmt.Errorf("render svg: %w", err)
			}
			out[format] = svg
		default:
			return nil, fmt.Errorf("invalid format: %q", format)
		}
	}
	return out, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
