// Package pipeline provides the core visualization pipeline for traceviz.
//
// This package implements the complete fetch → compile → render pipeline
// that can be used by CLI and API components. By centralizing this logic,
// we ensure consistent behavior across all entry points and avoid code
// duplication.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Fetch: Obtain the decision trace from the analysis service or a file
//  2. Compile: Transform the trace into a typed, positioned graph
//  3. Render: Generate output in various formats (JSON, DOT, SVG)
//
// Each stage can be run independently or as part of the complete pipeline.
// Fetch and render results are cached; compilation is a pure function of
// the trace and is always recomputed.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Query:   "sour candy gummies",
//	    Formats: []string{"json", "svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/greenroom-ai/traceviz/pkg/cache"
	"github.com/greenroom-ai/traceviz/pkg/graph"
	"github.com/greenroom-ai/traceviz/pkg/integrations/analysis"
)

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the visualization pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Fetch options
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
	TraceFile string `json:"trace_file,omitempty"` // Read the trace from a file instead of the analysis service
	Refresh   bool   `json:"refresh,omitempty"`

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"` // Include values and confidences in DOT labels

	// Runtime options (not serialized)
	Logger   *log.Logger      `json:"-"`
	Analysis *analysis.Client `json:"-"` // Fetch source; nil uses a default client

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the compiled decision graph.
	Graph graph.Graph

	// GraphHash is the content hash of the serialized graph.
	GraphHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount   int
	EdgeCount   int
	FetchTime   time.Duration
	CompileTime time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each cacheable pipeline stage.
// Compilation is pure and never cached.
type CacheInfo struct {
	FetchHit  bool // Whether the trace came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: json, dot, svg)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks fields and applies defaults for the full
// pipeline. An empty query is valid and compiles to an empty graph.
// This method is idempotent - calling it multiple times has the same effect
// as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// TraceKeyOpts returns cache key options for the fetch stage.
func (o *Options) TraceKeyOpts() cache.TraceKeyOpts {
	return cache.TraceKeyOpts{SessionID: o.SessionID}
}

// ArtifactKeyOpts returns cache key options for one rendered format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	// Detailed labels change the DOT/SVG bytes, so they get their own entries.
	if o.Detailed && format != FormatJSON {
		format += ":detailed"
	}
	return cache.ArtifactKeyOpts{Format: format}
}
