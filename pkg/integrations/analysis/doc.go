// Package analysis provides the client for the decision-analysis service.
//
// The analysis service runs the AI recommendation pipeline for a customer
// query and returns the decision trace describing every step it took. This
// client wraps the analyze-decision endpoint with response caching, retry
// with backoff for transient failures, and mapping of service errors onto
// [errors.Code] values.
//
// Two upstream failure modes are terminal and never retried: a missing trace
// (HTTP 404) and an unavailable model (HTTP 503 with a model_unavailable
// payload). Everything else transient is retried per [httputil.Retry]
// semantics.
//
// [errors.Code]: github.com/greenroom-ai/traceviz/pkg/errors.Code
// [httputil.Retry]: github.com/greenroom-ai/traceviz/pkg/httputil.Retry
package analysis
