// Package integrations provides HTTP clients for upstream service APIs.
//
// # Overview
//
// This package contains low-level API clients for the services the
// visualization pipeline depends on. Each service has its own subpackage:
//
//   - [analysis]: the decision-analysis service that produces decision traces
//
// # Client Pattern
//
// All service clients follow a consistent pattern:
//
//	client := analysis.NewClient(cfg, backend)
//	trace, err := client.AnalyzeDecision(ctx, "sour candy gummies", opts)
//
// Clients handle:
//   - HTTP requests with retry and backoff
//   - Response caching (pluggable backend, configurable TTL)
//   - Service-specific parsing and error mapping
//
// # Shared Infrastructure
//
// The [Client] type provides shared HTTP functionality used by all service
// clients, including response caching via [cache.Cache] and transient-failure
// retries via [httputil.RetryWithBackoff].
//
// # Adding a New Service
//
// To add support for a new upstream service:
//
//  1. Create a subpackage: pkg/integrations/<service>/
//  2. Define response structs matching the API schema
//  3. Implement a Client embedding [Client]
//  4. Map service error responses onto [errors.Code] values
//
// [analysis]: github.com/greenroom-ai/traceviz/pkg/integrations/analysis
// [cache.Cache]: github.com/greenroom-ai/traceviz/pkg/cache.Cache
// [httputil.RetryWithBackoff]: github.com/greenroom-ai/traceviz/pkg/httputil.RetryWithBackoff
// [errors.Code]: github.com/greenroom-ai/traceviz/pkg/errors.Code
package integrations
