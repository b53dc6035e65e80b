// Package httputil provides HTTP client utilities shared by the
// integrations clients: retry with capped exponential backoff and the
// retryable-error marker type that drives it.
package httputil
