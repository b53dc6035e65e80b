package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/greenroom-ai/traceviz/pkg/cache"
	apperrors "github.com/greenroom-ai/traceviz/pkg/errors"
	"github.com/greenroom-ai/traceviz/pkg/httputil"
	"github.com/greenroom-ai/traceviz/pkg/integrations"
	"github.com/greenroom-ai/traceviz/pkg/trace"
)

// DefaultBaseURL is the analysis service endpoint used when none is configured.
const DefaultBaseURL = "http://localhost:8000"

const analyzePath = "/api/analyze-decision"

// Options control a single trace fetch.
type Options struct {
	// SessionID scopes the query to a conversation session. Optional.
	SessionID string

	// Refresh bypasses the response cache and forces a fresh API call.
	Refresh bool
}

// Client provides access to the decision-analysis service API.
// It handles HTTP requests with caching and automatic retries.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates an analysis client with the given cache backend.
//
// Parameters:
//   - baseURL: analysis service root (empty uses [DefaultBaseURL])
//   - backend: cache backend for response caching (nil disables caching)
//
// The returned Client is safe for concurrent use.
func NewClient(baseURL string, backend cache.Cache) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		Client:  integrations.NewClient(backend, "analysis:", cache.TTLTrace, nil),
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// AnalyzeDecision runs the AI pipeline for query and returns its decision
// trace. The trace is returned as the service produced it; callers normalize
// it with [trace.Normalize] before compiling.
//
// Returns:
//   - a populated trace on success (never nil when err is nil)
//   - [apperrors.ErrCodeInvalidInput] if query is blank
//   - [apperrors.ErrCodeTraceUnavailable] if the service has no trace (404)
//   - [apperrors.ErrCodeModelUnavailable] if the model is down (terminal, not retried)
//   - [integrations.ErrNetwork] for other HTTP failures after retries
//
// This method is safe for concurrent use.
func (c *Client) AnalyzeDecision(ctx context.Context, query string, opts Options) (*trace.DecisionTrace, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "query cannot be empty")
	}

	key := fmt.Sprintf("%s\x00%s", query, opts.SessionID)

	var t trace.DecisionTrace
	err := c.Cached(ctx, key, opts.Refresh, &t, func() error {
		return c.fetch(ctx, query, opts.SessionID, &t)
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

type analyzeRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
}

// errorBody is the failure payload the analysis service returns alongside
// non-200 statuses.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (c *Client) fetch(ctx context.Context, query, sessionID string, out *trace.DecisionTrace) error {
	payload, err := json.Marshal(analyzeRequest{Query: query, SessionID: sessionID})
	if err != nil {
		return err
	}

	resp, err := c.Do(ctx, http.MethodPost, c.baseURL+analyzePath, bytes.NewReader(payload),
		map[string]string{"Content-Type": "application/json"})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &httputil.RetryableError{Err: fmt.Errorf("%w: read response: %v", integrations.ErrNetwork, err)}
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		t, err := trace.Parse(body)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrCodeInvalidFormat, err, "decode decision trace for %q", query)
		}
		*out = t
		return nil

	case resp.StatusCode == http.StatusNotFound:
		return apperrors.New(apperrors.ErrCodeTraceUnavailable, "no decision trace available for %q", query)

	case resp.StatusCode == http.StatusServiceUnavailable && isModelUnavailable(body):
		// Terminal: the model backing the pipeline is down, retrying the
		// request will not bring it back.
		return apperrors.New(apperrors.ErrCodeModelUnavailable, "analysis model unavailable")

	default:
		return integrations.CheckStatus(resp.StatusCode)
	}
}

func isModelUnavailable(body []byte) bool {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return false
	}
	return eb.Error == "model_unavailable"
}
