package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/greenroom-ai/traceviz/pkg/errors"
	"github.com/greenroom-ai/traceviz/pkg/graph"
	"github.com/greenroom-ai/traceviz/pkg/pipeline"
	"github.com/greenroom-ai/traceviz/pkg/store"
)

// visualizeRequest is the POST /api/v1/visualize payload.
type visualizeRequest struct {
	Query     string   `json:"query"`
	SessionID string   `json:"session_id,omitempty"`
	Formats   []string `json:"formats,omitempty"`
	Detailed  bool     `json:"detailed,omitempty"`
	Refresh   bool     `json:"refresh,omitempty"`
}

// visualizeResponse is the POST /api/v1/visualize response body.
// Non-JSON artifacts (DOT, SVG) are included as strings when requested.
type visualizeResponse struct {
	ID        string            `json:"id,omitempty"`
	GraphHash string            `json:"graph_hash"`
	Graph     graph.Graph       `json:"graph"`
	Artifacts map[string]string `json:"artifacts,omitempty"`
	Stats     statsBody         `json:"stats"`
	Cache     cacheBody         `json:"cache"`
}

type statsBody struct {
	NodeCount   int           `json:"node_count"`
	EdgeCount   int           `json:"edge_count"`
	FetchTime   time.Duration `json:"fetch_time_ns"`
	CompileTime time.Duration `json:"compile_time_ns"`
	RenderTime  time.Duration `json:"render_time_ns"`
}

type cacheBody struct {
	FetchHit  bool `json:"fetch_hit"`
	RenderHit bool `json:"render_hit"`
}

// errorResponse is the JSON body for all error statuses.
type errorResponse struct {
	Code    apperrors.Code `json:"code"`
	Message string         `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVisualize(w http.ResponseWriter, r *http.Request) {
	var req visualizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "malformed request body"))
		return
	}

	opts := pipeline.Options{
		Query:     req.Query,
		SessionID: req.SessionID,
		Formats:   req.Formats,
		Detailed:  req.Detailed,
		Refresh:   req.Refresh,
		Logger:    s.logger,
		Analysis:  s.analysis,
	}
	if len(opts.Formats) == 0 {
		opts.Formats = []string{pipeline.FormatJSON}
	}
	if err := pipeline.ValidateFormats(opts.Formats); err != nil {
		s.writeError(w, r, apperrors.Wrap(apperrors.ErrCodeInvalidFormat, err, "unsupported format"))
		return
	}

	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := visualizeResponse{
		GraphHash: result.GraphHash,
		Graph:     result.Graph,
		Stats: statsBody{
			NodeCount:   result.Stats.NodeCount,
			EdgeCount:   result.Stats.EdgeCount,
			FetchTime:   result.Stats.FetchTime,
			CompileTime: result.Stats.CompileTime,
			RenderTime:  result.Stats.RenderTime,
		},
		Cache: cacheBody{
			FetchHit:  result.CacheInfo.FetchHit,
			RenderHit: result.CacheInfo.RenderHit,
		},
	}

	// The graph is always in the response; extra formats ride along as
	// artifact strings.
	for format, data := range result.Artifacts {
		if format == pipeline.FormatJSON {
			continue
		}
		if resp.Artifacts == nil {
			resp.Artifacts = make(map[string]string)
		}
		resp.Artifacts[format] = string(data)
	}

	if s.store != nil && !result.Graph.IsEmpty() {
		rec := store.NewRecord(req.Query, req.SessionID, result.Graph)
		if err := s.store.Put(r.Context(), rec); err != nil {
			s.logger.Error("persist graph", "error", err, "request_id", RequestID(r.Context()))
		} else {
			resp.ID = rec.ID
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, r, apperrors.New(apperrors.ErrCodeNotFound, "persistence is disabled"))
		return
	}

	rec, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, r, apperrors.New(apperrors.ErrCodeNotFound, "graph not found"))
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleListGraphs(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusOK, []*store.Record{})
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.writeError(w, r, apperrors.New(apperrors.ErrCodeInvalidInput, "limit must be a positive integer"))
			return
		}
		limit = n
	}

	recs, err := s.store.List(r.Context(), r.URL.Query().Get("session_id"), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if recs == nil {
		recs = []*store.Record{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// statusFor maps error codes onto HTTP statuses.
func statusFor(code apperrors.Code) int {
	switch code {
	case apperrors.ErrCodeInvalidInput, apperrors.ErrCodeInvalidFormat, apperrors.ErrCodeInvalidGraph:
		return http.StatusBadRequest
	case apperrors.ErrCodeNotFound, apperrors.ErrCodeTraceUnavailable:
		return http.StatusNotFound
	case apperrors.ErrCodeModelUnavailable:
		return http.StatusServiceUnavailable
	case apperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case apperrors.ErrCodeNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperrors.GetCode(err)
	if code == "" {
		code = apperrors.ErrCodeInternal
	}
	status := statusFor(code)
	if status >= 500 {
		s.logger.Error("request failed", "error", err, "request_id", RequestID(r.Context()))
	}
	writeJSON(w, status, errorResponse{Code: code, Message: apperrors.UserMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
