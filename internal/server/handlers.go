package server

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"go.uber.org/zap"

	"github.com/jonathan/proposal-analyst/internal/pipeline"
	"github.com/jonathan/proposal-analyst/internal/server/middleware"
	"github.com/jonathan/proposal-analyst/internal/types"
)

// AnalyzeResponse is the body of a successful /analyze response.
type AnalyzeResponse struct {
	Success bool `json:"success"`
	*types.AnalysisResult
}

// BatchItemResponse is one entry of a /analyze/batch response.
type BatchItemResponse struct {
	Success bool         `json:"success"`
	ID      types.ItemID `json:"id"`
	Error   string       `json:"error,omitempty"`
	Details string       `json:"details,omitempty"`
	*types.AnalysisResult
}

// BatchResponse is the body of a /analyze/batch response.
type BatchResponse struct {
	Success bool                `json:"success"`
	Results []BatchItemResponse `json:"results"`
}

// HealthResponse is the body of /health.
type HealthResponse struct {
	Status        string `json:"status"`
	Service       string `json:"service"`
	Version       string `json:"version"`
	LLMConfigured bool   `json:"llm_configured"`
	Provider      string `json:"provider,omitempty"`
}

// NotFoundResponse is the body of unknown-route responses.
type NotFoundResponse struct {
	Error              string   `json:"error"`
	AvailableEndpoints []string `json:"available_endpoints"`
}

// handleAnalyze runs the full analysis on one proposal
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req types.AnalyzeRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	result, err := s.analyzer.Analyze(ctx, *req.Text)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, AnalyzeResponse{Success: true, AnalysisResult: result})
}

// handleAnalyzeBatch analyzes up to MaxBatchSize proposals, isolating failures per item
func (s *Server) handleAnalyzeBatch(w http.ResponseWriter, r *http.Request) {
	var req types.BatchRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	results, err := s.analyzer.AnalyzeBatch(ctx, req.Proposals)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, NewBatchResponse(results, s.cfg.Debug))
}

// NewBatchResponse converts batch results into the response body. Failed items
// carry the same error text a single analysis would return.
func NewBatchResponse(results []types.BatchResult, debug bool) BatchResponse {
	resp := BatchResponse{Success: true, Results: make([]BatchItemResponse, len(results))}
	for i, res := range results {
		item := BatchItemResponse{Success: res.Success, ID: res.ID, AnalysisResult: res.Result}
		if !res.Success {
			body := errorBody(res.Err, debug)
			item.Error = body.Error
			item.Details = body.Details
		}
		resp.Results[i] = item
	}
	return resp
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{
		Status:        "healthy",
		Service:       ServiceName,
		Version:       s.cfg.Version,
		LLMConfigured: s.client != nil,
	}
	if s.client != nil {
		resp.Provider = string(s.client.Provider())
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleNotFound lists the available endpoints
func (s *Server) handleNotFound(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusNotFound, NotFoundResponse{
		Error:              MsgNotFound,
		AvailableEndpoints: AvailableEndpoints,
	})
}

// decodeJSON checks the content type and decodes a size-limited body into v.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return &ErrInvalidBody{Message: MsgInvalidContentType}
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return err
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			switch typeErr.Field {
			case "proposals":
				return &types.ValidationError{Field: "proposals", Message: "Missing or invalid field: proposals (must be an array)"}
			case "text":
				return &types.ValidationError{Field: "text", Message: types.MsgItemTextNotString}
			}
		}
		return &ErrInvalidBody{Message: MsgInvalidJSON, Cause: err}
	}
	return nil
}

// writeError maps err to a status code and writes the error body.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("analysis failed",
			zap.String("request_id", middleware.GetRequestID(r)),
			zap.String("stage", pipeline.FailedStage(err)),
			zap.Error(err))
	}
	s.jsonResponse(w, status, errorBody(err, s.cfg.Debug))
}
