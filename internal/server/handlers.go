package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/lastminute/learning-agent/internal/engine"
	"github.com/lastminute/learning-agent/internal/pipeline"
	"github.com/lastminute/learning-agent/internal/types"
)

// RunRequest represents the request body for /run
type RunRequest struct {
	Files []string `json:"files,omitempty" validate:"omitempty,dive,min=1"`
	Text  string   `json:"text,omitempty"`
}

// RunResponse represents the response for /run
type RunResponse struct {
	RunID string      `json:"run_id"`
	State types.State `json:"state"`
}

// decodeRunRequest parses and validates the request body. A request must
// carry at least one file or some inline text.
func (s *Server) decodeRunRequest(w http.ResponseWriter, r *http.Request) (RunRequest, bool) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return req, false
	}

	if err := s.validate.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return req, false
	}
	if len(req.Files) == 0 && req.Text == "" {
		s.errorResponse(w, http.StatusBadRequest, "Either files or text is required")
		return req, false
	}

	return req, true
}

// handleRun executes the full pipeline and returns the final state.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRunRequest(w, r)
	if !ok {
		return
	}

	runID := uuid.New().String()
	log.Printf("Starting pipeline run %s", runID)

	state := pipeline.RunPipeline(r.Context(), pipeline.RunOptions{
		Files:         req.Files,
		ExtractedText: req.Text,
		Gateway:       s.gateway,
		Images:        s.images,
	})

	s.jsonResponse(w, http.StatusOK, RunResponse{RunID: runID, State: state})
}

// handleRunStream executes the pipeline and streams per-stage progress via SSE
func (s *Server) handleRunStream(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRunRequest(w, r)
	if !ok {
		return
	}

	stream, err := newStreamWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	runID := uuid.New().String()
	log.Printf("Starting streaming pipeline run %s", runID)

	state := pipeline.RunPipelineStream(r.Context(), pipeline.RunOptions{
		Files:         req.Files,
		ExtractedText: req.Text,
		Gateway:       s.gateway,
		Images:        s.images,
	}, func(rec engine.TraceRecord) {
		if err := stream.WriteStage(rec); err != nil {
			log.Printf("Error writing stage event: %v", err)
		}
	})

	if err := stream.WriteResult(RunResponse{RunID: runID, State: state}); err != nil {
		log.Printf("Error writing result event: %v", err)
	}
	stream.WriteComplete(runID, "completed")
}
