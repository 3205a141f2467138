package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/lastminute/learning-agent/internal/engine"
)

// streamWriter emits pipeline progress as Server-Sent Events: a "stage"
// event per finished stage, a "result" event with the final state, and a
// closing "complete" event.
type streamWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newStreamWriter(w http.ResponseWriter) (*streamWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	return &streamWriter{w: w, flusher: flusher}, nil
}

// WriteStage reports a finished pipeline stage with its changed fields and
// truncated state preview.
func (s *streamWriter) WriteStage(rec engine.TraceRecord) error {
	return s.emit("stage", rec)
}

// WriteResult sends the run's final state.
func (s *streamWriter) WriteResult(resp RunResponse) error {
	return s.emit("result", resp)
}

// WriteComplete closes the stream with the run's terminal status.
func (s *streamWriter) WriteComplete(runID, status string) {
	s.emit("complete", map[string]string{ //nolint:errcheck
		"run_id": runID,
		"status": status,
	})
}

// emit frames one event and flushes it so clients see stages as they finish.
func (s *streamWriter) emit(event string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, body); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
