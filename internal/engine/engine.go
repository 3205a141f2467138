// Package engine executes an ordered list of pipeline stages over a shared
// state record, merging each stage's partial update into the running state.
package engine

import (
	"context"
	"log"

	"github.com/lastminute/learning-agent/internal/types"
)

// Stage is one ordered transformation step. Run receives a snapshot of the
// current state and returns a partial update; it must always return some
// delta, using deterministic fallbacks instead of errors.
type Stage struct {
	Name string
	Run  func(ctx context.Context, state types.State) Delta
}

// TraceRecord is emitted after each stage in streaming mode. It is
// observational only and never changes control flow.
type TraceRecord struct {
	Stage         string         `json:"node"`
	ChangedFields []string       `json:"updated_fields"`
	StatePreview  map[string]any `json:"state_preview"`
}

// TraceFunc receives one TraceRecord per completed stage.
type TraceFunc func(TraceRecord)

// Run executes the stages strictly in order and returns the final state.
// A stage that panics is logged and treated as a no-op update; the run
// always continues to completion.
func Run(ctx context.Context, stages []Stage, initial types.State) types.State {
	return RunStream(ctx, stages, initial, nil)
}

// RunWithTrace executes the stages like Run while collecting the per-stage
// trace. The final state is identical to a plain Run over the same input.
func RunWithTrace(ctx context.Context, stages []Stage, initial types.State) (types.State, []TraceRecord) {
	trace := make([]TraceRecord, 0, len(stages))
	final := RunStream(ctx, stages, initial, func(rec TraceRecord) {
		trace = append(trace, rec)
	})
	return final, trace
}

// RunStream executes the stages in order, invoking emit after each stage
// with the stage name, the fields it changed, and a truncated state preview.
// A nil emit skips trace construction entirely.
func RunStream(ctx context.Context, stages []Stage, initial types.State, emit TraceFunc) types.State {
	state := initial
	for _, stage := range stages {
		delta := runStage(ctx, stage, state)
		delta.apply(&state)
		if emit != nil {
			emit(TraceRecord{
				Stage:         stage.Name,
				ChangedFields: delta.changed(),
				StatePreview:  Preview(state),
			})
		}
	}
	return state
}

// runStage invokes one stage, converting a panic into an empty delta so a
// faulty stage can never abort the rest of the run.
func runStage(ctx context.Context, stage Stage, state types.State) (delta Delta) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("stage %s panicked, continuing with state unchanged: %v", stage.Name, r)
			delta = Delta{}
		}
	}()
	return stage.Run(ctx, state)
}
