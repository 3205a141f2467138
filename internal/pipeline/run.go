// Package pipeline turns raw study material into a learning event by running
// a fixed sequence of stages: ingestion, concept extraction, scenario
// selection, story generation, and story visuals. Every stage degrades to a
// deterministic fallback, so a run always produces a complete state even
// with no model access.
package pipeline

import (
	"context"

	"github.com/lastminute/learning-agent/internal/engine"
	"github.com/lastminute/learning-agent/internal/imagegen"
	"github.com/lastminute/learning-agent/internal/llm"
	"github.com/lastminute/learning-agent/internal/types"
)

// RunOptions carries the inputs and collaborators for one pipeline run.
// Gateway and Images default to disabled/nil, which drives every stage down
// its fallback path.
type RunOptions struct {
	Files         []string
	ExtractedText string
	Gateway       llm.Gateway
	Images        *imagegen.Scheduler
}

func initialState(opts RunOptions) types.State {
	files := opts.Files
	if files == nil {
		files = []string{}
	}
	return types.State{
		RawFiles:           files,
		ExtractedText:      opts.ExtractedText,
		Chunks:             []string{},
		Concepts:           []string{},
		NormalizedConcepts: []string{},
		PriorityConcepts:   []string{},
		TodoChecklist:      []string{},
		StoryBeats:         []types.Beat{},
	}
}

func gatewayOrDisabled(g llm.Gateway) llm.Gateway {
	if g == nil {
		return llm.Disabled("no llm gateway configured")
	}
	return g
}

// RunPipeline executes every stage in order and returns the final state.
func RunPipeline(ctx context.Context, opts RunOptions) types.State {
	return engine.Run(ctx, Stages(gatewayOrDisabled(opts.Gateway), opts.Images), initialState(opts))
}

// RunPipelineWithTrace also returns one trace record per stage, with the
// changed field names and a truncated state preview.
func RunPipelineWithTrace(ctx context.Context, opts RunOptions) (types.State, []engine.TraceRecord) {
	return engine.RunWithTrace(ctx, Stages(gatewayOrDisabled(opts.Gateway), opts.Images), initialState(opts))
}

// RunPipelineStream invokes emit after each stage completes, then returns the
// final state. emit is called from the run goroutine, never concurrently.
func RunPipelineStream(ctx context.Context, opts RunOptions, emit engine.TraceFunc) types.State {
	return engine.RunStream(ctx, Stages(gatewayOrDisabled(opts.Gateway), opts.Images), initialState(opts), emit)
}
