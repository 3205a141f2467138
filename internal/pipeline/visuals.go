package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/lastminute/learning-agent/internal/engine"
	"github.com/lastminute/learning-agent/internal/llm"
	"github.com/lastminute/learning-agent/internal/prompts"
	"github.com/lastminute/learning-agent/internal/schemas"
	"github.com/lastminute/learning-agent/internal/types"
)

// generateStoryVisuals asks the gateway for slide-style beats covering the
// final storytelling, normalizes each beat to exactly StepsPerBeat image
// steps, and schedules image generation for every non-empty prompt.
func (s *stageSet) generateStoryVisuals(ctx context.Context, state types.State) engine.Delta {
	if strings.TrimSpace(state.FinalStorytelling) == "" {
		return engine.Delta{StoryBeats: &[]types.Beat{}}
	}

	conceptsStr := "the main topics"
	if len(state.PriorityConcepts) > 0 {
		conceptsStr = strings.Join(state.PriorityConcepts, ", ")
	}

	result, _ := s.gateway.GenerateJSON(ctx,
		prompts.MustGet("pipeline.json", "story-beats-system"),
		prompts.Format(prompts.MustGet("pipeline.json", "story-beats-user"), map[string]string{
			"Concepts":   conceptsStr,
			"SourceText": truncateRunes(state.CleanedText, maxSlideInput),
			"StoryText":  truncateRunes(state.FinalStorytelling, maxStoryRef),
		}))

	if len(result) == 0 || schemas.ValidateObject(schemas.StoryBeats, result) != nil {
		return engine.Delta{StoryBeats: &[]types.Beat{}}
	}

	beats := parseBeats(result)
	if s.images != nil && len(beats) > 0 {
		s.images.Fill(ctx, beats)
	}
	return engine.Delta{StoryBeats: &beats}
}

// parseBeats converts a validated response into beats, capped at maxBeats,
// each padded or truncated to exactly StepsPerBeat image steps.
func parseBeats(result map[string]any) []types.Beat {
	raw, _ := result["beats"].([]any)
	if len(raw) > maxBeats {
		raw = raw[:maxBeats]
	}

	beats := make([]types.Beat, 0, len(raw))
	for i, entry := range raw {
		obj, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		beat := types.Beat{
			Label:      llm.StringField(obj, "label"),
			Narrative:  llm.StringField(obj, "narrative"),
			IsDecision: llm.BoolField(obj, "is_decision"),
			Choices:    llm.StringListField(obj, "choices"),
		}
		if beat.Label == "" {
			beat.Label = fmt.Sprintf("Beat %d", i+1)
		}
		if beat.Choices == nil {
			beat.Choices = []string{}
		}
		beat.ImageSteps = normalizeImageSteps(obj, beat.Label)
		beats = append(beats, beat)
	}
	return beats
}

// normalizeImageSteps returns exactly StepsPerBeat steps: extra raw steps are
// dropped, missing ones are padded with empty prompts so downstream indexing
// stays fixed-shape.
func normalizeImageSteps(obj map[string]any, beatLabel string) []types.ImageStep {
	rawSteps, _ := obj["image_steps"].([]any)
	if len(rawSteps) > types.StepsPerBeat {
		rawSteps = rawSteps[:types.StepsPerBeat]
	}

	steps := make([]types.ImageStep, 0, types.StepsPerBeat)
	for _, rs := range rawSteps {
		stepObj, ok := rs.(map[string]any)
		if !ok {
			stepObj = map[string]any{}
		}
		steps = append(steps, types.ImageStep{
			StepLabel: llm.StringField(stepObj, "step_label"),
			Prompt:    llm.StringField(stepObj, "prompt"),
		})
	}
	for len(steps) < types.StepsPerBeat {
		steps = append(steps, types.ImageStep{
			StepLabel: fmt.Sprintf("%s - step %d", beatLabel, len(steps)+1),
			Prompt:    "",
		})
	}
	return steps
}
