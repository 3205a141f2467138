package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lastminute/learning-agent/internal/imagegen"
	"github.com/lastminute/learning-agent/internal/ratelimit"
	"github.com/lastminute/learning-agent/internal/types"
)

func storyState() types.State {
	return types.State{
		CleanedText:       "lecture content about forces.",
		PriorityConcepts:  []string{"force", "mass"},
		FinalStorytelling: "Act 1: you learn about forces.",
	}
}

func beatResponse(steps ...map[string]any) map[string]any {
	stepList := make([]any, len(steps))
	for i, s := range steps {
		stepList[i] = s
	}
	return map[string]any{
		"beats": []any{
			map[string]any{
				"label":       "Forces",
				"narrative":   "you learn that force causes acceleration",
				"is_decision": false,
				"image_steps": stepList,
			},
		},
	}
}

func visualsSet(response map[string]any) *stageSet {
	return &stageSet{gateway: &fakeGateway{responses: map[string]map[string]any{
		"educational visual designer": response,
	}}}
}

func TestGenerateStoryVisuals_NoStoryNoBeats(t *testing.T) {
	s := disabledSet()

	delta := s.generateStoryVisuals(context.Background(), types.State{FinalStorytelling: "   "})

	require.NotNil(t, delta.StoryBeats)
	assert.NotNil(t, *delta.StoryBeats)
	assert.Empty(t, *delta.StoryBeats)
}

func TestGenerateStoryVisuals_GatewayUnavailableEmptyBeats(t *testing.T) {
	s := disabledSet()

	delta := s.generateStoryVisuals(context.Background(), storyState())

	require.NotNil(t, delta.StoryBeats)
	assert.Empty(t, *delta.StoryBeats)
}

func TestGenerateStoryVisuals_SchemaInvalidEmptyBeats(t *testing.T) {
	s := visualsSet(map[string]any{"beats": []any{}})

	delta := s.generateStoryVisuals(context.Background(), storyState())

	require.NotNil(t, delta.StoryBeats)
	assert.Empty(t, *delta.StoryBeats)
}

func TestGenerateStoryVisuals_StepCountNormalized(t *testing.T) {
	step := func(n int) map[string]any {
		return map[string]any{
			"step_label": fmt.Sprintf("Step %d", n),
			"prompt":     fmt.Sprintf("diagram %d", n),
		}
	}

	tests := []struct {
		name     string
		rawSteps []map[string]any
	}{
		{"zero steps padded", nil},
		{"one step padded", []map[string]any{step(1)}},
		{"exact three kept", []map[string]any{step(1), step(2), step(3)}},
		{"five steps truncated", []map[string]any{step(1), step(2), step(3), step(4), step(5)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := visualsSet(beatResponse(tt.rawSteps...))

			delta := s.generateStoryVisuals(context.Background(), storyState())

			require.NotNil(t, delta.StoryBeats)
			beats := *delta.StoryBeats
			require.Len(t, beats, 1)
			assert.Len(t, beats[0].ImageSteps, types.StepsPerBeat)

			kept := min(len(tt.rawSteps), types.StepsPerBeat)
			for i := 0; i < kept; i++ {
				assert.Equal(t, fmt.Sprintf("diagram %d", i+1), beats[0].ImageSteps[i].Prompt)
			}
			for i := kept; i < types.StepsPerBeat; i++ {
				assert.Empty(t, beats[0].ImageSteps[i].Prompt, "padded step %d", i)
				assert.NotEmpty(t, beats[0].ImageSteps[i].StepLabel)
			}
		})
	}
}

func TestGenerateStoryVisuals_BeatsCapped(t *testing.T) {
	var raw []any
	for i := 0; i < 9; i++ {
		raw = append(raw, map[string]any{"label": fmt.Sprintf("Concept %d", i)})
	}
	s := visualsSet(map[string]any{"beats": raw})

	delta := s.generateStoryVisuals(context.Background(), storyState())

	require.NotNil(t, delta.StoryBeats)
	assert.Len(t, *delta.StoryBeats, maxBeats)
}

func TestGenerateStoryVisuals_DefaultsLabelAndChoices(t *testing.T) {
	s := visualsSet(map[string]any{"beats": []any{
		map[string]any{"label": "Named"},
	}})

	delta := s.generateStoryVisuals(context.Background(), storyState())

	beats := *delta.StoryBeats
	require.Len(t, beats, 1)
	assert.Equal(t, "Named", beats[0].Label)
	assert.NotNil(t, beats[0].Choices)
	assert.Empty(t, beats[0].Choices)
}

// stubImageClient returns a fixed payload for every prompt.
type stubImageClient struct{}

func (stubImageClient) Generate(_ context.Context, _ string) (*imagegen.Image, error) {
	return &imagegen.Image{MIMEType: "image/png", Data: []byte("img")}, nil
}

func TestGenerateStoryVisuals_FillsImages(t *testing.T) {
	runner := imagegen.NewRunner(stubImageClient{}, ratelimit.NewInterval(0))
	s := visualsSet(beatResponse(
		map[string]any{"step_label": "Step 1", "prompt": "a force diagram"},
		map[string]any{"step_label": "Step 2", "prompt": "a mass diagram"},
	))
	s.images = imagegen.NewScheduler(runner)

	delta := s.generateStoryVisuals(context.Background(), storyState())

	beats := *delta.StoryBeats
	require.Len(t, beats, 1)
	assert.NotEmpty(t, beats[0].ImageSteps[0].ImageData)
	assert.NotEmpty(t, beats[0].ImageSteps[1].ImageData)
	// The padded third step has no prompt and stays empty.
	assert.Empty(t, beats[0].ImageSteps[2].ImageData)
}
