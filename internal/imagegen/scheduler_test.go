package imagegen

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lastminute/learning-agent/internal/ratelimit"
	"github.com/lastminute/learning-agent/internal/types"
)

// promptClient answers per prompt: prompts containing "fail" get a permanent
// error, everything else gets a payload echoing the prompt.
type promptClient struct {
	mu      sync.Mutex
	prompts []string
}

func (p *promptClient) Generate(_ context.Context, prompt string) (*Image, error) {
	p.mu.Lock()
	p.prompts = append(p.prompts, prompt)
	p.mu.Unlock()

	if strings.Contains(prompt, "fail") {
		return nil, &APIError{StatusCode: 400, Message: "rejected", Transient: false}
	}
	return &Image{MIMEType: "image/png", Data: []byte(prompt)}, nil
}

func (p *promptClient) seen() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.prompts...)
}

func testBeats() []types.Beat {
	return []types.Beat{
		{
			Label: "Beat 1",
			ImageSteps: []types.ImageStep{
				{StepLabel: "s1", Prompt: "a castle"},
				{StepLabel: "s2", Prompt: "fail: storm"},
				{StepLabel: "s3", Prompt: "a bridge"},
			},
		},
		{
			Label: "Beat 2",
			ImageSteps: []types.ImageStep{
				{StepLabel: "s1", Prompt: "a forest"},
				{StepLabel: "s2", Prompt: "fail: dragon"},
				{StepLabel: "s3", Prompt: "a river"},
			},
		},
	}
}

func newTestScheduler(client Client, opts ...SchedulerOption) *Scheduler {
	runner := NewRunner(client, ratelimit.NewInterval(0), WithSleep(noSleep))
	return NewScheduler(runner, opts...)
}

func TestSchedulerFill_MixedOutcomes(t *testing.T) {
	client := &promptClient{}
	scheduler := newTestScheduler(client, WithWorkers(3))
	beats := testBeats()

	filled := scheduler.Fill(context.Background(), beats)

	assert.Equal(t, 4, filled)

	// Successful steps carry payloads, failed ones stay empty.
	assert.NotEmpty(t, beats[0].ImageSteps[0].ImageData)
	assert.Empty(t, beats[0].ImageSteps[1].ImageData)
	assert.NotEmpty(t, beats[0].ImageSteps[2].ImageData)
	assert.NotEmpty(t, beats[1].ImageSteps[0].ImageData)
	assert.Empty(t, beats[1].ImageSteps[1].ImageData)
	assert.NotEmpty(t, beats[1].ImageSteps[2].ImageData)

	for _, data := range []string{
		beats[0].ImageSteps[0].ImageData,
		beats[1].ImageSteps[2].ImageData,
	} {
		assert.True(t, strings.HasPrefix(data, "data:image/png;base64,"))
	}
}

func TestSchedulerFill_SkipsEmptyPrompts(t *testing.T) {
	client := &promptClient{}
	scheduler := newTestScheduler(client)

	beats := []types.Beat{{
		Label: "Beat 1",
		ImageSteps: []types.ImageStep{
			{StepLabel: "s1", Prompt: "a tower"},
			{StepLabel: "s2", Prompt: ""},
			{StepLabel: "s3", Prompt: ""},
		},
	}}

	filled := scheduler.Fill(context.Background(), beats)

	assert.Equal(t, 1, filled)
	assert.Len(t, client.seen(), 1, "placeholder steps must not produce calls")
	assert.Empty(t, beats[0].ImageSteps[1].ImageData)
	assert.Empty(t, beats[0].ImageSteps[2].ImageData)
}

func TestSchedulerFill_NoJobs(t *testing.T) {
	client := &promptClient{}
	scheduler := newTestScheduler(client)

	filled := scheduler.Fill(context.Background(), []types.Beat{
		{Label: "Beat 1", ImageSteps: []types.ImageStep{{Prompt: ""}}},
	})

	assert.Zero(t, filled)
	assert.Empty(t, client.seen())
}

func TestSchedulerFill_AppliesPromptWrapper(t *testing.T) {
	client := &promptClient{}
	scheduler := newTestScheduler(client, WithPromptWrapper(func(p string) string {
		return "styled: " + p
	}))

	beats := []types.Beat{{
		Label:      "Beat 1",
		ImageSteps: []types.ImageStep{{StepLabel: "s1", Prompt: "a lake"}},
	}}

	scheduler.Fill(context.Background(), beats)

	require.Len(t, client.seen(), 1)
	assert.Equal(t, "styled: a lake", client.seen()[0])
	// The stored prompt is the raw one.
	assert.Equal(t, "a lake", beats[0].ImageSteps[0].Prompt)
}

func TestSchedulerFill_ManyJobsSmallPool(t *testing.T) {
	client := &promptClient{}
	scheduler := newTestScheduler(client, WithWorkers(2))

	var beats []types.Beat
	for i := 0; i < 5; i++ {
		beats = append(beats, types.Beat{
			Label: "Beat",
			ImageSteps: []types.ImageStep{
				{Prompt: "p1"}, {Prompt: "p2"}, {Prompt: "p3"},
			},
		})
	}

	filled := scheduler.Fill(context.Background(), beats)

	assert.Equal(t, 15, filled)
	for bi := range beats {
		for si := range beats[bi].ImageSteps {
			assert.NotEmpty(t, beats[bi].ImageSteps[si].ImageData, "beat %d step %d", bi, si)
		}
	}
}
