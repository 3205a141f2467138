package imagegen

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lastminute/learning-agent/internal/ratelimit"
)

// fakeClient returns canned responses per call, cycling on the last one.
type fakeClient struct {
	mu        sync.Mutex
	responses []fakeResponse
	calls     int
	prompts   []string
}

type fakeResponse struct {
	img *Image
	err error
}

func (f *fakeClient) Generate(_ context.Context, prompt string) (*Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	idx := f.calls
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	f.calls++
	resp := f.responses[idx]
	return resp.img, resp.err
}

func (f *fakeClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func noSleep(context.Context, time.Duration) error { return nil }

func newTestRunner(client Client, opts ...RunnerOption) *Runner {
	base := []RunnerOption{WithSleep(noSleep)}
	return NewRunner(client, ratelimit.NewInterval(0), append(base, opts...)...)
}

func TestRunnerRun_SuccessReturnsDataURI(t *testing.T) {
	client := &fakeClient{responses: []fakeResponse{
		{img: &Image{MIMEType: "image/png", Data: []byte{1, 2, 3}}},
	}}
	runner := newTestRunner(client)

	result := runner.Run(context.Background(), "a red triangle")

	assert.Equal(t, "data:image/png;base64,AQID", result)
	assert.Equal(t, 1, client.callCount())
}

func TestRunnerRun_SuccessWithoutPayloadEndsImmediately(t *testing.T) {
	client := &fakeClient{responses: []fakeResponse{{img: nil, err: nil}}}
	runner := newTestRunner(client)

	result := runner.Run(context.Background(), "prompt")

	assert.Empty(t, result)
	assert.Equal(t, 1, client.callCount(), "empty success must not be retried")
}

func TestRunnerRun_PermanentErrorNoRetry(t *testing.T) {
	client := &fakeClient{responses: []fakeResponse{
		{err: &APIError{StatusCode: 400, Message: "bad request", Transient: false}},
	}}
	runner := newTestRunner(client)

	result := runner.Run(context.Background(), "prompt")

	assert.Empty(t, result)
	assert.Equal(t, 1, client.callCount())
}

func TestRunnerRun_TransientErrorsExhaustAttempts(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"rate limited", &APIError{StatusCode: 429, Transient: true}},
		{"server error", &APIError{StatusCode: 503, Transient: true}},
		{"unclassified failure", assert.AnError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{responses: []fakeResponse{{err: tt.err}}}
			runner := newTestRunner(client)

			result := runner.Run(context.Background(), "prompt")

			assert.Empty(t, result)
			assert.Equal(t, DefaultMaxAttempts, client.callCount())
		})
	}
}

func TestRunnerRun_RecoversAfterTransientFailures(t *testing.T) {
	client := &fakeClient{responses: []fakeResponse{
		{err: &APIError{StatusCode: 429, Transient: true}},
		{err: &APIError{StatusCode: 500, Transient: true}},
		{img: &Image{MIMEType: "image/png", Data: []byte("ok")}},
	}}
	runner := newTestRunner(client)

	result := runner.Run(context.Background(), "prompt")

	assert.NotEmpty(t, result)
	assert.Equal(t, 3, client.callCount())
}

func TestRunnerRun_BackoffDoublesPerAttempt(t *testing.T) {
	var delays []time.Duration
	recordSleep := func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	client := &fakeClient{responses: []fakeResponse{
		{err: &APIError{StatusCode: 503, Transient: true}},
	}}
	runner := NewRunner(client, ratelimit.NewInterval(0),
		WithSleep(recordSleep), WithBaseBackoff(5*time.Second))

	runner.Run(context.Background(), "prompt")

	// Three sleeps between four attempts, doubling from the base.
	require.Equal(t, []time.Duration{
		5 * time.Second,
		10 * time.Second,
		20 * time.Second,
	}, delays)
}

func TestRunnerRun_MaxAttemptsOverride(t *testing.T) {
	client := &fakeClient{responses: []fakeResponse{
		{err: &APIError{StatusCode: 429, Transient: true}},
	}}
	runner := newTestRunner(client, WithMaxAttempts(2))

	runner.Run(context.Background(), "prompt")

	assert.Equal(t, 2, client.callCount())
}
