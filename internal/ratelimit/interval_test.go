package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances instantly instead of sleeping, so interval spacing can
// be verified without real delays. Each wait logs its resume time; waits run
// while the limiter holds its lock, so the log order is the serialized call
// order even with concurrent callers.
type fakeClock struct {
	mu    sync.Mutex
	t     time.Time
	log   []time.Time
	waits []time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (fc *fakeClock) now() time.Time {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.t
}

func (fc *fakeClock) wait(_ context.Context, d time.Duration) error {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.t = fc.t.Add(d)
	fc.waits = append(fc.waits, fc.t)
	return nil
}

func (fc *fakeClock) record() {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.log = append(fc.log, fc.t)
}

func TestIntervalWait_FirstCallDoesNotWait(t *testing.T) {
	fc := newFakeClock()
	limiter := NewInterval(4*time.Second, WithClock(fc.now, fc.wait))

	start := fc.now()
	require.NoError(t, limiter.Wait(context.Background()))

	assert.Equal(t, start, fc.now(), "first call must pass through without waiting")
}

func TestIntervalWait_EnforcesMinimumSpacing(t *testing.T) {
	tests := []struct {
		name  string
		calls int
	}{
		{"single call", 1},
		{"five calls", 5},
		{"twenty calls", 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const minGap = 4 * time.Second
			fc := newFakeClock()
			limiter := NewInterval(minGap, WithClock(fc.now, fc.wait))

			for i := 0; i < tt.calls; i++ {
				require.NoError(t, limiter.Wait(context.Background()))
				fc.record()
			}

			require.Len(t, fc.log, tt.calls)
			for i := 1; i < len(fc.log); i++ {
				gap := fc.log[i].Sub(fc.log[i-1])
				assert.GreaterOrEqual(t, gap, minGap,
					"calls %d and %d spaced %s apart", i-1, i, gap)
			}
		})
	}
}

func TestIntervalWait_ConcurrentCallersStaySpaced(t *testing.T) {
	const (
		minGap  = 4 * time.Second
		callers = 12
	)
	fc := newFakeClock()
	limiter := NewInterval(minGap, WithClock(fc.now, fc.wait))

	start := fc.now()

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, limiter.Wait(context.Background()))
		}()
	}
	wg.Wait()

	// The clock only advances during waits, so every caller after the first
	// has to wait the full gap. The wait log is appended under the limiter's
	// lock, so it reflects the serialized order.
	fc.mu.Lock()
	waits := append([]time.Time(nil), fc.waits...)
	fc.mu.Unlock()

	require.Len(t, waits, callers-1)
	assert.GreaterOrEqual(t, waits[0].Sub(start), minGap)
	for i := 1; i < len(waits); i++ {
		gap := waits[i].Sub(waits[i-1])
		assert.GreaterOrEqual(t, gap, minGap)
	}
	assert.Equal(t, start.Add(time.Duration(callers-1)*minGap), fc.now(),
		"total elapsed time is exactly one gap per waiting caller")
}

func TestIntervalWait_SkipsWaitWhenIntervalAlreadyElapsed(t *testing.T) {
	const minGap = 4 * time.Second
	fc := newFakeClock()
	limiter := NewInterval(minGap, WithClock(fc.now, fc.wait))

	require.NoError(t, limiter.Wait(context.Background()))

	// Simulate time passing beyond the interval with no calls.
	fc.mu.Lock()
	fc.t = fc.t.Add(10 * time.Second)
	fc.mu.Unlock()

	before := fc.now()
	require.NoError(t, limiter.Wait(context.Background()))
	assert.Equal(t, before, fc.now(), "no extra wait once the interval has elapsed")
}

func TestIntervalWait_CancelledContext(t *testing.T) {
	limiter := NewInterval(time.Hour)

	require.NoError(t, limiter.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := limiter.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
