package imagegen

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/lastminute/learning-agent/internal/types"
)

// DefaultWorkers is the fixed degree of parallelism for image jobs.
const DefaultWorkers = 3

// Job is one scheduled unit of work: a single image step's prompt, identified
// by its position in the beat list. Jobs exist only for the duration of one
// scheduler run.
type Job struct {
	Beat   int
	Step   int
	Prompt string
}

// jobResult carries a finished job and its payload back to the collector.
type jobResult struct {
	job  Job
	data string
}

// Scheduler fans independent image jobs out across a bounded worker pool and
// fans the results back into the beat list.
type Scheduler struct {
	runner  *Runner
	workers int
	wrap    func(string) string
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithWorkers overrides the worker pool size.
func WithWorkers(n int) SchedulerOption {
	return func(s *Scheduler) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithPromptWrapper sets a function applied to each job's prompt before the
// outbound call, e.g. to add rendering style instructions. The prompt stored
// in the image step stays untouched.
func WithPromptWrapper(wrap func(string) string) SchedulerOption {
	return func(s *Scheduler) { s.wrap = wrap }
}

// NewScheduler creates a scheduler over the given runner.
func NewScheduler(runner *Runner, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{runner: runner, workers: DefaultWorkers}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fill runs one image job per non-empty prompt in beats and writes each
// resulting payload into the image step it was built from. Empty-prompt
// placeholders are skipped and remain empty, as do steps whose jobs fail
// permanently. Completion order is unconstrained; results are merged as they
// arrive by a single collector that owns all writes into beats. Fill blocks
// until every submitted job has reached a terminal outcome and returns the
// number of steps filled.
func (s *Scheduler) Fill(ctx context.Context, beats []types.Beat) int {
	var jobs []Job
	for bi := range beats {
		for si := range beats[bi].ImageSteps {
			if prompt := beats[bi].ImageSteps[si].Prompt; prompt != "" {
				jobs = append(jobs, Job{Beat: bi, Step: si, Prompt: prompt})
			}
		}
	}
	if len(jobs) == 0 {
		return 0
	}

	pending := make(chan Job)
	results := make(chan jobResult)

	var g errgroup.Group
	for i := 0; i < s.workers; i++ {
		g.Go(func() error {
			for job := range pending {
				prompt := job.Prompt
				if s.wrap != nil {
					prompt = s.wrap(prompt)
				}
				results <- jobResult{job: job, data: s.runner.Run(ctx, prompt)}
			}
			return nil
		})
	}

	go func() {
		for _, job := range jobs {
			pending <- job
		}
		close(pending)
		_ = g.Wait()
		close(results)
	}()

	// The calling goroutine is the only writer into beats; workers hand
	// results over the channel instead of touching shared memory.
	filled := 0
	for res := range results {
		if res.data != "" {
			beats[res.job.Beat].ImageSteps[res.job.Step].ImageData = res.data
			filled++
		}
	}
	return filled
}
