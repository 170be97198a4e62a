package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/ruipin/flac-batch-reencode/internal/flac"
)

// Encoder re-encodes a single file. Implemented by flac.Encoder.
type Encoder interface {
	Encode(ctx context.Context, path string) error
}

// StartFunc is notified when a worker picks up a job and is about to start
// its subprocess. seq counts dispatches starting at 1; total is the size of
// the candidate list. Called concurrently from worker goroutines.
type StartFunc func(seq, total int, path string)

// Scheduler dispatches encode jobs across at most parallel concurrent
// workers. Each worker owns one in-flight subprocess at a time, so the
// worker count is also the subprocess bound.
type Scheduler struct {
	encoder  Encoder
	parallel int
	onStart  StartFunc
}

// NewScheduler creates a scheduler running up to parallel jobs at once.
func NewScheduler(encoder Encoder, parallel int) *Scheduler {
	return &Scheduler{
		encoder:  encoder,
		parallel: parallel,
	}
}

// OnStart registers a dispatch notification callback.
func (s *Scheduler) OnStart(fn StartFunc) {
	s.onStart = fn
}

// Run drains the candidate list and returns the aggregated summary. Workers
// pull the next candidate as soon as a slot frees; individual job failures
// are recorded and never abort the run. Only two things return an error:
// invalid parallelism (before any dispatch) and an integrity violation
// (a failed encode that modified its original), which cancels the rest of
// the run. When ctx is cancelled, in-flight jobs are killed and recorded as
// failures and undispatched candidates are dropped.
func (s *Scheduler) Run(ctx context.Context, files []string) (Summary, error) {
	var summary Summary

	if s.parallel < 1 {
		return summary, badParallelismError(s.parallel)
	}
	if len(files) == 0 {
		return summary, nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	work := make(chan *Job)
	results := make(chan Outcome)

	// Feeder: stops handing out candidates once the run is cancelled.
	go func() {
		defer close(work)
		for _, path := range files {
			job := &Job{Path: path, Status: StatusPending}
			select {
			case work <- job:
			case <-runCtx.Done():
				return
			}
		}
	}()

	var (
		wg         sync.WaitGroup
		dispatched atomic.Int64
		fatalOnce  sync.Once
		fatal      error
	)

	total := len(files)
	for i := 0; i < s.parallel; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range work {
				select {
				case <-runCtx.Done():
					// Run cancelled; drop without starting a subprocess.
					continue
				default:
				}

				seq := int(dispatched.Add(1))
				job.Status = StatusRunning
				if s.onStart != nil {
					s.onStart(seq, total, job.Path)
				}

				err := s.encoder.Encode(runCtx, job.Path)
				results <- s.outcome(job, err, cancel, &fatalOnce, &fatal)
			}
		}()
	}

	// Single consumer: all aggregation happens here, so Summary needs no
	// locking no matter how many jobs finish at once.
	go func() {
		wg.Wait()
		close(results)
	}()

	for out := range results {
		summary.Record(out)
	}

	// fatal is written before cancel() and read after wg.Wait via the
	// closed results channel, so this read is ordered.
	if fatal != nil {
		return summary, fatal
	}
	return summary, nil
}

// outcome maps an encode error to the job's terminal state and outcome.
func (s *Scheduler) outcome(job *Job, err error, cancel context.CancelFunc, fatalOnce *sync.Once, fatal *error) Outcome {
	out := Outcome{Path: job.Path}

	if err == nil {
		job.Status = StatusSuccess
		out.Kind = KindSuccess
		return out
	}

	job.Status = StatusFailure
	out.Kind = KindFailure
	out.Detail = err.Error()

	var integrityErr *flac.IntegrityError
	if errors.As(err, &integrityErr) {
		// Safety guarantee broken: finish in-flight work, dispatch nothing
		// further, surface the violation from Run.
		fatalOnce.Do(func() {
			*fatal = err
			cancel()
		})
		return out
	}

	var encErr *flac.EncodeError
	if errors.As(err, &encErr) {
		out.ExitCode = encErr.ExitCode
		out.Detail = encErr.Output
		if out.Detail == "" {
			out.Detail = err.Error()
		}
	}

	return out
}
