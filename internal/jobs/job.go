// Package jobs runs encode jobs across a bounded pool of workers and
// aggregates their outcomes into a run summary.
package jobs

// Status represents the current state of a job
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Job tracks one candidate file through the pool. A job is created Pending
// when enqueued, becomes Running when a worker picks it up and the
// subprocess starts, and ends in exactly one terminal state. Skipping
// happens upstream of the pool, so no Skipped state exists here.
type Job struct {
	Path   string
	Status Status
}

// IsTerminal returns true if the job is in a terminal state
func (j *Job) IsTerminal() bool {
	return j.Status == StatusSuccess || j.Status == StatusFailure
}

// Kind tags an Outcome.
type Kind string

const (
	KindSuccess Kind = "success"
	KindFailure Kind = "failure"
	KindSkipped Kind = "skipped"
)

// Outcome is the terminal result for one candidate file. Exactly one is
// produced per file that enters the run.
type Outcome struct {
	Path     string
	Kind     Kind
	ExitCode int    // set for failures caused by a non-zero encoder exit
	Detail   string // failure reason or skip reason
}

// Failure is one failed file in the summary.
type Failure struct {
	Path     string
	ExitCode int
	Detail   string
}

// Summary aggregates outcome counts for a whole run. It is owned by the
// scheduler's collector and mutated from that single goroutine only;
// once Run returns it is read-only.
type Summary struct {
	Succeeded int
	Failed    int
	Skipped   int
	Failures  []Failure
}

// Record folds one outcome into the summary.
func (s *Summary) Record(o Outcome) {
	switch o.Kind {
	case KindSuccess:
		s.Succeeded++
	case KindFailure:
		s.Failed++
		s.Failures = append(s.Failures, Failure{
			Path:     o.Path,
			ExitCode: o.ExitCode,
			Detail:   o.Detail,
		})
	case KindSkipped:
		s.Skipped++
	}
}

// Merge folds another summary into this one. Used to combine the skip
// decisions made before scheduling with the scheduler's own summary.
func (s *Summary) Merge(o Summary) {
	s.Succeeded += o.Succeeded
	s.Failed += o.Failed
	s.Skipped += o.Skipped
	s.Failures = append(s.Failures, o.Failures...)
}

// Total is the number of outcomes recorded.
func (s *Summary) Total() int {
	return s.Succeeded + s.Failed + s.Skipped
}

// OK reports whether the run had zero failures.
func (s *Summary) OK() bool {
	return s.Failed == 0
}
