package dispatch

import (
	"context"
	"fmt"
	"strings"
)

// Strategy names accepted in configuration.
const (
	StrategyLocal = "local"
	StrategyQueue = "queue"
	StrategyNone  = "none"
)

// ValidStrategies lists the accepted strategy names.
var ValidStrategies = []string{StrategyLocal, StrategyQueue, StrategyNone}

// Job is one artifact to dispatch.
type Job struct {
	RunNumber int
	Path      string
	Seed      string
}

// JobName returns the queue job name for the run.
func (j Job) JobName() string {
	return fmt.Sprintf("run_%d", j.RunNumber)
}

// Strategy invokes the simulator for a single artifact.
type Strategy interface {
	Name() string
	Dispatch(ctx context.Context, job Job) error
}

// Local runs the simulator directly and waits for it to exit.
type Local struct {
	Simulator string
	Runner    Runner
}

// Name implements Strategy.
func (l *Local) Name() string { return StrategyLocal }

// Dispatch runs "<simulator> <artifact>".
func (l *Local) Dispatch(ctx context.Context, job Job) error {
	return l.Runner.Run(ctx, l.Simulator, job.Path)
}

// Queue submits one job per artifact to a batch queue.
type Queue struct {
	// Submitter is the submission command (e.g. "bsub").
	Submitter string

	// Queue is the target queue name.
	Queue string

	// Simulator is the simulator path as seen from the cluster nodes.
	Simulator string

	Runner Runner
}

// Name implements Strategy.
func (q *Queue) Name() string { return StrategyQueue }

// Command returns the submission command line for a job:
// <submitter> -q <queue> -J <job name> <simulator> <artifact>
func (q *Queue) Command(job Job) []string {
	return []string{q.Submitter, "-q", q.Queue, "-J", job.JobName(), q.Simulator, job.Path}
}

// Dispatch submits the job. Returns once the submitter exits.
func (q *Queue) Dispatch(ctx context.Context, job Job) error {
	argv := q.Command(job)
	return q.Runner.Run(ctx, argv[0], argv[1:]...)
}

// None dispatches nothing.
type None struct{}

// Name implements Strategy.
func (None) Name() string { return StrategyNone }

// Dispatch is a no-op.
func (None) Dispatch(context.Context, Job) error { return nil }

// Options configures strategy construction.
type Options struct {
	Simulator string
	Submitter string
	Queue     string
	Runner    Runner
}

// New builds the named strategy.
func New(name string, opts Options) (Strategy, error) {
	runner := opts.Runner
	if runner == nil {
		runner = ExecRunner{}
	}

	switch name {
	case StrategyLocal:
		if opts.Simulator == "" {
			return nil, fmt.Errorf("local dispatch requires a simulator path")
		}
		return &Local{Simulator: opts.Simulator, Runner: runner}, nil
	case StrategyQueue:
		if opts.Simulator == "" {
			return nil, fmt.Errorf("queue dispatch requires a simulator path")
		}
		if opts.Submitter == "" || opts.Queue == "" {
			return nil, fmt.Errorf("queue dispatch requires a submitter and a queue name")
		}
		return &Queue{Submitter: opts.Submitter, Queue: opts.Queue, Simulator: opts.Simulator, Runner: runner}, nil
	case StrategyNone, "":
		return None{}, nil
	default:
		return nil, fmt.Errorf("unknown dispatch strategy %q: must be one of %s", name, strings.Join(ValidStrategies, ", "))
	}
}
