package dispatch

import (
	"context"
	"log/slog"
	"strings"

	"github.com/roach88/doerun/internal/doe"
)

// Outcome records the result of dispatching one job.
type Outcome struct {
	Job Job
	Err error
}

// Report summarizes a dispatch pass.
type Report struct {
	Strategy string
	Outcomes []Outcome
}

// Failed returns the outcomes that carry an error.
func (r *Report) Failed() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}

// Dispatcher runs a Strategy over a list of jobs, one at a time.
type Dispatcher struct {
	Strategy Strategy

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// DispatchAll invokes the strategy once per job, in order, blocking on each.
// A failing job is logged and recorded as DISPATCH_FAILED; the remaining
// jobs still run. The returned error is non-nil only if ctx is done, in
// which case the report covers the jobs attempted so far.
func (d *Dispatcher) DispatchAll(ctx context.Context, jobs []Job) (*Report, error) {
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}

	report := &Report{Strategy: d.Strategy.Name(), Outcomes: make([]Outcome, 0, len(jobs))}
	if _, ok := d.Strategy.(None); ok {
		log.Info("dispatch disabled, artifacts generated only", "runs", len(jobs))
		return report, nil
	}
	if q, ok := d.Strategy.(*Queue); ok {
		log.Warn("queue dispatch is fire-and-forget: no acknowledgement, retry, or job tracking",
			"queue", q.Queue, "runs", len(jobs))
	}

	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if q, ok := d.Strategy.(*Queue); ok {
			log.Info("scheduling", "run", job.RunNumber, "command", strings.Join(q.Command(job), " "))
		} else {
			log.Info("dispatching", "run", job.RunNumber, "strategy", report.Strategy, "path", job.Path)
		}

		outcome := Outcome{Job: job}
		if err := d.Strategy.Dispatch(ctx, job); err != nil {
			outcome.Err = doe.NewDispatchError(job.RunNumber, job.Path, err)
			log.Error("dispatch failed", "run", job.RunNumber, "path", job.Path, "error", err)
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}

	log.Info("dispatch complete", "strategy", report.Strategy, "runs", len(jobs), "failed", len(report.Failed()))
	return report, nil
}
