package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/doerun/internal/config"
	"github.com/roach88/doerun/internal/dispatch"
	"github.com/roach88/doerun/internal/engine"
	"github.com/roach88/doerun/internal/manifest"
)

// DispatchOptions holds flags for the dispatch command.
type DispatchOptions struct {
	*RootOptions
	OutputDir string
	flags     dispatchFlags

	// Runner allows overriding process execution (for testing).
	// If nil, defaults to ExecRunner on the command's output streams.
	Runner dispatch.Runner
}

// DispatchSummary is the command output for dispatch.
type DispatchSummary struct {
	Strategy   string       `json:"strategy"`
	Runs       int          `json:"runs"`
	Dispatched int          `json:"dispatched"`
	Failures   []RunFailure `json:"failures,omitempty"`
}

func (s *DispatchSummary) String() string {
	var b strings.Builder
	if s.Strategy == dispatch.StrategyNone {
		fmt.Fprintf(&b, "Dispatch disabled; %d run file(s) left for manual submission", s.Runs)
	} else {
		fmt.Fprintf(&b, "Dispatched %d of %d run(s) via %s", s.Dispatched, s.Runs, s.Strategy)
	}
	for _, f := range s.Failures {
		fmt.Fprintf(&b, "\n  ✗ run %d: %s", f.RunNumber, f.Error)
	}
	return b.String()
}

// NewDispatchCommand creates the dispatch command.
func NewDispatchCommand(rootOpts *RootOptions) *cobra.Command {
	return newDispatchCommand(&DispatchOptions{RootOptions: rootOpts})
}

func newDispatchCommand(opts *DispatchOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dispatch",
		Short: "Hand previously generated run files to the simulator",
		Long: `Read manifest.yaml from the output directory and dispatch every written
run file, in run-number order, using the configured strategy.

Strategies:
  local  run "<simulator> <run file>" and wait for it to exit
  queue  submit "<submitter> -q <queue> -J run_<N> <simulator> <run file>" (fire-and-forget)
  none   do nothing

Example:
  doerun dispatch --strategy local --simulator /opt/sim/bin/mission
  doerun dispatch --strategy queue --simulator mission --queue qu`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDispatch(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.OutputDir, "output", "o", "", "run output directory (default from config)")
	opts.flags.register(cmd)

	return cmd
}

func runDispatch(opts *DispatchOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := loadConfig(opts.RootOptions, func(c *config.Config) {
		if cmd.Flags().Changed("output") {
			c.OutputDir = opts.OutputDir
		}
		opts.flags.apply(cmd, c)
	})
	if err != nil {
		return commandError(formatter, ErrCodeConfig, err)
	}
	logger := newLogger(opts.RootOptions, cfg)

	m, err := manifest.Read(cfg.OutputDir)
	if err != nil {
		return commandError(formatter, ErrCodeNotFound, err)
	}
	formatter.VerboseLog("Loaded manifest for batch %s (%d runs)", m.BatchID, len(m.Runs))

	ctx, cancel := signalContext(cmd)
	defer cancel()

	summary, err := dispatchJobs(ctx, cfg, defaultRunner(opts.Runner, opts.RootOptions, cmd), jobsFromManifest(cfg.OutputDir, m), logger)
	if err != nil {
		return commandError(formatter, ErrCodeGeneric, err)
	}
	return reportDispatch(formatter, summary)
}

// defaultRunner returns override, or an ExecRunner wired to the command's
// streams. Simulator output goes to stderr when stdout carries JSON.
func defaultRunner(override dispatch.Runner, opts *RootOptions, cmd *cobra.Command) dispatch.Runner {
	if override != nil {
		return override
	}
	stdout := cmd.OutOrStdout()
	if opts.Format == "json" {
		stdout = cmd.ErrOrStderr()
	}
	return dispatch.ExecRunner{Stdout: stdout, Stderr: cmd.ErrOrStderr()}
}

// jobsFromManifest lists the written runs of a manifest in run order.
func jobsFromManifest(dir string, m *manifest.Manifest) []dispatch.Job {
	written := m.Written()
	jobs := make([]dispatch.Job, 0, len(written))
	for _, e := range written {
		jobs = append(jobs, dispatch.Job{
			RunNumber: e.RunNumber,
			Path:      filepath.Join(dir, e.Artifact),
			Seed:      e.Seed,
		})
	}
	return jobs
}

// jobsFromBatch lists the written runs of a fresh generation result.
func jobsFromBatch(result *engine.BatchResult) []dispatch.Job {
	jobs := make([]dispatch.Job, 0, len(result.Runs))
	for _, r := range result.Runs {
		if r.Err != nil {
			continue
		}
		jobs = append(jobs, dispatch.Job{RunNumber: r.Run.RunNumber, Path: r.Path, Seed: r.Run.Seed})
	}
	return jobs
}

func dispatchJobs(ctx context.Context, cfg *config.Config, runner dispatch.Runner, jobs []dispatch.Job, logger *slog.Logger) (*DispatchSummary, error) {
	strategy, err := dispatch.New(cfg.Dispatch.Strategy, dispatch.Options{
		Simulator: cfg.Dispatch.Simulator,
		Submitter: cfg.Dispatch.Submitter,
		Queue:     cfg.Dispatch.Queue,
		Runner:    runner,
	})
	if err != nil {
		return nil, err
	}

	d := &dispatch.Dispatcher{Strategy: strategy, Logger: logger}
	report, err := d.DispatchAll(ctx, jobs)
	if err != nil {
		return nil, err
	}

	summary := &DispatchSummary{
		Strategy:   report.Strategy,
		Runs:       len(jobs),
		Dispatched: len(report.Outcomes) - len(report.Failed()),
	}
	for _, o := range report.Failed() {
		summary.Failures = append(summary.Failures, RunFailure{RunNumber: o.Job.RunNumber, Path: o.Job.Path, Error: o.Err.Error()})
	}
	return summary, nil
}

func reportDispatch(formatter *OutputFormatter, summary *DispatchSummary) error {
	if len(summary.Failures) > 0 {
		msg := fmt.Sprintf("%d run(s) failed to dispatch", len(summary.Failures))
		_ = formatter.Partial(ErrCodeDispatchFailed, msg, summary)
		return NewExitError(ExitFailure, msg)
	}
	return formatter.Success(summary)
}
