package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/doerun/internal/config"
	"github.com/roach88/doerun/internal/dispatch"
	"github.com/roach88/doerun/internal/engine"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	inputs       inputFlags
	flags        dispatchFlags
	OutputRoot   string
	NoCategories bool

	// BatchIDs allows overriding the batch id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	BatchIDs engine.BatchIDGenerator

	// Runner allows overriding process execution (for testing).
	Runner dispatch.Runner
}

// RunSummary is the command output for run.
type RunSummary struct {
	Generate *GenerateSummary `json:"generate"`
	Dispatch *DispatchSummary `json:"dispatch"`
}

func (s *RunSummary) String() string {
	return s.Generate.String() + "\n" + s.Dispatch.String()
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate run files and dispatch them",
		Long: `Generate the full batch, then dispatch every run file that was written.
Equivalent to "doerun generate" followed by "doerun dispatch".

Example:
  doerun run --runs 10 --strategy queue --simulator mission --queue qu`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(opts, cmd)
		},
	}

	opts.inputs.register(cmd)
	opts.flags.register(cmd)
	registerProvisionFlags(cmd, &opts.OutputRoot, &opts.NoCategories)

	return cmd
}

func runBatch(opts *RunOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := loadConfig(opts.RootOptions, func(c *config.Config) {
		opts.inputs.apply(cmd, c)
		opts.flags.apply(cmd, c)
		applyProvisionFlags(cmd, c, opts.OutputRoot, opts.NoCategories)
	})
	if err != nil {
		return commandError(formatter, ErrCodeConfig, err)
	}
	logger := newLogger(opts.RootOptions, cfg)

	ctx, cancel := signalContext(cmd)
	defer cancel()

	gen, result, err := generateBatch(ctx, cfg, opts.BatchIDs, logger)
	if err != nil {
		return fatal(formatter, err)
	}

	runner := defaultRunner(opts.Runner, opts.RootOptions, cmd)
	disp, err := dispatchJobs(ctx, cfg, runner, jobsFromBatch(result), logger)
	if err != nil {
		return commandError(formatter, ErrCodeGeneric, err)
	}

	summary := &RunSummary{Generate: gen, Dispatch: disp}
	failed := len(gen.Failures) + len(disp.Failures)
	if failed > 0 {
		code := ErrCodeDispatchFailed
		if len(gen.Failures) > 0 {
			code = ErrCodeWriteFailed
		}
		msg := fmt.Sprintf("%d run(s) failed", failed)
		_ = formatter.Partial(code, msg, summary)
		return NewExitError(ExitFailure, msg)
	}
	return formatter.Success(summary)
}
