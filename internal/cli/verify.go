package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/doerun/internal/config"
	"github.com/roach88/doerun/internal/engine"
	"github.com/roach88/doerun/internal/manifest"
	"github.com/roach88/doerun/internal/table"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	inputs inputFlags
}

// VerifyResult is the command output for verify.
type VerifyResult struct {
	BatchID    string              `json:"batch_id"`
	OutputDir  string              `json:"output_dir"`
	Runs       int                 `json:"runs"`
	Match      bool                `json:"match"`
	Mismatches []manifest.Mismatch `json:"mismatches,omitempty"`
}

func (r *VerifyResult) String() string {
	if r.Match {
		return fmt.Sprintf("✓ %d run file(s) in %s match their inputs", r.Runs, r.OutputDir)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "✗ %d mismatch(es) in %s", len(r.Mismatches), r.OutputDir)
	for _, m := range r.Mismatches {
		if m.Artifact == "" {
			fmt.Fprintf(&b, "\n  - %s", m.Reason)
			continue
		}
		fmt.Fprintf(&b, "\n  - %s: %s", m.Artifact, m.Reason)
	}
	return b.String()
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that run files on disk match what the inputs produce",
		Long: `Regenerate every run in memory from the factor and seed tables and compare
it byte for byte with the manifest and the run files in the output directory.
Inputs and run count default to those recorded in the manifest; --factors,
--seeds and --runs override them. Nothing is written.

Exit codes:
  0  every run file matches
  1  at least one run file is missing or differs
  2  inputs or manifest could not be read`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, cmd)
		},
	}

	opts.inputs.register(cmd)

	return cmd
}

func runVerify(opts *VerifyOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := loadConfig(opts.RootOptions, func(c *config.Config) {
		opts.inputs.apply(cmd, c)
	})
	if err != nil {
		return commandError(formatter, ErrCodeConfig, err)
	}
	logger := newLogger(opts.RootOptions, cfg)

	m, err := manifest.Read(cfg.OutputDir)
	if err != nil {
		return commandError(formatter, ErrCodeNotFound, err)
	}

	applyManifestInputs(cmd, cfg, m)

	factors, err := table.LoadFactors(cfg.Factors, logger)
	if err != nil {
		return fatal(formatter, err)
	}
	seeds, err := table.LoadSeeds(cfg.Seeds, logger)
	if err != nil {
		return fatal(formatter, err)
	}

	g := &engine.Generator{
		Factors:            factors,
		Seeds:              seeds,
		RunsPerCombination: cfg.RunsPerCombination,
		Header:             m.Header,
		Logger:             logger,
	}
	_, runs, err := g.Plan()
	if err != nil {
		return fatal(formatter, err)
	}
	formatter.VerboseLog("Regenerated %d run(s) for batch %s", len(runs), m.BatchID)

	result := &VerifyResult{
		BatchID:    m.BatchID,
		OutputDir:  cfg.OutputDir,
		Runs:       len(runs),
		Mismatches: manifest.Verify(cfg.OutputDir, m, runs),
	}
	result.Match = len(result.Mismatches) == 0

	if !result.Match {
		msg := fmt.Sprintf("%d mismatch(es) found", len(result.Mismatches))
		logger.Warn("verification failed", "batch", m.BatchID, "mismatches", len(result.Mismatches))
		_ = formatter.Partial(ErrCodeVerifyMismatch, msg, result)
		return NewExitError(ExitFailure, msg)
	}
	logger.Info("verification passed", "batch", m.BatchID, "runs", len(runs))
	return formatter.Success(result)
}

// applyManifestInputs points cfg at the inputs and run count the batch was
// generated with. Flags given on the command line still win.
func applyManifestInputs(cmd *cobra.Command, cfg *config.Config, m *manifest.Manifest) {
	if !cmd.Flags().Changed("factors") && m.FactorsSource != "" {
		cfg.Factors = m.FactorsSource
	}
	if !cmd.Flags().Changed("seeds") && m.SeedsSource != "" {
		cfg.Seeds = m.SeedsSource
	}
	if !cmd.Flags().Changed("runs") && m.RunsPerCombination > 0 {
		cfg.RunsPerCombination = m.RunsPerCombination
	}
}
