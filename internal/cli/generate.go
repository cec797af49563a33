package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/doerun/internal/config"
	"github.com/roach88/doerun/internal/engine"
	"github.com/roach88/doerun/internal/manifest"
	"github.com/roach88/doerun/internal/provision"
	"github.com/roach88/doerun/internal/table"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	inputs       inputFlags
	OutputRoot   string
	NoCategories bool

	// BatchIDs allows overriding the batch id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	BatchIDs engine.BatchIDGenerator
}

// GenerateSummary is the command output for generate and run.
type GenerateSummary struct {
	BatchID      string       `json:"batch_id"`
	Digest       string       `json:"digest"`
	OutputDir    string       `json:"output_dir"`
	Manifest     string       `json:"manifest"`
	Combinations int          `json:"combinations"`
	Runs         int          `json:"runs"`
	Written      int          `json:"written"`
	Failures     []RunFailure `json:"failures,omitempty"`
}

// RunFailure is one run that could not be written or dispatched.
type RunFailure struct {
	RunNumber int    `json:"run_number"`
	Path      string `json:"path"`
	Error     string `json:"error"`
}

func (s *GenerateSummary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generated %d of %d run file(s) in %s\n", s.Written, s.Runs, s.OutputDir)
	fmt.Fprintf(&b, "  batch:        %s\n", s.BatchID)
	fmt.Fprintf(&b, "  combinations: %d\n", s.Combinations)
	fmt.Fprintf(&b, "  manifest:     %s", s.Manifest)
	for _, f := range s.Failures {
		fmt.Fprintf(&b, "\n  ✗ run %d: %s", f.RunNumber, f.Error)
	}
	return b.String()
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	return newGenerateCommand(&GenerateOptions{RootOptions: rootOpts})
}

func newGenerateCommand(opts *GenerateOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write one run file per excursion, vignette and repetition",
		Long: `Expand the excursion x vignette space from the factor table, sample every
factor once per run from a generator seeded by the run's seed, and write
run_<N>.txt files plus manifest.yaml into the output directory.

Example:
  doerun generate --factors doe.csv --seeds random_seeds.csv --runs 10
  doerun generate -c doerun.cue --output cluster_runs --no-categories`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, cmd)
		},
	}

	opts.inputs.register(cmd)
	registerProvisionFlags(cmd, &opts.OutputRoot, &opts.NoCategories)

	return cmd
}

func registerProvisionFlags(cmd *cobra.Command, root *string, noCategories *bool) {
	cmd.Flags().StringVar(root, "output-root", "", "base of the category tree (default: home directory)")
	cmd.Flags().BoolVar(noCategories, "no-categories", false, "skip creating the category tree")
}

func applyProvisionFlags(cmd *cobra.Command, cfg *config.Config, root string, noCategories bool) {
	if cmd.Flags().Changed("output-root") {
		cfg.OutputRoot = root
	}
	if noCategories {
		cfg.ProvisionCategories = false
	}
}

func runGenerate(opts *GenerateOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	cfg, err := loadConfig(opts.RootOptions, func(c *config.Config) {
		opts.inputs.apply(cmd, c)
		applyProvisionFlags(cmd, c, opts.OutputRoot, opts.NoCategories)
	})
	if err != nil {
		return commandError(formatter, ErrCodeConfig, err)
	}
	logger := newLogger(opts.RootOptions, cfg)

	ctx, cancel := signalContext(cmd)
	defer cancel()

	summary, _, err := generateBatch(ctx, cfg, opts.BatchIDs, logger)
	if err != nil {
		return fatal(formatter, err)
	}

	if len(summary.Failures) > 0 {
		msg := fmt.Sprintf("%d run file(s) could not be written", len(summary.Failures))
		_ = formatter.Partial(ErrCodeWriteFailed, msg, summary)
		return NewExitError(ExitFailure, msg)
	}
	return formatter.Success(summary)
}

// generateBatch loads the tables, provisions the output tree, and writes
// every artifact and the manifest. Per-run write failures are reported in the
// summary; any other error aborts before the batch is written.
func generateBatch(ctx context.Context, cfg *config.Config, ids engine.BatchIDGenerator, logger *slog.Logger) (*GenerateSummary, *engine.BatchResult, error) {
	factors, err := table.LoadFactors(cfg.Factors, logger)
	if err != nil {
		return nil, nil, err
	}
	seeds, err := table.LoadSeeds(cfg.Seeds, logger)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("inputs loaded",
		"factors", len(factors.Factors),
		"excursions", len(factors.Excursions),
		"vignettes", len(factors.Vignettes),
		"seeds", len(seeds))

	p := &provision.Provisioner{RunDir: cfg.OutputDir, Logger: logger}
	if cfg.ProvisionCategories {
		root := cfg.OutputRoot
		if root == "" {
			home, err := provision.DefaultRoot()
			if err != nil {
				return nil, nil, err
			}
			root = home
		}
		p.Root = root
		p.Layout = provision.DefaultLayout()
	}
	if _, err := p.Ensure(); err != nil {
		return nil, nil, err
	}

	g := &engine.Generator{
		Factors:            factors,
		Seeds:              seeds,
		RunsPerCombination: cfg.RunsPerCombination,
		OutputDir:          cfg.OutputDir,
		Header:             cfg.Header,
		IDs:                ids,
		Logger:             logger,
	}
	result, err := g.Generate(ctx)
	if err != nil {
		return nil, nil, err
	}

	m := manifest.FromBatch(result, g, manifest.Sources{Factors: cfg.Factors, Seeds: cfg.Seeds})
	path, err := manifest.Write(cfg.OutputDir, m)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("batch complete", "batch", result.BatchID, "written", result.Written(), "failed", len(result.Failed()), "manifest", path)

	summary := &GenerateSummary{
		BatchID:      result.BatchID,
		Digest:       result.Digest,
		OutputDir:    cfg.OutputDir,
		Manifest:     path,
		Combinations: len(result.Combinations),
		Runs:         len(result.Runs),
		Written:      result.Written(),
	}
	for _, r := range result.Failed() {
		summary.Failures = append(summary.Failures, RunFailure{RunNumber: r.Run.RunNumber, Path: r.Path, Error: r.Err.Error()})
	}
	return summary, result, nil
}
