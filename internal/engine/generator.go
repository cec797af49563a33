package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/doerun/internal/artifact"
	"github.com/roach88/doerun/internal/doe"
)

// Generator materializes a DOE batch into configuration artifacts.
type Generator struct {
	// Factors is the loaded factor table. Immutable for the batch.
	Factors *doe.FactorTable

	// Seeds is the loaded seed table. Immutable for the batch.
	Seeds doe.SeedTable

	// RunsPerCombination is the number of repetitions per combination (R).
	RunsPerCombination int

	// OutputDir receives run_<N>.txt files. It must already exist.
	OutputDir string

	// Header is the fixed artifact boilerplate.
	Header artifact.Header

	// IDs generates the batch id. Defaults to UUIDv7Generator.
	IDs BatchIDGenerator

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// RunResult is the outcome of materializing one run.
type RunResult struct {
	Run    doe.RunInstance
	Path   string
	Digest string
	Err    error
}

// BatchResult summarizes a generated batch.
type BatchResult struct {
	BatchID      string
	Digest       string
	Combinations []doe.RunCombination
	Runs         []RunResult
}

// Written returns the number of artifacts written successfully.
func (b *BatchResult) Written() int {
	n := 0
	for _, r := range b.Runs {
		if r.Err == nil {
			n++
		}
	}
	return n
}

// Failed returns the runs whose artifact could not be written.
func (b *BatchResult) Failed() []RunResult {
	var failed []RunResult
	for _, r := range b.Runs {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}

// Paths returns the artifact paths of successfully written runs, in run order.
func (b *BatchResult) Paths() []string {
	paths := make([]string, 0, len(b.Runs))
	for _, r := range b.Runs {
		if r.Err == nil {
			paths = append(paths, r.Path)
		}
	}
	return paths
}

func (g *Generator) logger() *slog.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return slog.Default()
}

// validate checks every batch-level precondition.
func (g *Generator) validate() error {
	if g.Factors == nil {
		return doe.NewMalformedInputError("", "factor table not loaded", nil)
	}
	if len(g.Seeds) == 0 {
		return doe.NewMalformedInputError("", "seed table is empty", nil)
	}
	if g.RunsPerCombination < 1 {
		return fmt.Errorf("runs per combination must be at least 1, got %d", g.RunsPerCombination)
	}
	return nil
}

// Instance derives the RunInstance for one (combination, repetition) pair.
// The result is a pure function of its inputs and the loaded tables.
func (g *Generator) Instance(c doe.RunCombination, repetition int) (doe.RunInstance, error) {
	seed, err := g.Seeds.Select(repetition)
	if err != nil {
		return doe.RunInstance{}, err
	}

	return doe.RunInstance{
		RunNumber:   doe.RunNumber(c.Index, repetition, g.RunsPerCombination),
		Combination: c.Index,
		Repetition:  repetition,
		Seed:        seed,
		Factors:     SampleSeed(seed, g.Factors.Factors),
		Excursion:   c.Excursion,
		Vignette:    c.Vignette,
	}, nil
}

// Plan expands the experiment space and derives every RunInstance in run
// number order without touching the filesystem.
func (g *Generator) Plan() ([]doe.RunCombination, []doe.RunInstance, error) {
	if err := g.validate(); err != nil {
		return nil, nil, err
	}

	combos, err := Expand(g.Factors.Excursions, g.Factors.Vignettes)
	if err != nil {
		return nil, nil, err
	}

	runs := make([]doe.RunInstance, 0, len(combos)*g.RunsPerCombination)
	for _, c := range combos {
		for r := 0; r < g.RunsPerCombination; r++ {
			run, err := g.Instance(c, r)
			if err != nil {
				return nil, nil, err
			}
			runs = append(runs, run)
		}
	}
	return combos, runs, nil
}

// Generate plans the batch and writes one artifact per run.
//
// Fatal errors (MALFORMED_INPUT, EMPTY_SPACE, invalid run count) are returned
// before any file is written. Per-run WRITE_FAILED errors are logged and
// recorded on the run's result; the batch continues.
func (g *Generator) Generate(ctx context.Context) (*BatchResult, error) {
	log := g.logger()

	combos, runs, err := g.Plan()
	if err != nil {
		return nil, err
	}

	digest, err := doe.BatchDigest(*g.Factors, g.Seeds, g.RunsPerCombination)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	ids := g.IDs
	if ids == nil {
		ids = UUIDv7Generator{}
	}

	result := &BatchResult{
		BatchID:      ids.Generate(),
		Digest:       digest,
		Combinations: combos,
		Runs:         make([]RunResult, 0, len(runs)),
	}

	log.Info("generating batch",
		"batch", result.BatchID,
		"combinations", len(combos),
		"runs_per_combination", g.RunsPerCombination,
		"runs", len(runs),
		"output_dir", g.OutputDir)

	for _, run := range runs {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		w, err := artifact.Write(g.OutputDir, g.Header, run)
		if err != nil {
			log.Error("artifact write failed", "run", run.RunNumber, "path", w.Path, "error", err)
		} else {
			log.Debug("artifact written", "run", run.RunNumber, "seed", run.Seed, "path", w.Path)
		}
		result.Runs = append(result.Runs, RunResult{
			Run:    run,
			Path:   w.Path,
			Digest: w.Digest,
			Err:    err,
		})
	}

	log.Info("batch generated", "batch", result.BatchID, "written", result.Written(), "failed", len(result.Failed()))
	return result, nil
}
