package engine

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/doerun/internal/artifact"
	"github.com/roach88/doerun/internal/doe"
	"github.com/roach88/doerun/internal/table"
	"github.com/roach88/doerun/internal/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func weatherGenerator(t *testing.T) *Generator {
	t.Helper()

	fx := testutil.NewWeatherFixture(t)
	factors, err := table.LoadFactors(fx.FactorsPath, nil)
	require.NoError(t, err)
	seeds, err := table.LoadSeeds(fx.SeedsPath, nil)
	require.NoError(t, err)

	out := filepath.Join(fx.Dir, "cluster_runs")
	require.NoError(t, os.MkdirAll(out, 0755))

	return &Generator{
		Factors:            factors,
		Seeds:              seeds,
		RunsPerCombination: 2,
		OutputDir:          out,
		Header:             artifact.DefaultHeader(),
		IDs:                testutil.NewFixedBatchIDGenerator("batch-1"),
		Logger:             quietLogger(),
	}
}

func readArtifacts(t *testing.T, dir string) map[string][]byte {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	files := make(map[string][]byte, len(entries))
	for _, e := range entries {
		content, err := os.ReadFile(filepath.Join(dir, e.Name()))
		require.NoError(t, err)
		files[e.Name()] = content
	}
	return files
}

func TestGenerate_WeatherExample(t *testing.T) {
	g := weatherGenerator(t)

	result, err := g.Generate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "batch-1", result.BatchID)
	assert.Len(t, result.Combinations, 2)
	require.Len(t, result.Runs, 4)
	assert.Equal(t, 4, result.Written())
	assert.Empty(t, result.Failed())

	files := readArtifacts(t, g.OutputDir)
	assert.Len(t, files, 4)
	for _, name := range []string{"run_1.txt", "run_2.txt", "run_3.txt", "run_4.txt"} {
		assert.Contains(t, files, name)
	}

	// run_1 and run_3 are both repetition 0.
	assert.Contains(t, string(files["run_1.txt"]), "random_seed 111\n")
	assert.Contains(t, string(files["run_3.txt"]), "random_seed 111\n")
	assert.Contains(t, string(files["run_2.txt"]), "random_seed 222\n")
	assert.Contains(t, string(files["run_4.txt"]), "random_seed 222\n")

	assert.Contains(t, string(files["run_1.txt"]), "$define EXCURSION A\n")
	assert.Contains(t, string(files["run_3.txt"]), "$define EXCURSION B\n")
	assert.Contains(t, string(files["run_4.txt"]), "$define unique_id 4\n")

	// Same seed, same factor order: identical sampled values across combinations.
	assert.Equal(t, result.Runs[0].Run.Factors, result.Runs[2].Run.Factors)
	assert.Equal(t, result.Runs[1].Run.Factors, result.Runs[3].Run.Factors)

	for _, r := range result.Runs {
		assert.Equal(t, doe.ArtifactDigest(files[filepath.Base(r.Path)]), r.Digest)
	}
}

func TestGenerate_CountAndDenseRunNumbers(t *testing.T) {
	tests := []struct {
		name       string
		excursions []string
		vignettes  []string
		runs       int
	}{
		{"1x1x1", []string{"A"}, []string{"1"}, 1},
		{"2x3x4", []string{"A", "B"}, []string{"1", "2", "3"}, 4},
		{"3x1x10", []string{"A", "B", "C"}, []string{"1"}, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := t.TempDir()
			g := &Generator{
				Factors: &doe.FactorTable{
					Factors:    []doe.FactorDefinition{{Label: "F", Candidates: []string{"x", "y"}}},
					Excursions: tt.excursions,
					Vignettes:  tt.vignettes,
				},
				Seeds:              doe.SeedTable{"1", "2", "3"},
				RunsPerCombination: tt.runs,
				OutputDir:          out,
				Header:             artifact.DefaultHeader(),
				IDs:                testutil.NewFixedBatchIDGenerator(""),
				Logger:             quietLogger(),
			}

			result, err := g.Generate(context.Background())
			require.NoError(t, err)

			want := len(tt.excursions) * len(tt.vignettes) * tt.runs
			assert.Len(t, result.Runs, want)
			assert.Len(t, readArtifacts(t, out), want)

			for i, r := range result.Runs {
				assert.Equal(t, i+1, r.Run.RunNumber, "run numbers are dense and ordered")
				assert.Equal(t, filepath.Join(out, doe.ArtifactName(i+1)), r.Path)
			}
		})
	}
}

func TestGenerate_Idempotent(t *testing.T) {
	g := weatherGenerator(t)

	_, err := g.Generate(context.Background())
	require.NoError(t, err)
	first := readArtifacts(t, g.OutputDir)

	second := t.TempDir()
	g.OutputDir = second
	_, err = g.Generate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, readArtifacts(t, second))
}

func TestGenerate_SeedSharedAcrossCombinations(t *testing.T) {
	g := &Generator{
		Factors: &doe.FactorTable{
			Factors: []doe.FactorDefinition{
				{Label: "Weather", Candidates: []string{"Clear", "Storm", "Fog", "Rain"}},
				{Label: "Tanker", Candidates: []string{"KC46", "KC135", "KC10"}},
			},
			Excursions: []string{"A", "B", "C"},
			Vignettes:  []string{"1", "2"},
		},
		Seeds:              doe.SeedTable{"10", "20", "30"},
		RunsPerCombination: 5,
		OutputDir:          t.TempDir(),
		Header:             artifact.DefaultHeader(),
		Logger:             quietLogger(),
	}

	_, runs, err := g.Plan()
	require.NoError(t, err)

	byRepetition := make(map[int]doe.RunInstance)
	for _, run := range runs {
		want, ok := byRepetition[run.Repetition]
		if !ok {
			byRepetition[run.Repetition] = run
			continue
		}
		assert.Equal(t, want.Seed, run.Seed)
		assert.Equal(t, want.Factors, run.Factors)
	}

	// Seeds cycle: repetition 3 reuses the first seed.
	assert.Equal(t, "10", byRepetition[3].Seed)
	assert.Equal(t, "20", byRepetition[4].Seed)
}

func TestPlan_VignetteReorder(t *testing.T) {
	base := &Generator{
		Factors: &doe.FactorTable{
			Factors:    []doe.FactorDefinition{{Label: "Weather", Candidates: []string{"Clear", "Storm", "Fog"}}},
			Excursions: []string{"A"},
			Vignettes:  []string{"1", "2"},
		},
		Seeds:              doe.SeedTable{"5", "6"},
		RunsPerCombination: 2,
	}
	_, before, err := base.Plan()
	require.NoError(t, err)

	reordered := *base
	factors := *base.Factors
	factors.Vignettes = []string{"2", "1"}
	reordered.Factors = &factors
	_, after, err := reordered.Plan()
	require.NoError(t, err)

	find := func(runs []doe.RunInstance, vignette string, repetition int) doe.RunInstance {
		for _, r := range runs {
			if r.Vignette == vignette && r.Repetition == repetition {
				return r
			}
		}
		t.Fatalf("no run for vignette %s repetition %d", vignette, repetition)
		return doe.RunInstance{}
	}

	for _, v := range []string{"1", "2"} {
		for rep := 0; rep < 2; rep++ {
			b, a := find(before, v, rep), find(after, v, rep)
			assert.NotEqual(t, b.RunNumber, a.RunNumber, "run number moves with the vignette")
			assert.Equal(t, b.Seed, a.Seed)
			assert.Equal(t, b.Factors, a.Factors, "sampled values depend only on seed and factor order")
		}
	}
}

func TestGenerate_EmptyExcursionsWritesNothing(t *testing.T) {
	out := t.TempDir()
	g := &Generator{
		Factors: &doe.FactorTable{
			Factors:   []doe.FactorDefinition{{Label: "Weather", Candidates: []string{"Clear"}}},
			Vignettes: []string{"1"},
		},
		Seeds:              doe.SeedTable{"1"},
		RunsPerCombination: 3,
		OutputDir:          out,
		Logger:             quietLogger(),
	}

	result, err := g.Generate(context.Background())
	require.Error(t, err)
	assert.True(t, doe.IsEmptySpace(err))
	assert.Nil(t, result)
	assert.Empty(t, readArtifacts(t, out))
}

func TestGenerate_EmptyFactorPlaceholder(t *testing.T) {
	out := t.TempDir()
	g := &Generator{
		Factors: &doe.FactorTable{
			Factors: []doe.FactorDefinition{
				{Label: "Jammer"},
				{Label: "Weather", Candidates: []string{"Clear", "Storm"}},
			},
			Excursions: []string{"A", "B"},
			Vignettes:  []string{"1"},
		},
		Seeds:              doe.SeedTable{"1", "2", "3"},
		RunsPerCombination: 3,
		OutputDir:          out,
		Header:             artifact.DefaultHeader(),
		Logger:             quietLogger(),
	}

	result, err := g.Generate(context.Background())
	require.NoError(t, err)

	for name, content := range readArtifacts(t, out) {
		assert.Contains(t, string(content), "$define Jammer N/A\n", name)
		assert.NotContains(t, string(content), "$define Jammer \n", name)
	}
	for _, r := range result.Runs {
		v, ok := r.Run.Value("Jammer")
		assert.True(t, ok)
		assert.Equal(t, doe.Placeholder, v)
	}
}

func TestGenerate_WriteFailureContinues(t *testing.T) {
	g := weatherGenerator(t)

	// A directory squatting on run_2.txt makes that single write fail.
	require.NoError(t, os.Mkdir(filepath.Join(g.OutputDir, "run_2.txt"), 0755))

	var logs bytes.Buffer
	g.Logger = slog.New(slog.NewTextHandler(&logs, nil))

	result, err := g.Generate(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Runs, 4)
	assert.Equal(t, 3, result.Written())

	failed := result.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, 2, failed[0].Run.RunNumber)
	assert.True(t, doe.IsWriteFailed(failed[0].Err))

	assert.NotContains(t, result.Paths(), filepath.Join(g.OutputDir, "run_2.txt"))
	assert.Len(t, result.Paths(), 3)
	assert.Contains(t, logs.String(), "artifact write failed")

	files := readArtifacts(t, g.OutputDir)
	assert.Contains(t, files, "run_3.txt")
	assert.Contains(t, files, "run_4.txt")
}

func TestGenerate_Preconditions(t *testing.T) {
	valid := func() *Generator {
		return &Generator{
			Factors:            &doe.FactorTable{Excursions: []string{"A"}, Vignettes: []string{"1"}},
			Seeds:              doe.SeedTable{"1"},
			RunsPerCombination: 1,
			OutputDir:          t.TempDir(),
			Logger:             quietLogger(),
		}
	}

	t.Run("nil factors", func(t *testing.T) {
		g := valid()
		g.Factors = nil
		_, err := g.Generate(context.Background())
		assert.True(t, doe.IsMalformedInput(err))
	})

	t.Run("empty seeds", func(t *testing.T) {
		g := valid()
		g.Seeds = nil
		_, err := g.Generate(context.Background())
		assert.True(t, doe.IsMalformedInput(err))
	})

	t.Run("zero runs", func(t *testing.T) {
		g := valid()
		g.RunsPerCombination = 0
		_, err := g.Generate(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least 1")
		assert.Empty(t, readArtifacts(t, g.OutputDir))
	})
}

func TestGenerate_DefaultBatchIDIsUUID(t *testing.T) {
	g := weatherGenerator(t)
	g.IDs = nil

	result, err := g.Generate(context.Background())
	require.NoError(t, err)
	assert.Len(t, result.BatchID, 36)
}

func TestGenerate_Cancelled(t *testing.T) {
	g := weatherGenerator(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Generate(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
