package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e batchEnv) verifyArgs(runs string) []string {
	return []string{
		"--factors", e.FactorsPath,
		"--seeds", e.SeedsPath,
		"--output", e.OutputDir,
		"--runs", runs,
	}
}

func TestVerifyMatches(t *testing.T) {
	env := newBatchEnv(t)
	generateFixture(t, env)

	out, err := execute(t, NewVerifyCommand(&RootOptions{Format: "text"}), env.verifyArgs("2")...)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ 4 run file(s)")
}

func TestVerifyMatchesJSON(t *testing.T) {
	env := newBatchEnv(t)
	generateFixture(t, env)

	out, err := execute(t, NewVerifyCommand(&RootOptions{Format: "json"}), env.verifyArgs("2")...)
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   VerifyResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Match)
	assert.Equal(t, 4, resp.Data.Runs)
}

func TestVerifyDetectsTampering(t *testing.T) {
	env := newBatchEnv(t)
	generateFixture(t, env)
	require.NoError(t, os.WriteFile(filepath.Join(env.OutputDir, "run_3.txt"), []byte("edited\n"), 0644))

	out, err := execute(t, NewVerifyCommand(&RootOptions{Format: "text"}), env.verifyArgs("2")...)
	require.Error(t, err)

	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "run_3.txt: artifact on disk differs from regenerated artifact")
	assert.Contains(t, out, "Error [E009]")
}

func TestVerifyDetectsMissingFile(t *testing.T) {
	env := newBatchEnv(t)
	generateFixture(t, env)
	require.NoError(t, os.Remove(filepath.Join(env.OutputDir, "run_1.txt")))

	out, err := execute(t, NewVerifyCommand(&RootOptions{Format: "text"}), env.verifyArgs("2")...)
	require.Error(t, err)
	assert.Contains(t, out, "run_1.txt: artifact missing on disk")
}

func TestVerifyDetectsChangedInputs(t *testing.T) {
	env := newBatchEnv(t)
	generateFixture(t, env)

	out, err := execute(t, NewVerifyCommand(&RootOptions{Format: "text"}), env.verifyArgs("1")...)
	require.Error(t, err)

	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "manifest lists 4 run(s), inputs plan 2")
}

func TestVerifyMissingManifest(t *testing.T) {
	env := newBatchEnv(t)

	_, err := execute(t, NewVerifyCommand(&RootOptions{Format: "text"}), env.verifyArgs("2")...)
	require.Error(t, err)

	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNotFound)
}

func TestVerifyDefaultsToManifestInputs(t *testing.T) {
	env := newBatchEnv(t)
	generateFixture(t, env)

	// No --factors, --seeds or --runs: the batch was generated with two
	// repetitions, not the configured default of ten.
	out, err := execute(t, NewVerifyCommand(&RootOptions{Format: "text"}), "--output", env.OutputDir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ 4 run file(s)")
}
