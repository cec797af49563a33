package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/doerun/internal/testutil"
)

// recordingRunner records every command line instead of executing it.
type recordingRunner struct {
	calls  [][]string
	failOn string // artifact name whose invocation fails
}

func (r *recordingRunner) Run(_ context.Context, name string, args ...string) error {
	r.calls = append(r.calls, append([]string{name}, args...))
	if r.failOn != "" && len(args) > 0 && strings.HasSuffix(args[len(args)-1], r.failOn) {
		return errors.New("exit status 1")
	}
	return nil
}

// batchEnv is a Weather fixture plus output locations inside the test's
// temporary directory.
type batchEnv struct {
	testutil.WeatherFixture
	OutputDir  string
	OutputRoot string
}

func newBatchEnv(t *testing.T) batchEnv {
	t.Helper()
	fx := testutil.NewWeatherFixture(t)
	return batchEnv{
		WeatherFixture: fx,
		OutputDir:      filepath.Join(fx.Dir, "cluster_runs"),
		OutputRoot:     filepath.Join(fx.Dir, "home"),
	}
}

// generateArgs are the flags that point generate or run at the fixture.
func (e batchEnv) generateArgs(runs string) []string {
	return []string{
		"--factors", e.FactorsPath,
		"--seeds", e.SeedsPath,
		"--output", e.OutputDir,
		"--output-root", e.OutputRoot,
		"--runs", runs,
	}
}

// execute runs cmd with args and returns its stdout.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// generateFixture writes the Weather batch with two repetitions.
func generateFixture(t *testing.T, e batchEnv) {
	t.Helper()
	opts := &RootOptions{Format: "text"}
	_, err := execute(t, NewGenerateCommand(opts), e.generateArgs("2")...)
	require.NoError(t, err)
}

// mkdirRunFile blocks run_<n>.txt with a directory so its write fails.
func mkdirRunFile(e batchEnv, n int) error {
	return os.MkdirAll(filepath.Join(e.OutputDir, fmt.Sprintf("run_%d.txt", n)), 0755)
}
