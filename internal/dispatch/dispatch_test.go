package dispatch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/doerun/internal/doe"
)

type call struct {
	Name string
	Args []string
}

// recordingRunner records every command and fails the configured paths.
type recordingRunner struct {
	calls []call
	fail  map[string]bool
}

func (r *recordingRunner) Run(_ context.Context, name string, args ...string) error {
	r.calls = append(r.calls, call{Name: name, Args: args})
	if len(args) > 0 && r.fail[args[len(args)-1]] {
		return errors.New("exit status 3")
	}
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func jobs(paths ...string) []Job {
	out := make([]Job, len(paths))
	for i, p := range paths {
		out[i] = Job{RunNumber: i + 1, Path: p, Seed: "1"}
	}
	return out
}

func TestLocal_InvokesOncePerArtifactInOrder(t *testing.T) {
	runner := &recordingRunner{}
	d := &Dispatcher{Strategy: &Local{Simulator: "/opt/sim/mission", Runner: runner}, Logger: quietLogger()}

	report, err := d.DispatchAll(context.Background(), jobs("runs/run_1.txt", "runs/run_2.txt", "runs/run_3.txt"))
	require.NoError(t, err)

	assert.Equal(t, []call{
		{Name: "/opt/sim/mission", Args: []string{"runs/run_1.txt"}},
		{Name: "/opt/sim/mission", Args: []string{"runs/run_2.txt"}},
		{Name: "/opt/sim/mission", Args: []string{"runs/run_3.txt"}},
	}, runner.calls)
	assert.Equal(t, StrategyLocal, report.Strategy)
	assert.Len(t, report.Outcomes, 3)
	assert.Empty(t, report.Failed())
}

func TestDispatchAll_FailureDoesNotAbort(t *testing.T) {
	runner := &recordingRunner{fail: map[string]bool{"runs/run_2.txt": true}}

	var logs bytes.Buffer
	d := &Dispatcher{
		Strategy: &Local{Simulator: "mission", Runner: runner},
		Logger:   slog.New(slog.NewTextHandler(&logs, nil)),
	}

	report, err := d.DispatchAll(context.Background(), jobs("runs/run_1.txt", "runs/run_2.txt", "runs/run_3.txt"))
	require.NoError(t, err)

	assert.Len(t, runner.calls, 3, "remaining runs still dispatch")
	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, 2, failed[0].Job.RunNumber)
	assert.True(t, doe.IsDispatchFailed(failed[0].Err))
	assert.Contains(t, failed[0].Err.Error(), "exit status 3")
	assert.Contains(t, logs.String(), "dispatch failed")
}

func TestQueue_Command(t *testing.T) {
	q := &Queue{Submitter: "bsub", Queue: "qu", Simulator: "../bin/mission"}

	assert.Equal(t,
		[]string{"bsub", "-q", "qu", "-J", "run_4", "../bin/mission", "cluster_runs/run_4.txt"},
		q.Command(Job{RunNumber: 4, Path: "cluster_runs/run_4.txt", Seed: "999"}))
}

func TestQueue_SubmitsEveryArtifact(t *testing.T) {
	runner := &recordingRunner{}

	var logs bytes.Buffer
	d := &Dispatcher{
		Strategy: &Queue{Submitter: "bsub", Queue: "qu", Simulator: "mission", Runner: runner},
		Logger:   slog.New(slog.NewTextHandler(&logs, nil)),
	}

	report, err := d.DispatchAll(context.Background(), jobs("a/run_1.txt", "a/run_2.txt"))
	require.NoError(t, err)

	require.Len(t, runner.calls, 2)
	assert.Equal(t, "bsub", runner.calls[0].Name)
	assert.Equal(t, []string{"-q", "qu", "-J", "run_2", "mission", "a/run_2.txt"}, runner.calls[1].Args)
	assert.Equal(t, StrategyQueue, report.Strategy)
	assert.Contains(t, logs.String(), "fire-and-forget")
	assert.Contains(t, logs.String(), "scheduling")
}

func TestNone_InvokesNothing(t *testing.T) {
	d := &Dispatcher{Strategy: None{}, Logger: quietLogger()}

	report, err := d.DispatchAll(context.Background(), jobs("run_1.txt"))
	require.NoError(t, err)
	assert.Equal(t, StrategyNone, report.Strategy)
	assert.Empty(t, report.Outcomes)
}

func TestDispatchAll_Cancelled(t *testing.T) {
	runner := &recordingRunner{}
	d := &Dispatcher{Strategy: &Local{Simulator: "mission", Runner: runner}, Logger: quietLogger()}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := d.DispatchAll(ctx, jobs("run_1.txt", "run_2.txt"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, runner.calls)
	assert.Empty(t, report.Outcomes)
}

func TestNew(t *testing.T) {
	runner := &recordingRunner{}

	s, err := New(StrategyLocal, Options{Simulator: "mission", Runner: runner})
	require.NoError(t, err)
	assert.Equal(t, StrategyLocal, s.Name())

	s, err = New(StrategyQueue, Options{Simulator: "mission", Submitter: "bsub", Queue: "qu", Runner: runner})
	require.NoError(t, err)
	assert.Equal(t, StrategyQueue, s.Name())

	s, err = New(StrategyNone, Options{})
	require.NoError(t, err)
	assert.Equal(t, StrategyNone, s.Name())

	s, err = New("", Options{})
	require.NoError(t, err)
	assert.Equal(t, StrategyNone, s.Name())

	_, err = New(StrategyLocal, Options{})
	assert.Error(t, err)

	_, err = New(StrategyQueue, Options{Simulator: "mission"})
	assert.Error(t, err)

	_, err = New("windows", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "local, queue, none")
}

func TestNew_DefaultsToExecRunner(t *testing.T) {
	s, err := New(StrategyLocal, Options{Simulator: "mission"})
	require.NoError(t, err)
	assert.IsType(t, ExecRunner{}, s.(*Local).Runner)
}

func TestExecRunner(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX true/false")
	}

	r := ExecRunner{}
	assert.NoError(t, r.Run(context.Background(), "true"))

	err := r.Run(context.Background(), "false")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "false")

	err = r.Run(context.Background(), "/nonexistent/simulator", "run_1.txt")
	assert.Error(t, err)
}
