package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/doerun/internal/config"
)

// inputFlags are the flags shared by commands that read the factor and seed
// tables. Only flags set on the command line override the configuration.
type inputFlags struct {
	Factors   string
	Seeds     string
	OutputDir string
	Runs      int
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Factors, "factors", "", "factor definition CSV (default from config)")
	cmd.Flags().StringVar(&f.Seeds, "seeds", "", "seed CSV (default from config)")
	cmd.Flags().StringVarP(&f.OutputDir, "output", "o", "", "run output directory (default from config)")
	cmd.Flags().IntVarP(&f.Runs, "runs", "n", 0, "runs per excursion/vignette combination (default from config)")
}

func (f *inputFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("factors") {
		cfg.Factors = f.Factors
	}
	if cmd.Flags().Changed("seeds") {
		cfg.Seeds = f.Seeds
	}
	if cmd.Flags().Changed("output") {
		cfg.OutputDir = f.OutputDir
	}
	if cmd.Flags().Changed("runs") {
		cfg.RunsPerCombination = f.Runs
	}
}

// dispatchFlags select and configure the dispatch strategy.
type dispatchFlags struct {
	Strategy  string
	Simulator string
	Submitter string
	Queue     string
}

func (f *dispatchFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Strategy, "strategy", "", "dispatch strategy: local, queue or none (default from config)")
	cmd.Flags().StringVar(&f.Simulator, "simulator", "", "simulator executable")
	cmd.Flags().StringVar(&f.Submitter, "submitter", "", "queue submission command")
	cmd.Flags().StringVar(&f.Queue, "queue", "", "queue name")
}

func (f *dispatchFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("strategy") {
		cfg.Dispatch.Strategy = f.Strategy
	}
	if cmd.Flags().Changed("simulator") {
		cfg.Dispatch.Simulator = f.Simulator
	}
	if cmd.Flags().Changed("submitter") {
		cfg.Dispatch.Submitter = f.Submitter
	}
	if cmd.Flags().Changed("queue") {
		cfg.Dispatch.Queue = f.Queue
	}
}

// loadConfig resolves the layered configuration, lets override apply the
// command's flags, and validates the result.
func loadConfig(opts *RootOptions, override func(*config.Config)) (*config.Config, error) {
	cfg, err := config.Load(config.Options{Path: opts.Config, EnvFile: opts.EnvFile})
	if err != nil {
		return nil, err
	}
	if override != nil {
		override(cfg)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// newLogger builds the stderr text logger. --verbose forces debug.
func newLogger(opts *RootOptions, cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if opts.Verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// signalContext derives a context from the command that is cancelled on
// SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	// Use command's context if available (for testing), otherwise create one
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
