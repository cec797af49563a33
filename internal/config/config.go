// Package config provides layered configuration loading for doerun.
//
// Order: defaults -> config file (.cue or .yaml) -> .env file -> DOERUN_*
// environment variables. Command-line flags are applied by the caller last.
// Every resolved configuration is validated against an embedded CUE schema.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/roach88/doerun/internal/artifact"
	"github.com/roach88/doerun/internal/dispatch"
)

// Config contains all doerun settings.
type Config struct {
	// Factors is the factor-definition CSV.
	Factors string `json:"factors" yaml:"factors"`

	// Seeds is the seed CSV.
	Seeds string `json:"seeds" yaml:"seeds"`

	// OutputDir receives run_<N>.txt artifacts and the manifest.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// OutputRoot is the base of the category tree. Empty means the invoking
	// user's home directory.
	OutputRoot string `json:"output_root" yaml:"output_root"`

	// ProvisionCategories enables creation of the category tree under OutputRoot.
	ProvisionCategories bool `json:"provision_categories" yaml:"provision_categories"`

	// RunsPerCombination is the number of repetitions per excursion/vignette pair.
	RunsPerCombination int `json:"runs_per_combination" yaml:"runs_per_combination"`

	// Header is the fixed artifact boilerplate.
	Header artifact.Header `json:"header" yaml:"header"`

	// Dispatch selects and configures the dispatch strategy.
	Dispatch DispatchConfig `json:"dispatch" yaml:"dispatch"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level" yaml:"log_level"`
}

// DispatchConfig configures how artifacts reach the simulator.
type DispatchConfig struct {
	// Strategy is "local", "queue", or "none".
	Strategy string `json:"strategy" yaml:"strategy"`

	// Simulator is the simulator executable.
	Simulator string `json:"simulator" yaml:"simulator"`

	// Submitter is the queue submission command.
	Submitter string `json:"submitter" yaml:"submitter"`

	// Queue is the target queue name.
	Queue string `json:"queue" yaml:"queue"`
}

// Default returns a Config with the reference settings.
func Default() *Config {
	return &Config{
		Factors:             "doe.csv",
		Seeds:               "random_seeds.csv",
		OutputDir:           "cluster_runs",
		ProvisionCategories: true,
		RunsPerCombination:  10,
		Header:              artifact.DefaultHeader(),
		Dispatch: DispatchConfig{
			Strategy:  dispatch.StrategyNone,
			Submitter: "bsub",
			Queue:     "qu",
		},
		LogLevel: "info",
	}
}

// Options controls Load.
type Options struct {
	// Path is an optional config file (.cue, .yaml, .yml).
	Path string

	// EnvFile is an optional dotenv file. Missing files are ignored.
	EnvFile string
}

// Load resolves the configuration from all layers and validates it.
// Relative input and output paths in a config file are resolved against
// the file's directory.
func Load(opts Options) (*Config, error) {
	cfg := Default()

	if opts.Path != "" {
		if err := loadFile(cfg, opts.Path); err != nil {
			return nil, err
		}
		cfg.resolvePaths(filepath.Dir(opts.Path))
	}

	if opts.EnvFile != "" {
		// godotenv.Load never overrides variables already set in the shell.
		if err := godotenv.Load(opts.EnvFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("loading env file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return decodeCUE(cfg, path, data)
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(cfg); err != nil {
			return fmt.Errorf("parsing config file %s: %w", path, err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported config file extension %q (want .cue, .yaml or .yml)", filepath.Ext(path))
	}
}

// decodeCUE checks the file against the schema (without requiring every
// field) so type errors carry CUE positions, then overlays it on cfg.
func decodeCUE(cfg *Config, path string, data []byte) error {
	ctx := cuecontext.New()

	file := ctx.CompileBytes(data, cue.Filename(path))
	if err := file.Err(); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Unify(file).Validate(); err != nil {
		return fmt.Errorf("invalid config file %s: %w", path, err)
	}

	raw, err := file.MarshalJSON()
	if err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) resolvePaths(base string) {
	for _, p := range []*string{&c.Factors, &c.Seeds, &c.OutputDir, &c.OutputRoot} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
}

// applyEnv overlays DOERUN_* environment variables.
func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"DOERUN_FACTORS":      &c.Factors,
		"DOERUN_SEEDS":        &c.Seeds,
		"DOERUN_OUTPUT_DIR":   &c.OutputDir,
		"DOERUN_OUTPUT_ROOT":  &c.OutputRoot,
		"DOERUN_INCLUDE_FILE": &c.Header.IncludeFile,
		"DOERUN_DISPATCH":     &c.Dispatch.Strategy,
		"DOERUN_SIMULATOR":    &c.Dispatch.Simulator,
		"DOERUN_SUBMITTER":    &c.Dispatch.Submitter,
		"DOERUN_QUEUE":        &c.Dispatch.Queue,
		"DOERUN_LOG_LEVEL":    &c.LogLevel,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("DOERUN_RUNS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DOERUN_RUNS: %w", err)
		}
		c.RunsPerCombination = n
	}
	if v := os.Getenv("DOERUN_PROVISION_CATEGORIES"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("DOERUN_PROVISION_CATEGORIES: %w", err)
		}
		c.ProvisionCategories = b
	}
	return nil
}

// Validate checks the fully resolved configuration against the schema.
func (c *Config) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("config schema: %w", err)
	}

	v := schema.Unify(ctx.Encode(c))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
