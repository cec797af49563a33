package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/doerun/internal/analyzer"
)

// AnalyzeSummary is the command output for analyze.
type AnalyzeSummary struct {
	*analyzer.Result
}

func (s AnalyzeSummary) String() string {
	return fmt.Sprintf("Analyzed %d platform(s)\n  1. %s\n  2. %s", s.Platforms, s.ReportPath, s.MatrixPath)
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <observer-csv>",
		Short: "Compute platform distances from a simulator observer CSV",
		Long: `Read platform positions (Platform_Name, Platform_Type, Side, Latitude,
Longitude, Altitude_ft, Sensor_Range_NM) and write platform_distance_analysis.csv
and platform_distance_matrix.csv next to the input.

Example:
  doerun analyze output/platform_positions_run_1.csv`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runAnalyze(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := loadConfig(opts, nil)
	if err != nil {
		return commandError(formatter, ErrCodeConfig, err)
	}
	logger := newLogger(opts, cfg)

	res, err := analyzer.Run(path, logger)
	if err != nil {
		return fatal(formatter, err)
	}
	return formatter.Success(AnalyzeSummary{Result: res})
}
