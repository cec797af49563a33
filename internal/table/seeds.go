package table

import (
	"io"
	"log/slog"
	"os"

	"github.com/roach88/doerun/internal/doe"
)

// LoadSeeds reads a seed CSV file: the first cell of each non-empty row.
// A nil logger means slog.Default.
func LoadSeeds(path string, logger *slog.Logger) (doe.SeedTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, doe.NewMalformedInputError(path, "cannot open seed source", err)
	}
	defer f.Close()

	return ParseSeeds(f, path, logger)
}

// ParseSeeds reads seed tokens in order. Seeds are neither deduplicated nor
// validated. An empty table is an error since seed selection over it is
// undefined.
func ParseSeeds(r io.Reader, source string, logger *slog.Logger) (doe.SeedTable, error) {
	rows, err := readRows(r)
	if err != nil {
		return nil, doe.NewMalformedInputError(source, "cannot parse seed source", err)
	}

	var seeds doe.SeedTable
	for _, row := range rows {
		if row[0] == "" {
			continue
		}
		seeds = append(seeds, row[0])
	}

	if len(seeds) == 0 {
		return nil, doe.NewMalformedInputError(source, "seed source contains no seeds", nil)
	}

	loggerOr(logger).Debug("seed table loaded", "source", source, "seeds", len(seeds))
	return seeds, nil
}
