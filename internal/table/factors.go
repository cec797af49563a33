package table

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/roach88/doerun/internal/doe"
)

// LoadFactors reads a factor-definition CSV file.
// A nil logger means slog.Default.
func LoadFactors(path string, logger *slog.Logger) (*doe.FactorTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, doe.NewMalformedInputError(path, "cannot open factor source", err)
	}
	defer f.Close()

	return ParseFactors(f, path, logger)
}

// ParseFactors classifies each row of a factor source by its first cell.
// source names the input in errors and logs.
//
// EXCURSION and VIGNETTE rows fill single slots (a later row replaces an
// earlier one). Every other row becomes a FactorDefinition in load order;
// a row with a label but no values is kept with no candidates.
func ParseFactors(r io.Reader, source string, logger *slog.Logger) (*doe.FactorTable, error) {
	log := loggerOr(logger)
	rows, err := readRows(r)
	if err != nil {
		return nil, doe.NewMalformedInputError(source, "cannot parse factor source", err)
	}

	table := &doe.FactorTable{}
	for i, row := range rows {
		key, values := row[0], nonEmpty(row[1:])

		switch key {
		case doe.KeyExcursion:
			if table.Excursions != nil {
				log.Debug("reserved row overrides earlier row", "key", key, "source", source, "row", i+1)
			}
			table.Excursions = values
		case doe.KeyVignette:
			if table.Vignettes != nil {
				log.Debug("reserved row overrides earlier row", "key", key, "source", source, "row", i+1)
			}
			table.Vignettes = values
		case "":
			return nil, doe.NewMalformedInputError(source, fmt.Sprintf("row %d has values but no factor label", i+1), nil)
		default:
			if len(values) == 0 {
				log.Debug("factor has no candidate values", "factor", key, "source", source)
			}
			table.Factors = append(table.Factors, doe.FactorDefinition{
				Label:      key,
				Candidates: values,
			})
		}
	}

	log.Debug("factor table loaded",
		"source", source,
		"factors", len(table.Factors),
		"excursions", len(table.Excursions),
		"vignettes", len(table.Vignettes))

	return table, nil
}
