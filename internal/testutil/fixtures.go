package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteFile writes content to dir/name and returns the full path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// WriteCSV writes rows as comma-separated lines to dir/name.
// Cells are joined verbatim; callers quote cells themselves when needed.
func WriteCSV(t *testing.T, dir, name string, rows ...[]string) string {
	t.Helper()

	var b strings.Builder
	for _, row := range rows {
		b.WriteString(strings.Join(row, ","))
		b.WriteByte('\n')
	}
	return WriteFile(t, dir, name, b.String())
}

// WeatherFixture is the reference batch used across packages:
// one factor with two candidates, excursions A and B, a single vignette,
// and two seeds.
type WeatherFixture struct {
	Dir         string
	FactorsPath string
	SeedsPath   string
}

// NewWeatherFixture writes the reference factor and seed sources into a
// fresh temporary directory.
func NewWeatherFixture(t *testing.T) WeatherFixture {
	t.Helper()

	dir := t.TempDir()
	return WeatherFixture{
		Dir: dir,
		FactorsPath: WriteCSV(t, dir, "doe.csv",
			[]string{"Weather", "Clear", "Storm"},
			[]string{"EXCURSION", "A", "B"},
			[]string{"VIGNETTE", "1"},
		),
		SeedsPath: WriteCSV(t, dir, "random_seeds.csv",
			[]string{"111"},
			[]string{"222"},
		),
	}
}
