// Package provision creates the directory tree a DOE batch writes into:
// the run-artifact directory and the fixed category folders the simulator
// writes its output to.
package provision

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/doerun/internal/doe"
)

// Category is one output category: a path below the root and the
// subfolders created inside it.
type Category struct {
	Path       []string `json:"path" yaml:"path"`
	Subfolders []string `json:"subfolders" yaml:"subfolders"`
}

// DefaultLayout returns the reference category tree:
//
//	output/DCA/Strike/{Baseline, Excursion 1..7}
//	output/DCA/MultiAxis/{Baseline, Excursion 1..7}
//	output/SEAD/{Vignette 1..3}
func DefaultLayout() []Category {
	excursions := []string{"Baseline"}
	for i := 1; i <= 7; i++ {
		excursions = append(excursions, fmt.Sprintf("Excursion %d", i))
	}

	return []Category{
		{Path: []string{"output", "DCA", "Strike"}, Subfolders: excursions},
		{Path: []string{"output", "DCA", "MultiAxis"}, Subfolders: excursions},
		{Path: []string{"output", "SEAD"}, Subfolders: []string{"Vignette 1", "Vignette 2", "Vignette 3"}},
	}
}

// DefaultRoot returns the invoking user's home directory.
func DefaultRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve output root: %w", err)
	}
	return home, nil
}

// Provisioner ensures the output tree exists.
type Provisioner struct {
	// Root is the base of the category tree.
	Root string

	// RunDir receives the generated artifacts.
	RunDir string

	// Layout lists the categories created under Root.
	Layout []Category

	// Logger defaults to slog.Default when nil.
	Logger *slog.Logger
}

func (p *Provisioner) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// Dirs returns every directory Ensure creates, in creation order.
func (p *Provisioner) Dirs() []string {
	dirs := []string{p.RunDir}
	for _, c := range p.Layout {
		base := filepath.Join(append([]string{p.Root}, c.Path...)...)
		dirs = append(dirs, base)
		for _, sub := range c.Subfolders {
			dirs = append(dirs, filepath.Join(base, sub))
		}
	}
	return dirs
}

// Ensure creates any missing directories. Existing directories are left
// alone. An unwritable filesystem yields a PERMISSION_DENIED error.
func (p *Provisioner) Ensure() ([]string, error) {
	if p.RunDir == "" {
		return nil, fmt.Errorf("provision: run directory not set")
	}
	if len(p.Layout) > 0 && p.Root == "" {
		return nil, fmt.Errorf("provision: output root not set")
	}

	dirs := p.Dirs()
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			if errors.Is(err, fs.ErrPermission) {
				return nil, doe.NewPermissionError(dir, err)
			}
			return nil, doe.NewWriteError(0, dir, err)
		}
	}

	p.logger().Debug("output tree provisioned", "run_dir", p.RunDir, "root", p.Root, "dirs", len(dirs))
	return dirs, nil
}
