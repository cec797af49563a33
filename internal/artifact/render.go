package artifact

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/roach88/doerun/internal/doe"
)

// Default header values used by the reference scenario.
const (
	DefaultIncludeFile = "Startup_Germany425.txt"
	DefaultFilePath    = "../.."
	DefaultRootPath    = "../"
)

// Header holds the fixed boilerplate shared by every artifact in a batch.
type Header struct {
	// IncludeFile is the startup file named by the include_once line.
	IncludeFile string `json:"include_file" yaml:"include_file"`

	// FilePath is the argument of the file_path line.
	FilePath string `json:"file_path" yaml:"file_path"`

	// RootPath is the value assigned to the rootPath script variable.
	RootPath string `json:"root_path" yaml:"root_path"`
}

// DefaultHeader returns the reference header.
func DefaultHeader() Header {
	return Header{
		IncludeFile: DefaultIncludeFile,
		FilePath:    DefaultFilePath,
		RootPath:    DefaultRootPath,
	}
}

// Render produces the configuration artifact for a run.
func Render(h Header, run doe.RunInstance) []byte {
	b := &Builder{}

	b.Define("unique_id", strconv.Itoa(run.RunNumber))
	b.Directive("random_seed", run.Seed)
	b.Directive("file_path", h.FilePath)
	b.Line("script_variables")
	b.Line(`   string rootPath = "` + h.RootPath + `";`)
	b.Line("end_script_variables")
	b.Directive("include_once", h.IncludeFile)

	for _, f := range run.Factors {
		b.Define(f.Label, f.Value)
	}

	b.Define(doe.KeyExcursion, run.Excursion)
	b.Define(doe.KeyVignette, run.Vignette)

	return b.Bytes()
}

// Written describes an artifact on disk.
type Written struct {
	Path   string
	Digest string
}

// Write renders a run and writes it to dir/run_<N>.txt.
// Failures are returned as WRITE_FAILED errors for the run.
func Write(dir string, h Header, run doe.RunInstance) (Written, error) {
	content := Render(h, run)
	path := filepath.Join(dir, doe.ArtifactName(run.RunNumber))

	if err := os.WriteFile(path, content, 0644); err != nil {
		return Written{Path: path}, doe.NewWriteError(run.RunNumber, path, err)
	}

	return Written{Path: path, Digest: doe.ArtifactDigest(content)}, nil
}
