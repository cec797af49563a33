// Package manifest records a generated batch in a flat YAML file next to its
// artifacts, and checks artifacts on disk against that record.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/doerun/internal/artifact"
	"github.com/roach88/doerun/internal/doe"
	"github.com/roach88/doerun/internal/engine"
)

// FileName is the manifest file written into the run directory.
const FileName = "manifest.yaml"

// Manifest describes one generated batch.
type Manifest struct {
	Version            string               `yaml:"version"`
	Generator          string               `yaml:"generator"`
	BatchID            string               `yaml:"batch_id"`
	Digest             string               `yaml:"digest"`
	FactorsSource      string               `yaml:"factors_source"`
	SeedsSource        string               `yaml:"seeds_source"`
	RunsPerCombination int                  `yaml:"runs_per_combination"`
	Header             artifact.Header      `yaml:"header"`
	Combinations       []doe.RunCombination `yaml:"combinations"`
	Runs               []Entry              `yaml:"runs"`
}

// Entry is one run in the manifest.
type Entry struct {
	RunNumber   int    `yaml:"run_number"`
	Combination int    `yaml:"combination"`
	Repetition  int    `yaml:"repetition"`
	Seed        string `yaml:"seed"`
	Excursion   string `yaml:"excursion"`
	Vignette    string `yaml:"vignette"`
	Artifact    string `yaml:"artifact"`
	Digest      string `yaml:"digest,omitempty"`
	Error       string `yaml:"error,omitempty"`
}

// Sources names the inputs a batch was generated from.
type Sources struct {
	Factors string
	Seeds   string
}

// FromBatch builds a manifest from a generation result.
// Artifact paths are stored relative to the run directory.
func FromBatch(result *engine.BatchResult, g *engine.Generator, src Sources) *Manifest {
	m := &Manifest{
		Version:            doe.ManifestVersion,
		Generator:          doe.GeneratorVersion,
		BatchID:            result.BatchID,
		Digest:             result.Digest,
		FactorsSource:      src.Factors,
		SeedsSource:        src.Seeds,
		RunsPerCombination: g.RunsPerCombination,
		Header:             g.Header,
		Combinations:       result.Combinations,
		Runs:               make([]Entry, 0, len(result.Runs)),
	}

	for _, r := range result.Runs {
		e := Entry{
			RunNumber:   r.Run.RunNumber,
			Combination: r.Run.Combination,
			Repetition:  r.Run.Repetition,
			Seed:        r.Run.Seed,
			Excursion:   r.Run.Excursion,
			Vignette:    r.Run.Vignette,
			Artifact:    doe.ArtifactName(r.Run.RunNumber),
			Digest:      r.Digest,
		}
		if r.Err != nil {
			e.Error = r.Err.Error()
		}
		m.Runs = append(m.Runs, e)
	}
	return m
}

// Written returns the entries whose artifact was written.
func (m *Manifest) Written() []Entry {
	var out []Entry
	for _, e := range m.Runs {
		if e.Error == "" {
			out = append(out, e)
		}
	}
	return out
}

// Write stores the manifest as dir/manifest.yaml and returns its path.
func Write(dir string, m *Manifest) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return "", fmt.Errorf("encode manifest: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encode manifest: %w", err)
	}

	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	return path, nil
}

// Read loads dir/manifest.yaml. Unknown fields are rejected.
func Read(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if m.Version != doe.ManifestVersion {
		return nil, fmt.Errorf("parse manifest %s: unsupported version %q", path, m.Version)
	}
	return &m, nil
}

// Mismatch describes an artifact that differs from its expected content.
type Mismatch struct {
	RunNumber int    `json:"run_number"`
	Artifact  string `json:"artifact"`
	Reason    string `json:"reason"`
}

// Verify re-renders every planned run and compares it with the manifest
// record and with the file on disk. An empty result means the batch on disk
// is exactly what the inputs produce.
func Verify(dir string, m *Manifest, runs []doe.RunInstance) []Mismatch {
	var mismatches []Mismatch

	entries := make(map[int]Entry, len(m.Runs))
	for _, e := range m.Runs {
		entries[e.RunNumber] = e
	}
	if len(runs) != len(m.Runs) {
		mismatches = append(mismatches, Mismatch{
			Reason: fmt.Sprintf("manifest lists %d run(s), inputs plan %d", len(m.Runs), len(runs)),
		})
	}

	for _, run := range runs {
		name := doe.ArtifactName(run.RunNumber)
		want := doe.ArtifactDigest(artifact.Render(m.Header, run))

		entry, ok := entries[run.RunNumber]
		switch {
		case !ok:
			mismatches = append(mismatches, Mismatch{RunNumber: run.RunNumber, Artifact: name, Reason: "missing from manifest"})
			continue
		case entry.Error != "":
			mismatches = append(mismatches, Mismatch{RunNumber: run.RunNumber, Artifact: name, Reason: "write failed at generation: " + entry.Error})
			continue
		case entry.Digest != want:
			mismatches = append(mismatches, Mismatch{RunNumber: run.RunNumber, Artifact: name, Reason: "manifest digest differs from regenerated artifact"})
		}

		content, err := os.ReadFile(filepath.Join(dir, name))
		switch {
		case errors.Is(err, fs.ErrNotExist):
			mismatches = append(mismatches, Mismatch{RunNumber: run.RunNumber, Artifact: name, Reason: "artifact missing on disk"})
		case err != nil:
			mismatches = append(mismatches, Mismatch{RunNumber: run.RunNumber, Artifact: name, Reason: err.Error()})
		case doe.ArtifactDigest(content) != want:
			mismatches = append(mismatches, Mismatch{RunNumber: run.RunNumber, Artifact: name, Reason: "artifact on disk differs from regenerated artifact"})
		}
	}
	return mismatches
}
