package doe

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainSeed     = "doerun/seed/v1"
	DomainArtifact = "doerun/artifact/v1"
	DomainBatch    = "doerun/batch/v1"
)

// sumWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func sumWithDomain(domain string, data []byte) [sha256.Size]byte {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	var out [sha256.Size]byte
	copy(out[:], h.Sum(nil))
	return out
}

func hashWithDomain(domain string, data []byte) string {
	sum := sumWithDomain(domain, data)
	return hex.EncodeToString(sum[:])
}

// SeedState derives the two 64-bit words of PCG generator state from an
// opaque seed token. Equal tokens always yield equal state.
func SeedState(seed string) (uint64, uint64) {
	sum := sumWithDomain(DomainSeed, []byte(seed))
	return binary.BigEndian.Uint64(sum[0:8]), binary.BigEndian.Uint64(sum[8:16])
}

// ArtifactDigest computes the content digest of a rendered artifact.
func ArtifactDigest(content []byte) string {
	return hashWithDomain(DomainArtifact, content)
}

// BatchDigest computes a digest over the batch inputs (factor table, seeds,
// runs per combination). Two batches with equal digests generate identical
// artifacts.
func BatchDigest(factors FactorTable, seeds SeedTable, runsPerCombination int) (string, error) {
	factorList := make([]any, len(factors.Factors))
	for i, f := range factors.Factors {
		factorList[i] = map[string]any{
			"label":      f.Label,
			"candidates": stringsToAny(f.Candidates),
		}
	}

	obj := map[string]any{
		"factors":              factorList,
		"excursions":           stringsToAny(factors.Excursions),
		"vignettes":            stringsToAny(factors.Vignettes),
		"seeds":                stringsToAny(seeds),
		"runs_per_combination": runsPerCombination,
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("BatchDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainBatch, canonical), nil
}

func stringsToAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
