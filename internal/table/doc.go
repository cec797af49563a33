// Package table loads the comma-separated factor and seed sources that drive
// a DOE batch.
//
// Factor sources hold one row per factor: the first cell is the label and the
// remaining cells are candidate values. Two reserved labels, EXCURSION and
// VIGNETTE, hold the outer experiment grid instead of a sampled factor.
// Seed sources hold one opaque seed token per row.
//
// Every cell is trimmed and empty cells are dropped. Loading is a pure read;
// any failure is reported as a MALFORMED_INPUT error before generation starts.
package table
