// Package engine expands a factorial experiment space and materializes one
// configuration artifact per run.
//
// ARCHITECTURE:
//
// Planning and writing are separate passes. Plan derives every RunInstance
// from (combination index, repetition index, loaded tables) without touching
// the filesystem, so every fatal condition (empty space, empty seed table,
// invalid run count) surfaces before the first artifact is written.
// Generate then writes artifacts sequentially; a failed write is recorded on
// that run and the batch continues.
//
// Determinism:
// Each run samples with its own generator, seeded from the run's seed token
// immediately before sampling. No generator state is shared between runs,
// so artifacts do not depend on iteration order and repeated generation is
// byte-identical.
//
// Seed selection depends only on the repetition index. The same repetition
// slot reuses the same seed across all excursion/vignette combinations,
// which keeps repetitions comparable across combinations.
package engine
