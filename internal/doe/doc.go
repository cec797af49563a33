// Package doe provides the foundational types for design-of-experiments run
// generation.
//
// This package contains type definitions, the error taxonomy, and the
// content-addressed digests used to bind runs to seeds. All other internal
// packages import doe; doe imports nothing internal.
//
// Key design constraints:
//   - RunInstances are derived values: fully determined by
//     (combination index, repetition index, loaded tables)
//   - Run numbers are dense and 1-based across a whole batch
//   - Seeds are opaque string tokens; randomness is derived from them, never
//     from ambient global state
package doe
