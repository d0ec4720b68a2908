// Package engine implements rule resolution: folding every applicable rule
// fragment into one merged exclusion set.
//
// Resolution is a pure CPU-bound function over an immutable store snapshot.
// There is no shared mutable state, no I/O, and no blocking, so any number
// of requests may resolve concurrently without coordination.
//
// Fragments are appended in a fixed precedence order:
//
//  1. Universal baseline (always applied)
//  2. Compound rules whose plugin+theme predicate is satisfied
//  3. Detected ad-provider fragments (if detection produced tags)
//  4. Plugin fragments, in input order
//  5. Theme fragments, in deduplicated input order
//
// Each step only appends. Within every category, tokens are deduplicated
// preserving first-insertion order, so a token contributed twice keeps its
// earliest position. The final per-category order is therefore determined
// solely by step order, never by the input ordering of unrelated sources.
package engine
