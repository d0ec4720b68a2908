// Package ruleset defines the exclusion-rule data model and its loading
// pipeline.
//
// A rule store is a small family of independently loaded dictionaries, one
// per optimization concern (RUCSS, delayed JS, plain JS). Each dictionary
// maps normalized plugin and theme keys, provider tags, and compound-rule
// names to exclusion fragments. Dictionaries are JSON documents validated
// against an embedded CUE schema at load time.
//
// The active store and output template are published together as an
// immutable Snapshot. Readers take a snapshot reference once per request;
// reload builds and validates a complete replacement off-path and swaps a
// single atomic pointer, so a half-loaded store is never observable.
package ruleset
