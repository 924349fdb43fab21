// Package vectorindex provides the flat cosine-similarity index used for
// one session's chunks and the process-wide cache of loaded indexes.
//
// Search is exhaustive and deterministic: equal scores are returned in
// insertion order, so an index rebuilt from its snapshot ranks identically.
package vectorindex
