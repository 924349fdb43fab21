// Package file provides the TOML-backed configuration store.
//
// Keys are addressed in dot notation ("llm.model") and written back to disk
// as nested TOML tables.
package file
