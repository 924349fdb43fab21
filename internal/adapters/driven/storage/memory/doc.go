// Package memory provides in-memory implementations of the driven storage
// ports for tests.
package memory
