// Package domain defines the core business entities for docqa.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Session: An ingested document and its conversation history
//   - Turn: One message in a session's history
//   - Page / Chunk: Extracted text and its indexed, embedded slices
//   - Passage: A retrieved chunk handed to the prompt builder
//   - RunState: Lifecycle of a streaming generation attempt
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
