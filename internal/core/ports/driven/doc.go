// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - PageExtractor / ExtractorRegistry: Turns document bytes into pages
//   - Chunker: Splits pages into indexable chunks
//   - EmbeddingService: Generates vector embeddings
//   - LLMService: Streams answer tokens
//   - IndexStore: Per-session vector index persistence
//   - DocumentStore: Raw uploaded document persistence
//   - SessionStore: Session metadata and history persistence
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - voice features are simply unavailable:
//
//   - Transcriber: Speech to text
//   - Speaker: Text to speech
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or extractor package
package driven
