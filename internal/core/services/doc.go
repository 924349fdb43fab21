// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The question-answering path is Retriever → BuildPrompt → Generator, tied
// together per session by ChatService. IngestionService creates sessions and
// SessionService removes them.
package services
