// Package mcp exposes docqa sessions to AI assistants over the Model Context
// Protocol: retrieval and question answering as tools, sessions as resources.
package mcp

import "errors"

// ErrMissingChatService is returned when the chat service is not provided.
var ErrMissingChatService = errors.New("mcp: chat service is required")
