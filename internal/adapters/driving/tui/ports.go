// Package tui provides the interactive chat terminal UI for docqa.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the TUI.
type Ports struct {
	// Chat answers questions.
	Chat driving.ChatService

	// Session lists, loads and deletes sessions.
	Session driving.SessionService
}

// NewPorts creates a Ports aggregate.
func NewPorts(chat driving.ChatService, session driving.SessionService) *Ports {
	return &Ports{Chat: chat, Session: session}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Chat == nil {
		return ErrMissingChatService
	}
	if p.Session == nil {
		return ErrMissingSessionService
	}
	return nil
}
