package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// SessionOutput describes one session.
type SessionOutput struct {
	SessionID   string `json:"session_id"`
	DisplayName string `json:"display_name"`
	Filename    string `json:"filename"`
	UploadedAt  string `json:"uploaded_at"`
	Turns       int    `json:"turns"`
}

// ListSessionsInput is the (empty) input of the list_sessions tool.
type ListSessionsInput struct{}

// ListSessionsOutput is the output of the list_sessions tool.
type ListSessionsOutput struct {
	Sessions []SessionOutput `json:"sessions"`
	Count    int             `json:"count"`
}

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	SessionID string `json:"session_id" jsonschema:"the session whose document is searched"`
	Question  string `json:"question" jsonschema:"the question to find passages for"`
	K         int    `json:"k,omitempty" jsonschema:"maximum number of passages (default 3)"`
}

// PassageOutput is one retrieved passage.
type PassageOutput struct {
	Page  int     `json:"page"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Passages []PassageOutput `json:"passages"`
	Count    int             `json:"count"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	SessionID string `json:"session_id" jsonschema:"the session to ask"`
	Question  string `json:"question" jsonschema:"the question about the document"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer   string          `json:"answer"`
	State    string          `json:"state"`
	Passages []PassageOutput `json:"passages"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_sessions",
		Description: "List ingested documents and their session ids",
	}, s.handleListSessions)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Find the passages of a session's document most relevant to a question",
	}, s.handleRetrieve)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question using only the session's document, citing pages",
	}, s.handleAsk)
}

func (s *Server) handleListSessions(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListSessionsInput,
) (*mcp.CallToolResult, ListSessionsOutput, error) {
	if s.ports.Session == nil {
		return nil, ListSessionsOutput{Sessions: []SessionOutput{}}, nil
	}
	sessions, err := s.ports.Session.List(ctx)
	if err != nil {
		return nil, ListSessionsOutput{}, fmt.Errorf("listing sessions: %w", err)
	}
	out := ListSessionsOutput{Sessions: make([]SessionOutput, len(sessions)), Count: len(sessions)}
	for i := range sessions {
		out.Sessions[i] = sessionOutput(&sessions[i])
	}
	return nil, out, nil
}

func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	passages, err := s.ports.Chat.Retrieve(ctx, input.SessionID, input.Question, input.K)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}
	out := passageOutputs(passages)
	return nil, RetrieveOutput{Passages: out, Count: len(out)}, nil
}

// handleAsk runs a question to completion. Cancellation follows the request
// context.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	stream, err := s.ports.Chat.Ask(ctx, input.SessionID, input.Question, nil)
	if err != nil {
		return nil, AskOutput{}, err
	}
	defer stream.Close()

	for {
		if _, err := stream.Next(); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, AskOutput{}, err
		}
	}

	return nil, AskOutput{
		Answer:   stream.Answer(),
		State:    stream.State().String(),
		Passages: passageOutputs(stream.Passages()),
	}, nil
}

func sessionOutput(sess *domain.Session) SessionOutput {
	return SessionOutput{
		SessionID:   sess.ID,
		DisplayName: sess.Label(),
		Filename:    sess.SourceFilename,
		UploadedAt:  sess.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		Turns:       len(sess.History),
	}
}

func passageOutputs(passages []domain.Passage) []PassageOutput {
	out := make([]PassageOutput, len(passages))
	for i, p := range passages {
		out[i] = PassageOutput{Page: p.Page, Text: p.Text, Score: p.Score}
	}
	return out
}
