package sse

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, input string) []Event {
	t.Helper()
	r := NewReader(strings.NewReader(input))
	var events []Event
	for {
		ev, err := r.Next()
		if errors.Is(err, io.EOF) {
			return events
		}
		require.NoError(t, err)
		events = append(events, ev)
	}
}

func TestReader(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Event
	}{
		{
			name:     "unnamed events",
			input:    "data: {\"a\":1}\n\ndata: [DONE]\n\n",
			expected: []Event{{Data: `{"a":1}`}, {Data: "[DONE]"}},
		},
		{
			name:  "named events",
			input: "event: message_start\ndata: {}\n\nevent: ping\ndata: {\"type\":\"ping\"}\n\n",
			expected: []Event{
				{Name: "message_start", Data: "{}"},
				{Name: "ping", Data: `{"type":"ping"}`},
			},
		},
		{
			name:     "comments and CRLF",
			input:    ": keep-alive\r\ndata: x\r\n\r\n",
			expected: []Event{{Data: "x"}},
		},
		{
			name:     "multi-line data",
			input:    "data: one\ndata: two\n\n",
			expected: []Event{{Data: "one\ntwo"}},
		},
		{
			name:     "trailing event without blank line",
			input:    "data: last",
			expected: []Event{{Data: "last"}},
		},
		{
			name:     "event name without data is dropped",
			input:    "event: noop\n\ndata: y\n\n",
			expected: []Event{{Data: "y"}},
		},
		{
			name:     "empty",
			input:    "",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, collect(t, tt.input))
		})
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestReader_PropagatesErrors(t *testing.T) {
	_, err := NewReader(failingReader{}).Next()
	assert.EqualError(t, err, "connection reset")
}
