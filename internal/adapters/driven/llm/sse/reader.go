// Package sse reads Server-Sent Events one event at a time.
package sse

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// Event is one dispatched server-sent event.
type Event struct {
	// Name is the "event:" field; empty for unnamed events.
	Name string

	// Data is the "data:" lines joined with newlines.
	Data string
}

// Reader is a pull parser over an event stream.
type Reader struct {
	br  *bufio.Reader
	eof bool
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReader(r)}
}

// Next returns the next event with data. It returns io.EOF when the input
// ends; a final event not followed by a blank line is still returned.
func (r *Reader) Next() (Event, error) {
	var (
		name string
		data []string
	)

	for !r.eof {
		line, err := r.br.ReadString('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return Event{}, err
			}
			r.eof = true
		}
		line = strings.TrimRight(line, "\r\n")

		switch {
		case line == "":
			// Blank line ends event.
			if len(data) > 0 {
				return Event{Name: name, Data: strings.Join(data, "\n")}, nil
			}
			name = ""
		case strings.HasPrefix(line, ":"):
			// Comment.
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
	}

	if len(data) > 0 {
		return Event{Name: name, Data: strings.Join(data, "\n")}, nil
	}
	return Event{}, io.EOF
}
