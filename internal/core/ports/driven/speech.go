package driven

import "context"

// Transcriber converts recorded speech to text.
type Transcriber interface {
	// Transcribe returns the text spoken in audio. filename carries the container format.
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// Speaker reads text aloud.
type Speaker interface {
	// Speak blocks until the text has been spoken or ctx is done.
	Speak(ctx context.Context, text string) error
}
