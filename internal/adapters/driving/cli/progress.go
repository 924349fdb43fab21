package cli

import (
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ensure barProgress implements the interface.
var _ driving.ProgressReporter = (*barProgress)(nil)

// barProgress renders one progress bar per ingestion stage.
type barProgress struct {
	out io.Writer
	bar *progressbar.ProgressBar
}

// newProgress returns a bar reporter, or nil when progress should not be
// drawn (the service accepts a nil reporter).
func newProgress(out io.Writer, enabled bool) driving.ProgressReporter {
	if !enabled {
		return nil
	}
	return &barProgress{out: out}
}

func (p *barProgress) Stage(name string, total int) {
	p.finish()
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.out),
		progressbar.OptionSetDescription(name),
		progressbar.OptionSetWidth(32),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

func (p *barProgress) Advance(n int) {
	if p.bar == nil {
		return
	}
	_ = p.bar.Add(n)
}

func (p *barProgress) Done() {
	p.finish()
}

func (p *barProgress) finish() {
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
	p.bar = nil
}

// stderrIsTerminal reports whether progress bars can be drawn.
func stderrIsTerminal() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}
