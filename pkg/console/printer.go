package console

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/minhyannv/agent-stream-go/pkg/config"
	"github.com/minhyannv/agent-stream-go/pkg/event"
)

// ErrIncomplete reports an event stream that ended without done or error.
var ErrIncomplete = errors.New("event stream ended without a result")

// RunError is a run that ended with an error event. The Printer has already
// rendered it.
type RunError struct {
	Kind event.ErrorKind
	Err  error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// Printer writes answer text to out and everything else to diag.
type Printer struct {
	out  io.Writer
	diag io.Writer

	styles Styles

	answerOpen bool
}

// NewPrinter builds a Printer whose styles follow diag's terminal
// capabilities.
func NewPrinter(out, diag io.Writer) *Printer {
	return &Printer{
		out:    out,
		diag:   diag,
		styles: MakeStyles(NewRenderer(diag)),
	}
}

// Banner prints the resolved provider settings in a dim style.
func (p *Printer) Banner(settings []config.Setting) {
	if len(settings) == 0 {
		return
	}
	var sb strings.Builder
	for i, s := range settings {
		if i == 0 && s.Name == "provider" {
			sb.WriteString(s.Value + " settings:\n")
			continue
		}
		sb.WriteString(fmt.Sprintf("  %s: %s\n", s.Name, s.Value))
	}
	for _, line := range strings.Split(strings.TrimRight(sb.String(), "\n"), "\n") {
		fmt.Fprintln(p.diag, p.styles.Dim.Render(line))
	}
	fmt.Fprintln(p.diag)
}

// Thinking announces that a run has started.
func (p *Printer) Thinking() {
	fmt.Fprintln(p.diag, p.styles.Thinking.Render("🤖 thinking..."))
	fmt.Fprintln(p.diag)
}

// Stream renders events until the run terminates. It returns nil after done,
// a *RunError after an error event, and ErrIncomplete when the sequence ends
// without either.
func (p *Printer) Stream(events iter.Seq[event.Event]) error {
	for ev := range events {
		switch ev.Type {
		case event.TypeTextDelta:
			p.text(ev.Text)
		case event.TypeToolStarted:
			p.closeAnswer()
			args := ev.RawArgs
			if strings.TrimSpace(args) == "" {
				args = "{}"
			}
			fmt.Fprintln(p.diag, p.styles.ToolStart.Render(fmt.Sprintf("🔧 tool: %s(%s)", ev.ToolName, args)))
		case event.TypeToolFinished:
			style, mark := p.styles.ToolResult, "✅"
			if ev.IsError {
				style, mark = p.styles.ToolFailure, "❌"
			}
			fmt.Fprintln(p.diag, style.Render(mark+" result: "+ev.Result))
		case event.TypeError:
			p.closeAnswer()
			p.Error(ev.Err)
			return &RunError{Kind: ev.Kind, Err: ev.Err}
		case event.TypeDone:
			p.closeAnswer()
			fmt.Fprintln(p.diag, p.styles.Done.Render("✅ done"))
			return nil
		}
	}
	p.closeAnswer()
	return ErrIncomplete
}

func (p *Printer) text(s string) {
	if !p.answerOpen {
		fmt.Fprintln(p.diag, p.styles.AnswerHeader.Render("🤖 answer:"))
		p.answerOpen = true
	}
	fmt.Fprint(p.out, s)
}

func (p *Printer) closeAnswer() {
	if p.answerOpen {
		fmt.Fprintln(p.out)
		p.answerOpen = false
	}
}

// Error prints err in the error style.
func (p *Printer) Error(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(p.diag, "\n%s\n\n%s\n\n",
		p.styles.ErrPadding.Render(p.styles.ErrorHeader.String()),
		p.styles.ErrPadding.Render(p.styles.ErrorDetails.Render(err.Error())),
	)
}
