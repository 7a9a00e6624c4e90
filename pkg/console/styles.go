// Package console renders an agent run for a terminal: the answer text on
// stdout, progress and diagnostics on stderr.
package console

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// Styles groups the lipgloss styles used by a Printer.
type Styles struct {
	Dim          lipgloss.Style
	Thinking     lipgloss.Style
	AnswerHeader lipgloss.Style
	ToolStart    lipgloss.Style
	ToolResult   lipgloss.Style
	ToolFailure  lipgloss.Style
	Done         lipgloss.Style
	ErrorHeader  lipgloss.Style
	ErrorDetails lipgloss.Style
	ErrPadding   lipgloss.Style
}

// MakeStyles builds Styles bound to r.
func MakeStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Dim:          r.NewStyle().Faint(true),
		Thinking:     r.NewStyle().Foreground(lipgloss.Color("6")),
		AnswerHeader: r.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		ToolStart:    r.NewStyle().Foreground(lipgloss.Color("4")),
		ToolResult:   r.NewStyle().Foreground(lipgloss.Color("3")),
		ToolFailure:  r.NewStyle().Foreground(lipgloss.Color("1")),
		Done:         r.NewStyle().Foreground(lipgloss.Color("2")),
		ErrorHeader:  r.NewStyle().Foreground(lipgloss.Color("#F1F1F1")).Background(lipgloss.Color("#FF5F87")).Bold(true).Padding(0, 1).SetString("ERROR"),
		ErrorDetails: r.NewStyle().Foreground(lipgloss.Color("#757575")),
		ErrPadding:   r.NewStyle().Padding(0, 2),
	}
}

// NewRenderer returns a renderer for w. Writers that are not terminals get
// the plain ASCII profile so piped output carries no escape sequences.
func NewRenderer(w io.Writer) *lipgloss.Renderer {
	r := lipgloss.NewRenderer(w, termenv.WithColorCache(true))
	if !IsTerminal(w) {
		r.SetColorProfile(termenv.Ascii)
	}
	return r
}

// IsTerminal reports whether w is a file attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
