package tui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}
	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// TraceMarkdown renders a fatal trace as a markdown document.
func TraceMarkdown(t *domain.Trace) string {
	var b strings.Builder
	switch {
	case t.Exception != nil:
		fmt.Fprintf(&b, "# Unhandled exception `%s`\n\n", t.Exception.Type)
		if t.Exception.Message != "" {
			fmt.Fprintf(&b, "> %s\n\n", t.Exception.Message)
		}
		if t.Exception.Info != nil && t.Exception.Info.Len() > 0 {
			b.WriteString("| field | value |\n|---|---|\n")
			for pair := t.Exception.Info.Oldest(); pair != nil; pair = pair.Next() {
				fmt.Fprintf(&b, "| %s | `%v` |\n", pair.Key, pair.Value)
			}
			b.WriteString("\n")
		}
	default:
		b.WriteString("# Fault\n\n")
		fmt.Fprintf(&b, "> %s\n\n", t.Fault)
	}

	if len(t.CallStack) > 0 {
		b.WriteString("## Calls\n\n")
		for _, f := range t.CallStack {
			fmt.Fprintf(&b, "1. `%s` (%s) at %s:%d\n", f.NodeID, f.Type, f.File, f.Line)
		}
		b.WriteString("\n")
	}
	if len(t.Stack) > 0 {
		b.WriteString("## Stack\n\n")
		for _, f := range t.Stack {
			fmt.Fprintf(&b, "1. `%s` (%s) at %s:%d\n", f.NodeID, f.Type, f.File, f.Line)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "_trace %s_\n", t.ID)
	return b.String()
}

// PrintTrace writes the trace to w: styled markdown on a terminal, the plain
// operator view otherwise.
func PrintTrace(w io.Writer, t *domain.Trace) error {
	if !IsTerminal(w) {
		_, err := io.WriteString(w, t.String())
		return err
	}
	out, err := NewRenderer()(TraceMarkdown(t))
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}
