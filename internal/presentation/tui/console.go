package tui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

type line struct {
	text string
	err  error
}

// Console is the terminal frontend of the debugger.
type Console struct {
	in      *bufio.Reader
	out     *termenv.Output
	pending chan line
}

// NewConsole creates a console reading commands from in and writing to out.
func NewConsole(in io.Reader, out io.Writer, opts ...termenv.OutputOption) *Console {
	return &Console{
		in:  bufio.NewReader(in),
		out: termenv.NewOutput(out, opts...),
	}
}

// ReadCommand prints the prompt and blocks until a line is read or ctx is done.
// A read interrupted by ctx is kept and returned by the next call.
func (c *Console) ReadCommand(ctx context.Context, prompt string) (string, error) {
	fmt.Fprint(c.out, c.out.String(prompt).Foreground(c.out.Color("#22c55e")).Bold())
	if c.pending == nil {
		ch := make(chan line, 1)
		go func() {
			s, err := c.in.ReadString('\n')
			ch <- line{s, err}
		}()
		c.pending = ch
	}

	select {
	case l := <-c.pending:
		c.pending = nil
		if l.err != nil && !(errors.Is(l.err, io.EOF) && l.text != "") {
			return "", l.err
		}
		return strings.TrimRight(l.text, "\r\n"), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Show prints a titled block. Without a title the lines are printed as is.
func (c *Console) Show(title string, lines ...string) {
	indent := ""
	if title != "" {
		fmt.Fprintln(c.out, c.out.String(title).Foreground(c.out.Color("#4ade80")).Bold())
		indent = "  "
	}
	for _, l := range lines {
		fmt.Fprintln(c.out, indent+l)
	}
}
