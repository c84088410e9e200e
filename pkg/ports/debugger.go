package ports

import "context"

// DebugConsole is the interactive frontend of the debug overlay.
type DebugConsole interface {
	// ReadCommand blocks until the user enters a command line.
	// Any error (including io.EOF) ends the debugging session.
	ReadCommand(ctx context.Context, prompt string) (string, error)

	// Show displays a titled block of debugger output. An empty title shows plain lines.
	Show(title string, lines ...string)
}
