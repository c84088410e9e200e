package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct{ text, color string }{
	{"             _                ", "#86efac"},
	{"   __ _ _ __| |__   ___  _ __ ", "#4ade80"},
	{"  / _` | '__| '_ \\ / _ \\| '__|", "#22c55e"},
	{" | (_| | |  | |_) | (_) | |   ", "#16a34a"},
	{"  \\__,_|_|  |_.__/ \\___/|_|   ", "#15803d"},
}

// PrintBanner outputs the arbor ASCII art banner.
func PrintBanner(w io.Writer, opts ...termenv.OutputOption) {
	out := termenv.NewOutput(w, opts...)
	fmt.Fprintln(out)
	for _, l := range bannerLines {
		fmt.Fprintln(out, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(out)
}
