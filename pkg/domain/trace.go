package domain

import (
	"fmt"
	"strings"
	"time"
)

// Trace error types.
const (
	ErrorTypeException = "exception"
	ErrorTypeFault     = "fault"
)

// TraceFrame identifies one node in a diagnostic trace.
type TraceFrame struct {
	NodeID string `json:"node_id"`
	Type   string `json:"type"`
	File   string `json:"file,omitempty"`
	Line   int    `json:"line,omitempty"`
}

// FrameOf describes a node as a trace frame.
func FrameOf(n Node) TraceFrame {
	loc := n.Location()
	return TraceFrame{NodeID: n.ID(), Type: n.Type(), File: loc.File, Line: loc.Line}
}

func (f TraceFrame) String() string {
	return fmt.Sprintf("File %q, line %d, in <%s %s>", f.File, f.Line, f.Type, f.NodeID)
}

// Trace is the diagnostic record of a fatal error.
type Trace struct {
	ID        string     `json:"id"`
	RunID     string     `json:"run_id,omitempty"`
	Time      time.Time  `json:"time"`
	ErrorType string     `json:"error_type"`
	Exception *Exception `json:"exception,omitempty"`
	Fault     string     `json:"fault,omitempty"`

	// CallStack holds the call-frame records, outermost first.
	CallStack []TraceFrame `json:"call_stack,omitempty"`
	// Stack is the engine-stack node path, outermost first, ending at the originating node.
	Stack []TraceFrame `json:"stack,omitempty"`
}

// Origin returns the node the error was raised from.
func (t *Trace) Origin() (TraceFrame, bool) {
	if len(t.Stack) == 0 {
		return TraceFrame{}, false
	}
	return t.Stack[len(t.Stack)-1], true
}

// String renders the operator view of the trace.
func (t *Trace) String() string {
	var b strings.Builder
	b.WriteString("Logic Error\n")
	for _, f := range t.CallStack {
		b.WriteString("  call " + f.String() + "\n")
	}
	for _, f := range t.Stack {
		b.WriteString("  " + f.String() + "\n")
	}
	switch {
	case t.Exception != nil:
		fmt.Fprintf(&b, "unhandled exception: %s %q\n", t.Exception.Type, t.Exception.Message)
	case t.Fault != "":
		fmt.Fprintf(&b, "fault: %s\n", t.Fault)
	}
	return b.String()
}
