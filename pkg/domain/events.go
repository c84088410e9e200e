package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventRunStart  EventType = "run_start"
	EventRunEnd    EventType = "run_end"
	EventNodeEnter EventType = "node_enter"
	EventNodeLeave EventType = "node_leave"
	EventException EventType = "exception"
	EventSignal    EventType = "signal"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id"`
}

// RunEvent marks the start or end of a driver invocation.
type RunEvent struct {
	EventBase
	Steps   int           `json:"steps,omitempty"`
	Elapsed time.Duration `json:"elapsed,omitempty"`
	Aborted bool          `json:"aborted,omitempty"`
	Err     error         `json:"-"`
}

// NodeEvent represents entry into a node's logic or the end of its frame.
type NodeEvent struct {
	EventBase
	NodeID   string `json:"node_id"`
	NodeType string `json:"node_type"`
	// Closed is set when the frame was force-closed rather than exhausted.
	Closed bool  `json:"closed,omitempty"`
	Err    error `json:"-"`
}

// ExceptionEvent reports a domain exception and how it was resolved.
type ExceptionEvent struct {
	EventBase
	NodeID        string `json:"node_id"`
	ExceptionType string `json:"exception_type"`
	Message       string `json:"message"`
	Handled       bool   `json:"handled"`
	// HandlerID is the catch or trap node that handled the exception.
	HandlerID string `json:"handler_id,omitempty"`
}

// SignalEvent reports a control signal consumed by the driver.
type SignalEvent struct {
	EventBase
	NodeID string `json:"node_id"`
	Signal string `json:"signal"`
	// BoundaryID is the loop or call frame the signal stopped at, if any.
	BoundaryID string `json:"boundary_id,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnRunStart  func(context.Context, *RunEvent)
	OnRunEnd    func(context.Context, *RunEvent)
	OnNodeEnter func(context.Context, *NodeEvent)
	OnNodeLeave func(context.Context, *NodeEvent)
	OnException func(context.Context, *ExceptionEvent)
	OnSignal    func(context.Context, *SignalEvent)
}
