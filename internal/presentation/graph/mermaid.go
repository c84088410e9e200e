package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
)

// GraphOverlay contains run data to visualize on the tree, e.g. the node
// path of a fatal trace.
type GraphOverlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// OverlayFromTrace marks the trace's node path as visited and its origin as current.
func OverlayFromTrace(t *domain.Trace) *GraphOverlay {
	o := &GraphOverlay{}
	for _, f := range t.CallStack {
		o.VisitedNodes = append(o.VisitedNodes, f.NodeID)
	}
	for _, f := range t.Stack {
		o.VisitedNodes = append(o.VisitedNodes, f.NodeID)
	}
	if origin, ok := t.Origin(); ok {
		o.CurrentNode = origin.NodeID
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart of the tree rooted at root.
// It applies semantic styling:
// - Loop: {{Hexagon}}
// - Call boundary: [[Subroutine]]
// - Catch: [/Parallelogram/]
// - Trap: ([Stadium])
// - Structural (never executed in place): [(Cylinder)]
// - Default: [Rectangle]
// Edges run from parent to child; data children are dotted.
func GenerateMermaid(root domain.Node, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	writeNode(&sb, root)

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps the highlighted nodes readable on both themes.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] && safeID != "" && id != overlay.CurrentNode {
				visitedSet[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}
		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
		}
	}
	return sb.String()
}

func writeNode(sb *strings.Builder, n domain.Node) {
	meta := n.Meta()
	opener, closer := "[", "]"
	switch {
	case meta.IsLoop:
		opener, closer = "{{", "}}"
	case meta.IsCall:
		opener, closer = "[[", "]]"
	case n.Type() == domain.TypeCatch:
		opener, closer = "[/", "/]"
	case meta.TrapExceptions:
		opener, closer = "([", "])"
	case meta.LogicSkip:
		opener, closer = "[(", ")]"
	}
	safeID := sanitizeMermaidID(n.ID())
	fmt.Fprintf(sb, "    %s%s\"%s <br/> %s\"%s\n", safeID, opener, n.Type(), escapeLabel(n.ID()), closer)

	for _, child := range n.Children() {
		arrow := "-->"
		if child.Meta().Class == domain.ClassData {
			arrow = "-.->"
		}
		fmt.Fprintf(sb, "    %s %s %s\n", safeID, arrow, sanitizeMermaidID(child.ID()))
		writeNode(sb, child)
	}
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

var mermaidReplacer = strings.NewReplacer(
	".", "_", "-", "_", "/", "_", "\\", "_", "[", "_", "]", "", " ", "_",
)

func sanitizeMermaidID(id string) string {
	return mermaidReplacer.Replace(id)
}
