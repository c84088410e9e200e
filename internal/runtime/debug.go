package runtime

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/spf13/cast"
)

// ErrNoConsole is returned by Debug when the engine has no debug console.
var ErrNoConsole = errors.New("no debug console configured")

// debugSession is the interactive overlay for one run. It only decides
// whether dispatch proceeds; it never changes the engine stack.
type debugSession struct {
	engine  *Engine
	watches []string

	// breakStack is the stack to return to before stopping again (step over / step out).
	breakStack []entry
}

func (r *run) attach() error {
	if r.engine.console == nil {
		return ErrNoConsole
	}
	if !r.engine.debugMu.TryLock() {
		return domain.ErrDebuggerBusy
	}
	r.session = &debugSession{engine: r.engine}
	r.debugging = true
	r.breakpoints = true
	r.engine.console.Show("arbor debugger", "debugging run "+r.id)
	return nil
}

func (r *run) detach() {
	if r.session == nil {
		return
	}
	r.session = nil
	r.engine.debugMu.Unlock()
}

// hook runs before a node is dispatched. It returns whether to keep
// debugging and whether breakpoints stay enabled.
func (s *debugSession) hook(ctx context.Context, r *run, node domain.Node) (bool, bool) {
	if s.engine.suppressBreakpoints.Load() {
		return false, false
	}
	if s.breakStack != nil {
		if !r.stack.isPrefixOf(s.breakStack) {
			return true, true
		}
		s.breakStack = nil
	}

	console := s.engine.console
	s.where(r, node, 3)
	for {
		line, err := console.ReadCommand(ctx, "arbor "+node.ID()+" > ")
		if err != nil {
			return false, false
		}
		line = strings.TrimSpace(line)
		cmd, params, _ := strings.Cut(line, " ")
		params = strings.TrimSpace(params)

		switch cmd {
		case "s", "step":
			return true, true
		case "o", "over":
			s.breakStack = r.stack.snapshot()
			return true, true
		case "u", "out":
			snap := r.stack.snapshot()
			if len(snap) > 0 {
				snap = snap[:len(snap)-1]
			}
			s.breakStack = snap
			return true, true
		case "c", "cont", "continue":
			console.Show("continue")
			return false, true
		case "r", "run":
			s.engine.suppressBreakpoints.Store(true)
			console.Show("Ignoring all breakpoints for this session")
			return false, false
		case "q", "quit", "exit":
			return false, false
		case "t", "stack":
			s.showStack(r, node)
		case "w", "where":
			extra, err := strconv.Atoi(params)
			if err != nil || extra < 0 {
				extra = 3
			}
			s.where(r, node, extra)
		case "v", "view":
			s.view(node)
		case "watch":
			if params == "" {
				s.watches = nil
				console.Show("", "watches removed")
				continue
			}
			s.watches = append(s.watches, params)
			s.showWatches(r)
		case "let":
			key, value, ok := strings.Cut(params, "=")
			if !ok {
				console.Show("error", "Must be a key/value pair (i.e. foo='bar')")
				continue
			}
			v, err := r.env.Eval(strings.TrimSpace(value))
			if err != nil {
				console.Show("error", err.Error())
				continue
			}
			r.env.Set(strings.TrimSpace(key), v)
		case "e", "eval":
			s.eval(r, params)
		case "":
			s.showScope(r)
		default:
			s.eval(r, line)
		}
	}
}

func (s *debugSession) view(node domain.Node) {
	s.engine.console.Show("view",
		fmt.Sprintf("In file %q", node.Location().String()),
		fmt.Sprintf("<%s> %s", node.Type(), node.ID()),
	)
}

// where shows the node with up to extra of its ancestors, then the watches.
func (s *debugSession) where(r *run, node domain.Node, extra int) {
	lines := []string{fmt.Sprintf("In file %q", node.Location().String())}
	var ancestors []string
	for p := node.Parent(); p != nil && len(ancestors) < extra; p = p.Parent() {
		ancestors = append(ancestors, fmt.Sprintf("  in <%s> %s (line %d)", p.Type(), p.ID(), p.Location().Line))
	}
	lines = append(lines, fmt.Sprintf("> <%s> %s (line %d)", node.Type(), node.ID(), node.Location().Line))
	lines = append(lines, ancestors...)
	s.engine.console.Show("where", lines...)
	s.showWatches(r)
}

func (s *debugSession) showStack(r *run, node domain.Node) {
	var lines []string
	for _, cf := range r.env.CallStack() {
		if cf.Node != nil {
			lines = append(lines, domain.FrameOf(cf.Node).String())
		}
	}
	lines = append(lines, domain.FrameOf(node).String())
	s.engine.console.Show("Stack", lines...)
}

func (s *debugSession) showWatches(r *run) {
	if len(s.watches) == 0 {
		return
	}
	lines := make([]string, 0, len(s.watches))
	for _, w := range s.watches {
		v, err := r.env.Eval(w)
		if err != nil {
			lines = append(lines, fmt.Sprintf("%s = <error: %v>", w, err))
			continue
		}
		lines = append(lines, fmt.Sprintf("%s = %#v", w, v))
	}
	s.engine.console.Show("watch", lines...)
}

func (s *debugSession) showScope(r *run) {
	data := r.env.Capture()
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s = %#v", k, data[k]))
	}
	s.engine.console.Show("scope", lines...)
}

// eval evaluates an expression. A trailing "?" prints the string form.
func (s *debugSession) eval(r *run, src string) {
	asString := strings.HasSuffix(src, "?")
	src = strings.TrimSuffix(src, "?")
	if src == "" {
		s.showScope(r)
		return
	}
	v, err := r.env.Eval(src)
	if err != nil {
		s.engine.console.Show("error", err.Error())
		return
	}
	if asString {
		s.engine.console.Show("", cast.ToString(v))
		return
	}
	s.engine.console.Show("", fmt.Sprintf("%#v", v))
}
