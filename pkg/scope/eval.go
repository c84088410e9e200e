package scope

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/builtin"
	"github.com/expr-lang/expr/parser"
	"github.com/expr-lang/expr/vm"
	"github.com/spf13/cast"
)

type parsed struct {
	idents []string
	// builtins are the identifiers that name an expr builtin.
	builtins []string
}

// trees caches the identifiers of each source; programs caches compiled
// expressions by source and the set of builtins the data shadows.
var (
	trees    sync.Map
	programs sync.Map
)

type identCollector struct {
	seen   map[string]bool
	idents []string
}

func (v *identCollector) Visit(node *ast.Node) {
	if id, ok := (*node).(*ast.IdentifierNode); ok && !v.seen[id.Value] {
		v.seen[id.Value] = true
		v.idents = append(v.idents, id.Value)
	}
}

func parse(src string) (*parsed, error) {
	if p, ok := trees.Load(src); ok {
		return p.(*parsed), nil
	}
	tree, err := parser.Parse(src)
	if err != nil {
		return nil, err
	}
	collector := &identCollector{seen: make(map[string]bool)}
	ast.Walk(&tree.Node, collector)

	p := &parsed{idents: collector.idents}
	for _, id := range p.idents {
		if _, ok := builtin.Index[id]; ok {
			p.builtins = append(p.builtins, id)
		}
	}
	trees.Store(src, p)
	return p, nil
}

// compile returns the program for src in which the given builtins are
// disabled, so identifiers with those names read the data instead.
func compile(src string, shadowed []string) (*vm.Program, error) {
	key := src
	if len(shadowed) > 0 {
		key = src + "\x00" + strings.Join(shadowed, ",")
	}
	if p, ok := programs.Load(key); ok {
		return p.(*vm.Program), nil
	}
	opts := []expr.Option{expr.AllowUndefinedVariables()}
	for _, name := range shadowed {
		opts = append(opts, expr.DisableBuiltin(name))
	}
	program, err := expr.Compile(src, opts...)
	if err != nil {
		return nil, err
	}
	programs.Store(key, program)
	return program, nil
}

// Eval evaluates an expr-lang expression against the data visible in the current frame.
// Variables shadow expr builtins of the same name. Pending worker results
// referenced by the expression are joined first.
func (c *Context) Eval(src string) (any, error) {
	tree, err := parse(src)
	if err != nil {
		return nil, fmt.Errorf("eval %q: %w", src, err)
	}
	env := c.Capture()
	for _, id := range tree.idents {
		v, ok := env[id]
		if !ok {
			continue
		}
		resolved, err := c.resolve(v)
		if err != nil {
			return nil, err
		}
		env[id] = resolved
	}
	var shadowed []string
	for _, id := range tree.builtins {
		if _, ok := env[id]; ok {
			shadowed = append(shadowed, id)
		}
	}
	program, err := compile(src, shadowed)
	if err != nil {
		return nil, fmt.Errorf("eval %q: %w", src, err)
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return nil, fmt.Errorf("eval %q: %w", src, err)
	}
	return out, nil
}

// EvalBool evaluates src and converts the result to a truth value.
func (c *Context) EvalBool(src string) (bool, error) {
	v, err := c.Eval(src)
	if err != nil {
		return false, err
	}
	return Truthy(v), nil
}

// Truthy reports the truth value of v: nil, false, zero numbers and empty
// strings, slices and maps are false.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array, reflect.Chan:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	}
	if f, err := cast.ToFloat64E(v); err == nil {
		return f != 0
	}
	return true
}

var substitution = regexp.MustCompile(`\$\{(.*?)\}`)

// Substitute replaces every ${expr} in s with the string form of its value.
func (c *Context) Substitute(s string) (string, error) {
	var firstErr error
	out := substitution.ReplaceAllStringFunc(s, func(m string) string {
		if firstErr != nil {
			return m
		}
		v, err := c.Eval(substitution.FindStringSubmatch(m)[1])
		if err != nil {
			firstErr = err
			return m
		}
		str, err := cast.ToStringE(v)
		if err != nil {
			str = fmt.Sprint(v)
		}
		return str
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}
