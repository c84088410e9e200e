package cli

import (
	"fmt"
	"sort"

	"github.com/aretw0/arbor/pkg/dsl"
)

// Demo is a built-in program the CLI can run.
type Demo struct {
	Name    string
	Summary string
	Program dsl.Spec
	// Data seeds the root scope.
	Data map[string]any
}

type attrs = dsl.Attrs

var el = dsl.El

var demos = map[string]Demo{
	"hello": {
		Name:    "hello",
		Summary: "variables, substitution and conditionals",
		Data:    map[string]any{"hour": 9},
		Program: el("block", nil,
			el("let", attrs{"name": "'world'"}),
			el("if", attrs{"test": "hour < 12"},
				el("echo", attrs{"text": "good morning, ${name}"}),
			),
			el("elif", attrs{"test": "hour < 18"},
				el("echo", attrs{"text": "good afternoon, ${name}"}),
			),
			el("else", nil,
				el("echo", attrs{"text": "good evening, ${name}"}),
			),
		).Named("hello"),
	},
	"loops": {
		Name:    "loops",
		Summary: "for, while and repeat with break and continue",
		Program: el("block", nil,
			el("for", attrs{"src": "['a', 'b', 'skip', 'c', 'stop', 'd']", "dst": "letter", "index": "i"},
				el("continue", attrs{"if": "letter == 'skip'"}),
				el("break", attrs{"if": "letter == 'stop'"}),
				el("echo", attrs{"text": "${i}: ${letter}"}),
			),
			el("let", attrs{"n": "1"}),
			el("while", attrs{"test": "n < 100"},
				el("let", attrs{"n": "n * 3"}),
			),
			el("echo", attrs{"text": "first power of 3 over 100: ${n}"}),
			el("repeat", attrs{"times": "3", "index": "k"},
				el("echo", attrs{"text": "tick ${k}"}),
			),
		).Named("loops"),
	},
	"exceptions": {
		Name:    "exceptions",
		Summary: "try/catch with dotted exception types and info fields",
		Program: el("block", nil,
			el("for", attrs{"src": "['db.timeout', 'db.lock', 'auth.denied']", "dst": "kind"},
				el("try", nil,
					el("throw", attrs{"exception": "${kind}", "msg": "simulated", "table": "'users'"}),
				),
				el("catch", attrs{"exception": "db.timeout", "dst": "err"},
					el("echo", attrs{"text": "timeout on ${err.info.table}, will retry later"}),
				),
				el("catch", attrs{"exception": "db.*", "dst": "err"},
					el("echo", attrs{"text": "database problem: ${err.type}"}),
				),
				el("catch", attrs{"dst": "err"},
					el("echo", attrs{"text": "other: ${err.type} (${err.msg})"}),
				),
			),
		).Named("exceptions"),
	},
	"retry": {
		Name:    "retry",
		Summary: "a flaky step retried with exponential backoff",
		Data:    map[string]any{"attempts": 0},
		Program: el("block", nil,
			el("retry", attrs{"times": "5", "exception": "net.*", "delay": "50ms", "backoff": "exponential", "dst": "attempt"},
				el("let", attrs{"attempts": "attempts + 1"}),
				el("echo", attrs{"text": "connecting (attempt ${attempt})"}),
				el("throw", attrs{"exception": "net.reset", "if": "attempts < 3"}),
			),
			el("echo", attrs{"text": "connected after ${attempts} attempts"}),
		).Named("retry"),
	},
	"macros": {
		Name:    "macros",
		Summary: "macros with return and yield, closures and invoke",
		Program: el("block", nil,
			el("macro", attrs{"name": "fib"},
				el("return", attrs{"value": "n", "if": "n < 2"}),
				el("call", attrs{"macro": "fib", "n": "n - 1", "dst": "a"}),
				el("call", attrs{"macro": "fib", "n": "n - 2", "dst": "b"}),
				el("return", attrs{"value": "a + b"}),
			),
			el("macro", attrs{"name": "section"},
				el("echo", attrs{"text": "== ${title} =="}),
				el("yield", nil),
				el("echo", attrs{"text": "== end =="}),
			),
			el("call", attrs{"macro": "section", "title": "'fibonacci'"},
				el("for", attrs{"src": "8", "dst": "i"},
					el("call", attrs{"macro": "fib", "n": "i", "dst": "f"}),
					el("echo", attrs{"text": "fib(${i}) = ${f}"}),
				),
			),
			el("let", attrs{"factor": "10"}),
			el("closure", attrs{"dst": "scale"},
				el("return", attrs{"value": "x * factor"}),
			),
			el("invoke", attrs{"src": "scale", "x": "4", "dst": "scaled"}),
			el("echo", attrs{"text": "scaled: ${scaled}"}),
		).Named("macros"),
	},
	"workers": {
		Name:    "workers",
		Summary: "background workers joined on first read",
		Program: el("block", nil,
			el("worker", attrs{"dst": "left", "timeout": "5s", "items": "[1, 2, 3]"},
				el("let", attrs{"sum": "0"}),
				el("for", attrs{"src": "items", "dst": "it"},
					el("let", attrs{"sum": "sum + it"}),
				),
				el("return", attrs{"value": "sum"}),
			),
			el("worker", attrs{"dst": "right", "timeout": "5s", "items": "[4, 5, 6]"},
				el("let", attrs{"sum": "0"}),
				el("for", attrs{"src": "items", "dst": "it"},
					el("let", attrs{"sum": "sum + it"}),
				),
				el("return", attrs{"value": "sum"}),
			),
			el("echo", attrs{"text": "left=${left} right=${right}"}),
		).Named("workers"),
	},
	"unhandled": {
		Name:    "unhandled",
		Summary: "an exception nothing catches, ending the run with a trace",
		Program: el("block", nil,
			el("macro", attrs{"name": "load"},
				el("throw", attrs{"exception": "db.timeout", "msg": "query took too long", "table": "table"}),
			),
			el("for", attrs{"src": "['users', 'orders']", "dst": "t"},
				el("echo", attrs{"text": "loading ${t}"}),
				el("call", attrs{"macro": "load", "table": "t"}),
			),
		).Named("unhandled"),
	},
	"breakpoint": {
		Name:    "breakpoint",
		Summary: "a loop that stops in the debugger on every pass",
		Program: el("block", nil,
			el("let", attrs{"total": "0"}),
			el("for", attrs{"src": "[5, 10, 15]", "dst": "x"},
				el("let", attrs{"total": "total + x"}),
				el("breakpoint", nil),
			),
			el("echo", attrs{"text": "total: ${total}"}),
		).Named("breakpoint"),
	},
}

// Demos returns the built-in programs sorted by name.
func Demos() []Demo {
	out := make([]Demo, 0, len(demos))
	for _, d := range demos {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// LookupDemo returns the built-in program called name.
func LookupDemo(name string) (Demo, error) {
	d, ok := demos[name]
	if !ok {
		return Demo{}, fmt.Errorf("unknown demo %q (see 'arbor demos')", name)
	}
	return d, nil
}
