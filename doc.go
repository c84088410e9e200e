/*
Package arbor is a logic execution engine: a tree-walking interpreter that
runs trees of logic nodes on an explicit stack.

Any node can suspend while its children run, so control flow (loops,
try/catch, retries, calls, early returns) is expressed by nodes themselves
rather than by the host language's call stack. The engine adds exceptions
with dotted type matching, trap nodes that retry or absorb failures, control
signals (break, continue, unwind, abort) and an interactive debugger.

# Concept

A node tree is built from element specs against a registry of element types.
The core tag set (package tags) covers conditionals, loops, exceptions,
macros, closures and workers. Running a tree needs an environment (Env),
the scoped key-value context nodes read and write.

# Usage

	eng := arbor.New()
	root, err := eng.Build("hello", dsl.El("block", nil,
		dsl.El("let", dsl.Attrs{"name": "'world'"}),
		dsl.El("echo", dsl.Attrs{"text": "hello ${name}"}),
	))
	if err != nil {
		log.Fatal(err)
	}
	if _, err := eng.Run(ctx, eng.NewEnv(nil), root); err != nil {
		var lerr *domain.LogicError
		if errors.As(err, &lerr) {
			fmt.Print(lerr.Trace)
		}
	}

Unhandled exceptions and host faults end the run with a *domain.LogicError
carrying a diagnostic trace. A TraceStore (memory, file or Redis) keeps those
traces for later inspection.
*/
package arbor
