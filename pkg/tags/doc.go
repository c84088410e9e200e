// Package tags provides the core element set run by the engine.
//
// Every tag embeds Element, which carries its place in the tree and the
// common "if" guard. Attributes are plain struct fields decoded by the dsl
// package; expression attributes are evaluated against the Env when the
// tag runs, never when it is built.
//
// Control flow:
//
//	block, if, elif, else, switch, case, default-case
//	for, while, repeat, break, continue
//
// Exceptions:
//
//	try, catch, throw, retry, trap
//
// Calls and data:
//
//	macro, call, yield, return, exit, closure, invoke
//	let, with, echo, worker, breakpoint
package tags
