/*
Package scope implements the environment a logic run executes against.

A Context holds a root scope plus a stack of frames. Each frame is a stack of
scopes searched innermost first; keys starting with "." always address the
root. The Context also owns the call stack of call-frame records and evaluates
expressions with expr-lang.

A Context is owned by exactly one driver invocation at a time and is not safe
for concurrent use. Workers get a private copy via Fork.
*/
package scope
