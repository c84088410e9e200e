/*
Package domain contains the core types shared by the arbor engine and the nodes it executes.

It defines the contract a logic node must satisfy, the directives a node hands back to
the engine, the exception and control signal values that travel through the driver loop,
and the records the engine leaves behind (call frames, closures, diagnostic traces).
This package is kept free of I/O and persistence concerns.

# Key Entities

  - Node: A unit of the executable document tree with a guard (Check) and an execution method (Logic).
  - Directive: What a suspended node asks the engine to run next (DelegateNode, DelegateChildren, SkipNext).
  - Exception: A domain error with a dotted, hierarchical type ("db.timeout").
  - Signals: Break, Continue, Unwind, Abort and Breakpoint interrupts consumed by the driver.
  - Env: The scoped key-value environment nodes read from and write to.
  - Trace: The diagnostic record attached to fatal errors.
*/
package domain
