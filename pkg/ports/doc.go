/*
Package ports defines the driven ports (interfaces) of the arbor engine.

These interfaces decouple the driver loop from the collaborators around it,
allowing fatal traces to be persisted in different backends and the debug
overlay to talk to any interactive frontend.

# Key Interfaces

  - TraceStore: Persists the diagnostic traces of fatal errors.
  - DebugConsole: Reads debugger commands and displays debugger output.
*/
package ports
