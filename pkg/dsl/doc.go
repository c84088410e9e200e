/*
Package dsl provides a Go DSL for programmatically constructing Arbor logic trees.

A tree is described with Spec values and built against a registry of element
types. Attributes are decoded into the element structs (see package tags);
IDs, parent links and line numbers are assigned by the builder.

Example usage:

	package main

	import (
		"github.com/aretw0/arbor/pkg/dsl"
		"github.com/aretw0/arbor/pkg/tags"
	)

	func main() {
		program := dsl.El("block", nil,
			dsl.El("for", dsl.Attrs{"src": "[1, 2, 3]", "dst": "x"},
				dsl.El("if", dsl.Attrs{"test": "x == 2"},
					dsl.El("continue", nil),
				),
				dsl.El("echo", dsl.Attrs{"text": "${x}"}),
			),
		).Named("demo")

		root, err := dsl.New(tags.NewRegistry(), "demo.xml").Build(program)
		// ... run root with the engine
	}
*/
package dsl
