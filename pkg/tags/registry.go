package tags

import (
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/registry"
)

// Register adds the core tag set to reg.
func Register(reg *registry.Registry) {
	add := func(typ string, fn func() domain.Node) {
		reg.Register(typ, registry.Factory(fn))
	}
	add("block", func() domain.Node { return &Block{} })
	add(TypeIf, func() domain.Node { return &If{} })
	add(TypeElif, func() domain.Node { return &Elif{} })
	add(TypeElse, func() domain.Node { return &Else{} })
	add(TypeSwitch, func() domain.Node { return &Switch{} })
	add(TypeCase, func() domain.Node { return &Case{} })
	add(TypeDefaultCase, func() domain.Node { return &DefaultCase{} })
	add("for", func() domain.Node { return &For{} })
	add("while", func() domain.Node { return &While{} })
	add("repeat", func() domain.Node { return &Repeat{} })
	add("break", func() domain.Node { return &Break{} })
	add("continue", func() domain.Node { return &Continue{} })
	add("try", func() domain.Node { return &Try{} })
	add(domain.TypeCatch, func() domain.Node { return &Catch{} })
	add("throw", func() domain.Node { return &Throw{} })
	add("retry", func() domain.Node { return &Retry{} })
	add("trap", func() domain.Node { return &Trap{} })
	add("macro", func() domain.Node { return &Macro{} })
	add("call", func() domain.Node { return &Call{} })
	add("yield", func() domain.Node { return &Yield{} })
	add("return", func() domain.Node { return &Return{} })
	add("exit", func() domain.Node { return &Exit{} })
	add("let", func() domain.Node { return &Let{} })
	add("with", func() domain.Node { return &With{} })
	add("echo", func() domain.Node { return &Echo{} })
	add("breakpoint", func() domain.Node { return &Breakpoint{} })
	add(workerApp, func() domain.Node { return &Worker{} })
	add("closure", func() domain.Node { return &Closure{} })
	add("invoke", func() domain.Node { return &Invoke{} })
}

// NewRegistry returns a registry holding the core tag set.
func NewRegistry() *registry.Registry {
	reg := registry.NewRegistry()
	Register(reg)
	return reg
}
