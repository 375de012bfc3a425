package lang

import (
	"maps"
	"slices"
)

// Env is a lexical scope mapping names to values. Lookups that miss in a
// scope continue in its parent.
type Env struct {
	vars   map[string]Value
	parent *Env
	sealed bool // rejects rebinding from enclosed scopes
}

// NewEnv returns an empty scope enclosed by parent, which may be nil.
func NewEnv(parent *Env) *Env {
	return &Env{vars: make(map[string]Value), parent: parent}
}

// Parent returns the enclosing scope, or nil for the outermost one.
func (e *Env) Parent() *Env { return e.parent }

// Get returns the value bound to name in the nearest scope that defines it.
func (e *Env) Get(name string) (Value, bool) {
	for s := e; s != nil; s = s.parent {
		if v, ok := s.vars[name]; ok {
			return v, true
		}
	}

	return None(), false
}

// Define binds name in this scope, shadowing any outer binding.
func (e *Env) Define(name string, v Value) { e.vars[name] = v }

// Set rebinds name in the nearest scope that defines it. If no scope does,
// name is defined in this scope. The search stops at a sealed scope, such as
// the builtins, so assignment there shadows the binding instead.
func (e *Env) Set(name string, v Value) {
	for s := e; s != nil && !s.sealed; s = s.parent {
		if _, ok := s.vars[name]; ok {
			s.vars[name] = v

			return
		}
	}

	e.vars[name] = v
}

// Local returns the names bound directly in this scope, sorted.
func (e *Env) Local() []string {
	return slices.Sorted(maps.Keys(e.vars))
}

// Names returns every name visible from this scope, sorted and without
// duplicates.
func (e *Env) Names() []string {
	seen := make(map[string]struct{})

	for s := e; s != nil; s = s.parent {
		for name := range s.vars {
			seen[name] = struct{}{}
		}
	}

	return slices.Sorted(maps.Keys(seen))
}
