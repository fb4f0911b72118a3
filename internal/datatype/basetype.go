// Package datatype implements the CSVW built-in datatypes and the derived
// datatype model: each basetype is a pure codec between lexical cell values
// and typed Go values, and Datatype adds per-column constraints on top.
//
// See https://www.w3.org/TR/tabular-metadata/#datatypes
package datatype

import (
	"fmt"
	"sort"
)

// Basetype is one of the fixed CSVW built-in datatypes. Implementations are
// stateless; all format-dependent state is derived once per Datatype via
// DerivedDescription and passed back into Parse/Format, so per-cell calls
// never re-parse the format.
type Basetype interface {
	Name() string
	// Ordered reports whether values support minimum/maximum bounds.
	Ordered() bool
	// Measured reports whether values support length constraints.
	Measured() bool
	// Example is a lexical value that round-trips through Parse and Format.
	Example() string

	DerivedDescription(dt *Datatype) (any, error)
	Parse(v string, props any) (any, error)
	Format(v any, props any) string
}

// LexicalError reports a cell value outside the lexical space of a basetype.
type LexicalError struct {
	Base  string
	Value string
}

func (e *LexicalError) Error() string {
	return fmt.Sprintf("invalid lexical value for %s: %s", e.Base, e.Value)
}

func lexical(base, v string) error {
	return &LexicalError{Base: base, Value: v}
}

// base carries the attribute bag shared by all basetypes and provides the
// identity codec, so concrete types only override what differs.
type base struct {
	name     string
	example  string
	ordered  bool
	measured bool
}

func (b base) Name() string    { return b.name }
func (b base) Ordered() bool   { return b.ordered }
func (b base) Measured() bool  { return b.measured }
func (b base) Example() string { return b.example }
func (b base) String() string  { return b.name }

func (b base) DerivedDescription(*Datatype) (any, error) { return nil, nil }

func (b base) Parse(v string, _ any) (any, error) { return v, nil }

func (b base) Format(v any, _ any) string { return fmt.Sprint(v) }

var registry = map[string]Basetype{}

func register(bt Basetype) Basetype {
	registry[bt.Name()] = bt
	return bt
}

// Lookup returns the basetype registered under name. The set is fixed by the
// CSVW recommendation and not runtime-extensible.
func Lookup(name string) (Basetype, bool) {
	bt, ok := registry[name]
	return bt, ok
}

// Names lists all registered basetype names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
