package handler

import "reflect"

// Table is a pre-built handler lookup, the preferred resolution source.
// A Table entry for a type replaces both the Describer call and the
// reflection scan for that hierarchy level.
//
// Tables are meant to be built once during startup and are not safe for
// concurrent mutation afterwards.
type Table struct {
	entries map[reflect.Type][]Spec
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{entries: make(map[reflect.Type][]Spec)}
}

// Add registers the Specs for a subscriber type. The prototype carries
// the type only, so a nil pointer is fine:
//
//	t.Add((*AuditLog)(nil), handler.On("OnOrderPlaced", (*AuditLog).OnOrderPlaced))
func (t *Table) Add(prototype any, specs ...Spec) *Table {
	st := structTypeOf(reflect.TypeOf(prototype))
	if st == nil {
		panic("handler: Table.Add prototype must be a struct or pointer to struct")
	}
	t.entries[st] = append(t.entries[st], specs...)
	return t
}

// lookup returns the Specs for a struct type, or nil when the Table has
// no entry for it.
func (t *Table) lookup(st reflect.Type) []Spec {
	if t == nil {
		return nil
	}
	return t.entries[st]
}

// structTypeOf dereferences pointer types and returns the struct type, or
// nil when t is not a struct or pointer to struct.
func structTypeOf(t reflect.Type) reflect.Type {
	if t == nil {
		return nil
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	return t
}
