package handler

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"golang.org/x/sync/singleflight"
)

var (
	cacheMu     sync.RWMutex
	methodCache = make(map[reflect.Type][]*Descriptor)

	contextType   = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType     = reflect.TypeOf((*error)(nil)).Elem()
	describerType = reflect.TypeOf((*Describer)(nil)).Elem()
)

// ClearCaches drops all cached resolutions. Resolutions are cached
// process-wide across all Resolvers, so this is mainly for tests.
func ClearCaches() {
	cacheMu.Lock()
	methodCache = make(map[reflect.Type][]*Descriptor)
	cacheMu.Unlock()
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithTable supplies a pre-built handler Table.
func WithTable(t *Table) ResolverOption {
	return func(r *Resolver) {
		r.table = t
	}
}

// WithStrict enables strict verification: an exported On* method with an
// invalid handler shape fails resolution instead of being skipped.
func WithStrict(strict bool) ResolverOption {
	return func(r *Resolver) {
		r.strict = strict
	}
}

// WithRelaxedAmbiguity keeps both handlers when unrelated embedded types
// declare the same (name, event type) pair, instead of failing.
func WithRelaxedAmbiguity(relaxed bool) ResolverOption {
	return func(r *Resolver) {
		r.relaxed = relaxed
	}
}

// WithIgnoreTable skips Table and Describer lookups and resolves with
// reflection only.
func WithIgnoreTable(ignore bool) ResolverOption {
	return func(r *Resolver) {
		r.ignoreTable = ignore
	}
}

// Resolver resolves subscriber types to their handler descriptors.
// The zero value resolves with reflection only; use NewResolver to
// configure a Table or the verification flags.
type Resolver struct {
	table       *Table
	strict      bool
	relaxed     bool
	ignoreTable bool

	group singleflight.Group
}

// NewResolver returns a Resolver with the given options applied.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the handlers of a subscriber type, most-derived level
// first. The subscriber type must be a pointer to a struct. Results are
// cached by type; concurrent calls for the same type share one
// resolution.
func (r *Resolver) Resolve(t reflect.Type) ([]*Descriptor, error) {
	cacheMu.RLock()
	ds, ok := methodCache[t]
	cacheMu.RUnlock()
	if ok {
		return ds, nil
	}

	if t == nil || t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidSubscriber, t)
	}

	v, err, _ := r.group.Do(typeKey(t), func() (any, error) {
		cacheMu.RLock()
		ds, ok := methodCache[t]
		cacheMu.RUnlock()
		if ok {
			return ds, nil
		}
		ds, err := r.resolve(t)
		if err != nil {
			return nil, err
		}
		cacheMu.Lock()
		methodCache[t] = ds
		cacheMu.Unlock()
		return ds, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*Descriptor), nil
}

// resolve runs two hierarchy walks. The first collects explicit
// declarations from the Table and from Describers; the second
// reflection-scans the levels that declared nothing explicitly.
// Reflection sees promoted methods it cannot tell apart from declared
// ones, so explicit declarations always win over reflection duplicates.
func (r *Resolver) resolve(t reflect.Type) ([]*Descriptor, error) {
	fs := acquireFindState()
	defer releaseFindState(fs)
	fs.subscriber = t

	if !r.ignoreTable {
		if err := r.walk(fs, t.Elem(), nil, r.collectExplicit); err != nil {
			return nil, err
		}
	}
	if err := r.walk(fs, t.Elem(), nil, r.collectReflect); err != nil {
		return nil, err
	}
	if len(fs.descriptors) == 0 {
		return nil, &NoHandlersFoundError{Type: t}
	}
	return slices.Clone(fs.descriptors), nil
}

// walk visits one hierarchy level and then its embedded structs
// depth-first. Standard-library and unnamed embedded types stop the walk
// on that branch.
func (r *Resolver) walk(fs *findState, st reflect.Type, path []int, collect func(*findState, reflect.Type, []int) error) error {
	if err := collect(fs, st, path); err != nil {
		return err
	}
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		if !f.Anonymous {
			continue
		}
		ft := f.Type
		if ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if ft.Kind() != reflect.Struct || ft.Name() == "" || stdlibType(ft) {
			continue
		}
		sub := append(slices.Clip(path), i)
		if err := r.walk(fs, ft, sub, collect); err != nil {
			return err
		}
	}
	return nil
}

// collectExplicit gathers a level's Table entry or, failing that, its own
// Describer specs.
func (r *Resolver) collectExplicit(fs *findState, st reflect.Type, path []int) error {
	if specs := r.table.lookup(st); specs != nil {
		fs.explicit[st] = true
		return r.addSpecs(fs, st, path, specs)
	}
	pt := reflect.PointerTo(st)
	if !pt.Implements(describerType) {
		return nil
	}
	specs := reflect.New(st).Interface().(Describer).EventSpecs()
	// A Describer promoted from an embedded type reports the embedded
	// type's handlers; those are collected when the walk reaches that
	// level.
	var own []Spec
	for _, sp := range specs {
		if sp.Owner == pt || sp.Owner == st {
			own = append(own, sp)
		}
	}
	if len(own) == 0 {
		return nil
	}
	fs.explicit[st] = true
	return r.addSpecs(fs, st, path, own)
}

// collectReflect reflection-scans a level unless it declared handlers
// explicitly.
func (r *Resolver) collectReflect(fs *findState, st reflect.Type, path []int) error {
	if fs.explicit[st] {
		return nil
	}
	return r.scanMethods(fs, st, path)
}

func (r *Resolver) addSpecs(fs *findState, st reflect.Type, path []int, specs []Spec) error {
	for _, sp := range specs {
		ok, err := fs.checkAdd(sp.Name, sp.Event, path, sp.Owner, true, r.relaxed)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		fs.descriptors = append(fs.descriptors, &Descriptor{
			Owner:     sp.Owner,
			Event:     sp.Event,
			Name:      sp.Name,
			Context:   sp.Context,
			Priority:  sp.Priority,
			Sticky:    sp.Sticky,
			fieldPath: slices.Clone(path),
			invoke:    sp.invoke,
		})
	}
	return nil
}

// scanMethods discovers handlers by reflection: exported methods named
// On* with the shape func(context.Context, E) error or without the error
// return. Discovered handlers get default metadata.
func (r *Resolver) scanMethods(fs *findState, st reflect.Type, path []int) error {
	pt := reflect.PointerTo(st)
	for i := 0; i < pt.NumMethod(); i++ {
		m := pt.Method(i)
		if !markerName(m.Name) {
			continue
		}
		ev, reason := handlerShape(m.Type)
		if ev == nil {
			if r.strict {
				return &MalformedHandlerError{Owner: pt, Name: m.Name, Reason: reason}
			}
			continue
		}
		ok, err := fs.checkAdd(m.Name, ev, path, pt, false, r.relaxed)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		fs.descriptors = append(fs.descriptors, &Descriptor{
			Owner:     pt,
			Event:     ev,
			Name:      m.Name,
			Context:   Posting,
			fieldPath: slices.Clone(path),
			invoke:    reflectInvoker(m),
		})
	}
	return nil
}

// reflectInvoker builds an invoke thunk around a reflected method.
func reflectInvoker(m reflect.Method) func(any, context.Context, any) error {
	fn := m.Func
	hasErr := m.Type.NumOut() == 1
	return func(recv any, ctx context.Context, event any) error {
		out := fn.Call([]reflect.Value{
			reflect.ValueOf(recv),
			reflect.ValueOf(ctx),
			reflect.ValueOf(event),
		})
		if hasErr && !out[0].IsNil() {
			return out[0].Interface().(error)
		}
		return nil
	}
}

// markerName reports whether a method name marks a handler: "On"
// followed by an upper-case rune, so Once or Online do not match.
func markerName(name string) bool {
	if len(name) <= 2 || !strings.HasPrefix(name, "On") {
		return false
	}
	r, _ := utf8.DecodeRuneInString(name[2:])
	return unicode.IsUpper(r)
}

// handlerShape validates a reflected method type (receiver included) and
// returns the event type, or nil with a reason.
func handlerShape(mt reflect.Type) (reflect.Type, string) {
	if mt.NumIn() != 3 {
		return nil, "must take exactly (context.Context, event)"
	}
	if mt.In(1) != contextType {
		return nil, "first parameter must be context.Context"
	}
	switch mt.NumOut() {
	case 0:
	case 1:
		if mt.Out(0) != errorType {
			return nil, "single return value must be error"
		}
	default:
		return nil, "must return nothing or a single error"
	}
	return mt.In(2), ""
}

// stdlibType reports whether a named type comes from the standard
// library: the first element of its import path contains no dot.
func stdlibType(t reflect.Type) bool {
	pkg := t.PkgPath()
	if pkg == "" {
		return true
	}
	first, _, _ := strings.Cut(pkg, "/")
	return !strings.Contains(first, ".")
}

// typeKey returns a stable singleflight key for a subscriber type.
func typeKey(t reflect.Type) string {
	if t.Kind() == reflect.Pointer {
		return "*" + typeKey(t.Elem())
	}
	return t.PkgPath() + "." + t.Name()
}
