package pulse

import (
	"reflect"
	"sort"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// closureCacheSize bounds the number of concrete event types whose
// delivery closure is cached.
const closureCacheSize = 1024

// closureEntry is one delivery target type within an event's closure.
type closureEntry struct {
	// Type is the type fan-out queries the registry with.
	Type reflect.Type

	// index navigates to the embedded struct value delivered under
	// Type. It is nil for the concrete type and for interface entries,
	// which deliver the original event.
	index []int
}

// payload returns the value delivered under the entry's type.
func (e closureEntry) payload(event any) any {
	if e.index == nil {
		return event
	}
	v := reflect.ValueOf(event)
	for v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	return v.FieldByIndex(e.index).Interface()
}

// typeCache computes and caches delivery closures: for a concrete event
// type, the ordered list of types its deliveries fan out under. The
// closure is the concrete type itself, then the registered interface
// event types it satisfies, then its embedded struct types depth-first.
//
// Interface entries depend on which interface event types the bus has
// seen, so the cache is per bus and is purged whenever a new interface
// event type becomes known.
type typeCache struct {
	mu         sync.Mutex
	closures   *lru.Cache[reflect.Type, []closureEntry]
	interfaces map[reflect.Type]struct{}

	// gen counts interface-set changes. A closure computed against an
	// older generation must not be cached: the purge that made room for
	// the new interface type would be silently undone.
	gen uint64
}

func newTypeCache() *typeCache {
	c, err := lru.New[reflect.Type, []closureEntry](closureCacheSize)
	if err != nil {
		panic(err)
	}
	return &typeCache{
		closures:   c,
		interfaces: make(map[reflect.Type]struct{}),
	}
}

// addInterface records an interface event type seen at registration and
// purges cached closures when it is new.
func (c *typeCache) addInterface(t reflect.Type) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.interfaces[t]; ok {
		return
	}
	c.interfaces[t] = struct{}{}
	c.gen++
	c.closures.Purge()
}

// closure returns the delivery closure of a concrete event type.
func (c *typeCache) closure(t reflect.Type) []closureEntry {
	if entries, ok := c.closures.Get(t); ok {
		return entries
	}

	c.mu.Lock()
	gen := c.gen
	entries := []closureEntry{{Type: t}}
	for _, iface := range c.sortedInterfacesLocked() {
		if t.Implements(iface) {
			entries = append(entries, closureEntry{Type: iface})
		}
	}
	c.mu.Unlock()

	seen := map[reflect.Type]bool{t: true}
	st := t
	if st.Kind() == reflect.Pointer {
		st = st.Elem()
	}
	if st.Kind() == reflect.Struct {
		entries = walkEmbedded(entries, seen, st, nil)
	}

	c.install(t, gen, entries)
	return entries
}

// install caches a computed closure unless the interface set changed
// while it was being computed. The next closure call for the type
// recomputes against the current set.
func (c *typeCache) install(t reflect.Type, gen uint64, entries []closureEntry) {
	c.mu.Lock()
	if c.gen == gen {
		c.closures.Add(t, entries)
	}
	c.mu.Unlock()
}

// walkEmbedded appends the named non-stdlib embedded struct types
// depth-first, each with the field index to extract its value.
func walkEmbedded(entries []closureEntry, seen map[reflect.Type]bool, st reflect.Type, path []int) []closureEntry {
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		if !f.Anonymous {
			continue
		}
		ft := f.Type
		if ft.Kind() == reflect.Pointer {
			// An embedded pointer supertype cannot be delivered by
			// value extraction.
			continue
		}
		if ft.Kind() != reflect.Struct || ft.Name() == "" || stdlibEventType(ft) || seen[ft] {
			continue
		}
		seen[ft] = true
		sub := make([]int, len(path)+1)
		copy(sub, path)
		sub[len(path)] = i
		entries = append(entries, closureEntry{Type: ft, index: sub})
		entries = walkEmbedded(entries, seen, ft, sub)
	}
	return entries
}

// sortedInterfacesLocked returns the known interface event types in a
// stable order so closures are deterministic.
func (c *typeCache) sortedInterfacesLocked() []reflect.Type {
	out := make([]reflect.Type, 0, len(c.interfaces))
	for t := range c.interfaces {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.PkgPath() != b.PkgPath() {
			return a.PkgPath() < b.PkgPath()
		}
		return a.Name() < b.Name()
	})
	return out
}

// stdlibEventType reports whether a named type comes from the standard
// library: the first element of its import path contains no dot.
func stdlibEventType(t reflect.Type) bool {
	pkg := t.PkgPath()
	if pkg == "" {
		return true
	}
	first, _, _ := strings.Cut(pkg, "/")
	return !strings.Contains(first, ".")
}
