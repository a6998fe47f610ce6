package handler

import (
	"reflect"
	"sync"
)

// findState is the scratch state of one resolution. States are pooled
// like the descriptors they produce are cached: resolution is rare but
// bursty during startup.
type findState struct {
	subscriber  reflect.Type
	descriptors []*Descriptor
	claims      map[string]claim
	explicit    map[reflect.Type]bool
}

// claim records which level owns a (name, event type) pair.
type claim struct {
	path     []int
	owner    reflect.Type
	explicit bool
}

const findStatePoolSize = 4

var (
	findStateMu   sync.Mutex
	findStatePool [findStatePoolSize]*findState
)

func acquireFindState() *findState {
	findStateMu.Lock()
	for i, fs := range findStatePool {
		if fs != nil {
			findStatePool[i] = nil
			findStateMu.Unlock()
			return fs
		}
	}
	findStateMu.Unlock()
	return &findState{
		claims:   make(map[string]claim),
		explicit: make(map[reflect.Type]bool),
	}
}

func releaseFindState(fs *findState) {
	fs.subscriber = nil
	fs.descriptors = nil
	clear(fs.claims)
	clear(fs.explicit)
	findStateMu.Lock()
	for i := range findStatePool {
		if findStatePool[i] == nil {
			findStatePool[i] = fs
			break
		}
	}
	findStateMu.Unlock()
}

// checkAdd decides whether a handler may join the result set.
//
// The same (name, event type) pair may be seen more than once across the
// hierarchy. An existing claim at an outer level (its path is a prefix of
// the new one) shadows the new handler. An explicit claim shadows any
// reflection-discovered duplicate, wherever it sits, because reflection
// sees promoted methods it cannot tell apart from declared ones. Two
// claims from unrelated levels are ambiguous.
func (fs *findState) checkAdd(name string, event reflect.Type, path []int, owner reflect.Type, explicit, relaxed bool) (bool, error) {
	key := name + ">" + typeKey(event)
	old, ok := fs.claims[key]
	if !ok {
		fs.claims[key] = claim{path: path, owner: owner, explicit: explicit}
		return true, nil
	}
	if old.explicit && !explicit {
		return false, nil
	}
	if isPathPrefix(old.path, path) {
		return false, nil
	}
	if relaxed {
		return true, nil
	}
	return false, &AmbiguousHandlerError{
		Subscriber: fs.subscriber,
		Name:       name,
		Event:      event,
		Owners:     [2]reflect.Type{old.owner, owner},
	}
}

// isPathPrefix reports whether a is a proper-or-equal prefix of b, which
// means a's level embeds (directly or transitively) b's level.
func isPathPrefix(a, b []int) bool {
	if len(a) > len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
