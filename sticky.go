package pulse

import (
	"reflect"
	"sync"
)

// stickyStore retains the most recent sticky event per concrete type.
// It has its own lock so sticky reads never contend with registration.
type stickyStore struct {
	mu     sync.Mutex
	events map[reflect.Type]any
}

func newStickyStore() *stickyStore {
	return &stickyStore{events: make(map[reflect.Type]any)}
}

func (s *stickyStore) put(event any) {
	s.mu.Lock()
	s.events[reflect.TypeOf(event)] = event
	s.mu.Unlock()
}

func (s *stickyStore) get(t reflect.Type) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events[t]
}

func (s *stickyStore) remove(t reflect.Type) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev := s.events[t]
	delete(s.events, t)
	return ev
}

// removeEvent removes the stored sticky event only if it is the given
// one. Uncomparable event types never match.
func (s *stickyStore) removeEvent(event any) bool {
	t := reflect.TypeOf(event)
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.events[t]
	if !ok || !sameEvent(stored, event) {
		return false
	}
	delete(s.events, t)
	return true
}

func (s *stickyStore) removeAll() {
	s.mu.Lock()
	clear(s.events)
	s.mu.Unlock()
}

// snapshot copies the store for iteration outside the lock.
func (s *stickyStore) snapshot() map[reflect.Type]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[reflect.Type]any, len(s.events))
	for t, ev := range s.events {
		out[t] = ev
	}
	return out
}

// sameEvent compares two events, guarding against uncomparable dynamic
// types which would make == panic.
func sameEvent(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}
	if !reflect.TypeOf(a).Comparable() || !reflect.TypeOf(b).Comparable() {
		return false
	}
	return a == b
}
