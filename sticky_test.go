package pulse

import (
	"context"
	"sync"
	"testing"

	"github.com/dshills/pulse/handler"
)

type configChanged struct {
	key   string
	value string
}

type stickySub struct {
	mu   sync.Mutex
	seen []configChanged
}

func (s *stickySub) OnConfigChanged(ctx context.Context, e configChanged) error {
	s.mu.Lock()
	s.seen = append(s.seen, e)
	s.mu.Unlock()
	return nil
}

func (s *stickySub) EventSpecs() []handler.Spec {
	return []handler.Spec{
		handler.On("OnConfigChanged", (*stickySub).OnConfigChanged, handler.WithSticky()),
	}
}

func TestStickyReplayOnRegister(t *testing.T) {
	bus := New(WithNoSubscriberEvent(false), WithNoSubscriberLogging(false))

	if err := bus.PostSticky(context.Background(), configChanged{key: "theme", value: "dark"}); err != nil {
		t.Fatalf("PostSticky: %v", err)
	}

	// Registration after the post still sees the event.
	sub := &stickySub{}
	if err := bus.Register(sub); err != nil {
		t.Fatalf("Register: %v", err)
	}
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if len(sub.seen) != 1 || sub.seen[0].value != "dark" {
		t.Fatalf("replay %v", sub.seen)
	}
}

func TestStickyLatestWins(t *testing.T) {
	bus := New(WithNoSubscriberEvent(false), WithNoSubscriberLogging(false))

	for _, v := range []string{"light", "dark", "solarized"} {
		if err := bus.PostSticky(context.Background(), configChanged{key: "theme", value: v}); err != nil {
			t.Fatalf("PostSticky: %v", err)
		}
	}

	sub := &stickySub{}
	if err := bus.Register(sub); err != nil {
		t.Fatalf("Register: %v", err)
	}
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if len(sub.seen) != 1 || sub.seen[0].value != "solarized" {
		t.Fatalf("replay %v, want only the latest", sub.seen)
	}
}

func TestStickyAccessors(t *testing.T) {
	bus := New(WithNoSubscriberEvent(false), WithNoSubscriberLogging(false))
	ev := configChanged{key: "theme", value: "dark"}
	if err := bus.PostSticky(context.Background(), ev); err != nil {
		t.Fatalf("PostSticky: %v", err)
	}

	if got := bus.Sticky(TypeOf[configChanged]()); got != any(ev) {
		t.Fatalf("Sticky = %#v", got)
	}
	if got, ok := StickyOf[configChanged](bus); !ok || got != ev {
		t.Fatalf("StickyOf = %#v, %v", got, ok)
	}

	// Conditional removal only matches the stored event.
	if bus.RemoveStickyEvent(configChanged{key: "theme", value: "light"}) {
		t.Fatal("RemoveStickyEvent removed a non-matching event")
	}
	if !bus.RemoveStickyEvent(ev) {
		t.Fatal("RemoveStickyEvent did not remove the stored event")
	}
	if bus.Sticky(TypeOf[configChanged]()) != nil {
		t.Fatal("sticky event still stored after removal")
	}

	if err := bus.PostSticky(context.Background(), ev); err != nil {
		t.Fatalf("PostSticky: %v", err)
	}
	if got := bus.RemoveSticky(TypeOf[configChanged]()); got != any(ev) {
		t.Fatalf("RemoveSticky = %#v", got)
	}

	if err := bus.PostSticky(context.Background(), ev); err != nil {
		t.Fatalf("PostSticky: %v", err)
	}
	bus.RemoveAllSticky()
	if bus.Sticky(TypeOf[configChanged]()) != nil {
		t.Fatal("RemoveAllSticky left an event behind")
	}
}

func TestStickyNoReplayAfterRemoval(t *testing.T) {
	bus := New(WithNoSubscriberEvent(false), WithNoSubscriberLogging(false))
	if err := bus.PostSticky(context.Background(), configChanged{value: "dark"}); err != nil {
		t.Fatalf("PostSticky: %v", err)
	}
	bus.RemoveSticky(TypeOf[configChanged]())

	sub := &stickySub{}
	if err := bus.Register(sub); err != nil {
		t.Fatalf("Register: %v", err)
	}
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if len(sub.seen) != 0 {
		t.Fatalf("replayed a removed sticky event: %v", sub.seen)
	}
}

func TestStickyNonStickyHandlerGetsNoReplay(t *testing.T) {
	bus := New(WithNoSubscriberEvent(false), WithNoSubscriberLogging(false))
	if err := bus.PostSticky(context.Background(), pingEvent{n: 1}); err != nil {
		t.Fatalf("PostSticky: %v", err)
	}

	rec := &pingRecorder{}
	if err := bus.Register(rec); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if got := rec.events(); len(got) != 0 {
		t.Fatalf("non-sticky handler replayed: %v", got)
	}
}
