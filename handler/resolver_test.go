package handler

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

type loginEvent struct{ user string }
type logoutEvent struct{ user string }

type plainSubscriber struct {
	got []string
}

func (p *plainSubscriber) OnLogin(ctx context.Context, e loginEvent) error {
	p.got = append(p.got, "login:"+e.user)
	return nil
}

func (p *plainSubscriber) OnLogout(ctx context.Context, e logoutEvent) {
	p.got = append(p.got, "logout:"+e.user)
}

// Once and helper should not be mistaken for handlers.
func (p *plainSubscriber) Once()               {}
func (p *plainSubscriber) OnlyHelper(s string) {}
func (p *plainSubscriber) Handle(e loginEvent) {}

func TestResolveReflection(t *testing.T) {
	ClearCaches()
	r := NewResolver()

	ds, err := r.Resolve(reflect.TypeOf(&plainSubscriber{}))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(ds) != 2 {
		t.Fatalf("got %d descriptors, want 2", len(ds))
	}
	byName := map[string]*Descriptor{}
	for _, d := range ds {
		byName[d.Name] = d
	}
	login := byName["OnLogin"]
	if login == nil {
		t.Fatal("OnLogin not resolved")
	}
	if login.Event != reflect.TypeOf(loginEvent{}) {
		t.Errorf("OnLogin event = %v", login.Event)
	}
	if login.Context != Posting || login.Priority != 0 || login.Sticky {
		t.Errorf("reflection defaults not applied: %+v", login)
	}
	if byName["OnLogout"] == nil {
		t.Error("OnLogout (no error return) not resolved")
	}
}

func TestResolveInvoke(t *testing.T) {
	ClearCaches()
	r := NewResolver()

	sub := &plainSubscriber{}
	ds, err := r.Resolve(reflect.TypeOf(sub))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	for _, d := range ds {
		var ev any
		switch d.Name {
		case "OnLogin":
			ev = loginEvent{user: "ada"}
		case "OnLogout":
			ev = logoutEvent{user: "ada"}
		}
		if err := d.Invoke(sub, context.Background(), ev); err != nil {
			t.Fatalf("Invoke %s: %v", d.Name, err)
		}
	}
	if len(sub.got) != 2 {
		t.Fatalf("handlers recorded %v", sub.got)
	}
}

type malformedSubscriber struct{}

func (m *malformedSubscriber) OnBroken(e loginEvent) error { return nil } // missing context

func TestResolveStrictVerification(t *testing.T) {
	ClearCaches()

	if _, err := NewResolver(WithStrict(true)).Resolve(reflect.TypeOf(&malformedSubscriber{})); !errors.Is(err, ErrMalformedHandler) {
		t.Fatalf("strict: got %v, want ErrMalformedHandler", err)
	}

	ClearCaches()
	// Non-strict skips the method, leaving nothing.
	if _, err := NewResolver().Resolve(reflect.TypeOf(&malformedSubscriber{})); !errors.Is(err, ErrNoHandlers) {
		t.Fatalf("lenient: got %v, want ErrNoHandlers", err)
	}
}

func TestResolveNoHandlers(t *testing.T) {
	ClearCaches()
	type emptySubscriber struct{ n int }

	_, err := NewResolver().Resolve(reflect.TypeOf(&emptySubscriber{}))
	var nfe *NoHandlersFoundError
	if !errors.As(err, &nfe) {
		t.Fatalf("got %v, want NoHandlersFoundError", err)
	}
}

func TestResolveInvalidSubscriber(t *testing.T) {
	tests := []struct {
		name string
		typ  reflect.Type
	}{
		{"nil", nil},
		{"value struct", reflect.TypeOf(plainSubscriber{})},
		{"pointer to int", reflect.TypeOf(new(int))},
	}
	r := NewResolver()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := r.Resolve(tt.typ); !errors.Is(err, ErrInvalidSubscriber) {
				t.Errorf("got %v, want ErrInvalidSubscriber", err)
			}
		})
	}
}

type baseAuditor struct {
	calls []string
}

func (b *baseAuditor) OnLogin(ctx context.Context, e loginEvent) error {
	b.calls = append(b.calls, "base")
	return nil
}

type derivedAuditor struct {
	baseAuditor
	calls []string
}

func (d *derivedAuditor) OnLogin(ctx context.Context, e loginEvent) error {
	d.calls = append(d.calls, "derived")
	return nil
}

func TestResolveShadowing(t *testing.T) {
	ClearCaches()
	r := NewResolver()

	sub := &derivedAuditor{}
	ds, err := r.Resolve(reflect.TypeOf(sub))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(ds) != 1 {
		t.Fatalf("got %d descriptors, want 1 (outer shadows embedded)", len(ds))
	}
	if err := ds[0].Invoke(sub, context.Background(), loginEvent{}); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if len(sub.calls) != 1 || sub.calls[0] != "derived" {
		t.Errorf("outer handler not selected: outer=%v embedded=%v", sub.calls, sub.baseAuditor.calls)
	}
}

type embeddedOnly struct {
	baseAuditor
}

func TestResolveEmbeddedHandler(t *testing.T) {
	ClearCaches()
	r := NewResolver()

	sub := &embeddedOnly{}
	ds, err := r.Resolve(reflect.TypeOf(sub))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(ds) != 1 {
		t.Fatalf("got %d descriptors, want 1", len(ds))
	}
	if err := ds[0].Invoke(sub, context.Background(), loginEvent{}); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if len(sub.baseAuditor.calls) != 1 {
		t.Errorf("embedded handler not invoked: %v", sub.baseAuditor.calls)
	}
}

type leftAuditor struct{}

func (l *leftAuditor) OnLogin(ctx context.Context, e loginEvent) error { return nil }

type rightAuditor struct{}

func (r *rightAuditor) OnLogin(ctx context.Context, e loginEvent) error { return nil }

type conflicted struct {
	leftAuditor
	rightAuditor
}

func TestResolveAmbiguity(t *testing.T) {
	ClearCaches()

	_, err := NewResolver().Resolve(reflect.TypeOf(&conflicted{}))
	var ae *AmbiguousHandlerError
	if !errors.As(err, &ae) {
		t.Fatalf("got %v, want AmbiguousHandlerError", err)
	}
	if !errors.Is(err, ErrAmbiguousHandler) {
		t.Error("AmbiguousHandlerError does not match sentinel")
	}

	ClearCaches()
	ds, err := NewResolver(WithRelaxedAmbiguity(true)).Resolve(reflect.TypeOf(&conflicted{}))
	if err != nil {
		t.Fatalf("relaxed Resolve: %v", err)
	}
	if len(ds) != 2 {
		t.Fatalf("relaxed: got %d descriptors, want both kept", len(ds))
	}
}

type describedSubscriber struct {
	got []string
}

func (d *describedSubscriber) OnLogin(ctx context.Context, e loginEvent) error {
	d.got = append(d.got, e.user)
	return nil
}

func (d *describedSubscriber) EventSpecs() []Spec {
	return []Spec{
		On("OnLogin", (*describedSubscriber).OnLogin,
			WithContext(Background),
			WithPriority(7),
			WithSticky()),
	}
}

func TestResolveDescriber(t *testing.T) {
	ClearCaches()
	r := NewResolver()

	ds, err := r.Resolve(reflect.TypeOf(&describedSubscriber{}))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(ds) != 1 {
		t.Fatalf("got %d descriptors, want 1", len(ds))
	}
	d := ds[0]
	if d.Context != Background || d.Priority != 7 || !d.Sticky {
		t.Errorf("describer metadata lost: %+v", d)
	}

	sub := &describedSubscriber{}
	if err := d.Invoke(sub, context.Background(), loginEvent{user: "ada"}); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if len(sub.got) != 1 || sub.got[0] != "ada" {
		t.Errorf("describer invoke: %v", sub.got)
	}
}

func TestResolveTablePrecedence(t *testing.T) {
	ClearCaches()

	// The Table entry overrides the Describer's own metadata.
	table := NewTable().Add((*describedSubscriber)(nil),
		On("OnLogin", (*describedSubscriber).OnLogin, WithPriority(99)))
	r := NewResolver(WithTable(table))

	ds, err := r.Resolve(reflect.TypeOf(&describedSubscriber{}))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(ds) != 1 || ds[0].Priority != 99 {
		t.Fatalf("table entry not preferred: %+v", ds)
	}
}

func TestResolveIgnoreTable(t *testing.T) {
	ClearCaches()

	// Ignoring table and describer leaves reflection defaults.
	r := NewResolver(WithIgnoreTable(true))
	ds, err := r.Resolve(reflect.TypeOf(&describedSubscriber{}))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(ds) != 1 || ds[0].Context != Posting || ds[0].Priority != 0 {
		t.Fatalf("reflection defaults expected: %+v", ds)
	}
}

func TestResolveCaching(t *testing.T) {
	ClearCaches()
	r := NewResolver()
	t1 := reflect.TypeOf(&plainSubscriber{})

	first, err := r.Resolve(t1)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	second, err := r.Resolve(t1)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(first) != len(second) || first[0] != second[0] {
		t.Error("second resolution did not reuse cached descriptors")
	}

	ClearCaches()
	third, err := r.Resolve(t1)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if third[0] == first[0] {
		t.Error("ClearCaches did not drop cached descriptors")
	}
}

func TestMarkerName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"OnLogin", true},
		{"OnX", true},
		{"On", false},
		{"Once", false},
		{"Online", false},
		{"Handle", false},
		{"onLogin", false},
	}
	for _, tt := range tests {
		if got := markerName(tt.name); got != tt.want {
			t.Errorf("markerName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestExecContextString(t *testing.T) {
	tests := []struct {
		c    ExecContext
		want string
	}{
		{Posting, "posting"},
		{Main, "main"},
		{MainOrdered, "main-ordered"},
		{Background, "background"},
		{Async, "async"},
		{ExecContext(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.c.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", int(tt.c), got, tt.want)
		}
	}
}
