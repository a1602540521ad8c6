package testutil

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/HerbHall/pppmirror/internal/routeros"
)

// Compile-time interface guard.
var _ routeros.Dialer = (*FakeRouter)(nil)

// Call records one session operation seen by a FakeRouter.
type Call struct {
	Op     string // list, find, add, update, remove
	Path   routeros.Path
	ID     string
	Fields map[string]string
}

// FakeRouter is an in-memory RouterOS device. It implements
// routeros.Dialer; every Dial returns a session over the same state, so a
// test can seed records, run engine operations, and inspect the result.
type FakeRouter struct {
	mu       sync.Mutex
	items    map[routeros.Path][]routeros.Record
	nextID   int
	calls    []Call
	dials    int
	open     int
	dialErr  error
	failures map[string]error
	targets  []routeros.Target
}

// NewFakeRouter returns an empty device.
func NewFakeRouter() *FakeRouter {
	return &FakeRouter{
		items:    make(map[routeros.Path][]routeros.Record),
		failures: make(map[string]error),
		nextID:   1,
	}
}

// Seed appends records to path. Records without ".id" get one assigned.
func (f *FakeRouter) Seed(path routeros.Path, recs ...routeros.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range recs {
		r = maps.Clone(r)
		if r[".id"] == "" {
			r[".id"] = f.allocID()
		}
		f.items[path] = append(f.items[path], r)
	}
}

// Records returns a copy of the records currently at path.
func (f *FakeRouter) Records(path routeros.Path) []routeros.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]routeros.Record, 0, len(f.items[path]))
	for _, r := range f.items[path] {
		out = append(out, maps.Clone(r))
	}
	return out
}

// Reset drops every record at path.
func (f *FakeRouter) Reset(path routeros.Path) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, path)
}

// FailDial makes every subsequent Dial return err. Pass nil to clear.
func (f *FakeRouter) FailDial(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dialErr = err
}

// FailOn makes op ("list", "find", "add", "update", "remove") on path
// return err until cleared with a nil err.
func (f *FakeRouter) FailOn(op string, path routeros.Path, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := op + " " + string(path)
	if err == nil {
		delete(f.failures, key)
		return
	}
	f.failures[key] = err
}

// Calls returns every operation performed so far, in order.
func (f *FakeRouter) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Dials returns how many sessions were opened successfully.
func (f *FakeRouter) Dials() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dials
}

// OpenSessions returns how many sessions are still open.
func (f *FakeRouter) OpenSessions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

// Targets returns the targets passed to Dial.
func (f *FakeRouter) Targets() []routeros.Target {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]routeros.Target(nil), f.targets...)
}

// Dial implements routeros.Dialer.
func (f *FakeRouter) Dial(_ context.Context, target routeros.Target) (routeros.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.targets = append(f.targets, target)
	if f.dialErr != nil {
		return nil, &routeros.ConnectionError{Address: target.HostPort(), Err: f.dialErr}
	}
	f.dials++
	f.open++
	return &fakeSession{router: f}, nil
}

func (f *FakeRouter) allocID() string {
	id := fmt.Sprintf("*%X", f.nextID)
	f.nextID++
	return id
}

func (f *FakeRouter) begin(op string, path routeros.Path, id string, fields map[string]string) error {
	f.calls = append(f.calls, Call{Op: op, Path: path, ID: id, Fields: maps.Clone(fields)})
	return f.failures[op+" "+string(path)]
}

func (f *FakeRouter) indexOf(path routeros.Path, id string) int {
	for i, r := range f.items[path] {
		if r[".id"] == id {
			return i
		}
	}
	return -1
}

type fakeSession struct {
	router *FakeRouter
	closed bool
}

func (s *fakeSession) List(ctx context.Context, path routeros.Path) ([]routeros.Record, error) {
	return s.Find(ctx, path, nil)
}

func (s *fakeSession) Find(_ context.Context, path routeros.Path, filter map[string]string) ([]routeros.Record, error) {
	f := s.router
	f.mu.Lock()
	defer f.mu.Unlock()
	op := "find"
	if filter == nil {
		op = "list"
	}
	if err := f.begin(op, path, "", filter); err != nil {
		return nil, err
	}
	var out []routeros.Record
	for _, r := range f.items[path] {
		if matches(r, filter) {
			out = append(out, maps.Clone(r))
		}
	}
	return out, nil
}

func (s *fakeSession) Add(_ context.Context, path routeros.Path, fields map[string]string) (string, error) {
	f := s.router
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("add", path, "", fields); err != nil {
		return "", err
	}
	r := maps.Clone(fields)
	if r == nil {
		r = routeros.Record{}
	}
	r[".id"] = f.allocID()
	f.items[path] = append(f.items[path], r)
	return r[".id"], nil
}

func (s *fakeSession) Update(_ context.Context, path routeros.Path, id string, fields map[string]string) error {
	f := s.router
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("update", path, id, fields); err != nil {
		return err
	}
	i := f.indexOf(path, id)
	if i < 0 {
		return &routeros.ResourceError{Path: path, Command: "/set", Message: "no such item"}
	}
	maps.Copy(f.items[path][i], fields)
	return nil
}

func (s *fakeSession) Remove(_ context.Context, path routeros.Path, id string) error {
	f := s.router
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("remove", path, id, nil); err != nil {
		return err
	}
	i := f.indexOf(path, id)
	if i < 0 {
		return &routeros.ResourceError{Path: path, Command: "/remove", Message: "no such item"}
	}
	f.items[path] = append(f.items[path][:i], f.items[path][i+1:]...)
	return nil
}

func (s *fakeSession) Close() error {
	f := s.router
	f.mu.Lock()
	defer f.mu.Unlock()
	if !s.closed {
		s.closed = true
		f.open--
	}
	return nil
}

func matches(r routeros.Record, filter map[string]string) bool {
	for k, v := range filter {
		if r[k] != v {
			return false
		}
	}
	return true
}
