package rx

import (
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"weak"
)

// Lifecycle states of a subscription.
const (
	stateRunning int32 = iota
	stateStopping
	stateStopped
)

var scopeSeq atomic.Uint64

// closed is returned by Done for the zero Subscription.
var closed = func() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}()

// scope is the shared backing state of a Subscription.
//
// Thread-safety: mu guards the slices and deferFn. No method holds mu while
// calling into another scope or into user code.
type scope struct {
	id    uint64
	state atomic.Int32

	mu          sync.Mutex
	children    []*scope
	parents     []weak.Pointer[scope]
	stoppers    []func()
	destructors []func()
	joiners     []func()
	deferFn     func(func())

	done chan struct{}
}

// Subscription represents the scope of one asynchronous activity.
//
// A Subscription holds a set of nested subscriptions, a list of callbacks to
// run when it stops, and an arena of state that is destroyed when it stops.
// Subscription is a handle: copies refer to the same scope and compare equal.
// The zero Subscription behaves as one that has already stopped.
type Subscription struct {
	s *scope
}

// NewSubscription creates a running subscription.
func NewSubscription() Subscription {
	return Subscription{s: &scope{
		id:   scopeSeq.Add(1),
		done: make(chan struct{}),
	}}
}

// ID returns a process-unique identifier, used for logging.
func (s Subscription) ID() uint64 {
	if s.s == nil {
		return 0
	}
	return s.s.id
}

// IsStopped reports whether Stop has been called.
// If true, state allocated on this subscription must not be accessed.
func (s Subscription) IsStopped() bool {
	return s.s == nil || s.s.state.Load() != stateRunning
}

// Done returns a channel that is closed once Stop has finished running
// stoppers, child stops and destructors.
func (s Subscription) Done() <-chan struct{} {
	if s.s == nil {
		return closed
	}
	return s.s.done
}

// Insert nests child into s. When s stops, child stops. When child stops on
// its own, it is erased from s.
//
// If s is already stopped, child is stopped immediately.
// Inserting s into itself, or inserting an ancestor of s, panics with a
// LifetimeError before either tree is modified.
func (s Subscription) Insert(child Subscription) {
	if child.s == nil {
		return
	}
	if s.s == nil {
		child.Stop()
		return
	}
	if child.s == s.s {
		fatal(&LifetimeError{Code: ErrCodeSelfInsert, Message: "subscription inserted into itself", ID: s.s.id})
	}
	if s.s.hasAncestor(child.s) {
		fatal(&LifetimeError{
			Code:    ErrCodeCycle,
			Message: "inserting an ancestor would create a lifetime cycle",
			ID:      s.s.id,
		})
	}

	s.s.mu.Lock()
	if s.IsStopped() {
		s.s.mu.Unlock()
		child.Stop()
		return
	}
	if slices.Contains(s.s.children, child.s) {
		s.s.mu.Unlock()
		return
	}
	s.s.children = append(s.s.children, child.s)
	s.s.mu.Unlock()

	child.s.addParent(s.s)

	parent := weak.Make(s.s)
	child.OnStop(func() {
		if p := parent.Value(); p != nil {
			Subscription{s: p}.Erase(child)
		}
	})
}

// Erase removes child from the nested set of s without stopping it.
// Erase is a no-op once s has stopped.
func (s Subscription) Erase(child Subscription) {
	if s.s == nil || child.s == nil {
		return
	}
	if child.s == s.s {
		fatal(&LifetimeError{Code: ErrCodeSelfInsert, Message: "subscription erased from itself", ID: s.s.id})
	}

	s.s.mu.Lock()
	if s.IsStopped() {
		s.s.mu.Unlock()
		return
	}
	s.s.children = slices.DeleteFunc(s.s.children, func(c *scope) bool { return c == child.s })
	s.s.mu.Unlock()

	child.s.dropParent(s.s)
}

// OnStop registers a stopper. Stoppers run when s stops, most recently
// registered first. If s is already stopped, fn runs synchronously.
func (s Subscription) OnStop(fn func()) {
	if s.s == nil {
		fn()
		return
	}
	s.s.mu.Lock()
	if s.IsStopped() {
		s.s.mu.Unlock()
		fn()
		return
	}
	s.s.stoppers = append(s.s.stoppers, fn)
	s.s.mu.Unlock()
}

// OnDestroy registers a resource destructor. Destructors run after all
// stoppers and child stops, in reverse registration order.
// If s is already stopped, fn runs synchronously.
func (s Subscription) OnDestroy(fn func()) {
	if !s.addDestructor(fn) {
		fn()
	}
}

// OnJoin registers fn to run inside every Join after the stop signal,
// before Join returns. Schedulers use it to wait for goroutines they own.
func (s Subscription) OnJoin(fn func()) {
	if s.s == nil {
		return
	}
	s.s.mu.Lock()
	s.s.joiners = append(s.s.joiners, fn)
	s.s.mu.Unlock()
}

// BindDefer replaces the function used to run this subscription's stop
// work. The default runs it immediately on the goroutine calling Stop.
func (s Subscription) BindDefer(d func(func())) {
	if s.s == nil {
		return
	}
	s.s.mu.Lock()
	defer s.s.mu.Unlock()
	if s.IsStopped() {
		return
	}
	s.s.deferFn = d
}

// Stop ends the subscription. Only the first call has any effect.
//
// Stop runs the stoppers, stops every nested subscription, runs the
// destructors in reverse order and finally releases Join waiters.
// Stop is safe to call from a stopper, a destructor, or concurrently with
// delivery on another goroutine.
func (s Subscription) Stop() {
	if s.s == nil {
		return
	}
	if !s.s.state.CompareAndSwap(stateRunning, stateStopping) {
		return
	}
	slog.Debug("subscription: stop", "id", s.s.id)

	s.s.mu.Lock()
	d := s.s.deferFn
	s.s.mu.Unlock()

	if d == nil {
		s.s.finish()
		return
	}
	d(s.s.finish)
}

// Join blocks until s and every subscription nested in it have finished
// stopping. Join does not stop anything itself.
func (s Subscription) Join() {
	if s.s == nil {
		return
	}
	s.s.mu.Lock()
	children := slices.Clone(s.s.children)
	s.s.mu.Unlock()

	for _, c := range children {
		Subscription{s: c}.Join()
	}

	<-s.s.done

	s.s.mu.Lock()
	joiners := slices.Clone(s.s.joiners)
	s.s.mu.Unlock()
	for _, j := range joiners {
		j()
	}
}

func (s Subscription) addDestructor(fn func()) bool {
	if s.s == nil {
		return false
	}
	s.s.mu.Lock()
	defer s.s.mu.Unlock()
	if s.IsStopped() {
		return false
	}
	s.s.destructors = append(s.s.destructors, fn)
	return true
}

// finish runs the stop work. Called exactly once per scope.
func (sc *scope) finish() {
	sc.mu.Lock()
	stoppers := sc.stoppers
	sc.stoppers = nil
	sc.mu.Unlock()
	for i := len(stoppers) - 1; i >= 0; i-- {
		stoppers[i]()
	}

	// children stay recorded so Join can wait on them
	sc.mu.Lock()
	children := slices.Clone(sc.children)
	sc.mu.Unlock()
	for _, c := range children {
		Subscription{s: c}.Stop()
	}

	sc.mu.Lock()
	destructors := sc.destructors
	sc.destructors = nil
	sc.deferFn = nil
	sc.mu.Unlock()
	for i := len(destructors) - 1; i >= 0; i-- {
		destructors[i]()
	}

	sc.state.Store(stateStopped)
	close(sc.done)
	slog.Debug("subscription: stopped", "id", sc.id, "children", len(children), "destructors", len(destructors))
}

func (sc *scope) addParent(p *scope) {
	sc.mu.Lock()
	sc.parents = append(sc.parents, weak.Make(p))
	sc.mu.Unlock()
}

func (sc *scope) dropParent(p *scope) {
	sc.mu.Lock()
	sc.parents = slices.DeleteFunc(sc.parents, func(w weak.Pointer[scope]) bool {
		v := w.Value()
		return v == nil || v == p
	})
	sc.mu.Unlock()
}

func (sc *scope) parentScopes() []*scope {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	out := make([]*scope, 0, len(sc.parents))
	for _, w := range sc.parents {
		if p := w.Value(); p != nil {
			out = append(out, p)
		}
	}
	return out
}

// hasAncestor walks the parent links of sc looking for target.
// Each scope is visited once, so the walk is bounded by the graph size.
func (sc *scope) hasAncestor(target *scope) bool {
	visited := make(map[*scope]bool)
	stack := sc.parentScopes()
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if p == target {
			return true
		}
		if visited[p] {
			continue
		}
		visited[p] = true
		stack = append(stack, p.parentScopes()...)
	}
	return false
}
