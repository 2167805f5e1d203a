package rxtest

import (
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/pushrx/rx"
	"github.com/roach88/pushrx/rx/schedulers"
)

// TestLoop is a strand factory on virtual time. Nothing is delivered until
// Step or Run is called, and delivery never waits on the wall clock.
type TestLoop struct {
	lifetime rx.Subscription
	clock    *VirtualClock

	mu    sync.Mutex
	queue schedulers.Queue
}

// NewTestLoop creates a loop whose clock reads Origin.
func NewTestLoop() *TestLoop {
	l := &TestLoop{
		lifetime: rx.NewSubscription(),
		clock:    NewVirtualClock(Origin),
	}
	l.lifetime.OnStop(func() {
		l.mu.Lock()
		dropped := l.queue.Len()
		l.queue = schedulers.Queue{}
		l.mu.Unlock()
		slog.Debug("testloop: stopped", "dropped", dropped)
	})
	return l
}

// Lifetime returns the loop's subscription. Stopping it drops every
// queued item.
func (l *TestLoop) Lifetime() rx.Subscription { return l.lifetime }

// Clock returns the loop's virtual clock.
func (l *TestLoop) Clock() *VirtualClock { return l.clock }

// Now reads the virtual clock.
func (l *TestLoop) Now() time.Time { return l.clock.Now() }

// Len returns the number of queued items.
func (l *TestLoop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.queue.Len()
}

// MakeStrand implements rx.StrandFactory.
func (l *TestLoop) MakeStrand(lifetime rx.Subscription) rx.Strand {
	l.lifetime.Insert(lifetime)
	return &testStrand{loop: l, lifetime: lifetime}
}

// Step delivers every queued item due before now+d, in time order, setting
// the clock to each item's own time before delivering it. Items deferred
// during the step are delivered too if they fall inside the window. The
// clock reads at least now+d afterwards.
func (l *TestLoop) Step(d time.Duration) {
	end := l.clock.Now().Add(d)
	delivered := 0
	for !l.lifetime.IsStopped() {
		l.mu.Lock()
		it, ok := l.queue.Peek()
		if !ok || !it.When.Before(end) {
			l.mu.Unlock()
			break
		}
		l.queue.Pop()
		l.mu.Unlock()

		l.clock.Set(it.When)
		delivered++
		if at, again := schedulers.Dispatch(it); again {
			l.push(at, it.Owner, it.What)
		}
	}
	if l.clock.Now().Before(end) {
		l.clock.Set(end)
	}
	slog.Debug("testloop: step", "window", d, "delivered", delivered, "now", l.clock.Since())
}

// Run steps one hour of virtual time, long enough for any test scenario.
func (l *TestLoop) Run() {
	l.Step(time.Hour)
}

func (l *TestLoop) push(at time.Time, owner rx.Subscription, what rx.Observer[rx.Reschedule]) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.lifetime.IsStopped() {
		return
	}
	l.queue.Push(at, owner, what)
}

type testStrand struct {
	loop     *TestLoop
	lifetime rx.Subscription
}

func (s *testStrand) Lifetime() rx.Subscription { return s.lifetime }

func (s *testStrand) Now() time.Time { return s.loop.Now() }

func (s *testStrand) DeferAt(at time.Time, out rx.Observer[rx.Reschedule]) {
	if s.lifetime.IsStopped() {
		return
	}
	s.loop.push(at, s.lifetime, out)
}
