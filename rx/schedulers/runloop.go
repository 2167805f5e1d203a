package schedulers

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/pushrx/rx"
)

// RunLoop is a strand factory backed by one deferred-item queue that is
// pumped by a single goroutine calling Run or Step.
//
// DeferAt may be called from any goroutine. It wakes the pumping goroutine
// through a one-slot signal channel; multiple signals coalesce.
//
// Thread-safety: mu guards the queue. No lock is held while an item is
// delivered.
type RunLoop struct {
	lifetime rx.Subscription
	clock    func() time.Time

	mu     sync.Mutex
	queue  Queue
	signal chan struct{} // buffered, size 1
}

// RunLoopOption configures a RunLoop.
type RunLoopOption func(*RunLoop)

// WithClock sets the clock the loop reads "now" from. Default: time.Now.
func WithClock(clock func() time.Time) RunLoopOption {
	return func(l *RunLoop) {
		l.clock = clock
	}
}

// NewRunLoop creates a loop that lives as long as lifetime. Stopping
// lifetime drops every queued item and makes Run return.
func NewRunLoop(lifetime rx.Subscription, opts ...RunLoopOption) *RunLoop {
	l := &RunLoop{
		lifetime: lifetime,
		clock:    time.Now,
		signal:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(l)
	}
	lifetime.OnStop(func() {
		l.mu.Lock()
		dropped := l.queue.Len()
		l.queue = Queue{}
		l.mu.Unlock()
		slog.Debug("runloop: stopped", "lifetime", lifetime.ID(), "dropped", dropped)
		l.wake()
	})
	return l
}

// Lifetime returns the loop's subscription.
func (l *RunLoop) Lifetime() rx.Subscription {
	return l.lifetime
}

// Now reads the loop's clock.
func (l *RunLoop) Now() time.Time {
	return l.clock()
}

// Len returns the number of queued items.
func (l *RunLoop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.queue.Len()
}

// MakeStrand implements rx.StrandFactory. The strand's lifetime is nested in
// the loop's, so stopping the loop stops every strand made from it.
func (l *RunLoop) MakeStrand(lifetime rx.Subscription) rx.Strand {
	l.lifetime.Insert(lifetime)
	return &loopStrand{loop: l, lifetime: lifetime}
}

// Run delivers items as they become due until the loop's lifetime stops or
// ctx is done. It returns ctx.Err() on cancellation and nil on stop.
func (l *RunLoop) Run(ctx context.Context) error {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		if l.lifetime.IsStopped() {
			return nil
		}
		next, pending := l.drain()

		var timeout <-chan time.Time
		if pending {
			wait := next.Sub(l.clock())
			if timer == nil {
				timer = time.NewTimer(wait)
			} else {
				timer.Reset(wait)
			}
			timeout = timer.C
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.lifetime.Done():
			return nil
		case <-l.signal:
		case <-timeout:
		}
	}
}

// Step runs the loop for at most d, or until its lifetime stops.
func (l *RunLoop) Step(d time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	if err := l.Run(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		slog.Warn("runloop: step ended early", "error", err)
	}
}

// drain delivers every item that is due. It returns the time of the next
// queued item, if any.
func (l *RunLoop) drain() (time.Time, bool) {
	for {
		if l.lifetime.IsStopped() {
			return time.Time{}, false
		}

		l.mu.Lock()
		it, ok := l.queue.Peek()
		if !ok {
			l.mu.Unlock()
			return time.Time{}, false
		}
		if it.When.After(l.clock()) {
			l.mu.Unlock()
			return it.When, true
		}
		l.queue.Pop()
		l.mu.Unlock()

		if at, again := Dispatch(it); again {
			l.push(at, it.Owner, it.What)
		}
	}
}

func (l *RunLoop) push(at time.Time, owner rx.Subscription, what rx.Observer[rx.Reschedule]) {
	l.mu.Lock()
	if l.lifetime.IsStopped() {
		l.mu.Unlock()
		return
	}
	l.queue.Push(at, owner, what)
	l.mu.Unlock()
	l.wake()
}

// wake signals the pump. Non-blocking: the one-slot buffer coalesces signals.
func (l *RunLoop) wake() {
	select {
	case l.signal <- struct{}{}:
	default:
	}
}

type loopStrand struct {
	loop     *RunLoop
	lifetime rx.Subscription
}

func (s *loopStrand) Lifetime() rx.Subscription { return s.lifetime }

func (s *loopStrand) Now() time.Time { return s.loop.Now() }

func (s *loopStrand) DeferAt(at time.Time, out rx.Observer[rx.Reschedule]) {
	if s.lifetime.IsStopped() {
		return
	}
	s.loop.push(at, s.lifetime, out)
}
