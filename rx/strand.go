package rx

import (
	"log/slog"
	"time"
)

// Reschedule asks the strand to call the same observer again at the given
// time. It is passed as the value of every deferred Next, and is only valid
// for the duration of that call.
type Reschedule func(at time.Time)

// Strand serializes and times delivery.
//
// DeferAt must eventually call exactly one of out.Next, out.Error or
// out.Complete at or after at, never before. Items deferred for the same
// instant are delivered in the order they were deferred. Once the strand's
// lifetime stops, pending items are dropped rather than delivered late.
//
// When out.Next calls its Reschedule argument, the strand calls out.Next
// again at the requested time instead of completing out.
type Strand interface {
	Lifetime() Subscription
	Now() time.Time
	DeferAt(at time.Time, out Observer[Reschedule])
}

// StrandFactory makes strands bound to a lifetime. Host code implements it
// to plug in its own scheduling.
type StrandFactory interface {
	MakeStrand(lifetime Subscription) Strand
}

// StrandFunc adapts a function to StrandFactory.
type StrandFunc func(lifetime Subscription) Strand

// MakeStrand calls f.
func (f StrandFunc) MakeStrand(lifetime Subscription) Strand {
	return f(lifetime)
}

// Immediate delivers on the calling goroutine, sleeping until the deferred
// time. Operators that only hop strands treat it as a no-op.
type Immediate struct{}

// MakeStrand implements StrandFactory.
func (Immediate) MakeStrand(lifetime Subscription) Strand {
	return immediateStrand{lifetime: lifetime}
}

type immediateStrand struct {
	lifetime Subscription
}

func (s immediateStrand) Lifetime() Subscription { return s.lifetime }

func (s immediateStrand) Now() time.Time { return time.Now() }

func (s immediateStrand) DeferAt(at time.Time, out Observer[Reschedule]) {
	next := at
	for {
		if s.lifetime.IsStopped() || out.IsStopped() {
			return
		}
		if wait := time.Until(next); wait > 0 {
			time.Sleep(wait)
		}
		again := false
		out.Next(func(t time.Time) {
			again = true
			next = t
		})
		if !again {
			break
		}
	}
	out.Complete()
}

// Share returns a factory whose strands all funnel into one backing strand
// made from f and owned by owner. Merge uses it so branches started on
// different strands are totally ordered at the merge point.
//
// Immediate is returned unchanged.
func Share(f StrandFactory, owner Subscription) StrandFactory {
	if _, ok := f.(Immediate); ok {
		return f
	}
	backingLifetime := NewSubscription()
	owner.Insert(backingLifetime)
	backing := f.MakeStrand(backingLifetime)
	slog.Debug("strand: shared", "owner", owner.ID(), "strand", backingLifetime.ID())

	return StrandFunc(func(lifetime Subscription) Strand {
		return sharedStrand{lifetime: lifetime, backing: backing}
	})
}

type sharedStrand struct {
	lifetime Subscription
	backing  Strand
}

func (s sharedStrand) Lifetime() Subscription { return s.lifetime }

func (s sharedStrand) Now() time.Time { return s.backing.Now() }

func (s sharedStrand) DeferAt(at time.Time, out Observer[Reschedule]) {
	if s.lifetime.IsStopped() {
		return
	}
	// guard stops when either this strand or out stops
	guard := NewSubscription()
	s.lifetime.Insert(guard)
	out.Lifetime().Insert(guard)
	s.backing.DeferAt(at, Delegate(out, guard, Delegation[Reschedule, Reschedule]{}))
}
