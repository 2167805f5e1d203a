package rx

import "time"

// Deferrer is anything that can schedule an observer against a clock:
// a Strand or a Context.
type Deferrer interface {
	Now() time.Time
	DeferAt(at time.Time, out Observer[Reschedule])
}

// Defer schedules out for d.Now().
func Defer(d Deferrer, out Observer[Reschedule]) Subscription {
	return DeferAt(d, d.Now(), out)
}

// DeferAt schedules out for at.
func DeferAt(d Deferrer, at time.Time, out Observer[Reschedule]) Subscription {
	d.DeferAt(at, out)
	return out.Lifetime()
}

// DeferAfter schedules out for d.Now() plus delay.
func DeferAfter(d Deferrer, delay time.Duration, out Observer[Reschedule]) Subscription {
	return DeferAt(d, d.Now().Add(delay), out)
}

type tick struct {
	count  int64
	target time.Time
}

// DeferPeriodic delivers the tick counter 0, 1, 2, ... to out at initial,
// initial+period, initial+2*period and so on until out stops or the returned
// subscription is stopped. Targets advance from the previous target, not
// from the delivery time, so a late tick does not shift the schedule.
func DeferPeriodic(d Deferrer, initial time.Time, period time.Duration, out Observer[int64]) Subscription {
	lifetime := NewSubscription()
	out.Lifetime().Insert(lifetime)
	if lifetime.IsStopped() {
		return lifetime
	}
	st := NewState(lifetime, tick{target: initial})

	d.DeferAt(initial, Delegate(out, lifetime, Delegation[Reschedule, int64]{
		Next: func(out Observer[int64], self Reschedule) {
			t := st.Get()
			out.Next(t.count)
			if out.IsStopped() {
				return
			}
			t.count++
			t.target = t.target.Add(period)
			self(t.target)
		},
		Complete: SkipComplete[int64],
	}))
	return lifetime
}

// Deferred returns an observer that runs fn against dest when a strand
// delivers it. The observer is bound to a fresh subscription nested in
// dest's, so stopping dest drops the pending delivery. Errors raised by
// the strand pass through to dest.
func Deferred[T any](dest Observer[T], fn func(dest Observer[T])) Observer[Reschedule] {
	lifetime := NewSubscription()
	dest.Lifetime().Insert(lifetime)
	return Delegate(dest, lifetime, Delegation[Reschedule, T]{
		Next:     func(dest Observer[T], _ Reschedule) { fn(dest) },
		Complete: SkipComplete[T],
	})
}
