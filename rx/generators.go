package rx

import "time"

// Integer is the set of types the range generators count with.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Ints synchronously emits first through last inclusive, then completes.
// A range with first > last completes without values. Emission stops early
// once the downstream subscription stops.
func Ints[T Integer](first, last T) Observable[T] {
	return MakeObservable(func(s Subscriber[T]) Starter {
		return MakeStarter(func(ctx Context) Subscription {
			r := s.Create(ctx)
			if first <= last {
				for v := first; ; v++ {
					if r.IsStopped() {
						return ctx.Lifetime()
					}
					r.Next(v)
					if v == last {
						break
					}
				}
			}
			r.Complete()
			return ctx.Lifetime()
		})
	})
}

// AsyncInts emits first through last inclusive, one value per delivery on a
// strand made by f, then completes.
func AsyncInts[T Integer](f StrandFactory, first, last T) Observable[T] {
	return MakeObservable(func(s Subscriber[T]) Starter {
		return MakeStarter(func(ctx Context) Subscription {
			out := CopyContextWith(ctx.Lifetime(), f, ctx)
			r := s.Create(out)
			if first > last {
				r.Complete()
				return ctx.Lifetime()
			}
			if r.IsStopped() {
				return ctx.Lifetime()
			}

			lifetime := NewSubscription()
			r.Lifetime().Insert(lifetime)
			if lifetime.IsStopped() {
				return ctx.Lifetime()
			}
			cursor := NewState(lifetime, first)

			Defer(out, Delegate(r, lifetime, Delegation[Reschedule, T]{
				Next: func(r Observer[T], self Reschedule) {
					v := *cursor.Get()
					r.Next(v)
					if v == last {
						r.Complete()
						return
					}
					if r.IsStopped() {
						return
					}
					*cursor.Get() = v + 1
					self(out.Now())
				},
				Complete: SkipComplete[T],
			}))
			return ctx.Lifetime()
		})
	})
}

// Intervals emits the tick counter 0, 1, 2, ... on a strand made by f. The
// first tick is initial after start and later ticks follow every period.
// It never completes on its own; stop the subscription to end it.
func Intervals(f StrandFactory, initial, period time.Duration) Observable[int64] {
	return MakeObservable(func(s Subscriber[int64]) Starter {
		return MakeStarter(func(ctx Context) Subscription {
			out := CopyContextWith(ctx.Lifetime(), f, ctx)
			r := s.Create(out)
			if r.IsStopped() {
				return ctx.Lifetime()
			}
			DeferPeriodic(out, out.Now().Add(initial), period, r)
			return ctx.Lifetime()
		})
	})
}
