package rx

import "time"

// ObserveOn moves downstream delivery onto strands made by f. Next, error
// and completion are each deferred to the strand's current time, so their
// relative order is kept. With Immediate it is a pass-through.
func ObserveOn[T any](f StrandFactory) Lifter[T, T] {
	if _, ok := f.(Immediate); ok {
		return MakeLifter(func(s Subscriber[T]) Subscriber[T] { return s })
	}
	return shift[T](f, 0)
}

// Delay moves downstream delivery onto strands made by f and shifts every
// signal d later on that strand's clock.
func Delay[T any](f StrandFactory, d time.Duration) Lifter[T, T] {
	return shift[T](f, d)
}

func shift[T any](f StrandFactory, d time.Duration) Lifter[T, T] {
	return MakeLifter(func(s Subscriber[T]) Subscriber[T] {
		return MakeSubscriber(func(ctx Context) Observer[T] {
			// the upstream observer gets its own scope so upstream
			// completion does not stop the signals still in flight
			lifetime := NewSubscription()
			ctx.Lifetime().Insert(lifetime)

			out := CopyContextWith(ctx.Lifetime(), f, ctx)
			r := s.Create(out)

			later := func(fn func(Observer[T])) {
				DeferAfter(out, d, Deferred(r, fn))
			}
			return Delegate(r, lifetime, Delegation[T, T]{
				Next: func(_ Observer[T], v T) {
					later(func(r Observer[T]) { r.Next(v) })
				},
				Error: func(_ Observer[T], err error) {
					later(func(r Observer[T]) { r.Error(err) })
				},
				Complete: func(Observer[T]) {
					later(func(r Observer[T]) { r.Complete() })
				},
			})
		})
	})
}
