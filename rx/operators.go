package rx

// Transform maps every value through fn. Error and completion pass through.
func Transform[T, U any](fn func(T) U) Lifter[T, U] {
	return MakeLifter(func(s Subscriber[U]) Subscriber[T] {
		return MakeSubscriber(func(ctx Context) Observer[T] {
			r := s.Create(ctx)
			return Delegate(r, r.Lifetime(), Delegation[T, U]{
				Next: func(r Observer[U], v T) { r.Next(fn(v)) },
			})
		})
	})
}

// CopyIf forwards only the values for which pred holds.
func CopyIf[T any](pred func(T) bool) Lifter[T, T] {
	return MakeLifter(func(s Subscriber[T]) Subscriber[T] {
		return MakeSubscriber(func(ctx Context) Observer[T] {
			r := s.Create(ctx)
			return Delegate(r, r.Lifetime(), Delegation[T, T]{
				Next: func(r Observer[T], v T) {
					if pred(v) {
						r.Next(v)
					}
				},
			})
		})
	})
}

// LastOrDefault emits the last value seen, or def if there was none, when
// the upstream completes. An upstream error passes through untouched.
func LastOrDefault[T any](def T) Lifter[T, T] {
	return MakeLifter(func(s Subscriber[T]) Subscriber[T] {
		return MakeSubscriber(func(ctx Context) Observer[T] {
			r := s.Create(ctx)
			if r.IsStopped() {
				return r
			}
			last := NewState(r.Lifetime(), def)
			return Delegate(r, r.Lifetime(), Delegation[T, T]{
				Next: func(_ Observer[T], v T) {
					*last.Get() = v
				},
				Complete: func(r Observer[T]) {
					v := *last.Get()
					r.Next(v)
					r.Complete()
				},
			})
		})
	})
}

// Finally runs fn once when the downstream subscription stops, whatever the
// reason.
func Finally[T any](fn func()) Lifter[T, T] {
	return MakeLifter(func(s Subscriber[T]) Subscriber[T] {
		return MakeSubscriber(func(ctx Context) Observer[T] {
			r := s.Create(ctx)
			r.Lifetime().OnStop(fn)
			return r
		})
	})
}
