package rx

// Take forwards the first n values and then completes. With n <= 0 the
// downstream completes when the pipeline starts and the upstream is never
// subscribed.
func Take[T any](n int) Adaptor[T, T] {
	return MakeAdaptor(func(source Observable[T]) Observable[T] {
		return MakeObservable(func(s Subscriber[T]) Starter {
			return MakeStarter(func(ctx Context) Subscription {
				r := s.Create(ctx)
				if n <= 0 {
					r.Complete()
					return ctx.Lifetime()
				}
				if r.IsStopped() {
					return ctx.Lifetime()
				}

				remaining := NewState(r.Lifetime(), n)
				return source.Bind(MakeSubscriber(func(Context) Observer[T] {
					return Delegate(r, r.Lifetime(), Delegation[T, T]{
						Next: func(r Observer[T], v T) {
							left := remaining.Get()
							if *left <= 0 {
								return
							}
							*left--
							done := *left == 0
							r.Next(v)
							if done {
								r.Complete()
							}
						},
					})
				})).Start(ctx)
			})
		})
	})
}
