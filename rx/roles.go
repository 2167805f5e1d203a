package rx

// Observable is a cold source of values. Binding it builds closures only;
// nothing runs until the resulting Starter is started, and every start runs
// the bind function from scratch.
type Observable[T any] struct {
	bind func(Subscriber[T]) Starter
}

// MakeObservable wraps a bind function.
func MakeObservable[T any](bind func(Subscriber[T]) Starter) Observable[T] {
	return Observable[T]{bind: bind}
}

// Bind joins o with a terminal subscriber.
func (o Observable[T]) Bind(s Subscriber[T]) Starter {
	return o.bind(s)
}

// Terminate joins o with a terminator.
func (o Observable[T]) Terminate(t Terminator[T]) Starter {
	return t.terminate(o)
}

// Subscriber creates the observer for a pipeline stage when it starts.
type Subscriber[T any] struct {
	create func(Context) Observer[T]
}

// MakeSubscriber wraps a create function.
func MakeSubscriber[T any](create func(Context) Observer[T]) Subscriber[T] {
	return Subscriber[T]{create: create}
}

// Create makes the observer for ctx.
func (s Subscriber[T]) Create(ctx Context) Observer[T] {
	return s.create(ctx)
}

// Sink builds a terminal subscriber from handlers. The observer is bound to
// the context's subscription, so termination stops the whole pipeline.
// See NewObserver for nil handlers.
func Sink[T any](next func(T), err func(error), complete func()) Subscriber[T] {
	return MakeSubscriber(func(ctx Context) Observer[T] {
		return NewObserver(ctx.Lifetime(), next, err, complete)
	})
}

// Starter launches a bound pipeline.
type Starter struct {
	start func(Context) Subscription
}

// MakeStarter wraps a start function.
func MakeStarter(start func(Context) Subscription) Starter {
	return Starter{start: start}
}

// Start runs the pipeline with ctx and returns its subscription.
func (s Starter) Start(ctx Context) Subscription {
	return s.start(ctx)
}

// Lifter wraps the observer a downstream subscriber creates.
type Lifter[T, U any] struct {
	lift func(Subscriber[U]) Subscriber[T]
}

// MakeLifter wraps a lift function.
func MakeLifter[T, U any](lift func(Subscriber[U]) Subscriber[T]) Lifter[T, U] {
	return Lifter[T, U]{lift: lift}
}

// Lift wraps s.
func (l Lifter[T, U]) Lift(s Subscriber[U]) Subscriber[T] {
	return l.lift(s)
}

// Adaptor views l as an Adaptor.
func (l Lifter[T, U]) Adaptor() Adaptor[T, U] {
	return MakeAdaptor(func(o Observable[T]) Observable[U] {
		return Lift(o, l)
	})
}

// Adaptor transforms an upstream Observable. Unlike a Lifter it sees the
// upstream itself, so it can subscribe to it more than once or not at all.
type Adaptor[T, U any] struct {
	adapt func(Observable[T]) Observable[U]
}

// MakeAdaptor wraps an adapt function.
func MakeAdaptor[T, U any](adapt func(Observable[T]) Observable[U]) Adaptor[T, U] {
	return Adaptor[T, U]{adapt: adapt}
}

// Adapt transforms o.
func (a Adaptor[T, U]) Adapt(o Observable[T]) Observable[U] {
	return a.adapt(o)
}

// Terminator fuses an adaptor with a terminal subscriber.
type Terminator[T any] struct {
	terminate func(Observable[T]) Starter
}

// MakeTerminator wraps a terminate function.
func MakeTerminator[T any](terminate func(Observable[T]) Starter) Terminator[T] {
	return Terminator[T]{terminate: terminate}
}

// Terminate binds o.
func (t Terminator[T]) Terminate(o Observable[T]) Starter {
	return t.terminate(o)
}
