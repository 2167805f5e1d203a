package rx

// Composition of roles. Each function is one rule of the pipe algebra; the
// type parameters make an ill-formed pipeline a compile error.

// Lift pipes o through l.
func Lift[T, U any](o Observable[T], l Lifter[T, U]) Observable[U] {
	return MakeObservable(func(s Subscriber[U]) Starter {
		return o.Bind(l.Lift(s))
	})
}

// ComposeLifters pipes a into b.
func ComposeLifters[T, U, V any](a Lifter[T, U], b Lifter[U, V]) Lifter[T, V] {
	return MakeLifter(func(s Subscriber[V]) Subscriber[T] {
		return a.Lift(b.Lift(s))
	})
}

// Adapt pipes o through a.
func Adapt[T, U any](o Observable[T], a Adaptor[T, U]) Observable[U] {
	return a.Adapt(o)
}

// ComposeAdaptors pipes a into b.
func ComposeAdaptors[T, U, V any](a Adaptor[T, U], b Adaptor[U, V]) Adaptor[T, V] {
	return MakeAdaptor(func(o Observable[T]) Observable[V] {
		return b.Adapt(a.Adapt(o))
	})
}

// AdaptThenLift pipes a into l.
func AdaptThenLift[T, U, V any](a Adaptor[T, U], l Lifter[U, V]) Adaptor[T, V] {
	return MakeAdaptor(func(o Observable[T]) Observable[V] {
		return Lift(a.Adapt(o), l)
	})
}

// LiftThenAdapt pipes l into a.
func LiftThenAdapt[T, U, V any](l Lifter[T, U], a Adaptor[U, V]) Adaptor[T, V] {
	return MakeAdaptor(func(o Observable[T]) Observable[V] {
		return a.Adapt(Lift(o, l))
	})
}

// Terminate pipes a into the terminal subscriber s.
func Terminate[T, U any](a Adaptor[T, U], s Subscriber[U]) Terminator[T] {
	return MakeTerminator(func(o Observable[T]) Starter {
		return a.Adapt(o).Bind(s)
	})
}
