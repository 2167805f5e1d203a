package rx

import (
	"log/slog"
	"sync"
)

// pending tracks the branches of one merge that have not finished.
type pending struct {
	mu       sync.Mutex
	branches map[Subscription]struct{}
}

func (p *pending) add(l Subscription) {
	p.mu.Lock()
	p.branches[l] = struct{}{}
	p.mu.Unlock()
}

// remove reports whether l was the last pending branch.
func (p *pending) remove(l Subscription) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.branches[l]; !ok {
		return false
	}
	delete(p.branches, l)
	return len(p.branches) == 0
}

func (p *pending) snapshot() []Subscription {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Subscription, 0, len(p.branches))
	for l := range p.branches {
		out = append(out, l)
	}
	return out
}

// Merge flattens a source of Observables into one stream.
//
// Every branch, the source itself included, is delivered through one strand
// shared by this start, so values from concurrent branches are totally
// ordered. The output completes once the source and every inner Observable
// it produced have completed. An error from any branch terminates the output
// immediately. Stopping the output stops every pending branch.
func Merge[T any](f StrandFactory) Adaptor[Observable[T], T] {
	return MakeAdaptor(func(source Observable[Observable[T]]) Observable[T] {
		return MakeObservable(func(s Subscriber[T]) Starter {
			return MakeStarter(func(ctx Context) Subscription {
				shared := Share(f, ctx.Lifetime())
				destctx := CopyContextWith(ctx.Lifetime(), shared, ctx)
				r := s.Create(destctx)
				if r.IsStopped() || ctx.Lifetime().IsStopped() {
					return ctx.Lifetime()
				}

				st := NewState(ctx.Lifetime(), &pending{branches: make(map[Subscription]struct{})})
				branches := *st.Get()
				r.Lifetime().OnStop(func() {
					for _, l := range branches.snapshot() {
						l.Stop()
					}
				})

				track := func(l Subscription) {
					branches.add(l)
					ctx.Lifetime().Insert(l)
					l.OnStop(func() {
						if branches.remove(l) {
							slog.Debug("merge: all branches done", "lifetime", ctx.Lifetime().ID())
							r.Complete()
						}
					})
				}

				startInner := func(r Observer[T], inner Observable[T]) {
					innerLifetime := NewSubscription()
					track(innerLifetime)
					if innerLifetime.IsStopped() {
						return
					}
					innerCtx := CopyContextWith(innerLifetime, shared, destctx)
					Lift(inner, ObserveOn[T](shared)).Bind(MakeSubscriber(func(Context) Observer[T] {
						return Delegate(r, innerLifetime, Delegation[T, T]{
							Next:     func(r Observer[T], v T) { r.Next(v) },
							Complete: SkipComplete[T],
						})
					})).Start(innerCtx)
				}

				sourceLifetime := NewSubscription()
				track(sourceLifetime)
				if sourceLifetime.IsStopped() {
					return ctx.Lifetime()
				}
				sourceCtx := CopyContextWith(sourceLifetime, shared, ctx)
				Lift(source, ObserveOn[Observable[T]](shared)).Bind(MakeSubscriber(func(Context) Observer[Observable[T]] {
					return Delegate(r, sourceLifetime, Delegation[Observable[T], T]{
						Next:     startInner,
						Complete: SkipComplete[T],
					})
				})).Start(sourceCtx)

				return ctx.Lifetime()
			})
		})
	})
}

// TransformMerge maps every value to an Observable and merges the results.
func TransformMerge[T, U any](f StrandFactory, fn func(T) Observable[U]) Adaptor[T, U] {
	return LiftThenAdapt(Transform(fn), Merge[U](f))
}
