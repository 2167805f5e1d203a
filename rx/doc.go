// Package rx is a push-based reactive stream runtime with explicit,
// hierarchical cancellation and pluggable time.
//
// # Lifetimes
//
// A Subscription is a node in a cancellation tree and an arena for the
// state of one asynchronous activity. Nested subscriptions stop with their
// parent; stoppers run most-recent-first, then nested subscriptions stop,
// then arena state is destroyed in reverse allocation order. Join waits for
// all of it, including work owned by scheduler goroutines.
//
// # Strands
//
// A Strand owns the notion of "now" and "later" for a pipeline stage.
// StrandFactory is the seam hosts implement; Immediate delivers inline and
// the rx/schedulers package provides a run loop and a goroutine-per-strand
// factory. Deterministic virtual time for tests lives in rx/rxtest.
//
// # Pipelines
//
// A pipeline is composed from six roles:
//
//	Observable  Bind(Subscriber) -> Starter
//	Subscriber  Create(Context) -> Observer
//	Starter     Start(Context) -> Subscription
//	Lifter      Lift(Subscriber) -> Subscriber
//	Adaptor     Adapt(Observable) -> Observable
//	Terminator  Terminate(Observable) -> Starter
//
// and joined with Lift, Adapt, ComposeLifters, ComposeAdaptors,
// AdaptThenLift, LiftThenAdapt and Terminate:
//
//	src := rx.Lift(rx.Ints(1, 10), rx.CopyIf(isEven))
//	sub := rx.Adapt(src, rx.Take[int](3)).
//		Bind(rx.Sink(func(v int) { fmt.Println(v) }, rx.IgnoreError, nil)).
//		Start(rx.StartContext())
//	sub.Join()
//
// Observables are cold: composing them only builds closures, and every
// Start runs the whole chain from scratch.
//
// # Errors
//
// Value errors travel through Observer.Error and end the pipeline normally.
// Broken lifetime invariants (self nesting, cycles, state allocated after
// Stop, panicking terminal handlers) panic with a *LifetimeError.
package rx
