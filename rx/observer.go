package rx

import "sync/atomic"

// Observer receives next, error and complete signals for one pipeline stage.
//
// An Observer is bound to a Subscription. Next is forwarded only while that
// subscription is running. At most one of Error or Complete is delivered;
// after the terminal handler returns the bound subscription is stopped.
//
// A panic out of the next handler is recovered and delivered through Error
// as a *HandlerPanicError. A panic out of the error or complete handler is
// fatal.
//
// Observer is a small value; copies share the termination latch.
type Observer[T any] struct {
	lifetime Subscription
	next     func(T)
	err      func(error)
	complete func()
	done     *atomic.Bool
}

// NewObserver builds an observer bound to lifetime.
//
// A nil next or complete is a no-op. A nil err makes any delivered error
// fatal (ErrCodeUnhandledError); pass IgnoreError to discard errors instead.
func NewObserver[T any](lifetime Subscription, next func(T), err func(error), complete func()) Observer[T] {
	if err == nil {
		id := lifetime.ID()
		err = func(e error) {
			fatal(&LifetimeError{
				Code:    ErrCodeUnhandledError,
				Message: "error delivered to an observer without an error handler",
				ID:      id,
				Cause:   e,
			})
		}
	}
	return Observer[T]{
		lifetime: lifetime,
		next:     next,
		err:      err,
		complete: complete,
		done:     new(atomic.Bool),
	}
}

// IgnoreError discards an error. Used by top-level observers nobody watches.
func IgnoreError(error) {}

// Delegation describes how a delegating observer forwards to its destination.
// A nil Error or Complete passes the signal through to the destination.
// A nil Next forwards the value unchanged, which requires T to convert to U.
type Delegation[T, U any] struct {
	Next     func(dest Observer[U], v T)
	Error    func(dest Observer[U], err error)
	Complete func(dest Observer[U])
}

// PassError forwards err to dest.
func PassError[U any](dest Observer[U], err error) { dest.Error(err) }

// PassComplete forwards completion to dest.
func PassComplete[U any](dest Observer[U]) { dest.Complete() }

// SkipError swallows err so the destination is not terminated by this branch.
func SkipError[U any](Observer[U], error) {}

// SkipComplete swallows completion so the destination is not terminated by
// this branch.
func SkipComplete[U any](Observer[U]) {}

// Delegate builds an observer bound to lifetime that forwards into dest.
func Delegate[T, U any](dest Observer[U], lifetime Subscription, d Delegation[T, U]) Observer[T] {
	next := d.Next
	if next == nil {
		next = func(dest Observer[U], v T) { dest.Next(any(v).(U)) }
	}
	onErr := d.Error
	if onErr == nil {
		onErr = PassError[U]
	}
	onComplete := d.Complete
	if onComplete == nil {
		onComplete = PassComplete[U]
	}
	return Observer[T]{
		lifetime: lifetime,
		next:     func(v T) { next(dest, v) },
		err:      func(err error) { onErr(dest, err) },
		complete: func() { onComplete(dest) },
		done:     new(atomic.Bool),
	}
}

// Lifetime returns the subscription this observer is bound to.
func (o Observer[T]) Lifetime() Subscription {
	return o.lifetime
}

// IsStopped reports whether the observer can no longer deliver signals.
func (o Observer[T]) IsStopped() bool {
	return o.done == nil || o.done.Load() || o.lifetime.IsStopped()
}

// Next delivers v unless the observer has terminated or its subscription
// has stopped.
func (o Observer[T]) Next(v T) {
	if o.IsStopped() || o.next == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			o.Error(asPanicError(r))
		}
	}()
	o.next(v)
}

// Error delivers err and stops the bound subscription.
func (o Observer[T]) Error(err error) {
	if !o.terminate() {
		return
	}
	o.runTerminal(func() { o.err(err) })
}

// Complete delivers completion and stops the bound subscription.
func (o Observer[T]) Complete() {
	if !o.terminate() {
		return
	}
	o.runTerminal(o.complete)
}

// terminate takes the latch. Only the first caller wins.
func (o Observer[T]) terminate() bool {
	if o.done == nil || o.lifetime.IsStopped() {
		return false
	}
	return o.done.CompareAndSwap(false, true)
}

func (o Observer[T]) runTerminal(handler func()) {
	defer o.lifetime.Stop()
	if handler == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			if le, ok := r.(*LifetimeError); ok {
				panic(le)
			}
			fatal(&LifetimeError{
				Code:    ErrCodeTerminalPanic,
				Message: "terminal handler panicked",
				ID:      o.lifetime.ID(),
				Cause:   asPanicError(r),
			})
		}
	}()
	handler()
}
