package rx

import "io"

// State is a typed value owned by one subscription's resource arena.
//
// The value may be read and written through Get only while the owning
// subscription is running. When the subscription stops, the value is closed
// (if it implements io.Closer) and zeroed as part of Stop.
type State[T any] struct {
	lifetime Subscription
	p        *T
}

// NewState allocates v in the arena of lifetime.
// Allocating on a stopped subscription panics with ErrCodeStateOnStopped.
func NewState[T any](lifetime Subscription, v T) State[T] {
	p := new(T)
	*p = v
	ok := lifetime.addDestructor(func() {
		if c, isCloser := any(*p).(io.Closer); isCloser {
			_ = c.Close()
		}
		var zero T
		*p = zero
	})
	if !ok {
		fatal(&LifetimeError{
			Code:    ErrCodeStateOnStopped,
			Message: "state allocated on a stopped subscription",
			ID:      lifetime.ID(),
		})
	}
	return State[T]{lifetime: lifetime, p: p}
}

// Get returns a pointer to the value. Nil for the zero State.
func (s State[T]) Get() *T {
	return s.p
}

// Lifetime returns the owning subscription.
func (s State[T]) Lifetime() Subscription {
	return s.lifetime
}
