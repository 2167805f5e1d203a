package rx

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counts tallies the signals an observer received.
type counts struct {
	mu        sync.Mutex
	next      []int
	errs      []error
	completes int
}

func (c *counts) observer(lifetime Subscription) Observer[int] {
	return NewObserver(lifetime,
		func(v int) {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.next = append(c.next, v)
		},
		func(err error) {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.errs = append(c.errs, err)
		},
		func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.completes++
		},
	)
}

func (c *counts) terminals() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.errs) + c.completes
}

func TestObserver_NextAfterCompleteIsDropped(t *testing.T) {
	var c counts
	o := c.observer(NewSubscription())

	o.Next(1)
	o.Complete()
	o.Next(2)
	o.Error(errors.New("late"))
	o.Complete()

	assert.Equal(t, []int{1}, c.next)
	assert.Empty(t, c.errs)
	assert.Equal(t, 1, c.completes)
	assert.True(t, o.Lifetime().IsStopped())
}

func TestObserver_ErrorStopsLifetime(t *testing.T) {
	var c counts
	lifetime := NewSubscription()
	o := c.observer(lifetime)

	o.Error(errors.New("boom"))

	require.Len(t, c.errs, 1)
	assert.EqualError(t, c.errs[0], "boom")
	assert.True(t, lifetime.IsStopped())
	assert.True(t, o.IsStopped())
}

func TestObserver_NextDroppedOnceLifetimeStops(t *testing.T) {
	var c counts
	lifetime := NewSubscription()
	o := c.observer(lifetime)

	lifetime.Stop()
	o.Next(1)
	o.Complete()

	assert.Empty(t, c.next)
	assert.Equal(t, 0, c.terminals())
}

func TestObserver_ConcurrentTerminalsDeliverOnce(t *testing.T) {
	for round := 0; round < 20; round++ {
		var c counts
		o := c.observer(NewSubscription())

		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if i%2 == 0 {
					o.Complete()
				} else {
					o.Error(errors.New("racing"))
				}
				o.Next(i)
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, c.terminals(), "round %d", round)
	}
}

func TestObserver_SharedLifetimeTerminatesEachOnce(t *testing.T) {
	lifetime := NewSubscription()
	var a, b counts
	oa := a.observer(lifetime)
	ob := b.observer(lifetime)

	oa.Complete()
	ob.Complete()

	assert.Equal(t, 1, a.completes)
	assert.Equal(t, 0, b.completes, "second observer sees a stopped lifetime")
}

func TestObserver_NextPanicBecomesError(t *testing.T) {
	var got error
	o := NewObserver(NewSubscription(),
		func(v int) { panic("bad value") },
		func(err error) { got = err },
		nil,
	)

	o.Next(1)

	var hp *HandlerPanicError
	require.ErrorAs(t, got, &hp)
	assert.Equal(t, "bad value", hp.Value)
	assert.True(t, o.IsStopped())
}

func TestObserver_NextPanicWithErrorUnwraps(t *testing.T) {
	cause := errors.New("cause")
	var got error
	o := NewObserver(NewSubscription(),
		func(int) { panic(cause) },
		func(err error) { got = err },
		nil,
	)

	o.Next(1)

	assert.ErrorIs(t, got, cause)
}

func TestObserver_CompletePanicIsFatal(t *testing.T) {
	o := NewObserver[int](NewSubscription(), nil, IgnoreError, func() { panic("no") })
	requireLifetimePanic(t, ErrCodeTerminalPanic, func() {
		o.Complete()
	})
	assert.True(t, o.Lifetime().IsStopped())
}

func TestObserver_UnhandledErrorIsFatal(t *testing.T) {
	o := NewObserver[int](NewSubscription(), nil, nil, nil)
	requireLifetimePanic(t, ErrCodeUnhandledError, func() {
		o.Error(errors.New("nobody listens"))
	})
}

func TestObserver_ZeroValueIsInert(t *testing.T) {
	var o Observer[int]
	assert.NotPanics(t, func() {
		o.Next(1)
		o.Error(errors.New("x"))
		o.Complete()
	})
	assert.True(t, o.IsStopped())
}

func TestDelegate_PassThroughByDefault(t *testing.T) {
	var c counts
	dest := c.observer(NewSubscription())
	d := Delegate(dest, NewSubscription(), Delegation[int, int]{})

	d.Next(7)
	d.Complete()

	assert.Equal(t, []int{7}, c.next)
	assert.Equal(t, 1, c.completes)
}

func TestDelegate_SkipKeepsDestinationAlive(t *testing.T) {
	var c counts
	dest := c.observer(NewSubscription())
	branch := NewSubscription()
	d := Delegate(dest, branch, Delegation[int, int]{
		Error:    SkipError[int],
		Complete: SkipComplete[int],
	})

	d.Next(1)
	d.Error(errors.New("swallowed"))

	assert.Equal(t, []int{1}, c.next)
	assert.Equal(t, 0, c.terminals())
	assert.True(t, branch.IsStopped())
	assert.False(t, dest.IsStopped())
}

func TestDelegate_TerminatesOnceOnSharedLifetime(t *testing.T) {
	var c counts
	dest := c.observer(NewSubscription())
	var calls atomic.Int32
	d := Delegate(dest, dest.Lifetime(), Delegation[string, int]{
		Next: func(dest Observer[int], v string) {
			calls.Add(1)
			dest.Next(len(v))
		},
	})

	d.Next("abc")
	d.Complete()
	d.Next("late")

	assert.Equal(t, []int{3}, c.next)
	assert.Equal(t, 1, c.completes)
	assert.Equal(t, int32(1), calls.Load())
}
