package rx

import (
	"sync/atomic"
	"time"
)

// Context is the handle passed through a pipeline when it starts: a
// subscription, the strand factory used to make strands for it, a strand
// made from that factory and an optional payload.
//
// The payload lives in the subscription's arena and is re-homed whenever the
// context is copied onto a new subscription.
type Context struct {
	lifetime Subscription
	factory  StrandFactory
	strand   Strand
	payload  State[any]
}

// ContextOption configures NewContext.
type ContextOption func(*contextConfig)

type contextConfig struct {
	factory      StrandFactory
	payload      any
	hasPayload   bool
	deferredStop bool
}

// WithFactory sets the strand factory. The default is Immediate.
func WithFactory(f StrandFactory) ContextOption {
	return func(c *contextConfig) {
		c.factory = f
	}
}

// WithPayload attaches v to the context.
func WithPayload(v any) ContextOption {
	return func(c *contextConfig) {
		c.payload = v
		c.hasPayload = true
	}
}

// WithDeferredStop makes the subscription run its stop work on the
// context's strand instead of on the goroutine that calls Stop.
func WithDeferredStop() ContextOption {
	return func(c *contextConfig) {
		c.deferredStop = true
	}
}

// NewContext makes a context for lifetime. The strand is made on a fresh
// subscription nested in lifetime.
func NewContext(lifetime Subscription, opts ...ContextOption) Context {
	cfg := contextConfig{factory: Immediate{}}
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx := newContext(lifetime, cfg.factory)
	if cfg.hasPayload && !lifetime.IsStopped() {
		ctx.payload = NewState[any](lifetime, cfg.payload)
	}
	if cfg.deferredStop {
		strand := ctx.strand
		lifetime.BindDefer(func(stop func()) {
			// a stopped strand drops queued work, so the stop also runs
			// when the strand stops first
			var ran atomic.Bool
			run := func() {
				if ran.CompareAndSwap(false, true) {
					stop()
				}
			}
			guard := NewSubscription()
			guard.OnStop(run)
			strand.Lifetime().Insert(guard)
			Defer(strand, NewObserver(guard, func(Reschedule) { run() }, IgnoreError, nil))
		})
	}
	return ctx
}

// StartContext makes a context on a fresh subscription.
func StartContext(opts ...ContextOption) Context {
	return NewContext(NewSubscription(), opts...)
}

// CopyContext re-homes src onto lifetime, keeping its strand factory.
func CopyContext(lifetime Subscription, src Context) Context {
	return CopyContextWith(lifetime, src.factory, src)
}

// CopyContextWith re-homes src onto lifetime and switches the strand
// factory to f. The payload is copied into lifetime's arena; when lifetime
// has already stopped the copy shares the payload of src.
func CopyContextWith(lifetime Subscription, f StrandFactory, src Context) Context {
	ctx := newContext(lifetime, f)
	switch {
	case src.payload.Get() == nil:
	case lifetime.IsStopped():
		ctx.payload = src.payload
	default:
		ctx.payload = NewState(lifetime, *src.payload.Get())
	}
	return ctx
}

func newContext(lifetime Subscription, f StrandFactory) Context {
	if f == nil {
		f = Immediate{}
	}
	strandLifetime := NewSubscription()
	lifetime.Insert(strandLifetime)
	return Context{
		lifetime: lifetime,
		factory:  f,
		strand:   f.MakeStrand(strandLifetime),
	}
}

// PayloadOf returns the payload of ctx as a T.
func PayloadOf[T any](ctx Context) (T, bool) {
	var zero T
	p := ctx.payload.Get()
	if p == nil {
		return zero, false
	}
	v, ok := (*p).(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// Lifetime returns the context's subscription.
func (c Context) Lifetime() Subscription { return c.lifetime }

// Factory returns the strand factory.
func (c Context) Factory() StrandFactory { return c.factory }

// Strand returns the context's strand.
func (c Context) Strand() Strand { return c.strand }

// Now reads the strand's clock.
func (c Context) Now() time.Time { return c.strand.Now() }

// DeferAt schedules out on the context's strand.
func (c Context) DeferAt(at time.Time, out Observer[Reschedule]) {
	c.strand.DeferAt(at, out)
}
