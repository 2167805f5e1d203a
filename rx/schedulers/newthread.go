package schedulers

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/petermattis/goid"

	"github.com/roach88/pushrx/rx"
)

// NewThread is a strand factory that gives every strand its own goroutine
// pumping a private RunLoop.
//
// Stopping a strand's lifetime stops its loop and waits for the goroutine to
// exit, unless Stop is called from that goroutine (a pipeline completing on
// its own strand), in which case the goroutine exits as soon as the current
// delivery returns. Join on the lifetime always waits for the goroutine.
type NewThread struct {
	clock func() time.Time
}

// NewThreadOption configures a NewThread factory.
type NewThreadOption func(*NewThread)

// WithThreadClock sets the clock used by every loop the factory creates.
func WithThreadClock(clock func() time.Time) NewThreadOption {
	return func(n *NewThread) {
		n.clock = clock
	}
}

// NewThreadFactory creates a NewThread factory. The zero NewThread is ready
// to use as well.
func NewThreadFactory(opts ...NewThreadOption) NewThread {
	var n NewThread
	for _, opt := range opts {
		opt(&n)
	}
	return n
}

// MakeStrand implements rx.StrandFactory.
func (n NewThread) MakeStrand(lifetime rx.Subscription) rx.Strand {
	var loopOpts []RunLoopOption
	if n.clock != nil {
		loopOpts = append(loopOpts, WithClock(n.clock))
	}
	loopLifetime := rx.NewSubscription()
	loop := NewRunLoop(loopLifetime, loopOpts...)
	strand := loop.MakeStrand(lifetime)

	var worker atomic.Int64
	started := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		id := goid.Get()
		worker.Store(id)
		close(started)

		slog.Debug("newthread: started", "goroutine", id, "lifetime", lifetime.ID())
		if err := loop.Run(context.Background()); err != nil {
			slog.Warn("newthread: loop ended", "goroutine", id, "error", err)
		}
		slog.Debug("newthread: exited", "goroutine", id, "lifetime", lifetime.ID())
	}()
	<-started

	lifetime.OnStop(func() {
		loopLifetime.Stop()
		if goid.Get() == worker.Load() {
			return
		}
		<-exited
	})
	lifetime.OnJoin(func() {
		<-exited
	})
	return strand
}
