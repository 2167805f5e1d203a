package rxtest

import (
	"fmt"
	"time"

	"github.com/roach88/pushrx/rx"
)

// Hot is a source whose marble times are absolute offsets from Origin. A
// start sees only the marbles at or after the time it starts.
func Hot[T any](marbles ...Marble) rx.Observable[T] {
	return rx.MakeObservable(func(s rx.Subscriber[T]) rx.Starter {
		return rx.MakeStarter(func(ctx rx.Context) rx.Subscription {
			r := s.Create(ctx)
			now := ctx.Now()
			for _, m := range marbles {
				at := Origin.Add(m.At)
				if at.Before(now) {
					continue
				}
				scheduleMarble(ctx, r, at, m)
			}
			return ctx.Lifetime()
		})
	})
}

// Cold is a source whose marble times are offsets from the time it starts.
// Every start replays all marbles.
func Cold[T any](marbles ...Marble) rx.Observable[T] {
	return rx.MakeObservable(func(s rx.Subscriber[T]) rx.Starter {
		return rx.MakeStarter(func(ctx rx.Context) rx.Subscription {
			r := s.Create(ctx)
			base := ctx.Now()
			for _, m := range marbles {
				scheduleMarble(ctx, r, base.Add(m.At), m)
			}
			return ctx.Lifetime()
		})
	})
}

func scheduleMarble[T any](ctx rx.Context, r rx.Observer[T], at time.Time, m Marble) {
	if r.IsStopped() {
		return
	}
	rx.DeferAt(ctx, at, rx.Deferred(r, func(r rx.Observer[T]) {
		emit(r, m)
	}))
}

func emit[T any](r rx.Observer[T], m Marble) {
	switch m.Kind {
	case KindNext:
		v, ok := m.Value.(T)
		if !ok {
			r.Error(fmt.Errorf("rxtest: marble %s holds %T, want %T", m, m.Value, v))
			return
		}
		r.Next(v)
	case KindError:
		r.Error(m.Err)
	case KindComplete:
		r.Complete()
	}
}

// Record passes signals through and records each one under key in the
// *Result carried by the context. Without a Result it is a pass-through.
func Record[T any](key string) rx.Lifter[T, T] {
	return rx.MakeLifter(func(s rx.Subscriber[T]) rx.Subscriber[T] {
		return rx.MakeSubscriber(func(ctx rx.Context) rx.Observer[T] {
			r := s.Create(ctx)
			res, ok := rx.PayloadOf[*Result](ctx)
			if !ok {
				return r
			}
			return rx.Delegate(r, r.Lifetime(), rx.Delegation[T, T]{
				Next: func(r rx.Observer[T], v T) {
					res.Record(key, OnNext(res.Elapsed(), v))
					r.Next(v)
				},
				Error: func(r rx.Observer[T], err error) {
					res.Record(key, OnError(res.Elapsed(), err))
					r.Error(err)
				},
				Complete: func(r rx.Observer[T]) {
					res.Record(key, OnComplete(res.Elapsed()))
					r.Complete()
				},
			})
		})
	})
}

// Test returns a terminator that runs a pipeline on loop inside the given
// lifespan and records what reaches the end of it under Output.
//
// The pipeline starts at Origin+lifespan.Start and is stopped at
// Origin+lifespan.Stop unless it terminates first. The recorded lifespan is
// the virtual time it actually started and stopped.
func Test[T any](loop *TestLoop, lifespan Lifespan) (rx.Terminator[T], *Result) {
	res := NewResult(Origin, loop.Now)
	term := rx.MakeTerminator(func(o rx.Observable[T]) rx.Starter {
		return rx.MakeStarter(func(ctx rx.Context) rx.Subscription {
			lifetime := rx.NewSubscription()
			ctx.Lifetime().Insert(lifetime)
			if lifetime.IsStopped() {
				return lifetime
			}
			tctx := rx.NewContext(lifetime, rx.WithFactory(loop), rx.WithPayload(res))

			at(tctx, Origin.Add(lifespan.Start), func() {
				res.setStart(res.Elapsed())
				lifetime.OnStop(func() { res.setStop(res.Elapsed()) })
				rx.Lift(o, Record[T](Output)).
					Bind(rx.Sink[T](nil, rx.IgnoreError, nil)).
					Start(tctx)
			})
			at(tctx, Origin.Add(lifespan.Stop), lifetime.Stop)
			return lifetime
		})
	})
	return term, res
}

// at runs fn on ctx's strand at when, unless ctx's lifetime stops first.
func at(ctx rx.Context, when time.Time, fn func()) {
	lifetime := rx.NewSubscription()
	ctx.Lifetime().Insert(lifetime)
	rx.DeferAt(ctx, when, rx.NewObserver(lifetime, func(rx.Reschedule) { fn() }, rx.IgnoreError, nil))
}
