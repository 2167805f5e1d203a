// Package schedulers provides rx.StrandFactory implementations backed by
// real time.
//
// RunLoop keeps one priority queue of deferred items ordered by time, then
// by insertion, and is pumped by whoever calls Run or Step. NewThread gives
// each strand a goroutine pumping a private RunLoop.
//
// Typical use:
//
//	lifetime := rx.NewSubscription()
//	loop := schedulers.NewRunLoop(lifetime)
//	ctx := rx.NewContext(lifetime, rx.WithFactory(loop))
//	pipeline.Start(ctx)
//	_ = loop.Run(context.Background()) // returns when lifetime stops
package schedulers
