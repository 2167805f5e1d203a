// Package rxtest runs pipelines on virtual time and records what they emit
// as marbles, so timing behavior can be asserted exactly.
//
// A test builds a TestLoop, a Test terminator with the window the pipeline
// should be live in, and Hot or Cold sources:
//
//	loop := rxtest.NewTestLoop()
//	term, res := rxtest.Test[int](loop, rxtest.Lifespan{Start: 50 * ms, Stop: 1000 * ms})
//	src := rxtest.Hot[int](rxtest.OnNext(100*ms, 1), rxtest.OnNext(200*ms, 2))
//	rx.Lift(src, rx.Delay[int](loop, 500*ms)).Terminate(term).Start(rx.StartContext())
//	loop.Run()
//	rxtest.AssertMarbles(t, []string{"next@600{1}", "next@700{2}"}, res.Output())
//
// Marbles render as kind@milliseconds{payload}. Record taps a pipeline at
// any point and files its signals under a key of the same Result.
package rxtest
