// Package harness runs marble scenarios against the rx runtime.
//
// A scenario names a source, a pipeline of operators and the virtual-time
// window the pipeline lives in, then states what it should emit. The harness
// builds the pipeline over int64 values, runs it on an rxtest.TestLoop and
// compares the recorded marbles with the expectations.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: delay_take
//	description: delayed values truncated by take
//	lifespan: {start: 50, stop: 1000}
//	source:
//	  kind: hot
//	  marbles:
//	    - {at: 100, next: 1}
//	    - {at: 200, next: 2}
//	    - {at: 300, next: 3}
//	pipeline:
//	  - {op: delay, ms: 500}
//	  - {op: take, count: 2}
//	expect:
//	  output: ["next@600{1}", "next@700{2}", "complete@700{}"]
//	  lifespan: {start: 50, stop: 700}
//
// or CUE files with the same fields, checked against the embedded #Scenario
// schema.
//
// # Sources and Ops
//
// Sources: hot, cold, ints, async_ints, intervals, merge.
// Ops: delay, take, copy_if, transform, last_or_default, observe_on, record,
// finally.
//
// # Determinism
//
// Every run uses a fresh test loop whose clock starts at the origin, so a
// scenario produces byte-identical canonical JSON on every run. That output
// is what golden files and the run history store.
package harness
