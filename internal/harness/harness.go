package harness

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/pushrx/rx"
	"github.com/roach88/pushrx/rx/rxtest"
)

// Option configures a harness run.
type Option func(*config)

type config struct {
	logger  *slog.Logger
	horizon time.Duration
}

// WithLogger sets the logger for run diagnostics. Runs are silent by default.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithHorizon sets how much virtual time a run may consume. The default is
// one hour or the scenario lifespan, whichever is longer.
func WithHorizon(d time.Duration) Option {
	return func(c *config) {
		c.horizon = d
	}
}

// Run executes a scenario on a fresh test loop and returns the result.
//
// Execution flow:
//  1. Build the source and the pipeline on a new TestLoop
//  2. Terminate it with an rxtest.Test terminator spanning the lifespan
//  3. Step virtual time until the horizon
//  4. Collect recorded marbles and evaluate expectations
//
// An error is returned only when the scenario cannot be built; mismatches
// are reported through Result.Pass and Result.Errors.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := &config{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	horizon := cfg.horizon
	if horizon == 0 {
		horizon = max(time.Hour, millis(scenario.Lifespan.Stop)+time.Millisecond)
	}

	loop := rxtest.NewTestLoop()
	defer loop.Lifetime().Stop()

	src, err := buildSource(scenario.Source, loop)
	if err != nil {
		return nil, fmt.Errorf("failed to build source: %w", err)
	}
	finals := &finalizers{ran: make(map[string][]string)}
	pipeline, err := buildPipeline(src, scenario.Pipeline, loop, finals)
	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline: %w", err)
	}

	term, rec := rxtest.Test[int64](loop, rxtest.Lifespan{
		Start: millis(scenario.Lifespan.Start),
		Stop:  millis(scenario.Lifespan.Stop),
	})
	ctx := rx.StartContext()
	defer ctx.Lifetime().Stop()

	cfg.logger.Debug("harness: running scenario", "name", scenario.Name, "steps", len(scenario.Pipeline))
	pipeline.Terminate(term).Start(ctx)
	loop.Step(horizon)

	result := collect(scenario.Name, rec, finals)
	for _, err := range EvaluateExpect(result, scenario.Expect) {
		result.AddError(err.Error())
	}
	cfg.logger.Debug("harness: scenario finished",
		"name", scenario.Name,
		"pass", result.Pass,
		"output", len(result.Output),
		"virtual_time", loop.Clock().Since(),
	)
	return result, nil
}

func collect(name string, rec *rxtest.Result, finals *finalizers) *Result {
	result := NewResult(name)
	result.Output = rxtest.Render(rec.Output())
	for _, key := range rec.Keys() {
		if key == rxtest.Output {
			continue
		}
		result.Recorded[key] = rxtest.Render(rec.Marbles(key))
	}
	for key, ran := range finals.ran {
		result.Recorded[key] = ran
	}
	ls := rec.Lifespan()
	result.Lifespan = Window{Start: ls.Start.Milliseconds(), Stop: ls.Stop.Milliseconds()}
	return result
}
