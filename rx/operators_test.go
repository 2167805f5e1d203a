package rx

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collected is what a terminal sink saw.
type collected[T any] struct {
	values    []T
	err       error
	completed bool
}

// collect runs o to completion on the immediate strand.
func collect[T any](t *testing.T, o Observable[T]) *collected[T] {
	t.Helper()
	c := &collected[T]{}
	sub := o.Bind(Sink(
		func(v T) { c.values = append(c.values, v) },
		func(err error) { c.err = err },
		func() { c.completed = true },
	)).Start(StartContext())
	sub.Join()
	return c
}

// failing is an Observable that errors as soon as it starts.
func failing[T any](err error) Observable[T] {
	return MakeObservable(func(s Subscriber[T]) Starter {
		return MakeStarter(func(ctx Context) Subscription {
			s.Create(ctx).Error(err)
			return ctx.Lifetime()
		})
	})
}

func isEven(v int) bool { return v%2 == 0 }

func TestInts(t *testing.T) {
	c := collect(t, Ints(1, 5))
	assert.Equal(t, []int{1, 2, 3, 4, 5}, c.values)
	assert.True(t, c.completed)
}

func TestInts_EmptyRange(t *testing.T) {
	c := collect(t, Ints(5, 1))
	assert.Empty(t, c.values)
	assert.True(t, c.completed)
}

func TestInts_MaxValueTerminates(t *testing.T) {
	c := collect(t, Ints[uint8](254, 255))
	assert.Equal(t, []uint8{254, 255}, c.values)
	assert.True(t, c.completed)
}

func TestTake_Zero(t *testing.T) {
	produced := 0
	src := Lift(Ints(0, 9), Transform(func(v int) int {
		produced++
		return v
	}))

	var completed bool
	sub := Adapt(src, Take[int](0)).
		Bind(Sink[int](func(int) { t.Fatal("take(0) emitted a value") }, IgnoreError, func() { completed = true })).
		Start(StartContext())

	// synchronous: completed before Start returned
	assert.True(t, completed)
	assert.True(t, sub.IsStopped())
	assert.Equal(t, 0, produced)
}

func TestTake_Three(t *testing.T) {
	produced := 0
	src := Lift(Ints(0, 9), Transform(func(v int) int {
		produced++
		return v
	}))

	c := collect(t, Adapt(src, Take[int](3)))

	assert.Equal(t, []int{0, 1, 2}, c.values)
	assert.True(t, c.completed)
	assert.Equal(t, 3, produced, "upstream stops once take is satisfied")
}

func TestTake_FewerThanN(t *testing.T) {
	c := collect(t, Adapt(Ints(1, 2), Take[int](5)))
	assert.Equal(t, []int{1, 2}, c.values)
	assert.True(t, c.completed)
}

func TestLastOrDefault(t *testing.T) {
	tests := []struct {
		name  string
		first int
		last  int
		want  []int
	}{
		{"last even seen", 1, 3, []int{2}},
		{"no even values", 1, 1, []int{42}},
		{"several evens", 1, 10, []int{10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := Lift(Lift(Ints(tt.first, tt.last), CopyIf(isEven)), LastOrDefault(42))
			c := collect(t, o)
			assert.Equal(t, tt.want, c.values)
			assert.True(t, c.completed)
		})
	}
}

func TestLastOrDefault_ErrorPassesThrough(t *testing.T) {
	boom := errors.New("boom")
	c := collect(t, Lift(failing[int](boom), LastOrDefault(42)))

	assert.Empty(t, c.values)
	assert.ErrorIs(t, c.err, boom)
	assert.False(t, c.completed)
}

func TestTransform_PanicBecomesError(t *testing.T) {
	o := Lift(Ints(1, 3), Transform(func(v int) int {
		if v == 2 {
			panic("two")
		}
		return v * 10
	}))

	c := collect(t, o)

	assert.Equal(t, []int{10}, c.values)
	var hp *HandlerPanicError
	require.ErrorAs(t, c.err, &hp)
	assert.Equal(t, "two", hp.Value)
	assert.False(t, c.completed)
}

func TestTransform_ChangesType(t *testing.T) {
	o := Lift(Ints(1, 3), Transform(func(v int) string {
		return string(rune('a' + v - 1))
	}))
	c := collect(t, o)
	assert.Equal(t, []string{"a", "b", "c"}, c.values)
}

func TestObservable_IsCold(t *testing.T) {
	starts := 0
	o := MakeObservable(func(s Subscriber[int]) Starter {
		return MakeStarter(func(ctx Context) Subscription {
			starts++
			return Ints(1, 2).Bind(s).Start(ctx)
		})
	})
	piped := Lift(o, Transform(func(v int) int { return v + 1 }))
	assert.Equal(t, 0, starts, "composition runs nothing")

	first := collect(t, piped)
	second := collect(t, piped)

	assert.Equal(t, 2, starts)
	assert.Equal(t, first.values, second.values)
}

func TestComposition_LiftersAssociate(t *testing.T) {
	l1 := CopyIf(isEven)
	l2 := Transform(func(v int) int { return v * 3 })
	l3 := LastOrDefault(-1)

	left := Lift(Lift(Lift(Ints(1, 10), l1), l2), l3)
	right := Lift(Ints(1, 10), ComposeLifters(l1, ComposeLifters(l2, l3)))
	mixed := Lift(Lift(Ints(1, 10), ComposeLifters(l1, l2)), l3)

	want := collect(t, left)
	assert.Equal(t, []int{30}, want.values)
	assert.Equal(t, want, collect(t, right))
	assert.Equal(t, want, collect(t, mixed))
}

func TestComposition_Adaptors(t *testing.T) {
	double := Transform(func(v int) int { return v * 2 })
	src := Ints(1, 10)
	want := []int{2, 4}

	cases := map[string]Observable[int]{
		"compose adaptors":   Adapt(src, ComposeAdaptors(double.Adaptor(), Take[int](2))),
		"adapt then lift":    Adapt(src, AdaptThenLift(Take[int](2), double)),
		"lift then adapt":    Adapt(src, LiftThenAdapt(double, Take[int](2))),
		"lifter as adaptor":  Adapt(Adapt(src, double.Adaptor()), Take[int](2)),
		"nested composition": Adapt(src, ComposeAdaptors(Take[int](3), AdaptThenLift(Take[int](2), double))),
	}

	for name, o := range cases {
		t.Run(name, func(t *testing.T) {
			c := collect(t, o)
			assert.Equal(t, want, c.values)
			assert.True(t, c.completed)
		})
	}
}

func TestComposition_Terminator(t *testing.T) {
	var got []int
	completed := false
	term := Terminate(Take[int](2), Sink(func(v int) { got = append(got, v) }, IgnoreError, func() { completed = true }))

	sub := Ints(5, 9).Terminate(term).Start(StartContext())
	sub.Join()

	assert.Equal(t, []int{5, 6}, got)
	assert.True(t, completed)

	got = nil
	term.Terminate(Ints(7, 7)).Start(StartContext()).Join()
	assert.Equal(t, []int{7}, got)
}

func TestFinally_RunsOnce(t *testing.T) {
	runs := 0
	c := collect(t, Lift(Ints(1, 3), Finally[int](func() { runs++ })))

	assert.True(t, c.completed)
	assert.Equal(t, 1, runs)
}

func TestMerge_Immediate(t *testing.T) {
	o := Adapt(Ints(1, 3), TransformMerge(Immediate{}, func(v int) Observable[int] {
		return Ints(v*10, v*10+1)
	}))

	c := collect(t, o)

	assert.Equal(t, []int{10, 11, 20, 21, 30, 31}, c.values)
	assert.True(t, c.completed)
}

func TestMerge_EmptyInnerAndOuter(t *testing.T) {
	c := collect(t, Adapt(Ints(1, 0), TransformMerge(Immediate{}, func(v int) Observable[int] {
		return Ints(v, v)
	})))
	assert.Empty(t, c.values)
	assert.True(t, c.completed)

	c = collect(t, Adapt(Ints(1, 2), TransformMerge(Immediate{}, func(int) Observable[int] {
		return Ints(1, 0)
	})))
	assert.Empty(t, c.values)
	assert.True(t, c.completed)
}

func TestMerge_InnerErrorPropagatesImmediately(t *testing.T) {
	boom := errors.New("boom")
	o := Adapt(Ints(1, 3), TransformMerge(Immediate{}, func(v int) Observable[int] {
		if v == 2 {
			return failing[int](boom)
		}
		return Ints(v, v)
	}))

	c := collect(t, o)

	assert.Equal(t, []int{1}, c.values)
	assert.ErrorIs(t, c.err, boom)
	assert.False(t, c.completed)
}

func TestMerge_StopStopsPendingBranches(t *testing.T) {
	stopped := 0
	o := Adapt(Ints(1, 3), TransformMerge(Immediate{}, func(v int) Observable[int] {
		return Lift(Ints(v*10, v*10+9), Finally[int](func() { stopped++ }))
	}))

	c := collect(t, Adapt(o, Take[int](2)))

	assert.Equal(t, []int{10, 11}, c.values)
	assert.True(t, c.completed)
	assert.Equal(t, 1, stopped, "only the first branch was started")
}

func TestAsyncInts_Immediate(t *testing.T) {
	c := collect(t, AsyncInts(Immediate{}, 1, 5))
	assert.Equal(t, []int{1, 2, 3, 4, 5}, c.values)
	assert.True(t, c.completed)

	c = collect(t, AsyncInts(Immediate{}, 3, 3))
	assert.Equal(t, []int{3}, c.values)

	c = collect(t, AsyncInts(Immediate{}, 3, 2))
	assert.Empty(t, c.values)
	assert.True(t, c.completed)
}

func TestIntervals_Immediate(t *testing.T) {
	start := time.Now()
	c := collect(t, Adapt(Intervals(Immediate{}, time.Millisecond, 2*time.Millisecond), Take[int64](3)))

	assert.Equal(t, []int64{0, 1, 2}, c.values)
	assert.True(t, c.completed)
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
}

func TestObserveOn_ImmediateIsPassThrough(t *testing.T) {
	l := ObserveOn[int](Immediate{})
	c := collect(t, Lift(Ints(1, 3), l))
	assert.Equal(t, []int{1, 2, 3}, c.values)
}

func TestDelay_Immediate(t *testing.T) {
	start := time.Now()
	c := collect(t, Lift(Ints(1, 2), Delay[int](Immediate{}, 5*time.Millisecond)))

	assert.Equal(t, []int{1, 2}, c.values)
	assert.True(t, c.completed)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}
