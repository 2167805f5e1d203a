package harness

import (
	"errors"
	"fmt"
	"time"

	"github.com/roach88/pushrx/rx"
	"github.com/roach88/pushrx/rx/rxtest"
)

func millis(ms int64) time.Duration { return time.Duration(ms) * time.Millisecond }

// marbles converts scenario marbles into rxtest marbles carrying int64 values.
func marbles(specs []MarbleSpec) []rxtest.Marble {
	out := make([]rxtest.Marble, 0, len(specs))
	for _, m := range specs {
		at := millis(m.At)
		switch {
		case m.Next != nil:
			out = append(out, rxtest.OnNext(at, *m.Next))
		case m.Error != "":
			out = append(out, rxtest.OnError(at, errors.New(m.Error)))
		default:
			out = append(out, rxtest.OnComplete(at))
		}
	}
	return out
}

// buildSource returns the observable named by src, scheduling on loop.
func buildSource(src Source, loop *rxtest.TestLoop) (rx.Observable[int64], error) {
	switch src.Kind {
	case SourceHot:
		return rxtest.Hot[int64](marbles(src.Marbles)...), nil
	case SourceCold:
		return rxtest.Cold[int64](marbles(src.Marbles)...), nil
	case SourceInts:
		return rx.Ints(src.First, src.Last), nil
	case SourceAsyncInts:
		return rx.AsyncInts(loop, src.First, src.Last), nil
	case SourceIntervals:
		return rx.Intervals(loop, millis(src.Initial), millis(src.Period)), nil
	case SourceMerge:
		outer := marbles(src.Marbles)
		for _, in := range src.Inner {
			outer = append(outer, rxtest.OnNext(millis(in.At), rxtest.Cold[int64](marbles(in.Marbles)...)))
		}
		return rx.Adapt(rxtest.Hot[rx.Observable[int64]](outer...), rx.Merge[int64](loop)), nil
	default:
		return rx.Observable[int64]{}, fmt.Errorf("unknown source kind %q", src.Kind)
	}
}

// buildPipeline applies steps to o in order.
func buildPipeline(o rx.Observable[int64], steps []Step, loop *rxtest.TestLoop, finals *finalizers) (rx.Observable[int64], error) {
	for i, st := range steps {
		switch st.Op {
		case OpDelay:
			o = rx.Lift(o, rx.Delay[int64](loop, millis(st.MS)))
		case OpTake:
			o = rx.Adapt(o, rx.Take[int64](st.Count))
		case OpCopyIf:
			o = rx.Lift(o, rx.CopyIf(parity(st.Pred)))
		case OpTransform:
			mul, add := int64(1), st.Add
			if st.Mul != nil {
				mul = *st.Mul
			}
			o = rx.Lift(o, rx.Transform(func(v int64) int64 { return v*mul + add }))
		case OpLastOrDefault:
			o = rx.Lift(o, rx.LastOrDefault(st.Default))
		case OpObserveOn:
			o = rx.Lift(o, rx.ObserveOn[int64](loop))
		case OpRecord:
			o = rx.Lift(o, rxtest.Record[int64](st.Key))
		case OpFinally:
			o = rx.Lift(o, rx.Finally[int64](finals.hook(st.Key, loop)))
		default:
			return o, fmt.Errorf("pipeline[%d]: unknown op %q", i, st.Op)
		}
	}
	return o, nil
}

func parity(pred string) func(int64) bool {
	if pred == "odd" {
		return func(v int64) bool { return v%2 != 0 }
	}
	return func(v int64) bool { return v%2 == 0 }
}

// finalizers records the virtual time each finally step ran at.
type finalizers struct {
	ran map[string][]string
}

func (f *finalizers) hook(key string, loop *rxtest.TestLoop) func() {
	return func() {
		f.ran[key] = append(f.ran[key], fmt.Sprintf("finally@%d{}", loop.Clock().Since().Milliseconds()))
	}
}
