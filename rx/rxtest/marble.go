package rxtest

import (
	"fmt"
	"time"
)

// Kind is the signal a marble records.
type Kind string

const (
	KindNext     Kind = "next"
	KindError    Kind = "error"
	KindComplete Kind = "complete"
)

// Marble is one signal at a virtual time offset from Origin.
type Marble struct {
	At    time.Duration
	Kind  Kind
	Value any
	Err   error
}

// OnNext is a value marble.
func OnNext(at time.Duration, v any) Marble {
	return Marble{At: at, Kind: KindNext, Value: v}
}

// OnError is an error marble.
func OnError(at time.Duration, err error) Marble {
	return Marble{At: at, Kind: KindError, Err: err}
}

// OnComplete is a completion marble.
func OnComplete(at time.Duration) Marble {
	return Marble{At: at, Kind: KindComplete}
}

// String renders the marble as kind@milliseconds{payload}, for example
// next@600{1}, error@700{boom} or complete@700{}.
func (m Marble) String() string {
	ms := m.At.Milliseconds()
	switch m.Kind {
	case KindNext:
		return fmt.Sprintf("next@%d{%v}", ms, m.Value)
	case KindError:
		return fmt.Sprintf("error@%d{%v}", ms, m.Err)
	default:
		return fmt.Sprintf("complete@%d{}", ms)
	}
}

// Render returns the String form of every marble.
func Render(marbles []Marble) []string {
	out := make([]string, len(marbles))
	for i, m := range marbles {
		out[i] = m.String()
	}
	return out
}
