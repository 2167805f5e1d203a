package schedulers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pushrx/rx"
)

var base = time.Unix(1000, 0)

// tagged returns an observer that appends tag to *log when delivered.
func tagged(log *[]string, tag string) rx.Observer[rx.Reschedule] {
	return rx.NewObserver(rx.NewSubscription(), func(rx.Reschedule) {
		*log = append(*log, tag)
	}, rx.IgnoreError, nil)
}

func TestQueue_TimeOrder(t *testing.T) {
	var q Queue
	var log []string
	owner := rx.NewSubscription()

	q.Push(base.Add(3*time.Second), owner, tagged(&log, "c"))
	q.Push(base.Add(1*time.Second), owner, tagged(&log, "a"))
	q.Push(base.Add(2*time.Second), owner, tagged(&log, "b"))
	require.Equal(t, 3, q.Len())

	top, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, base.Add(time.Second), top.When)

	for q.Len() > 0 {
		it, ok := q.Pop()
		require.True(t, ok)
		Dispatch(it)
	}
	assert.Equal(t, []string{"a", "b", "c"}, log)
}

func TestQueue_FIFOAtEqualTime(t *testing.T) {
	var q Queue
	var log []string
	owner := rx.NewSubscription()

	for _, tag := range []string{"1", "2", "3", "4", "5"} {
		q.Push(base, owner, tagged(&log, tag))
	}
	q.Push(base.Add(-time.Second), owner, tagged(&log, "early"))

	for q.Len() > 0 {
		it, _ := q.Pop()
		Dispatch(it)
	}
	assert.Equal(t, []string{"early", "1", "2", "3", "4", "5"}, log)
}

func TestQueue_Empty(t *testing.T) {
	var q Queue
	_, ok := q.Peek()
	assert.False(t, ok)
	_, ok = q.Pop()
	assert.False(t, ok)
}

func TestDispatch_Reschedule(t *testing.T) {
	calls := 0
	completed := false
	what := rx.NewObserver(rx.NewSubscription(), func(self rx.Reschedule) {
		calls++
		if calls < 3 {
			self(base.Add(time.Duration(calls) * time.Second))
		}
	}, rx.IgnoreError, func() { completed = true })
	it := Item{When: base, What: what, Owner: rx.NewSubscription()}

	at, again := Dispatch(it)
	require.True(t, again)
	assert.Equal(t, base.Add(time.Second), at)

	at, again = Dispatch(it)
	require.True(t, again)
	assert.Equal(t, base.Add(2*time.Second), at)
	assert.False(t, completed)

	_, again = Dispatch(it)
	assert.False(t, again)
	assert.True(t, completed)
	assert.Equal(t, 3, calls)
}

func TestDispatch_StoppedOwnerIsInert(t *testing.T) {
	var log []string
	owner := rx.NewSubscription()
	it := Item{When: base, What: tagged(&log, "x"), Owner: owner}

	owner.Stop()
	_, again := Dispatch(it)

	assert.False(t, again)
	assert.Empty(t, log)
}
