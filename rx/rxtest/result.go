package rxtest

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
)

// Output is the key the Test terminator records its own input under.
const Output = "output"

// Lifespan is a window of virtual time, as offsets from Origin.
type Lifespan struct {
	Start time.Duration
	Stop  time.Duration
}

// Result collects recorded marbles by key, plus the active lifespan of the
// subscription under test.
//
// Thread-safety: safe for concurrent recording. Accessors return copies.
type Result struct {
	origin time.Time
	now    func() time.Time

	mu       sync.Mutex
	lifespan Lifespan
	marbles  map[string][]Marble
}

// NewResult creates an empty result that timestamps marbles with now,
// relative to origin.
func NewResult(origin time.Time, now func() time.Time) *Result {
	return &Result{
		origin:  origin,
		now:     now,
		marbles: make(map[string][]Marble),
	}
}

// Origin returns the time marble offsets are relative to.
func (r *Result) Origin() time.Time { return r.origin }

// Elapsed returns the current time as an offset from the origin.
func (r *Result) Elapsed() time.Duration {
	return r.now().Sub(r.origin)
}

// Record appends m under key.
func (r *Result) Record(key string, m Marble) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.marbles[key] = append(r.marbles[key], m)
}

// Marbles returns a copy of the marbles recorded under key.
func (r *Result) Marbles(key string) []Marble {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.marbles[key])
}

// Output returns the marbles the Test terminator received.
func (r *Result) Output() []Marble {
	return r.Marbles(Output)
}

// Keys returns the recorded keys in sorted order.
func (r *Result) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.marbles))
	for k := range r.marbles {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Lifespan returns when the subscription under test started and stopped.
func (r *Result) Lifespan() Lifespan {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lifespan
}

func (r *Result) setStart(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lifespan.Start = d
}

func (r *Result) setStop(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lifespan.Stop = d
}

// Render is the text form used for golden snapshots:
//
//	lifespan: 50..700
//	output:
//	  next@600{1}
//	  complete@700{}
func (r *Result) Render() []byte {
	var b strings.Builder
	ls := r.Lifespan()
	fmt.Fprintf(&b, "lifespan: %d..%d\n", ls.Start.Milliseconds(), ls.Stop.Milliseconds())
	for _, key := range r.Keys() {
		fmt.Fprintf(&b, "%s:\n", key)
		for _, m := range r.Marbles(key) {
			fmt.Fprintf(&b, "  %s\n", m)
		}
	}
	return []byte(b.String())
}
