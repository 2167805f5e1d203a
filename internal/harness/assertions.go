package harness

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Expectation kinds reported in AssertionError.Type.
const (
	ExpectOutput   = "output"
	ExpectRecorded = "recorded"
	ExpectLifespan = "lifespan"
)

// AssertionError is returned when an expectation fails.
// It includes the full output to help debug the failure.
type AssertionError struct {
	Type     string   // Expectation kind for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Output   []string // Full output for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull output:\n")
	for i, m := range e.Output {
		fmt.Fprintf(&buf, "  [%d] %s\n", i+1, m)
	}
	return buf.String()
}

// EvaluateExpect compares a result with the expectations of its scenario.
// A nil expect always passes.
func EvaluateExpect(result *Result, expect *Expect) []error {
	if expect == nil {
		return nil
	}

	var errs []error
	if expect.Output != nil {
		if err := assertMarbles(ExpectOutput, expect.Output, result.Output, result.Output); err != nil {
			errs = append(errs, err)
		}
	}

	keys := make([]string, 0, len(expect.Recorded))
	for k := range expect.Recorded {
		keys = append(keys, k)
	}
	sort.Strings(keys) // deterministic error order
	for _, key := range keys {
		got, ok := result.Recorded[key]
		if !ok {
			errs = append(errs, &AssertionError{
				Type:     ExpectRecorded,
				Expected: fmt.Sprintf("marbles recorded under %q", key),
				Actual:   "nothing recorded under that key",
				Output:   result.Output,
			})
			continue
		}
		if err := assertMarbles(ExpectRecorded+"."+key, expect.Recorded[key], got, result.Output); err != nil {
			errs = append(errs, err)
		}
	}

	if expect.Lifespan != nil && *expect.Lifespan != result.Lifespan {
		errs = append(errs, &AssertionError{
			Type:     ExpectLifespan,
			Expected: fmt.Sprintf("%d..%d", expect.Lifespan.Start, expect.Lifespan.Stop),
			Actual:   fmt.Sprintf("%d..%d", result.Lifespan.Start, result.Lifespan.Stop),
			Output:   result.Output,
		})
	}
	return errs
}

// assertMarbles reports the first position where got diverges from want.
func assertMarbles(kind string, want, got, output []string) error {
	if slices.Equal(want, got) {
		return nil
	}
	for i := range min(len(want), len(got)) {
		if want[i] != got[i] {
			return &AssertionError{
				Type:     kind,
				Expected: fmt.Sprintf("[%d] %s", i+1, want[i]),
				Actual:   fmt.Sprintf("[%d] %s", i+1, got[i]),
				Output:   output,
			}
		}
	}
	return &AssertionError{
		Type:     kind,
		Expected: fmt.Sprintf("%d marbles %v", len(want), want),
		Actual:   fmt.Sprintf("%d marbles %v", len(got), got),
		Output:   output,
	}
}
