package harness

// Result is the outcome of running a scenario.
type Result struct {
	// Name is the scenario name.
	Name string `json:"name"`

	// Pass is true when every expectation matched.
	Pass bool `json:"pass"`

	// Output is the rendered marbles that reached the end of the pipeline.
	Output []string `json:"output"`

	// Recorded holds the marbles of each record step by key.
	Recorded map[string][]string `json:"recorded,omitempty"`

	// Lifespan is when the pipeline actually started and stopped.
	Lifespan Window `json:"lifespan"`

	// Errors contains assertion failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result for the named scenario.
func NewResult(name string) *Result {
	return &Result{
		Name:     name,
		Pass:     true,
		Output:   []string{},
		Recorded: make(map[string][]string),
		Errors:   []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// toCanonicalMap converts the result for MarshalCanonical.
func (r *Result) toCanonicalMap() map[string]any {
	recorded := make(map[string]any, len(r.Recorded))
	for k, v := range r.Recorded {
		recorded[k] = stringsToAny(v)
	}
	return map[string]any{
		"name":     r.Name,
		"pass":     r.Pass,
		"output":   stringsToAny(r.Output),
		"recorded": recorded,
		"lifespan": map[string]any{
			"start": r.Lifespan.Start,
			"stop":  r.Lifespan.Stop,
		},
		"errors": stringsToAny(r.Errors),
	}
}

func stringsToAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
