package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario describes one marble test: a source, a pipeline of operators
// applied to it, the virtual-time window it runs in, and what it should emit.
// All times are milliseconds of virtual time from the test origin.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name" json:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description" json:"description"`

	// Lifespan is when the pipeline is started and when it is stopped if it
	// has not terminated on its own.
	Lifespan Window `yaml:"lifespan" json:"lifespan"`

	// Source is the observable the pipeline is applied to.
	Source Source `yaml:"source" json:"source"`

	// Pipeline lists operators, applied in order.
	Pipeline []Step `yaml:"pipeline" json:"pipeline"`

	// Expect is optional. Without it a run always passes and is only useful
	// for its recorded output.
	Expect *Expect `yaml:"expect,omitempty" json:"expect,omitempty"`
}

// Window is a span of virtual time in milliseconds.
type Window struct {
	Start int64 `yaml:"start" json:"start"`
	Stop  int64 `yaml:"stop" json:"stop"`
}

// MaxRangeLen bounds the number of values an ints or async_ints source emits.
const MaxRangeLen = 100000

// Source selects and parameterizes the observable under test.
type Source struct {
	// Kind is one of hot, cold, ints, async_ints, intervals, merge.
	Kind string `yaml:"kind" json:"kind"`

	// Marbles are the signals of hot and cold sources. For merge they are
	// the terminal signals of the outer source.
	Marbles []MarbleSpec `yaml:"marbles,omitempty" json:"marbles,omitempty"`

	// First and Last bound ints and async_ints, inclusive.
	First int64 `yaml:"first,omitempty" json:"first,omitempty"`
	Last  int64 `yaml:"last,omitempty" json:"last,omitempty"`

	// Initial and Period drive intervals.
	Initial int64 `yaml:"initial,omitempty" json:"initial,omitempty"`
	Period  int64 `yaml:"period,omitempty" json:"period,omitempty"`

	// Inner lists the cold sources a merge source emits, each at its own time.
	Inner []InnerSource `yaml:"inner,omitempty" json:"inner,omitempty"`
}

// InnerSource is a cold source emitted by the outer source of a merge.
type InnerSource struct {
	At      int64        `yaml:"at" json:"at"`
	Marbles []MarbleSpec `yaml:"marbles" json:"marbles"`
}

// MarbleSpec is one signal. Exactly one of Next, Error or Complete is set.
type MarbleSpec struct {
	At       int64  `yaml:"at" json:"at"`
	Next     *int64 `yaml:"next,omitempty" json:"next,omitempty"`
	Error    string `yaml:"error,omitempty" json:"error,omitempty"`
	Complete bool   `yaml:"complete,omitempty" json:"complete,omitempty"`
}

// Step is one operator of the pipeline.
type Step struct {
	// Op is one of delay, take, copy_if, transform, last_or_default,
	// observe_on, record, finally.
	Op string `yaml:"op" json:"op"`

	MS      int64  `yaml:"ms,omitempty" json:"ms,omitempty"`           // delay
	Count   int    `yaml:"count,omitempty" json:"count,omitempty"`     // take
	Pred    string `yaml:"pred,omitempty" json:"pred,omitempty"`       // copy_if: even | odd
	Add     int64  `yaml:"add,omitempty" json:"add,omitempty"`         // transform: v*mul + add
	Mul     *int64 `yaml:"mul,omitempty" json:"mul,omitempty"`         // transform, defaults to 1
	Default int64  `yaml:"default,omitempty" json:"default,omitempty"` // last_or_default
	Key     string `yaml:"key,omitempty" json:"key,omitempty"`         // record, finally
}

// Expect lists the expected marbles and lifespan.
type Expect struct {
	// Output is the rendered marbles reaching the end of the pipeline, for
	// example "next@600{1}".
	Output []string `yaml:"output,omitempty" json:"output,omitempty"`

	// Recorded holds the marbles of record steps by key.
	Recorded map[string][]string `yaml:"recorded,omitempty" json:"recorded,omitempty"`

	// Lifespan is when the pipeline actually started and stopped.
	Lifespan *Window `yaml:"lifespan,omitempty" json:"lifespan,omitempty"`
}

// Source kinds.
const (
	SourceHot       = "hot"
	SourceCold      = "cold"
	SourceInts      = "ints"
	SourceAsyncInts = "async_ints"
	SourceIntervals = "intervals"
	SourceMerge     = "merge"
)

// Pipeline ops.
const (
	OpDelay         = "delay"
	OpTake          = "take"
	OpCopyIf        = "copy_if"
	OpTransform     = "transform"
	OpLastOrDefault = "last_or_default"
	OpObserveOn     = "observe_on"
	OpRecord        = "record"
	OpFinally       = "finally"
)

// LoadScenario reads a scenario file. Files ending in .cue are evaluated
// against the embedded CUE schema; anything else is parsed as YAML with
// unknown fields rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario *Scenario
	if filepath.Ext(path) == ".cue" {
		scenario, err = parseCUE(path, data)
	} else {
		scenario, err = parseYAML(data)
	}
	if err != nil {
		return nil, err
	}

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return scenario, nil
}

// ParseScenario parses YAML scenario bytes and validates the result.
func ParseScenario(data []byte) (*Scenario, error) {
	scenario, err := parseYAML(data)
	if err != nil {
		return nil, err
	}
	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return scenario, nil
}

func parseYAML(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // typos like "pipline:" fail loudly
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks required fields and per-op parameters.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Lifespan.Start < 0 || s.Lifespan.Stop < s.Lifespan.Start {
		return fmt.Errorf("lifespan must satisfy 0 <= start <= stop, got %d..%d", s.Lifespan.Start, s.Lifespan.Stop)
	}
	if err := validateSource(&s.Source); err != nil {
		return err
	}
	keys := make(map[string]int)
	for i, step := range s.Pipeline {
		if err := validateStep(i, &step); err != nil {
			return err
		}
		if step.Op != OpRecord && step.Op != OpFinally {
			continue
		}
		if prev, ok := keys[step.Key]; ok {
			return fmt.Errorf("pipeline[%d]: key %q is already used by pipeline[%d]", i, step.Key, prev)
		}
		keys[step.Key] = i
	}
	return nil
}

func validateSource(src *Source) error {
	switch src.Kind {
	case SourceHot, SourceCold:
		return validateMarbles("source.marbles", src.Marbles)
	case SourceInts, SourceAsyncInts:
		// async_ints delivers every value at one virtual instant
		if src.Last >= src.First && uint64(src.Last-src.First) >= MaxRangeLen {
			return fmt.Errorf("source: %s range %d..%d exceeds %d values", src.Kind, src.First, src.Last, MaxRangeLen)
		}
		return nil
	case SourceIntervals:
		if src.Initial < 0 || src.Period <= 0 {
			return fmt.Errorf("source: intervals needs initial >= 0 and period > 0")
		}
		return nil
	case SourceMerge:
		if err := validateMarbles("source.marbles", src.Marbles); err != nil {
			return err
		}
		for i, m := range src.Marbles {
			if m.Next != nil {
				return fmt.Errorf("source.marbles[%d]: the outer source of a merge emits only inner sources", i)
			}
		}
		for i, in := range src.Inner {
			if in.At < 0 {
				return fmt.Errorf("source.inner[%d]: at must be non-negative", i)
			}
			if err := validateMarbles(fmt.Sprintf("source.inner[%d].marbles", i), in.Marbles); err != nil {
				return err
			}
		}
		return nil
	case "":
		return fmt.Errorf("source.kind is required")
	default:
		return fmt.Errorf("source: unknown kind %q", src.Kind)
	}
}

func validateMarbles(field string, marbles []MarbleSpec) error {
	for i, m := range marbles {
		if m.At < 0 {
			return fmt.Errorf("%s[%d]: at must be non-negative", field, i)
		}
		set := 0
		if m.Next != nil {
			set++
		}
		if m.Error != "" {
			set++
		}
		if m.Complete {
			set++
		}
		if set != 1 {
			return fmt.Errorf("%s[%d]: exactly one of next, error, complete is required", field, i)
		}
	}
	return nil
}

func validateStep(index int, st *Step) error {
	switch st.Op {
	case OpDelay:
		if st.MS < 0 {
			return fmt.Errorf("pipeline[%d]: delay ms must be non-negative", index)
		}
	case OpTake:
		if st.Count < 0 {
			return fmt.Errorf("pipeline[%d]: take count must be non-negative", index)
		}
	case OpCopyIf:
		if st.Pred != "even" && st.Pred != "odd" {
			return fmt.Errorf("pipeline[%d]: copy_if pred must be even or odd, got %q", index, st.Pred)
		}
	case OpRecord, OpFinally:
		if st.Key == "" {
			return fmt.Errorf("pipeline[%d]: %s needs a key", index, st.Op)
		}
		if st.Key == "output" {
			return fmt.Errorf("pipeline[%d]: key %q is reserved", index, st.Key)
		}
	case OpTransform, OpLastOrDefault, OpObserveOn:
	case "":
		return fmt.Errorf("pipeline[%d]: op is required", index)
	default:
		return fmt.Errorf("pipeline[%d]: unknown op %q", index, st.Op)
	}
	return nil
}
