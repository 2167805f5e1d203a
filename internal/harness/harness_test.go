package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64p(v int64) *int64 { return &v }

func TestScenarios_Golden(t *testing.T) {
	files, err := filepath.Glob("testdata/scenarios/*")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		t.Run(filepath.Base(file), func(t *testing.T) {
			scenario, err := LoadScenario(file)
			require.NoError(t, err)

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_DelayTake(t *testing.T) {
	scenario := &Scenario{
		Name:     "inline",
		Lifespan: Window{Start: 50, Stop: 1000},
		Source: Source{Kind: SourceHot, Marbles: []MarbleSpec{
			{At: 100, Next: int64p(1)},
			{At: 200, Next: int64p(2)},
			{At: 300, Next: int64p(3)},
		}},
		Pipeline: []Step{{Op: OpDelay, MS: 500}, {Op: OpTake, Count: 2}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass)
	assert.Equal(t, []string{"next@600{1}", "next@700{2}", "complete@700{}"}, result.Output)
	assert.Equal(t, Window{Start: 50, Stop: 700}, result.Lifespan)
}

func TestRun_ReportsMismatch(t *testing.T) {
	scenario := &Scenario{
		Name:     "mismatch",
		Lifespan: Window{Start: 0, Stop: 1000},
		Source: Source{Kind: SourceCold, Marbles: []MarbleSpec{
			{At: 10, Next: int64p(1)},
			{At: 20, Error: "boom"},
		}},
		Expect: &Expect{
			Output:   []string{"next@10{1}", "complete@20{}"},
			Lifespan: &Window{Start: 0, Stop: 30},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "Assertion failed: output")
	assert.Contains(t, result.Errors[0], "Actual: [2] error@20{boom}")
	assert.Contains(t, result.Errors[1], "Assertion failed: lifespan")
	assert.Equal(t, []string{"next@10{1}", "error@20{boom}"}, result.Output)
}

func TestRun_Operators(t *testing.T) {
	tests := []struct {
		name     string
		source   Source
		pipeline []Step
		want     []string
	}{
		{
			name:     "copy_if odd",
			source:   Source{Kind: SourceInts, First: 1, Last: 5},
			pipeline: []Step{{Op: OpCopyIf, Pred: "odd"}},
			want:     []string{"next@0{1}", "next@0{3}", "next@0{5}", "complete@0{}"},
		},
		{
			name:     "transform defaults mul to one",
			source:   Source{Kind: SourceInts, First: 1, Last: 2},
			pipeline: []Step{{Op: OpTransform, Add: 5}},
			want:     []string{"next@0{6}", "next@0{7}", "complete@0{}"},
		},
		{
			name:     "last_or_default on empty",
			source:   Source{Kind: SourceInts, First: 2, Last: 1},
			pipeline: []Step{{Op: OpLastOrDefault, Default: 42}},
			want:     []string{"next@0{42}", "complete@0{}"},
		},
		{
			name:     "take zero",
			source:   Source{Kind: SourceInts, First: 1, Last: 3},
			pipeline: []Step{{Op: OpTake, Count: 0}},
			want:     []string{"complete@0{}"},
		},
		{
			name:     "async_ints observed on the loop",
			source:   Source{Kind: SourceAsyncInts, First: 1, Last: 2},
			pipeline: []Step{{Op: OpObserveOn}, {Op: OpDelay, MS: 5}},
			want:     []string{"next@5{1}", "next@5{2}", "complete@5{}"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Run(&Scenario{
				Name:     tt.name,
				Lifespan: Window{Start: 0, Stop: 100},
				Source:   tt.source,
				Pipeline: tt.pipeline,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Output)
		})
	}
}

func TestRun_LifespanStopsIntervals(t *testing.T) {
	result, err := Run(&Scenario{
		Name:     "ticks",
		Lifespan: Window{Start: 0, Stop: 250},
		Source:   Source{Kind: SourceIntervals, Initial: 100, Period: 100},
		Pipeline: []Step{{Op: OpFinally, Key: "done"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"next@100{0}", "next@200{1}"}, result.Output)
	assert.Equal(t, []string{"finally@250{}"}, result.Recorded["done"])
	assert.Equal(t, Window{Start: 0, Stop: 250}, result.Lifespan)
}

func TestRun_InvalidScenario(t *testing.T) {
	_, err := Run(&Scenario{Name: "x", Source: Source{Kind: "nope"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown kind "nope"`)
}

func TestEvaluateExpect_MissingRecordKey(t *testing.T) {
	result := NewResult("r")
	errs := EvaluateExpect(result, &Expect{Recorded: map[string][]string{"tap": {"next@0{1}"}}})
	require.Len(t, errs, 1)

	var aerr *AssertionError
	require.ErrorAs(t, errs[0], &aerr)
	assert.Equal(t, ExpectRecorded, aerr.Type)
}

func TestEvaluateExpect_NilPasses(t *testing.T) {
	assert.Empty(t, EvaluateExpect(NewResult("r"), nil))
}

func TestAssertMarbles_LengthMismatch(t *testing.T) {
	err := assertMarbles(ExpectOutput, []string{"next@0{1}"}, []string{"next@0{1}", "complete@0{}"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Expected: 1 marbles")
	assert.Contains(t, err.Error(), "Actual: 2 marbles")
}
