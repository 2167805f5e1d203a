package rxtest

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
)

// AssertMarbles checks that got renders exactly as want, for example
// []string{"next@600{1}", "complete@700{}"}.
func AssertMarbles(t testing.TB, want []string, got []Marble, msgAndArgs ...any) bool {
	t.Helper()
	if want == nil {
		want = []string{}
	}
	return assert.Equal(t, want, Render(got), msgAndArgs...)
}

// AssertLifespan checks the recorded lifespan of res.
func AssertLifespan(t testing.TB, want Lifespan, res *Result) bool {
	t.Helper()
	return assert.Equal(t, want, res.Lifespan(), "recorded lifespan")
}

// AssertGolden compares the rendered result with testdata/golden/{name}.golden.
//
// To regenerate golden files, run the test with -update.
func AssertGolden(t *testing.T, name string, res *Result) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, res.Render())
}
