package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJDMatch_BlankJD(t *testing.T) {
	for _, s := range []Scorer{NewTFIDF(), Overlap{}, panicScorer{}} {
		assert.Zero(t, JDMatch(s, "python developer with sql", ""), s.Name())
		assert.Zero(t, JDMatch(s, "python developer with sql", "  \n\t "), s.Name())
	}
}

func TestTFIDF_IdenticalTexts(t *testing.T) {
	text := "Senior Go engineer building distributed systems with Kubernetes"
	assert.Equal(t, 100.0, JDMatch(NewTFIDF(), text, text))
}

func TestTFIDF_DisjointTexts(t *testing.T) {
	assert.Zero(t, JDMatch(NewTFIDF(), "python pandas statistics", "kotlin android swift"))
}

func TestTFIDF_StopWordsOnly(t *testing.T) {
	assert.Zero(t, JDMatch(NewTFIDF(), "python developer", "the and of to"))
}

func TestTFIDF_PartialOverlapIsBetweenBounds(t *testing.T) {
	resume := "Backend developer: Python, SQL, Docker and AWS experience"
	jd := "We need a Python backend developer who knows Kubernetes"

	score := JDMatch(NewTFIDF(), resume, jd)
	assert.Greater(t, score, 0.0)
	assert.Less(t, score, 100.0)
}

func TestTFIDF_Terms(t *testing.T) {
	counts := NewTFIDF().termCounts("The machine learning engineer, a Machine Learning fan")
	assert.Equal(t, 2.0, counts["machine learning"])
	assert.Equal(t, 2.0, counts["machine"])
	assert.NotContains(t, counts, "the")
	assert.NotContains(t, counts, "a")
}

func TestOverlap(t *testing.T) {
	// jd tokens: {python, sql, docker, go}; shared: python, sql
	got := JDMatch(Overlap{}, "Python sql java", "python SQL docker go")
	assert.Equal(t, 50.0, got)

	// one of three tokens shared rounds to two decimals
	assert.Equal(t, 33.33, JDMatch(Overlap{}, "a", "a b c"))
}

func TestNew(t *testing.T) {
	s, err := New("")
	require.NoError(t, err)
	assert.Equal(t, ModeTFIDF, s.Name())

	s, err = New("OVERLAP")
	require.NoError(t, err)
	assert.Equal(t, ModeOverlap, s.Name())

	_, err = New("bert")
	assert.Error(t, err)
}

type panicScorer struct{}

func (panicScorer) Name() string                    { return "panic" }
func (panicScorer) Similarity(_, _ string) float64 { panic("scorer must not be called") }
