package matcher

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scored(pairs ...any) []MatchCandidate {
	out := make([]MatchCandidate, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		id := pairs[i].(string)
		out = append(out, MatchCandidate{
			Employee: EmployeeRecord{EmpID: id, FirstName: id, FullName: id},
			Score:    pairs[i+1].(float64),
		})
	}
	return out
}

func ids(cands []MatchCandidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.Employee.EmpID
	}
	return out
}

func labels(cands []MatchCandidate) []Label {
	out := make([]Label, len(cands))
	for i, c := range cands {
		out[i] = c.Label
	}
	return out
}

type fakeTieBreaker struct {
	probs map[string]float64
	err   error
	seen  []EmployeeRecord
}

func (f *fakeTieBreaker) Probabilities(_ string, emps []EmployeeRecord) ([]float64, error) {
	f.seen = append(f.seen, emps...)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]float64, len(emps))
	for i, e := range emps {
		out[i] = f.probs[e.EmpID]
	}
	return out, nil
}

func TestRankOrderAndLabels(t *testing.T) {
	res := Rank("u", scored("A", 40.0, "B", 80.0, "C", 80.0, "D", 10.0, "E", 60.0), testConfig(), nil)

	assert.Equal(t, "u", res.Username)
	assert.Equal(t, []string{"B", "C", "E", "A"}, ids(res.Candidates))
	assert.Equal(t, []Label{LabelTop, LabelTop, LabelOther, LabelOther}, labels(res.Candidates))
	for i, c := range res.Candidates {
		assert.Equal(t, i+1, c.Rank)
	}
	assert.True(t, res.Ambiguous)
	assert.False(t, res.Refined)
}

func TestRankBelowThreshold(t *testing.T) {
	res := Rank("u", scored("A", 20.0, "B", 30.0), testConfig(), nil)
	assert.Equal(t, []string{"B", "A"}, ids(res.Candidates))
	assert.Equal(t, []Label{LabelBestBelow, LabelTop}, labels(res.Candidates))
	assert.False(t, res.Ambiguous)
}

func TestRankExactFirst(t *testing.T) {
	in := scored("A", 100.0, "B", 100.0)
	in[1].Exact = true
	res := Rank("u", in, testConfig(), &fakeTieBreaker{})

	assert.Equal(t, []string{"B", "A"}, ids(res.Candidates))
	assert.Equal(t, []Label{LabelExactSingle, LabelTop}, labels(res.Candidates))
	assert.False(t, res.Ambiguous)
}

func TestRankCompositeAboveDemotedExact(t *testing.T) {
	in := scored("101", 95.0, "102", 95.0, "103", 100.0)
	in[0].Exact, in[1].Exact = true, true
	res := Rank("john.doe", in, testConfig(), nil)

	assert.Equal(t, []string{"103", "101", "102"}, ids(res.Candidates))
	assert.Equal(t, []Label{LabelTop, LabelExactMultiple, LabelExactMultiple}, labels(res.Candidates))
	for i := 1; i < len(res.Candidates); i++ {
		assert.GreaterOrEqual(t, res.Candidates[i-1].Score, res.Candidates[i].Score)
	}
	assert.False(t, res.Ambiguous)
}

func TestRankExactMultipleCountedBeforeTruncation(t *testing.T) {
	cfg := testConfig()
	cfg.Ranking.TopGroup = 1
	cfg.Ranking.Additional = 0
	in := scored("A", 95.0, "B", 95.0)
	in[0].Exact, in[1].Exact = true, true

	res := Rank("u", in, cfg, nil)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, LabelExactMultiple, res.Candidates[0].Label)
}

func TestRankNoMatch(t *testing.T) {
	for _, in := range [][]MatchCandidate{nil, scored("A", 0.0, "B", 0.0)} {
		res := Rank("ghost", in, testConfig(), nil)
		require.Len(t, res.Candidates, 1)
		c := res.Candidates[0]
		assert.True(t, c.NoMatch())
		assert.Equal(t, "N/A", c.Employee.EmpID)
		assert.Equal(t, "USER NOT FOUND", c.Employee.FullName)
		assert.Equal(t, 1, c.Rank)
		assert.Equal(t, "0.00%", c.ScoreText())
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	in := scored("A", 40.0, "B", 80.0, "C", 60.0)
	before := append([]MatchCandidate(nil), in...)
	Rank("u", in, testConfig(), nil)
	assert.Equal(t, before, in)
}

func TestRankIdempotent(t *testing.T) {
	cfg := testConfig()
	first := Rank("u", scored("A", 40.0, "B", 80.0, "C", 80.0, "E", 60.0), cfg, nil)
	again := Rank("u", first.Candidates, cfg, nil)
	assert.Equal(t, ids(first.Candidates), ids(again.Candidates))
	assert.Equal(t, labels(first.Candidates), labels(again.Candidates))
}

func TestRankRefinesAmbiguousGroup(t *testing.T) {
	tb := &fakeTieBreaker{probs: map[string]float64{"A": 10, "B": 90, "C": 100, "D": 100}}
	res := Rank("u", scored("A", 70.0, "B", 70.0, "C", 69.5, "D", 50.0), testConfig(), tb)

	assert.True(t, res.Ambiguous)
	assert.True(t, res.Refined)
	assert.Equal(t, []string{"B", "A", "C", "D"}, ids(res.Candidates))
	assert.Equal(t, []float64{70, 70, 69.5, 50}, []float64{
		res.Candidates[0].Score, res.Candidates[1].Score, res.Candidates[2].Score, res.Candidates[3].Score,
	})
	assert.Equal(t, []string{"A", "B", "C"}, func() []string {
		out := make([]string, len(tb.seen))
		for i, e := range tb.seen {
			out[i] = e.EmpID
		}
		return out
	}())
}

func TestRankRefinerErrorKeepsScoreOrder(t *testing.T) {
	tb := &fakeTieBreaker{err: errors.New("boom")}
	res := Rank("u", scored("A", 70.0, "B", 70.0), testConfig(), tb)
	assert.True(t, res.Ambiguous)
	assert.False(t, res.Refined)
	assert.Equal(t, []string{"A", "B"}, ids(res.Candidates))
}

func TestRankZeroBand(t *testing.T) {
	cfg := testConfig()
	cfg.Ranking.AmbiguityBand = 0
	res := Rank("u", scored("A", 70.0, "B", 70.0, "C", 69.9), cfg, &fakeTieBreaker{probs: map[string]float64{"B": 100}})
	assert.True(t, res.Refined)
	assert.Equal(t, []string{"B", "A", "C"}, ids(res.Candidates))
}
