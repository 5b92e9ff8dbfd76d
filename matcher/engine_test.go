package matcher

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() []EmployeeRecord {
	return []EmployeeRecord{
		johnDoe("101"),
		{EmpID: "102", FirstName: "Jane", LastName: "Smith", FullName: "Jane Smith"},
		{EmpID: "103", FirstName: "Ravi", LastName: "Patel", FullName: "Ravi Patel"},
	}
}

func TestNewEngineValidation(t *testing.T) {
	_, err := NewEngine(nil, DefaultConfig())
	assert.ErrorIs(t, err, ErrEmptyCatalog)

	bad := DefaultConfig()
	bad.Weights.Levenshtein = 2
	_, err = NewEngine(testCatalog(), bad)
	assert.Error(t, err)

	e, err := NewEngine(testCatalog(), DefaultConfig())
	require.NoError(t, err)
	assert.Len(t, e.catalog, 3)
	assert.Positive(t, e.cfg.Workers)
}

func TestEngineExactSingle(t *testing.T) {
	e, err := NewEngine(testCatalog(), DefaultConfig())
	require.NoError(t, err)

	res := e.Match("John.Doe")
	top := res.Candidates[0]
	assert.Equal(t, "101", top.Employee.EmpID)
	assert.Equal(t, 100.0, top.Score)
	assert.Equal(t, LabelExactSingle, top.Label)
	assert.Equal(t, "100.00%", top.ScoreText())
	for _, c := range res.Candidates[1:] {
		assert.False(t, c.Exact)
		assert.Less(t, c.Score, 100.0)
	}
}

func TestEngineExactMultiple(t *testing.T) {
	catalog := append(testCatalog(), johnDoe("104"))
	e, err := NewEngine(catalog, DefaultConfig())
	require.NoError(t, err)

	res := e.Match("jdoe")
	require.GreaterOrEqual(t, len(res.Candidates), 2)
	assert.Equal(t, []string{"101", "104"}, ids(res.Candidates[:2]))
	for _, c := range res.Candidates[:2] {
		assert.Equal(t, 95.0, c.Score)
		assert.Equal(t, LabelExactMultiple, c.Label)
	}
}

func TestEngineScoresStayDescending(t *testing.T) {
	catalog := []EmployeeRecord{
		johnDoe("101"),
		johnDoe("102"),
		{EmpID: "103", FirstName: "Johnny", LastName: "Doe", FullName: "Johnny Doe"},
	}
	e, err := NewEngine(catalog, DefaultConfig())
	require.NoError(t, err)

	res := e.Match("john.doe")
	require.Len(t, res.Candidates, 3)
	for i := 1; i < len(res.Candidates); i++ {
		assert.GreaterOrEqual(t, res.Candidates[i-1].Score, res.Candidates[i].Score)
	}
	for _, c := range res.Candidates {
		if c.Employee.EmpID != "103" {
			assert.Equal(t, LabelExactMultiple, c.Label)
		}
	}
}

func TestEngineCatalogCopied(t *testing.T) {
	catalog := testCatalog()
	e, err := NewEngine(catalog, DefaultConfig())
	require.NoError(t, err)
	catalog[0].FirstName = "Zed"
	assert.Equal(t, LabelExactSingle, e.Match("john.doe").Candidates[0].Label)
}

func TestMatchAll(t *testing.T) {
	var calls, last atomic.Int64
	e, err := NewEngine(testCatalog(), DefaultConfig(), WithProgress(func(done, total int) {
		calls.Add(1)
		if int64(done) > last.Load() {
			last.Store(int64(done))
		}
		assert.Equal(t, 4, total)
	}))
	require.NoError(t, err)

	usernames := []string{"jane.smith", "john.doe", "qqqq", "jane.smith"}
	results, err := e.MatchAll(context.Background(), usernames)
	require.NoError(t, err)
	require.Len(t, results, 4)
	for i, r := range results {
		assert.Equal(t, usernames[i], r.Username)
	}
	assert.Equal(t, "102", results[0].Candidates[0].Employee.EmpID)
	assert.Equal(t, "101", results[1].Candidates[0].Employee.EmpID)
	assert.Equal(t, results[0], results[3])
	assert.Equal(t, int64(4), calls.Load())
	assert.Equal(t, int64(4), last.Load())
}

func TestMatchAllErrors(t *testing.T) {
	e, err := NewEngine(testCatalog(), DefaultConfig())
	require.NoError(t, err)

	_, err = e.MatchAll(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyInput)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.MatchAll(ctx, []string{"john.doe"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngineRefinement(t *testing.T) {
	catalog := []EmployeeRecord{
		{EmpID: "1", FirstName: "Jon", LastName: "Smith", FullName: "Jon Smith"},
		{EmpID: "2", FirstName: "Jon", LastName: "Smith", FullName: "Jon Smith"},
	}
	clf := &fakeClassifier{probs: []float64{0.1, 0.9}}
	refiner := NewRefiner(staticHandle(clf, []int{0, 1}))
	e, err := NewEngine(catalog, DefaultConfig(), WithRefiner(refiner))
	require.NoError(t, err)

	res := e.Match("smithj")
	assert.True(t, res.Ambiguous)
	assert.True(t, res.Refined)
	assert.Equal(t, []string{"2", "1"}, ids(res.Candidates))
	assert.Equal(t, res.Candidates[0].Score, res.Candidates[1].Score)
	assert.Len(t, clf.rows, 2)
}

func TestEngineRefinerUnavailable(t *testing.T) {
	catalog := []EmployeeRecord{
		{EmpID: "1", FirstName: "Jon", LastName: "Smith", FullName: "Jon Smith"},
		{EmpID: "2", FirstName: "Jon", LastName: "Smith", FullName: "Jon Smith"},
	}
	h := NewModelHandle(func() (*Model, error) { return nil, errors.New("missing") }, zerolog.Nop())
	e, err := NewEngine(catalog, DefaultConfig(), WithRefiner(NewRefiner(h)))
	require.NoError(t, err)

	res := e.Match("smithj")
	assert.True(t, res.Ambiguous)
	assert.False(t, res.Refined)
	assert.Equal(t, []string{"1", "2"}, ids(res.Candidates))
}

func TestRun(t *testing.T) {
	tbl := mustTable(t, "Employee ID,Name\n101,John Doe\n102,Jane Smith\n")
	results, err := Run(context.Background(), tbl, []string{"jsmith"}, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "102", results[0].Candidates[0].Employee.EmpID)
	assert.Equal(t, LabelExactSingle, results[0].Candidates[0].Label)

	_, err = Run(context.Background(), mustTable(t, "name\nJohn Doe\n"), []string{"jdoe"}, DefaultConfig())
	var schemaErr *SchemaError
	assert.ErrorAs(t, err, &schemaErr)

	_, err = Run(context.Background(), tbl, nil, DefaultConfig())
	assert.ErrorIs(t, err, ErrEmptyInput)
}
