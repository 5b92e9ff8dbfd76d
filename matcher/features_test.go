package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feature(t *testing.T, v FeatureVector, name string) float64 {
	t.Helper()
	val, ok := v.Get(name)
	require.True(t, ok, name)
	return val
}

func TestBuildFeatures(t *testing.T) {
	v := BuildFeatures("john.doe", johnDoe("101"))
	require.Len(t, v, len(FeatureNames))

	assert.Zero(t, feature(t, v, "exact_match_username_to_emp_name"))
	assert.Equal(t, 1.0, feature(t, v, "exact_match_username_no_dot_to_emp_name_no_space"))
	assert.Equal(t, 1.0, feature(t, v, "exact_match_first_name_in_username"))
	assert.Equal(t, 1.0, feature(t, v, "exact_match_last_name_in_username"))
	assert.Zero(t, feature(t, v, "id_match_bonus"))
	assert.Equal(t, 100.0, feature(t, v, "fuzz_ratio_username_last_to_emp_first"))
	assert.Equal(t, 100.0, feature(t, v, "fuzz_ratio_username_first_to_emp_last"))
	assert.Equal(t, 100.0, feature(t, v, "fuzz_token_set_full"))
	assert.Zero(t, feature(t, v, "len_diff_username_emp_name"))
	assert.InDelta(t, 1.0, feature(t, v, "len_ratio_username_emp_name"), 1e-6)
}

func TestBuildFeaturesEmptyEmployee(t *testing.T) {
	v := BuildFeatures("jdoe", EmployeeRecord{})
	assert.Zero(t, feature(t, v, "exact_match_first_name_in_username"))
	assert.Zero(t, feature(t, v, "exact_match_last_name_in_username"))
	assert.Zero(t, feature(t, v, "fuzz_ratio_full"))
	assert.Equal(t, 4.0, feature(t, v, "len_diff_username_emp_name"))
}

func TestFeatureGetAndSelect(t *testing.T) {
	v := BuildFeatures("jd101", johnDoe("101"))
	_, ok := v.Get("no_such_feature")
	assert.False(t, ok)

	cols := []int{featureIndex["id_match_bonus"], featureIndex["fuzz_ratio_full"]}
	sel := v.Select(cols)
	require.Len(t, sel, 2)
	assert.Equal(t, float32(1), sel[0])
	assert.Equal(t, float32(v[cols[1]]), sel[1])
}

func TestPotentialNames(t *testing.T) {
	tests := []struct {
		in          string
		first, last string
	}{
		{"john.doe", "doe", "john"},
		{"john_r.doe", "doe", "john"},
		{"jdoe", "jdoe", "jdoe"},
		{"..", "", ""},
	}
	for _, tt := range tests {
		first, last := potentialNames(tt.in)
		assert.Equal(t, tt.first, first, tt.in)
		assert.Equal(t, tt.last, last, tt.in)
	}
}
