package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchesPattern(t *testing.T) {
	emp := EmployeeRecord{EmpID: "1", FirstName: "John", LastName: "Doe", FullName: "John Doe"}
	tests := []struct {
		username string
		want     bool
	}{
		{"john.doe", true},
		{"DOE.JOHN", true},
		{" john_doe ", true},
		{"doe_john", true},
		{"johndoe", true},
		{"doejohn", true},
		{"john doe", true},
		{"doe john", true},
		{"j.doe", true},
		{"jdoe", true},
		{"john.d", true},
		{"johdoe", true},
		{"jon.doe", false},
		{"john", false},
		{"doe", false},
		{"john.doe1", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchesPattern(tt.username, emp))
		})
	}
}

func TestMatchesPatternNeedsBothParts(t *testing.T) {
	emp := EmployeeRecord{EmpID: "2", FirstName: "Cher", FullName: "Cher"}
	assert.False(t, MatchesPattern("cher", emp))
	assert.False(t, MatchesPattern("cher.", emp))
}

func TestMatchesPatternFoldsDiacritics(t *testing.T) {
	emp := EmployeeRecord{EmpID: "3", FirstName: "José", LastName: "Núñez"}
	assert.True(t, MatchesPattern("jose.nunez", emp))
	assert.True(t, MatchesPattern("jnunez", emp))
}

func TestUsernameTemplatesUnique(t *testing.T) {
	tpls := usernameTemplates("al", "al")
	seen := map[string]bool{}
	for _, tpl := range tpls {
		assert.False(t, seen[tpl], "duplicate template %q", tpl)
		seen[tpl] = true
	}
	assert.Equal(t, "al", prefix("al", 3))
	assert.Equal(t, "jos", prefix("josé", 3))
	assert.Equal(t, "é", firstRune("éa"))
}
