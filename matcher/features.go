package matcher

import (
	"regexp"
	"strings"
)

// FeatureNames is the ordered feature schema shared with the trained
// tie-break classifier. The order is part of the model contract; append new
// features at the end and retrain.
var FeatureNames = []string{
	"fuzz_ratio_full",
	"fuzz_partial_full",
	"fuzz_token_sort_full",
	"fuzz_token_set_full",
	"fuzz_ratio_username_first_to_emp_first",
	"fuzz_ratio_username_last_to_emp_last",
	"fuzz_ratio_username_first_to_emp_last",
	"fuzz_ratio_username_last_to_emp_first",
	"fuzz_ratio_cleaned_username_to_emp_name_no_space",
	"fuzz_token_set_cleaned_username_to_emp_name_no_space",
	"fuzz_ratio_no_dot_username_to_emp_name_no_space",
	"jelly_soundex_username_last",
	"jelly_metaphone_username_last",
	"jelly_soundex_username_first",
	"jelly_metaphone_username_first",
	"jelly_soundex_full",
	"jelly_metaphone_full",
	"exact_match_username_to_emp_name",
	"exact_match_username_no_dot_to_emp_name_no_space",
	"exact_match_first_name_in_username",
	"exact_match_last_name_in_username",
	"id_match_bonus",
	"len_diff_username_emp_name",
	"len_ratio_username_emp_name",
	"jaro_winkler_full",
}

var (
	usernameSeparators = regexp.MustCompile(`[._\s]+`)
	nonAlphanumeric    = regexp.MustCompile(`[^a-z0-9]`)
	featureIndex       = indexFeatures(FeatureNames)
)

func indexFeatures(names []string) map[string]int {
	idx := make(map[string]int, len(names))
	for i, n := range names {
		idx[n] = i
	}
	return idx
}

// FeatureVector holds one value per entry of FeatureNames, in that order.
type FeatureVector []float64

// Get returns the named feature, or false when the name is not in the schema.
func (v FeatureVector) Get(name string) (float64, bool) {
	i, ok := featureIndex[name]
	if !ok || i >= len(v) {
		return 0, false
	}
	return v[i], true
}

// Select projects v onto the column order a model expects.
func (v FeatureVector) Select(columns []int) []float32 {
	out := make([]float32, len(columns))
	for i, c := range columns {
		out[i] = float32(v[c])
	}
	return out
}

// potentialNames guesses the name parts embedded in a username. With several
// tokens the last one is taken as the given name and the first as the surname.
func potentialNames(u string) (first, last string) {
	var parts []string
	for _, p := range usernameSeparators.Split(u, -1) {
		if p != "" {
			parts = append(parts, p)
		}
	}
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], parts[0]
	default:
		return parts[len(parts)-1], parts[0]
	}
}

// BuildFeatures derives the extended tie-break features for one pair.
func BuildFeatures(username string, emp EmployeeRecord) FeatureVector {
	u := foldKey(username)
	full := foldKey(emp.FullName)
	first := foldKey(emp.FirstName)
	last := foldKey(emp.LastName)

	potFirst, potLast := potentialNames(u)
	cleaned := nonAlphanumeric.ReplaceAllString(u, "")
	noDot := strings.ReplaceAll(u, ".", "")
	fullNoSpace := strings.ReplaceAll(full, " ", "")

	v := make(FeatureVector, len(FeatureNames))
	set := func(name string, val float64) { v[featureIndex[name]] = val }

	set("fuzz_ratio_full", Ratio(u, full))
	set("fuzz_partial_full", PartialRatio(u, full))
	set("fuzz_token_sort_full", TokenSortRatio(u, full))
	set("fuzz_token_set_full", TokenSetRatio(u, full))
	set("fuzz_ratio_username_first_to_emp_first", Ratio(potFirst, first))
	set("fuzz_ratio_username_last_to_emp_last", Ratio(potLast, last))
	set("fuzz_ratio_username_first_to_emp_last", Ratio(potFirst, last))
	set("fuzz_ratio_username_last_to_emp_first", Ratio(potLast, first))
	set("fuzz_ratio_cleaned_username_to_emp_name_no_space", Ratio(cleaned, fullNoSpace))
	set("fuzz_token_set_cleaned_username_to_emp_name_no_space", TokenSetRatio(cleaned, fullNoSpace))
	set("fuzz_ratio_no_dot_username_to_emp_name_no_space", Ratio(noDot, fullNoSpace))

	set("jelly_soundex_username_last", soundexMatch(potLast, last))
	set("jelly_metaphone_username_last", metaphoneMatch(potLast, last))
	set("jelly_soundex_username_first", soundexMatch(potFirst, first))
	set("jelly_metaphone_username_first", metaphoneMatch(potFirst, first))
	set("jelly_soundex_full", soundexMatch(u, full))
	set("jelly_metaphone_full", metaphoneMatch(u, full))

	set("exact_match_username_to_emp_name", boolFeature(u != "" && u == full))
	set("exact_match_username_no_dot_to_emp_name_no_space", boolFeature(noDot != "" && noDot == fullNoSpace))
	set("exact_match_first_name_in_username", boolFeature(containsEither(u, first)))
	set("exact_match_last_name_in_username", boolFeature(containsEither(u, last)))
	set("id_match_bonus", boolFeature(idInUsername(u, emp.EmpID)))

	lu, lf := float64(len([]rune(u))), float64(len([]rune(full)))
	set("len_diff_username_emp_name", abs(lu-lf))
	set("len_ratio_username_emp_name", min(lu, lf)/(max(lu, lf)+1e-6))
	set("jaro_winkler_full", jaroWinkler(u, full))
	return v
}

func containsEither(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func boolFeature(ok bool) float64 {
	if ok {
		return 1
	}
	return 0
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
