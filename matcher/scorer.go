package matcher

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var digitRun = regexp.MustCompile(`\d+`)

// ScoreBreakdown explains how a composite score was assembled.
type ScoreBreakdown struct {
	MaxLevenshtein float64 `json:"maxLevenshtein"`
	MaxPartial     float64 `json:"maxPartial"`
	MaxTokenSet    float64 `json:"maxTokenSet"`

	SoundexLast    float64 `json:"soundexLast"`
	MetaphoneLast  float64 `json:"metaphoneLast"`
	SoundexFirst   float64 `json:"soundexFirst"`
	MetaphoneFirst float64 `json:"metaphoneFirst"`

	IDBonus        float64 `json:"idBonus"`
	InitialBonus   float64 `json:"initialBonus"`
	SubstringBonus float64 `json:"substringBonus"`

	Raw   float64 `json:"raw"`
	Total float64 `json:"total"`
}

// Score returns the composite similarity of username to emp in [0,100].
func Score(username string, emp EmployeeRecord, cfg Config) float64 {
	return Explain(username, emp, cfg).Total
}

// Explain computes the composite score along with each contributing signal.
// It is pure and safe for concurrent use.
func Explain(username string, emp EmployeeRecord, cfg Config) ScoreBreakdown {
	u := foldKey(username)
	full := foldKey(emp.FullName)
	first := foldKey(emp.FirstName)
	last := foldKey(emp.LastName)

	var b ScoreBreakdown
	if u == "" {
		return b
	}
	names := [3]string{full, first, last}
	for _, n := range names {
		b.MaxLevenshtein = max(b.MaxLevenshtein, Ratio(u, n))
		b.MaxPartial = max(b.MaxPartial, PartialRatio(u, n))
		b.MaxTokenSet = max(b.MaxTokenSet, TokenSetRatio(u, n))
	}

	b.SoundexLast = soundexMatch(u, last)
	b.MetaphoneLast = metaphoneMatch(u, last)
	b.SoundexFirst = soundexMatch(u, first)
	b.MetaphoneFirst = metaphoneMatch(u, first)

	if idInUsername(u, emp.EmpID) {
		b.IDBonus = cfg.Bonus.IDSubstring
	}
	b.InitialBonus = initialBonus(u, first, cfg.Bonus)
	if first != "" && strings.Contains(u, first) {
		b.SubstringBonus += cfg.Bonus.FirstNameSubstring
	}
	if last != "" && strings.Contains(u, last) {
		b.SubstringBonus += cfg.Bonus.LastNameSubstring
	}

	w := cfg.Weights
	p := cfg.Phonetic
	b.Raw = b.MaxLevenshtein*w.Levenshtein +
		b.MaxPartial*w.Partial +
		b.MaxTokenSet*w.TokenSet +
		b.SoundexLast*p.SoundexLast +
		b.MetaphoneLast*p.MetaphoneLast +
		b.SoundexFirst*p.SoundexFirst +
		b.MetaphoneFirst*p.MetaphoneFirst +
		b.IDBonus + b.InitialBonus + b.SubstringBonus
	b.Total = clampScore(b.Raw)
	return b
}

// idInUsername reports whether any digit run in u equals the employee id.
// Both sides compare as numbers, so "099" and "99" are the same id.
// Non-numeric ids simply never match.
func idInUsername(u, empID string) bool {
	id := foldKey(empID)
	if id == "" {
		return false
	}
	id = trimLeadingZeros(id)
	for _, run := range digitRun.FindAllString(u, -1) {
		if trimLeadingZeros(run) == id {
			return true
		}
	}
	return false
}

func trimLeadingZeros(digits string) string {
	if digits == "" {
		return ""
	}
	if trimmed := strings.TrimLeft(digits, "0"); trimmed != "" {
		return trimmed
	}
	return "0"
}

func initialBonus(u, first string, bonus Bonuses) float64 {
	if first == "" {
		return 0
	}
	initial, _ := utf8.DecodeRuneInString(first)
	var total float64
	if r, _ := utf8.DecodeRuneInString(u); r == initial {
		total += bonus.Initial
	}
	if parts := strings.Split(u, "."); len(parts) > 1 && parts[1] != "" {
		if r, _ := utf8.DecodeRuneInString(parts[1]); r == initial {
			total += bonus.SecondInitial
		}
	}
	return total
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
