package matcher

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Ratio is the normalized edit-distance similarity of a and b in [0,100].
// An empty side yields 0.
func Ratio(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if la == 0 || lb == 0 {
		return 0
	}
	if a == b {
		return 100
	}
	longest := la
	if lb > longest {
		longest = lb
	}
	d := levenshtein.ComputeDistance(a, b)
	return 100 * (1 - float64(d)/float64(longest))
}

// PartialRatio aligns the shorter string against every equally long window of
// the longer one and keeps the best Ratio.
func PartialRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}
	short := string(ra)
	if len(ra) == len(rb) {
		return Ratio(short, string(rb))
	}
	best := 0.0
	for start := 0; start+len(ra) <= len(rb); start++ {
		s := Ratio(short, string(rb[start:start+len(ra)]))
		if s > best {
			best = s
			if best == 100 {
				break
			}
		}
	}
	return best
}

// TokenSetRatio compares the token sets of a and b, ignoring order and
// duplicates. Tokens are alphanumeric runs, so "john.doe" and "Doe John" share
// every token.
func TokenSetRatio(a, b string) float64 {
	ta, tb := tokenSet(a), tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	var inter, diffA, diffB []string
	for tok := range ta {
		if _, ok := tb[tok]; ok {
			inter = append(inter, tok)
		} else {
			diffA = append(diffA, tok)
		}
	}
	for tok := range tb {
		if _, ok := ta[tok]; !ok {
			diffB = append(diffB, tok)
		}
	}
	if len(inter) > 0 && (len(diffA) == 0 || len(diffB) == 0) {
		return 100
	}
	sort.Strings(inter)
	sort.Strings(diffA)
	sort.Strings(diffB)
	sect := strings.Join(inter, " ")
	combinedA := strings.TrimSpace(sect + " " + strings.Join(diffA, " "))
	combinedB := strings.TrimSpace(sect + " " + strings.Join(diffB, " "))
	best := Ratio(combinedA, combinedB)
	if sect != "" {
		if s := Ratio(sect, combinedA); s > best {
			best = s
		}
		if s := Ratio(sect, combinedB); s > best {
			best = s
		}
	}
	return best
}

// TokenSortRatio compares the sorted token sequences of a and b.
func TokenSortRatio(a, b string) float64 {
	return Ratio(sortedTokens(a), sortedTokens(b))
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func tokenSet(s string) map[string]struct{} {
	toks := tokenize(s)
	set := make(map[string]struct{}, len(toks))
	for _, t := range toks {
		set[t] = struct{}{}
	}
	return set
}

func sortedTokens(s string) string {
	toks := tokenize(s)
	sort.Strings(toks)
	return strings.Join(toks, " ")
}
