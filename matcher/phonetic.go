package matcher

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// lettersOnly keeps ASCII letters of the folded input. Phonetic coders only
// define codes for letters, so digits and separators are dropped up front.
func lettersOnly(s string) string {
	s = foldKey(s)
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

func soundex(s string) string {
	s = lettersOnly(s)
	if s == "" {
		return ""
	}
	return matchr.Soundex(s)
}

func metaphone(s string) string {
	s = lettersOnly(s)
	if s == "" {
		return ""
	}
	primary, _ := matchr.DoubleMetaphone(s)
	return primary
}

// sameCode is 1 when both codes are non-empty and equal. An empty string never
// shares a code with anything.
func sameCode(a, b string) float64 {
	if a == "" || b == "" || a != b {
		return 0
	}
	return 1
}

func soundexMatch(a, b string) float64   { return sameCode(soundex(a), soundex(b)) }
func metaphoneMatch(a, b string) float64 { return sameCode(metaphone(a), metaphone(b)) }

// jaroWinkler scales matchr's similarity to [0,100].
func jaroWinkler(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	return 100 * matchr.JaroWinkler(a, b, false)
}
