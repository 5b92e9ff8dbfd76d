package matcher

import "unicode/utf8"

// prefixLen is the truncation used by the shortened-name templates.
const prefixLen = 3

// usernameTemplates lists the username conventions built from a first and
// last name, in evaluation order. Both parts must be non-empty; a single
// known part is too weak to claim a deterministic match.
func usernameTemplates(first, last string) []string {
	if first == "" || last == "" {
		return nil
	}
	fi := firstRune(first)
	li := firstRune(last)
	candidates := []string{
		first + "." + last,
		last + "." + first,
		first + "_" + last,
		last + "_" + first,
		first + last,
		last + first,
		first + " " + last,
		last + " " + first,
		fi + "." + last,
		fi + last,
		first + "." + li,
		prefix(first, prefixLen) + last,
		prefix(last, prefixLen) + first,
	}
	out := candidates[:0]
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// MatchesPattern reports whether username equals one of the canonical
// construction templates for emp. Comparison is case-insensitive and ignores
// surrounding whitespace and diacritics.
func MatchesPattern(username string, emp EmployeeRecord) bool {
	u := foldKey(username)
	if u == "" {
		return false
	}
	for _, tpl := range usernameTemplates(foldKey(emp.FirstName), foldKey(emp.LastName)) {
		if u == tpl {
			return true
		}
	}
	return false
}

func firstRune(s string) string {
	_, size := utf8.DecodeRuneInString(s)
	return s[:size]
}

func prefix(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
