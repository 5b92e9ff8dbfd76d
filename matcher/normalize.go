package matcher

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeText performs Unicode normalization, strips control characters
// and collapses whitespace runs to a single space.
func NormalizeText(text string) string {
	normed := norm.NFKC.String(text)
	normed = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, normed)
	return strings.Join(strings.Fields(normed), " ")
}

// foldKey lowercases, trims and strips diacritics so "José" and "jose" compare equal.
func foldKey(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

// splitFullName splits on the first whitespace run. The remainder becomes the
// last name; with no split point the last name is empty.
func splitFullName(full string) (first, last string) {
	full = strings.TrimSpace(full)
	idx := strings.IndexFunc(full, unicode.IsSpace)
	if idx < 0 {
		return full, ""
	}
	return full[:idx], strings.TrimSpace(full[idx:])
}

func joinName(first, last string) string {
	return strings.Join(strings.Fields(first+" "+last), " ")
}

// NormalizeCatalog maps a table with arbitrary column names onto canonical
// employee records using aliases. Parts are treated as ground truth: whenever
// both parts are known the full name is rebuilt from them. The input table is
// not modified.
func NormalizeCatalog(t Table, aliases ColumnAliases) ([]EmployeeRecord, error) {
	resolved := resolveColumns(t.Columns, aliases.withDefaults())
	idCol, hasID := resolved[FieldEmpID]
	firstCol, hasFirst := resolved[FieldFirstName]
	lastCol, hasLast := resolved[FieldLastName]
	fullCol, hasFull := resolved[FieldEmployeeName]

	deriveFirst := !hasFirst && hasFull
	deriveLast := !hasLast && hasFull

	var missing []string
	if !hasID {
		missing = append(missing, FieldEmpID)
	}
	if !hasFirst && !deriveFirst {
		missing = append(missing, FieldFirstName)
	}
	if !hasLast && !deriveLast {
		missing = append(missing, FieldLastName)
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing, Columns: cloneStrings(t.Columns)}
	}

	records := make([]EmployeeRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		if rowIsBlank(row) {
			continue
		}
		rec := EmployeeRecord{EmpID: NormalizeText(row[idCol])}
		if hasFirst {
			rec.FirstName = NormalizeText(row[firstCol])
		}
		if hasLast {
			rec.LastName = NormalizeText(row[lastCol])
		}
		if deriveFirst || deriveLast {
			first, last := splitFullName(NormalizeText(row[fullCol]))
			if deriveFirst {
				rec.FirstName = first
			}
			if deriveLast {
				rec.LastName = last
			}
			if deriveFirst && deriveLast {
				rec.FullName = NormalizeText(row[fullCol])
			}
		}
		if rec.FullName == "" {
			rec.FullName = joinName(rec.FirstName, rec.LastName)
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, ErrEmptyCatalog
	}
	return records, nil
}

func rowIsBlank(row map[string]string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
