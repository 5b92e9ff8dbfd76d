package matcher

import "strings"

// Canonical field keys every catalog is mapped onto.
const (
	FieldEmpID        = "emp_id"
	FieldFirstName    = "first_name"
	FieldLastName     = "last_name"
	FieldEmployeeName = "employee_name"
)

var canonicalOrder = []string{FieldEmpID, FieldFirstName, FieldLastName, FieldEmployeeName}

// ColumnAliases defines the variant header spellings accepted for each
// canonical field. Order matters: the first alias present wins. A nil list
// falls back to the built-in aliases; an empty list disables aliasing for
// that field.
type ColumnAliases struct {
	EmpID        []string `json:"empId"`
	FirstName    []string `json:"firstName"`
	LastName     []string `json:"lastName"`
	EmployeeName []string `json:"employeeName"`
	Username     []string `json:"username"`
}

func defaultColumnAliases() ColumnAliases {
	return ColumnAliases{
		EmpID:        []string{"employee_id", "employee id", "id_employee", "staff_id", "emp id", "empid", "id", "employee no", "emp no"},
		FirstName:    []string{"first name", "fname", "given_name", "first", "f_name", "name (first)", "namefirst"},
		LastName:     []string{"last name", "lname", "surname", "family_name", "l_name", "name (last)", "namelast"},
		EmployeeName: []string{"full name", "fullname", "emp_name", "name of employee", "name"},
		Username:     []string{"username", "user name", "user_name", "login", "user id", "userid", "account"},
	}
}

func (a ColumnAliases) forField(field string) []string {
	switch field {
	case FieldEmpID:
		return a.EmpID
	case FieldFirstName:
		return a.FirstName
	case FieldLastName:
		return a.LastName
	case FieldEmployeeName:
		return a.EmployeeName
	}
	return nil
}

func (a ColumnAliases) withDefaults() ColumnAliases {
	defaults := defaultColumnAliases()
	return ColumnAliases{
		EmpID:        pickStrings(a.EmpID, defaults.EmpID),
		FirstName:    pickStrings(a.FirstName, defaults.FirstName),
		LastName:     pickStrings(a.LastName, defaults.LastName),
		EmployeeName: pickStrings(a.EmployeeName, defaults.EmployeeName),
		Username:     pickStrings(a.Username, defaults.Username),
	}
}

func pickStrings(custom, fallback []string) []string {
	if custom == nil {
		return cloneStrings(fallback)
	}
	return cloneStrings(custom)
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}

// normalizeHeader case-folds a column name and treats underscores and any
// whitespace run as a single space.
func normalizeHeader(name string) string {
	name = strings.ToLower(cleanCell(name))
	name = strings.ReplaceAll(name, "_", " ")
	return strings.Join(strings.Fields(name), " ")
}

// resolveColumns maps canonical fields to source column names. A canonical key
// already present wins over its aliases; otherwise the first alias present in
// table order is used. A source column is claimed at most once.
func resolveColumns(columns []string, aliases ColumnAliases) map[string]string {
	byHeader := make(map[string]string, len(columns))
	for _, col := range columns {
		key := normalizeHeader(col)
		if _, dup := byHeader[key]; !dup {
			byHeader[key] = col
		}
	}
	claimed := make(map[string]struct{}, len(canonicalOrder))
	resolved := make(map[string]string, len(canonicalOrder))
	for _, field := range canonicalOrder {
		if col, ok := byHeader[normalizeHeader(field)]; ok {
			if _, taken := claimed[col]; !taken {
				resolved[field] = col
				claimed[col] = struct{}{}
				continue
			}
		}
		for _, alias := range aliases.forField(field) {
			col, ok := byHeader[normalizeHeader(alias)]
			if !ok {
				continue
			}
			if _, taken := claimed[col]; taken {
				continue
			}
			resolved[field] = col
			claimed[col] = struct{}{}
			break
		}
	}
	return resolved
}

func findColumn(columns []string, candidates []string) (string, bool) {
	for _, cand := range candidates {
		want := normalizeHeader(cand)
		for _, col := range columns {
			if normalizeHeader(col) == want {
				return col, true
			}
		}
	}
	return "", false
}
