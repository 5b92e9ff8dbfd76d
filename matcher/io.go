package matcher

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrEmptyTable is returned when an input file has no header row.
var ErrEmptyTable = errors.New("empty table")

const plainColumn = "value"

// Table is a parsed tabular record set keyed by the original header text.
type Table struct {
	Columns []string
	Rows    []map[string]string
	// Plain marks tables read from header-less text files.
	Plain bool
}

// ReadTable reads a CSV/TSV/XLSX/text file from disk.
func ReadTable(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	return ReadTableFrom(f, path)
}

// ReadTableFrom parses r using the extension of name to pick the format.
func ReadTableFrom(r io.Reader, name string) (Table, error) {
	base := filepath.Base(name)
	var (
		t   Table
		err error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		t, err = readWorkbook(r)
	case ".tsv":
		t, err = readDelimited(r, '\t')
	case ".txt":
		t, err = readPlainText(r)
	default:
		t, err = readDelimited(r, ',')
	}
	if err != nil {
		return Table{}, fmt.Errorf("read %s: %w", base, err)
	}
	return t, nil
}

func readDelimited(r io.Reader, comma rune) (Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return Table{}, err
	}
	return tableFromRows(rows)
}

func readWorkbook(r io.Reader) (Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Table{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	sheet := f.GetSheetName(0)
	if sheet == "" {
		return Table{}, errors.New("no sheets found in workbook")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return Table{}, fmt.Errorf("get rows: %w", err)
	}
	return tableFromRows(rows)
}

func readPlainText(r io.Reader) (Table, error) {
	t := Table{Columns: []string{plainColumn}, Plain: true}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 2*1024*1024)
	for scanner.Scan() {
		line := cleanCell(scanner.Text())
		if line == "" {
			continue
		}
		t.Rows = append(t.Rows, map[string]string{plainColumn: line})
	}
	if err := scanner.Err(); err != nil {
		return Table{}, err
	}
	return t, nil
}

func tableFromRows(rows [][]string) (Table, error) {
	if len(rows) == 0 {
		return Table{}, ErrEmptyTable
	}
	header := make([]string, 0, len(rows[0]))
	index := make([]int, 0, len(rows[0]))
	seen := make(map[string]struct{}, len(rows[0]))
	for i, cell := range rows[0] {
		name := cleanCell(cell)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		header = append(header, name)
		index = append(index, i)
	}
	if len(header) == 0 {
		return Table{}, ErrEmptyTable
	}
	t := Table{Columns: header, Rows: make([]map[string]string, 0, len(rows)-1)}
	for _, row := range rows[1:] {
		rec := make(map[string]string, len(header))
		for j, col := range header {
			if idx := index[j]; idx < len(row) {
				rec[col] = cleanCell(row[idx])
			} else {
				rec[col] = ""
			}
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

func cleanCell(v string) string {
	v = strings.TrimPrefix(v, "\ufeff")
	return strings.TrimSpace(v)
}

// ParseUsernames extracts the username column from t, located through
// aliases.Username, preserving order and duplicates and dropping blank values.
func ParseUsernames(t Table, aliases ColumnAliases) ([]string, error) {
	col := plainColumn
	if !t.Plain {
		found, ok := findColumn(t.Columns, aliases.withDefaults().Username)
		if !ok {
			return nil, &SchemaError{Missing: []string{"username"}, Columns: cloneStrings(t.Columns)}
		}
		col = found
	}
	out := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		v := strings.TrimSpace(row[col])
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, ErrEmptyInput
	}
	return out, nil
}

// TableFromCSV is a convenience for tests and callers holding CSV text.
func TableFromCSV(data string) (Table, error) {
	return readDelimited(strings.NewReader(data), ',')
}
