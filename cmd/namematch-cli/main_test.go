package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseFlags(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	opts, err := parseFlags(fs, []string{"--employees", " e.csv ", "--usernames", "u.txt", "--output", "out/report.XLSX"})
	require.NoError(t, err)
	assert.Equal(t, "e.csv", opts.employeesPath)
	assert.Equal(t, "xlsx", opts.format)
	assert.NotNil(t, opts.env)
}

func TestParseFlagsRequiresInputs(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	_, err := parseFlags(fs, []string{"--employees", "e.csv"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--usernames")

	fs = flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	_, err = parseFlags(fs, []string{"--employees", "e.csv", "--usernames", "u.csv", "--format", "pdf"})
	require.Error(t, err)
}

func TestRunWritesReport(t *testing.T) {
	dir := t.TempDir()
	opts := cliOptions{
		configPath:    filepath.Join(dir, "missing-config.json"),
		employeesPath: writeFile(t, dir, "employees.csv", "emp_id,first_name,last_name\n101,John,Doe\n"),
		usernamesPath: writeFile(t, dir, "usernames.txt", "john.doe\nqqq\n"),
		outputPath:    filepath.Join(dir, "out", "report.csv"),
		format:        "csv",
		stdout:        true,
	}
	var stdout bytes.Buffer
	require.NoError(t, run(context.Background(), opts, zerolog.Nop(), &stdout))
	assert.Contains(t, stdout.String(), "Exact Single Match")

	f, err := os.Open(opts.outputPath)
	require.NoError(t, err)
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	require.NoError(t, err)
	require.NotEmpty(t, records)
	assert.Equal(t, []string{"username", "emp_id", "emp_name", "confidence_score", "match_type"}, records[0])
	assert.Equal(t, []string{"john.doe", "101", "John Doe", "100.00%", "Exact Single Match"}, records[1])
}

func TestRunReportsSchemaError(t *testing.T) {
	dir := t.TempDir()
	opts := cliOptions{
		configPath:    filepath.Join(dir, "missing-config.json"),
		employeesPath: writeFile(t, dir, "employees.csv", "name\nJohn Doe\n"),
		usernamesPath: writeFile(t, dir, "usernames.txt", "john.doe\n"),
		outputDir:     dir,
		format:        "csv",
	}
	err := run(context.Background(), opts, zerolog.Nop(), io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "emp_id")
}
