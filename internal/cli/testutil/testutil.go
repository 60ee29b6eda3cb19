// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

// FlightNS is the metadata namespace used by test projects.
const FlightNS = "http://flight_database.org/sflight/"

// ProjectConfig is the askql.yaml written by SetupTestProject.
const ProjectConfig = `target:
  type: duckdb
  database: flights.duckdb

metadata:
  source: store
  store_path: .askql/triples.db
  prefix: http://flight_database.org/

synthesis:
  default_schema: SFLIGHT

execution:
  max_retries: 0
`

// SeedSQL creates SFLIGHT.SBOOK with two AA bookings and one LH booking.
const SeedSQL = `-- bookings
CREATE SCHEMA IF NOT EXISTS SFLIGHT;
CREATE TABLE SFLIGHT.SBOOK (CARRID VARCHAR, CONNID INTEGER, LOCCURAM DOUBLE);
INSERT INTO SFLIGHT.SBOOK VALUES ('AA', 17, 1000.25), ('AA', 64, 500.25), ('LH', 400, 300);
`

// MetadataNT describes SBOOK as N-Triples.
const MetadataNT = `<http://flight_database.org/sflight/SBOOK> <http://flight_database.org/database/tableName> "SBOOK" .
<http://flight_database.org/sflight/CARRID> <http://flight_database.org/database/columnName> "CARRID" .
<http://flight_database.org/sflight/LOCCURAM> <http://flight_database.org/database/columnName> "LOCCURAM" .
<http://flight_database.org/sflight/LOCCURAM> <http://flight_database.org/database/aggregationFunction> <http://flight_database.org/database/SUM> .
`

// SetupTestProject creates a temporary project holding askql.yaml,
// seeds/sbook.sql and metadata/sbook.nt, and returns its directory.
func SetupTestProject(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()
	files := map[string]string{
		"askql.yaml":        ProjectConfig,
		"seeds/sbook.sql":   SeedSQL,
		"metadata/sbook.nt": MetadataNT,
	}
	for rel, content := range files {
		path := filepath.Join(tmpDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			t.Fatalf("failed to create directory for %s: %v", rel, err)
		}
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("failed to create %s: %v", rel, err)
		}
	}
	return tmpDir
}

// Chdir switches into dir for the duration of the test.
func Chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("failed to change directory: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertValidMarkdown performs basic markdown validation.
// It checks for unclosed code fences and empty headers.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	if n := strings.Count(md, "```"); n%2 != 0 {
		t.Errorf("unbalanced code fences in markdown: found %d occurrences", n)
	}

	for i, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.TrimLeft(trimmed, "# ") == "" {
			t.Errorf("empty header at line %d: %q", i+1, line)
		}
	}
}
