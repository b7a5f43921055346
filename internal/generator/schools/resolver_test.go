package schools

import (
	"os"
	"path/filepath"
	"testing"
)

func testTable() *Table {
	return NewTable([]Entry{
		{Official: "University of Kentucky", Common: "Kentucky", Conference: "SEC"},
		{Official: "Duke University", Common: "Duke", Conference: "ACC"},
		{Official: "University of North Carolina at Chapel Hill", Common: "North Carolina", Conference: "ACC"},
		{Official: "Davidson College", Common: "Davidson", Conference: "A10"},
	})
}

func TestResolveMatchesOfficialAndCommonNames(t *testing.T) {
	table := testTable()
	cases := []struct {
		raw        string
		school     string
		schoolType string
		conference string
	}{
		{"University of Kentucky", "Kentucky", "College", "SEC"},
		{"Kentucky", "Kentucky", "College", "SEC"},
		{"Duke", "Duke", "College", "ACC"},
		{"duke university", "Duke", "College", "ACC"},
		{"Davidson", "Davidson", "College", "A10"},
	}
	for _, c := range cases {
		school, schoolType, conference := table.Resolve(c.raw)
		if school != c.school || schoolType != c.schoolType || conference != c.conference {
			t.Fatalf("Resolve(%q) = (%q, %q, %q), want (%q, %q, %q)",
				c.raw, school, schoolType, conference, c.school, c.schoolType, c.conference)
		}
	}
}

func TestResolveClassifiesUnmatchedNames(t *testing.T) {
	table := testTable()
	cases := []struct {
		raw        string
		schoolType string
	}{
		{"Oak Hill Academy", "High School"},
		{"Montverde Prep", "High School"},
		{"Real Madrid", "International"},
		{"Mega Belgrade", "International"},
		{"Some Unrecognized Place", "Other"},
	}
	for _, c := range cases {
		school, schoolType, conference := table.Resolve(c.raw)
		if school != c.raw {
			t.Fatalf("Resolve(%q) rewrote the name to %q", c.raw, school)
		}
		if schoolType != c.schoolType || conference != "Other" {
			t.Fatalf("Resolve(%q) = (%q, %q), want (%q, %q)", c.raw, schoolType, conference, c.schoolType, "Other")
		}
	}
}

func TestResolveHandlesMissingSchool(t *testing.T) {
	table := testTable()
	for _, raw := range []string{"", "  ", "Unknown", "none"} {
		school, schoolType, conference := table.Resolve(raw)
		if school != "Unknown" || schoolType != "Other" || conference != "Other" {
			t.Fatalf("Resolve(%q) = (%q, %q, %q)", raw, school, schoolType, conference)
		}
	}
}

func TestCleanName(t *testing.T) {
	cases := []struct{ in, want string }{
		{"University of Kentucky", "kentucky"},
		{"St. John's", "state john's"},
		{"Miami-Ohio", "miami ohio"},
		{"The Citadel", "citadel"},
		{"California (Berkeley)", "california berkeley"},
	}
	for _, c := range cases {
		if got := CleanName(c.in); got != c.want {
			t.Fatalf("CleanName(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestLoadTableSkipsHeaderRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schools.csv")
	csv := "official_name,common_name,conference\nDuke University,Duke,ACC\nDavidson College,Davidson,A10\n"
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	table, err := LoadTable(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(table.entries) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(table.entries))
	}
	school, schoolType, conference := table.Resolve("Duke")
	if school != "Duke" || schoolType != "College" || conference != "ACC" {
		t.Fatalf("Resolve(Duke) = (%q, %q, %q)", school, schoolType, conference)
	}
}
