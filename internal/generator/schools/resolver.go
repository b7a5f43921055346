// Package schools resolves the free-form school strings the stats API
// reports into a canonical NCAA Division I school, a classification and a
// conference, using fuzzy matching against a reference table.
package schools

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// MatchThreshold is the minimum token-sort similarity for a table match.
const MatchThreshold = 85

// Entry is one row of the Division I reference table.
type Entry struct {
	Official   string
	Common     string
	Conference string
}

type entry struct {
	Entry
	cleanedOfficial string
	cleanedCommon   string
}

// Table is the loaded reference table with pre-cleaned names.
type Table struct {
	entries []entry
}

// NewTable builds a table from entries, cleaning names up front.
func NewTable(rows []Entry) *Table {
	t := &Table{}
	for _, row := range rows {
		t.entries = append(t.entries, entry{
			Entry:           row,
			cleanedOfficial: CleanName(row.Official),
			cleanedCommon:   CleanName(row.Common),
		})
	}
	return t
}

// LoadTable reads the reference CSV (official name, common name,
// conference). A header row is skipped when present.
func LoadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open schools table: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read schools table: %w", err)
	}

	var rows []Entry
	for i, rec := range records {
		if len(rec) < 3 {
			continue
		}
		if i == 0 && strings.EqualFold(strings.TrimSpace(rec[2]), "conference") {
			continue
		}
		rows = append(rows, Entry{
			Official:   strings.TrimSpace(rec[0]),
			Common:     strings.TrimSpace(rec[1]),
			Conference: strings.TrimSpace(rec[2]),
		})
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("schools table %s: no rows", path)
	}
	return NewTable(rows), nil
}

var highSchoolWords = []string{"high", "prep", "academy", "charter", "school"}

var internationalWords = []string{
	"paris", "vasco", "canada", "real madrid", "bahamas", "belgrade",
	"france", "europe", "australia", "london", "international", "club",
}

// Resolve maps a raw school string to (school, school type, conference).
// Official names are checked before common names; both must clear
// MatchThreshold. Unmatched names fall back to keyword classification.
func (t *Table) Resolve(raw string) (school, schoolType, conference string) {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	if lowered == "" || lowered == "unknown" || lowered == "none" {
		return "Unknown", "Other", "Other"
	}

	cleaned := CleanName(raw)

	if e, ok := t.bestMatch(cleaned, func(e entry) string { return e.cleanedOfficial }); ok {
		return e.Common, "College", e.Conference
	}
	if e, ok := t.bestMatch(cleaned, func(e entry) string { return e.cleanedCommon }); ok {
		return e.Common, "College", e.Conference
	}

	for _, w := range highSchoolWords {
		if strings.Contains(cleaned, w) {
			return raw, "High School", "Other"
		}
	}
	for _, w := range internationalWords {
		if strings.Contains(cleaned, w) {
			return raw, "International", "Other"
		}
	}
	return raw, "Other", "Other"
}

func (t *Table) bestMatch(cleaned string, key func(entry) string) (entry, bool) {
	best := -1
	var bestEntry entry
	for _, e := range t.entries {
		candidate := key(e)
		if candidate == "" {
			continue
		}
		score := fuzzy.TokenSortRatio(cleaned, candidate)
		if score > best {
			best = score
			bestEntry = e
		}
	}
	if best >= MatchThreshold {
		return bestEntry, true
	}
	return entry{}, false
}

// CleanName normalizes a school name for matching. The replacements run in
// order, matching how the reference table itself was cleaned.
func CleanName(name string) string {
	s := strings.ToLower(name)
	for _, r := range [][2]string{
		{"university of ", ""},
		{"univ. of ", ""},
		{"at ", ""},
		{"the ", ""},
		{"st.", "state"},
		{"st ", "state "},
		{"state.", "state"},
		{"-", " "},
		{".", ""},
		{"(", ""},
		{")", ""},
	} {
		s = strings.ReplaceAll(s, r[0], r[1])
	}
	return strings.TrimSpace(s)
}
