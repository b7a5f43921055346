package quizfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"starting5-service/internal/domain"
)

func newTestStore(t *testing.T) (*Store, string, string) {
	t.Helper()
	root := t.TempDir()
	currentDir := filepath.Join(root, "current")
	preloadedDir := filepath.Join(root, "preloaded")
	if err := os.MkdirAll(preloadedDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	confsPath := filepath.Join(root, "college_confs.json")
	confs := map[string]string{"USC": "P12", "Davidson": "A10", "Duke": "ACC"}
	data, _ := json.Marshal(confs)
	if err := os.WriteFile(confsPath, data, 0o644); err != nil {
		t.Fatalf("write confs: %v", err)
	}

	return NewStore(currentDir, preloadedDir, confsPath), currentDir, preloadedDir
}

func writeRecord(t *testing.T, dir, name string, record domain.QuizRecord) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	data, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write record: %v", err)
	}
	return path
}

func sampleRecord() domain.QuizRecord {
	return domain.QuizRecord{
		Season:   "2015-16",
		GameID:   "0021500001",
		TeamAbbr: "GSW",
		Matchup:  "GSW vs CLE",
		Players: []domain.Player{
			{Name: "Stephen Curry", School: "Davidson", SchoolType: domain.SchoolTypeCollege, Conference: "A10"},
			{Name: "Nick Young", School: "Southern California", SchoolType: domain.SchoolTypeCollege, Conference: "Other"},
		},
	}
}

func TestCurrentRequiresARecord(t *testing.T) {
	store, _, _ := newTestStore(t)
	if _, err := store.Current(context.Background()); err != domain.ErrNoCurrentQuiz {
		t.Fatalf("expected ErrNoCurrentQuiz, got %v", err)
	}
}

func TestCurrentLoadsAndNormalizes(t *testing.T) {
	store, currentDir, _ := newTestStore(t)
	writeRecord(t, currentDir, "2015-16_0021500001_GSW.json", sampleRecord())

	record, err := store.Current(context.Background())
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if record.ID != "2015-16_0021500001_GSW.json" {
		t.Fatalf("expected ID from filename, got %q", record.ID)
	}
	if record.Players[1].School != "USC" || record.Players[1].Conference != "P12" {
		t.Fatalf("expected USC normalization, got %+v", record.Players[1])
	}
	// Untouched players keep their fields.
	if record.Players[0].School != "Davidson" {
		t.Fatalf("unexpected rewrite of %+v", record.Players[0])
	}
}

func TestLoadRejectsPathsOutsideQuizDirs(t *testing.T) {
	store, _, _ := newTestStore(t)

	outside := filepath.Join(t.TempDir(), "sneaky.json")
	if err := os.WriteFile(outside, []byte("{}"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := store.Load(context.Background(), outside); err != domain.ErrQuizNotFound {
		t.Fatalf("expected ErrQuizNotFound for outside path, got %v", err)
	}
	if _, err := store.Load(context.Background(), "/etc/passwd"); err != domain.ErrQuizNotFound {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

func TestPromoteReplacesCurrentSlot(t *testing.T) {
	store, currentDir, preloadedDir := newTestStore(t)

	old := sampleRecord()
	old.GameID = "0021500099"
	writeRecord(t, currentDir, "2015-16_0021500099_LAL.json", old)
	next := writeRecord(t, preloadedDir, "2015-16_0021500001_GSW.json", sampleRecord())

	if err := store.Promote(next); err != nil {
		t.Fatalf("promote: %v", err)
	}

	record, err := store.Current(context.Background())
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if record.GameID != "0021500001" {
		t.Fatalf("expected promoted record, got %+v", record)
	}

	entries, _ := os.ReadDir(currentDir)
	if len(entries) != 1 {
		t.Fatalf("current slot must hold exactly one file, got %d", len(entries))
	}
}

func TestConferencesSortsSchoolNames(t *testing.T) {
	store, _, _ := newTestStore(t)
	confs, names, err := store.Conferences()
	if err != nil {
		t.Fatalf("conferences: %v", err)
	}
	if confs["USC"] != "P12" {
		t.Fatalf("unexpected map %+v", confs)
	}
	want := []string{"Davidson", "Duke", "USC"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("expected sorted names %v, got %v", want, names)
		}
	}
}
