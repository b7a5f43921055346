package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"starting5-service/internal/domain"
	"starting5-service/internal/generator/nbastats"
)

type fakeStats struct {
	gameIDs     []string
	boxscores   map[string][]nbastats.BoxscoreRow
	summaries   map[string][2]int64
	profiles    map[int64]nbastats.PlayerProfile
	boxscoreErr map[string]error
}

func (f *fakeStats) GameIDs(context.Context, string) ([]string, error) {
	return f.gameIDs, nil
}

func (f *fakeStats) Boxscore(_ context.Context, gameID string) ([]nbastats.BoxscoreRow, error) {
	if err := f.boxscoreErr[gameID]; err != nil {
		return nil, err
	}
	return f.boxscores[gameID], nil
}

func (f *fakeStats) GameSummary(_ context.Context, gameID string) (int64, int64, error) {
	s, ok := f.summaries[gameID]
	if !ok {
		return 0, 0, errors.New("no summary")
	}
	return s[0], s[1], nil
}

func (f *fakeStats) PlayerInfo(_ context.Context, playerID int64) (nbastats.PlayerProfile, error) {
	p, ok := f.profiles[playerID]
	if !ok {
		return nbastats.PlayerProfile{}, fmt.Errorf("no profile for %d", playerID)
	}
	return p, nil
}

type fakeResolver struct{}

func (fakeResolver) Resolve(raw string) (string, string, string) {
	if raw == "Davidson" {
		return "Davidson", "College", "A10"
	}
	return raw, "Other", "Other"
}

func starter(teamID int64, abbr string, playerID int64, name string, pts float64) nbastats.BoxscoreRow {
	return nbastats.BoxscoreRow{
		TeamID:        teamID,
		TeamAbbr:      abbr,
		PlayerID:      playerID,
		PlayerName:    name,
		StartPosition: "G",
		Points:        pts,
		Assists:       2,
		Rebounds:      4,
		Steals:        1,
		Blocks:        0,
	}
}

func fullGame() *fakeStats {
	stats := &fakeStats{
		gameIDs:     []string{"0021500001"},
		boxscores:   map[string][]nbastats.BoxscoreRow{},
		summaries:   map[string][2]int64{"0021500001": {1, 2}},
		profiles:    map[int64]nbastats.PlayerProfile{},
		boxscoreErr: map[string]error{},
	}
	var rows []nbastats.BoxscoreRow
	for team, abbr := range map[int64]string{1: "GSW", 2: "CLE"} {
		for i := int64(0); i < 5; i++ {
			id := team*100 + i
			rows = append(rows, starter(team, abbr, id, fmt.Sprintf("%s Player %d", abbr, i), float64(10+i)))
			stats.profiles[id] = nbastats.PlayerProfile{School: "Davidson", Country: "USA", Position: "Guard"}
		}
		// A bench player never makes it into a lineup.
		rows = append(rows, nbastats.BoxscoreRow{TeamID: team, TeamAbbr: abbr, PlayerID: team * 1000, PlayerName: "Bench"})
	}
	stats.boxscores["0021500001"] = rows
	return stats
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunWritesACompleteRecord(t *testing.T) {
	outDir := t.TempDir()
	gen := New(fullGame(), fakeResolver{}, Config{
		OutDir:      outDir,
		Count:       1,
		MaxAttempts: 5,
		Seasons:     []string{"2015-16"},
	}, discard())

	produced, err := gen.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if produced != 1 {
		t.Fatalf("expected 1 record, got %d", produced)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one output file, got %v (%v)", entries, err)
	}
	name := entries[0].Name()
	if !strings.HasPrefix(name, "2015-16_0021500001_") || !strings.HasSuffix(name, ".json") {
		t.Fatalf("unexpected file name %q", name)
	}

	data, err := os.ReadFile(filepath.Join(outDir, name))
	if err != nil {
		t.Fatalf("read record: %v", err)
	}
	var record domain.QuizRecord
	if err := json.Unmarshal(data, &record); err != nil {
		t.Fatalf("parse record: %v", err)
	}
	if record.Season != "2015-16" || record.GameID != "0021500001" {
		t.Fatalf("unexpected record header %+v", record)
	}
	if record.Matchup != "CLE vs GSW" {
		t.Fatalf("unexpected matchup %q", record.Matchup)
	}
	if len(record.Players) != 5 {
		t.Fatalf("expected 5 starters, got %d", len(record.Players))
	}
	var ptsShare float64
	for _, p := range record.Players {
		if p.School != "Davidson" || p.SchoolType != domain.SchoolTypeCollege || p.Conference != "A10" {
			t.Fatalf("unexpected resolved school on %+v", p)
		}
		if p.Country != "USA" {
			t.Fatalf("country not carried through: %+v", p)
		}
		ptsShare += p.Contribution.Points
	}
	if ptsShare < 0.99 || ptsShare > 1.01 {
		t.Fatalf("contribution shares should sum to ~1, got %v", ptsShare)
	}
}

func TestRunSkipsFailingGames(t *testing.T) {
	stats := fullGame()
	stats.gameIDs = []string{"bad", "0021500001"}
	stats.boxscoreErr["bad"] = errors.New("upstream down")

	gen := New(stats, fakeResolver{}, Config{
		OutDir:      t.TempDir(),
		Count:       1,
		MaxAttempts: 10,
		Seasons:     []string{"2015-16"},
	}, discard())

	produced, err := gen.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if produced != 1 {
		t.Fatalf("expected 1 record despite the failing game, got %d", produced)
	}
}

func TestRunGivesUpAfterMaxAttempts(t *testing.T) {
	stats := fullGame()
	stats.gameIDs = []string{"bad"}
	stats.boxscoreErr["bad"] = errors.New("upstream down")

	gen := New(stats, fakeResolver{}, Config{
		OutDir:      t.TempDir(),
		Count:       1,
		MaxAttempts: 3,
		Seasons:     []string{"2015-16"},
	}, discard())

	produced, err := gen.Run(context.Background())
	if err == nil {
		t.Fatal("expected an error when the attempt budget runs out")
	}
	if produced != 0 {
		t.Fatalf("expected no records, got %d", produced)
	}
}

func TestSeasons(t *testing.T) {
	got := Seasons(1999, 2002)
	want := []string{"1999-00", "2000-01", "2001-02"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
