// Package generator builds quiz record files from historical box scores.
// It samples random seasons and games until it finds one with two complete
// five-man starting lineups, resolves each starter's school, and writes a
// record for one randomly chosen lineup.
package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"starting5-service/internal/domain"
	"starting5-service/internal/generator/nbastats"
)

// StatsAPI is the narrow slice of the stats client the generator needs,
// kept as an interface so tests can fake the upstream.
type StatsAPI interface {
	GameIDs(ctx context.Context, season string) ([]string, error)
	Boxscore(ctx context.Context, gameID string) ([]nbastats.BoxscoreRow, error)
	GameSummary(ctx context.Context, gameID string) (home, visitor int64, err error)
	PlayerInfo(ctx context.Context, playerID int64) (nbastats.PlayerProfile, error)
}

// SchoolResolver maps a raw school string to (school, type, conference).
type SchoolResolver interface {
	Resolve(raw string) (school, schoolType, conference string)
}

type Config struct {
	OutDir      string
	Count       int
	MaxAttempts int
	Seasons     []string
}

type Generator struct {
	stats   StatsAPI
	schools SchoolResolver
	cfg     Config
	logger  *slog.Logger
	rnd     *rand.Rand
}

func New(stats StatsAPI, schools SchoolResolver, cfg Config, logger *slog.Logger) *Generator {
	return &Generator{
		stats:   stats,
		schools: schools,
		cfg:     cfg,
		logger:  logger,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Seasons builds API season labels ("2010-11", ...) for [start, end).
func Seasons(startYear, endYear int) []string {
	var seasons []string
	for year := startYear; year < endYear; year++ {
		seasons = append(seasons, fmt.Sprintf("%d-%02d", year, (year+1)%100))
	}
	return seasons
}

// Run produces records until the configured count is reached or the attempt
// budget runs out. Per-game failures are logged and skipped; no partial
// record is ever written.
func (g *Generator) Run(ctx context.Context) (int, error) {
	if err := os.MkdirAll(g.cfg.OutDir, 0o755); err != nil {
		return 0, fmt.Errorf("ensure output dir: %w", err)
	}

	produced, attempts := 0, 0
	for produced < g.cfg.Count && attempts < g.cfg.MaxAttempts {
		if err := ctx.Err(); err != nil {
			return produced, err
		}

		season := g.cfg.Seasons[g.rnd.Intn(len(g.cfg.Seasons))]
		gameIDs, err := g.stats.GameIDs(ctx, season)
		if err != nil {
			attempts++
			g.logger.Warn("season game log failed", "season", season, "err", err)
			continue
		}
		g.rnd.Shuffle(len(gameIDs), func(i, j int) {
			gameIDs[i], gameIDs[j] = gameIDs[j], gameIDs[i]
		})

		for _, gameID := range gameIDs {
			if produced >= g.cfg.Count || attempts >= g.cfg.MaxAttempts {
				break
			}
			if err := ctx.Err(); err != nil {
				return produced, err
			}
			attempts++

			path, err := g.generateFromGame(ctx, season, gameID)
			if err != nil {
				g.logger.Warn("skipping game", "season", season, "game", gameID, "err", err)
				continue
			}
			g.logger.Info("saved quiz record", "path", path)
			produced++
			break
		}
	}

	if produced < g.cfg.Count {
		return produced, fmt.Errorf("gave up after %d attempts with %d/%d records", attempts, produced, g.cfg.Count)
	}
	return produced, nil
}

func (g *Generator) generateFromGame(ctx context.Context, season, gameID string) (string, error) {
	rows, err := g.stats.Boxscore(ctx, gameID)
	if err != nil {
		return "", err
	}

	startersByTeam := map[int64][]nbastats.BoxscoreRow{}
	var teamOrder []int64
	for _, row := range rows {
		if row.StartPosition == "" {
			continue
		}
		if _, ok := startersByTeam[row.TeamID]; !ok {
			teamOrder = append(teamOrder, row.TeamID)
		}
		startersByTeam[row.TeamID] = append(startersByTeam[row.TeamID], row)
	}
	if len(teamOrder) < 2 {
		return "", fmt.Errorf("fewer than two teams with starters")
	}

	home, visitor, err := g.stats.GameSummary(ctx, gameID)
	if err != nil {
		return "", err
	}
	homeAbbr := teamAbbr(startersByTeam[home])
	awayAbbr := teamAbbr(startersByTeam[visitor])
	if homeAbbr == "" || awayAbbr == "" {
		return "", fmt.Errorf("starter rows missing for home or visitor team")
	}
	matchup := awayAbbr + " vs " + homeAbbr

	var lineups []domain.QuizRecord
	for _, teamID := range []int64{home, visitor} {
		starters := startersByTeam[teamID]
		if len(starters) < 5 {
			continue
		}
		starters = starters[:5]

		oppAbbr := homeAbbr
		if teamID == home {
			oppAbbr = awayAbbr
		}

		record, err := g.buildLineup(ctx, season, gameID, matchup, oppAbbr, starters)
		if err != nil {
			return "", err
		}
		lineups = append(lineups, record)
	}
	if len(lineups) == 0 {
		return "", fmt.Errorf("no complete five-man lineup")
	}

	selected := lineups[g.rnd.Intn(len(lineups))]
	name := fmt.Sprintf("%s_%s_%s.json", selected.Season, selected.GameID, selected.TeamAbbr)
	path := filepath.Join(g.cfg.OutDir, name)

	data, err := json.MarshalIndent(selected, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write record: %w", err)
	}
	return path, nil
}

func (g *Generator) buildLineup(ctx context.Context, season, gameID, matchup, oppAbbr string, starters []nbastats.BoxscoreRow) (domain.QuizRecord, error) {
	var totalPts, totalAst, totalReb, totalDef float64
	for _, row := range starters {
		totalPts += row.Points
		totalAst += row.Assists
		totalReb += row.Rebounds
		totalDef += row.Steals + row.Blocks
	}

	record := domain.QuizRecord{
		Season:       season,
		GameID:       gameID,
		TeamAbbr:     starters[0].TeamAbbr,
		OpponentAbbr: oppAbbr,
		Matchup:      matchup,
	}

	for _, row := range starters {
		profile, err := g.stats.PlayerInfo(ctx, row.PlayerID)
		if err != nil {
			return domain.QuizRecord{}, fmt.Errorf("player info for %s: %w", row.PlayerName, err)
		}
		school, schoolType, conference := g.schools.Resolve(profile.School)
		defense := row.Steals + row.Blocks

		record.Players = append(record.Players, domain.Player{
			Name:       row.PlayerName,
			School:     school,
			SchoolType: schoolType,
			Conference: conference,
			PlayerID:   row.PlayerID,
			Position:   profile.Position,
			Country:    profile.Country,
			GameStats: domain.GameStats{
				Points:   row.Points,
				Assists:  row.Assists,
				Rebounds: row.Rebounds,
				Steals:   row.Steals,
				Blocks:   row.Blocks,
			},
			Contribution: domain.ContributionPct{
				Points:   share(row.Points, totalPts),
				Assists:  share(row.Assists, totalAst),
				Rebounds: share(row.Rebounds, totalReb),
				Defense:  share(defense, totalDef),
			},
		})
	}
	return record, nil
}

func teamAbbr(rows []nbastats.BoxscoreRow) string {
	if len(rows) == 0 {
		return ""
	}
	return rows[0].TeamAbbr
}

// share is stat/total rounded to three decimals, 0 when the total is 0.
func share(stat, total float64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(1000*stat/total) / 1000
}
