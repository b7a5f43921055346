// Package nbastats is a minimal client for the stats.nba.com JSON API,
// covering only the endpoints the quiz generator needs. Calls are rate
// limited and retried with exponential backoff on transient failures.
package nbastats

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://stats.nba.com/stats"

type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	baseURL string
	logger  *slog.Logger
}

func NewClient(limiter *rate.Limiter, logger *slog.Logger) *Client {
	return NewClientWithBaseURL(defaultBaseURL, limiter, logger)
}

// NewClientWithBaseURL points the client at an alternate host, used by tests.
func NewClientWithBaseURL(baseURL string, limiter *rate.Limiter, logger *slog.Logger) *Client {
	return &Client{
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: limiter,
		baseURL: baseURL,
		logger:  logger,
	}
}

// GameIDs returns the distinct regular-season game ids for a season label
// such as "2015-16".
func (c *Client) GameIDs(ctx context.Context, season string) ([]string, error) {
	params := url.Values{
		"Season":       {season},
		"SeasonType":   {"Regular Season"},
		"LeagueID":     {"00"},
		"PlayerOrTeam": {"T"},
		"Counter":      {"0"},
		"Direction":    {"DESC"},
		"Sorter":       {"DATE"},
	}
	rs, err := c.fetch(ctx, "leaguegamelog", params, "LeagueGameLog")
	if err != nil {
		return nil, err
	}
	col, err := rs.column("GAME_ID")
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	var ids []string
	for _, row := range rs.RowSet {
		id := asString(row[col])
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

// BoxscoreRow is one player line from the traditional box score.
type BoxscoreRow struct {
	TeamID        int64
	TeamAbbr      string
	PlayerID      int64
	PlayerName    string
	StartPosition string
	Points        float64
	Assists       float64
	Rebounds      float64
	Steals        float64
	Blocks        float64
}

// Boxscore returns every player line for a game.
func (c *Client) Boxscore(ctx context.Context, gameID string) ([]BoxscoreRow, error) {
	params := url.Values{
		"GameID":      {gameID},
		"StartPeriod": {"0"},
		"EndPeriod":   {"10"},
		"StartRange":  {"0"},
		"EndRange":    {"0"},
		"RangeType":   {"0"},
	}
	rs, err := c.fetch(ctx, "boxscoretraditionalv2", params, "PlayerStats")
	if err != nil {
		return nil, err
	}
	cols, err := rs.columns("TEAM_ID", "TEAM_ABBREVIATION", "PLAYER_ID", "PLAYER_NAME", "START_POSITION", "PTS", "AST", "REB", "STL", "BLK")
	if err != nil {
		return nil, err
	}
	var rows []BoxscoreRow
	for _, row := range rs.RowSet {
		rows = append(rows, BoxscoreRow{
			TeamID:        asInt64(row[cols[0]]),
			TeamAbbr:      asString(row[cols[1]]),
			PlayerID:      asInt64(row[cols[2]]),
			PlayerName:    asString(row[cols[3]]),
			StartPosition: asString(row[cols[4]]),
			Points:        asFloat(row[cols[5]]),
			Assists:       asFloat(row[cols[6]]),
			Rebounds:      asFloat(row[cols[7]]),
			Steals:        asFloat(row[cols[8]]),
			Blocks:        asFloat(row[cols[9]]),
		})
	}
	return rows, nil
}

// GameSummary returns the home and visitor team ids for a game.
func (c *Client) GameSummary(ctx context.Context, gameID string) (home, visitor int64, err error) {
	params := url.Values{"GameID": {gameID}}
	rs, err := c.fetch(ctx, "boxscoresummaryv2", params, "GameSummary")
	if err != nil {
		return 0, 0, err
	}
	cols, err := rs.columns("HOME_TEAM_ID", "VISITOR_TEAM_ID")
	if err != nil {
		return 0, 0, err
	}
	if len(rs.RowSet) == 0 {
		return 0, 0, fmt.Errorf("boxscoresummaryv2: empty GameSummary for %s", gameID)
	}
	row := rs.RowSet[0]
	return asInt64(row[cols[0]]), asInt64(row[cols[1]]), nil
}

// PlayerProfile is the subset of commonplayerinfo the generator uses.
type PlayerProfile struct {
	School   string
	Country  string
	Position string
}

// PlayerInfo returns a player's last school, country and position.
func (c *Client) PlayerInfo(ctx context.Context, playerID int64) (PlayerProfile, error) {
	params := url.Values{"PlayerID": {fmt.Sprintf("%d", playerID)}}
	rs, err := c.fetch(ctx, "commonplayerinfo", params, "CommonPlayerInfo")
	if err != nil {
		return PlayerProfile{}, err
	}
	cols, err := rs.columns("SCHOOL", "COUNTRY", "POSITION")
	if err != nil {
		return PlayerProfile{}, err
	}
	if len(rs.RowSet) == 0 {
		return PlayerProfile{}, fmt.Errorf("commonplayerinfo: no rows for player %d", playerID)
	}
	row := rs.RowSet[0]
	profile := PlayerProfile{
		School:   asString(row[cols[0]]),
		Country:  asString(row[cols[1]]),
		Position: asString(row[cols[2]]),
	}
	if profile.School == "" {
		profile.School = "Unknown"
	}
	if profile.Country == "" {
		profile.Country = "Unknown"
	}
	if profile.Position == "" {
		profile.Position = "Unknown"
	}
	return profile, nil
}

type response struct {
	ResultSets []resultSet `json:"resultSets"`
}

type resultSet struct {
	Name    string   `json:"name"`
	Headers []string `json:"headers"`
	RowSet  [][]any  `json:"rowSet"`
}

func (rs *resultSet) column(name string) (int, error) {
	for i, h := range rs.Headers {
		if h == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("result set %s: missing column %s", rs.Name, name)
}

func (rs *resultSet) columns(names ...string) ([]int, error) {
	out := make([]int, len(names))
	for i, name := range names {
		col, err := rs.column(name)
		if err != nil {
			return nil, err
		}
		out[i] = col
	}
	return out, nil
}

func (c *Client) fetch(ctx context.Context, endpoint string, params url.Values, setName string) (*resultSet, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL := c.baseURL + "/" + endpoint + "?" + params.Encode()

	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		// stats.nba.com rejects requests without browser-ish headers.
		req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)")
		req.Header.Set("Referer", "https://www.nba.com/")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("x-nba-stats-origin", "stats")
		req.Header.Set("x-nba-stats-token", "true")

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("%s: status %d", endpoint, resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("%s: status %d", endpoint, resp.StatusCode))
		}
		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.RetryNotify(operation, policy, func(err error, wait time.Duration) {
		c.logger.Warn("stats api retry", "endpoint", endpoint, "wait", wait, "err", err)
	}); err != nil {
		return nil, err
	}

	var parsed response
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", endpoint, err)
	}
	for i := range parsed.ResultSets {
		if parsed.ResultSets[i].Name == setName {
			return &parsed.ResultSets[i], nil
		}
	}
	return nil, fmt.Errorf("%s: result set %s not found", endpoint, setName)
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case json.Number:
		f, _ := x.Float64()
		return f
	default:
		return 0
	}
}

func asInt64(v any) int64 {
	return int64(asFloat(v))
}
