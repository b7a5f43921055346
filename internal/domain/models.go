package domain

import "time"

// School classification for a player's pre-NBA stop.
const (
	SchoolTypeCollege       = "College"
	SchoolTypeHighSchool    = "High School"
	SchoolTypeInternational = "International"
	SchoolTypeOther         = "Other"
)

// GameStats is a starter's raw box score line.
type GameStats struct {
	Points   float64 `json:"pts"`
	Assists  float64 `json:"ast"`
	Rebounds float64 `json:"reb"`
	Steals   float64 `json:"stl"`
	Blocks   float64 `json:"blk"`
}

// ContributionPct is the player's share of his lineup's combined output in
// each category. Values are in [0,1]; a category with a zero team total
// yields 0.
type ContributionPct struct {
	Points   float64 `json:"points_pct"`
	Assists  float64 `json:"assists_pct"`
	Rebounds float64 `json:"rebounds_pct"`
	Defense  float64 `json:"defense_pct"`
}

// Player is one starter inside a quiz record.
type Player struct {
	Name         string          `json:"name"`
	School       string          `json:"school"`
	SchoolType   string          `json:"school_type"`
	Conference   string          `json:"conference"`
	PlayerID     int64           `json:"player_id,omitempty"`
	Position     string          `json:"position"`
	Country      string          `json:"country"`
	GameStats    GameStats       `json:"game_stats"`
	Contribution ContributionPct `json:"game_contribution_pct"`
}

// QuizRecord is the immutable quiz document for one game's starting five.
// ID and Path are derived from the file the record was loaded from and are
// not part of the JSON document itself.
type QuizRecord struct {
	ID           string   `json:"-"`
	Path         string   `json:"-"`
	Season       string   `json:"season"`
	GameID       string   `json:"game_id"`
	TeamAbbr     string   `json:"team_abbr"`
	OpponentAbbr string   `json:"opponent_abbr"`
	Matchup      string   `json:"matchup"`
	Players      []Player `json:"players"`
}

// User is the authentication identity referenced from score and guess rows.
// It is owned by the auth collaborator; this service only reads it.
type User struct {
	ID       int64
	Username string
}

// ScoreLog records one graded quiz attempt. UserID is nil for anonymous
// submissions. At most one row exists per (user, quiz, calendar day); rows
// are never updated after creation.
type ScoreLog struct {
	ID        int64
	QuizID    string
	UserID    *int64
	Score     float64
	MaxPoints float64
	TimeTaken int
	CreatedAt time.Time
}

// GuessLog records a single player guess by an authenticated user.
type GuessLog struct {
	ID         int64
	UserID     int64
	PlayerName string
	School     string
	Guess      string
	IsCorrect  bool
	UsedHint   bool
	CreatedAt  time.Time
}

// LeaderboardRow is one leaderboard line for a quiz.
type LeaderboardRow struct {
	Username  string  `json:"username"`
	Score     float64 `json:"score"`
	MaxPoints float64 `json:"max_points"`
	TimeTaken int     `json:"time_taken"`
}

// Leaderboard is the ordered scoreboard pushed to live subscribers.
type Leaderboard struct {
	QuizID    string           `json:"quizId"`
	Rows      []LeaderboardRow `json:"rows"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// GuessStatus is the display outcome for one graded player.
type GuessStatus string

const (
	StatusCorrect  GuessStatus = "Correct"
	StatusWithHint GuessStatus = "Correct-with-hint"
	StatusMissed   GuessStatus = "Missed"
)

// GuessResult is the scorer output for one player.
type GuessResult struct {
	PlayerName string
	Guess      string
	Points     float64
	Correct    bool
	UsedHint   bool
	Status     GuessStatus
}

// Submission carries one POSTed quiz attempt. Guesses and HintsUsed are
// aligned with QuizRecord.Players by index.
type Submission struct {
	Guesses   []string
	HintsUsed []bool
	TimeTaken int
}

// Result is the fully aggregated outcome of grading a submission.
type Result struct {
	QuizID          string
	Score           float64
	MaxPoints       float64
	TimeTaken       int
	Replayed        bool
	Guesses         []GuessResult
	CorrectAnswers  []string
	Percentile      int
	Streak          int
	PerformanceText string
	ShareMessage    string
	Leaderboard     []LeaderboardRow
}
