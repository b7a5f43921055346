package app

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"starting5-service/internal/domain"
)

// DefaultLeaderboardLimit caps leaderboard queries from the serving path.
const DefaultLeaderboardLimit = 10

// ScoreRepository persists graded attempts and answers the read-side
// aggregations (leaderboard, streak, percentile, accuracy).
type ScoreRepository interface {
	// InsertResult writes the score row, plus the guess rows for
	// authenticated users, unless a row already exists for the same user,
	// quiz and calendar day. It returns the stored row and whether a new
	// row was written; on replay the pre-existing row comes back and the
	// guesses are discarded.
	InsertResult(ctx context.Context, entry domain.ScoreLog, guesses []domain.GuessLog) (domain.ScoreLog, bool, error)
	// ScoreDates returns a user's attempt timestamps, newest first.
	ScoreDates(ctx context.Context, userID int64) ([]time.Time, error)
	// QuizScores returns every recorded score for a quiz, anonymous rows included.
	QuizScores(ctx context.Context, quizID string) ([]float64, error)
	Leaderboard(ctx context.Context, quizID string, limit int) ([]domain.LeaderboardRow, error)
	// PlayerAccuracy counts correct and total guesses for a player across all users and quizzes.
	PlayerAccuracy(ctx context.Context, playerName string) (correct, total int, err error)
	UserByID(ctx context.Context, id int64) (domain.User, error)
}

// QuizRepository loads quiz records, either straight from disk or through a cache.
type QuizRepository interface {
	Current(ctx context.Context) (domain.QuizRecord, error)
	Load(ctx context.Context, path string) (domain.QuizRecord, error)
}

// QuizService contains the grading and aggregation use cases.
type QuizService struct {
	quizzes QuizRepository
	scores  ScoreRepository
	live    *LiveHub
	now     func() time.Time
}

func NewQuizService(quizzes QuizRepository, scores ScoreRepository, live *LiveHub) *QuizService {
	return NewQuizServiceWithClock(quizzes, scores, live, time.Now)
}

// NewQuizServiceWithClock allows deterministic dates in tests.
func NewQuizServiceWithClock(quizzes QuizRepository, scores ScoreRepository, live *LiveHub, now func() time.Time) *QuizService {
	return &QuizService{quizzes: quizzes, scores: scores, live: live, now: now}
}

// CurrentQuiz returns the quiz record in the current slot.
func (s *QuizService) CurrentQuiz(ctx context.Context) (domain.QuizRecord, error) {
	return s.quizzes.Current(ctx)
}

// LoadQuiz loads the quiz record a submission points back at.
func (s *QuizService) LoadQuiz(ctx context.Context, path string) (domain.QuizRecord, error) {
	return s.quizzes.Load(ctx, path)
}

// Grade scores a submission against the record, persists it at most once per
// (user, quiz, day), and assembles the streak, percentile, leaderboard and
// share message for the result view. Anonymous submissions persist a score
// row with no user and no guess rows.
func (s *QuizService) Grade(ctx context.Context, record domain.QuizRecord, sub domain.Submission, user *domain.User) (domain.Result, error) {
	if len(sub.Guesses) != len(record.Players) || len(sub.HintsUsed) != len(record.Players) {
		return domain.Result{}, domain.ErrGuessCountMismatch
	}

	res := domain.Result{QuizID: record.ID, TimeTaken: sub.TimeTaken}
	var guesses []domain.GuessLog
	for i, p := range record.Players {
		gr := ScoreGuess(p, sub.Guesses[i], sub.HintsUsed[i])
		res.Guesses = append(res.Guesses, gr)
		res.Score += gr.Points
		res.MaxPoints += 1.0
		res.CorrectAnswers = append(res.CorrectAnswers, revealText(p))
		if user != nil {
			guesses = append(guesses, domain.GuessLog{
				UserID:     user.ID,
				PlayerName: p.Name,
				School:     p.School,
				Guess:      gr.Guess,
				IsCorrect:  gr.Correct,
				UsedHint:   gr.UsedHint,
			})
		}
	}

	entry := domain.ScoreLog{
		QuizID:    record.ID,
		Score:     res.Score,
		MaxPoints: res.MaxPoints,
		TimeTaken: sub.TimeTaken,
	}
	if user != nil {
		id := user.ID
		entry.UserID = &id
	}

	stored, inserted, err := s.scores.InsertResult(ctx, entry, guesses)
	if err != nil {
		return domain.Result{}, fmt.Errorf("record score: %w", err)
	}
	if !inserted {
		// Same-day replay: hand back the stored attempt untouched.
		res.Replayed = true
		res.Score = stored.Score
		res.MaxPoints = stored.MaxPoints
		res.TimeTaken = stored.TimeTaken
	}

	if user != nil {
		dates, err := s.scores.ScoreDates(ctx, user.ID)
		if err != nil {
			return domain.Result{}, fmt.Errorf("load score dates: %w", err)
		}
		res.Streak = Streak(dates)
	}

	population, err := s.scores.QuizScores(ctx, record.ID)
	if err != nil {
		return domain.Result{}, fmt.Errorf("load quiz scores: %w", err)
	}
	res.Percentile = Percentile(population, res.Score)

	rows, err := s.scores.Leaderboard(ctx, record.ID, DefaultLeaderboardLimit)
	if err != nil {
		return domain.Result{}, fmt.Errorf("load leaderboard: %w", err)
	}
	res.Leaderboard = rows

	res.PerformanceText = PerformanceText(res.Score, res.MaxPoints)
	res.ShareMessage = s.shareMessage(record, res)

	if inserted && s.live != nil {
		s.live.Broadcast(record.ID, rows)
	}
	return res, nil
}

// StreakFor returns the consecutive-day streak for a user; nil users have none.
func (s *QuizService) StreakFor(ctx context.Context, user *domain.User) (int, error) {
	if user == nil {
		return 0, nil
	}
	dates, err := s.scores.ScoreDates(ctx, user.ID)
	if err != nil {
		return 0, fmt.Errorf("load score dates: %w", err)
	}
	return Streak(dates), nil
}

// Leaderboard returns the top rows for a quiz.
func (s *QuizService) Leaderboard(ctx context.Context, quizID string) ([]domain.LeaderboardRow, error) {
	return s.scores.Leaderboard(ctx, quizID, DefaultLeaderboardLimit)
}

// PlayerAccuracy returns the percentage of correct guesses for a player
// across all users and quizzes, rounded to one decimal. No guesses yields 0.
func (s *QuizService) PlayerAccuracy(ctx context.Context, playerName string) (float64, error) {
	correct, total, err := s.scores.PlayerAccuracy(ctx, playerName)
	if err != nil {
		return 0, fmt.Errorf("load accuracy: %w", err)
	}
	if total == 0 {
		return 0, nil
	}
	return math.Round(1000*float64(correct)/float64(total)) / 10, nil
}

// SubscribeLeaderboard attaches a live listener to a quiz, seeding it with
// the current rows. The caller must invoke the cancel function.
func (s *QuizService) SubscribeLeaderboard(ctx context.Context, quizID string) (<-chan domain.Leaderboard, func(), error) {
	rows, err := s.scores.Leaderboard(ctx, quizID, DefaultLeaderboardLimit)
	if err != nil {
		return nil, nil, fmt.Errorf("load leaderboard: %w", err)
	}
	ch, cancel := s.live.Subscribe(quizID, rows)
	return ch, cancel, nil
}

func (s *QuizService) shareMessage(record domain.QuizRecord, res domain.Result) string {
	date := s.now().UTC().Format("January 2, 2006")
	lines := []string{
		"\U0001F3C0 Starting5 Puzzle – " + date,
		fmt.Sprintf("\U0001F4C8 Score: %s/%s", formatPoints(res.Score), formatPoints(res.MaxPoints)),
		"",
	}
	for i, gr := range res.Guesses {
		lines = append(lines, fmt.Sprintf("\U0001F539 %s: %s", record.Players[i].Position, ShareStatus(gr.Status)))
	}
	lines = append(lines, "", res.PerformanceText, "Play now: www.starting5.us")
	return strings.Join(lines, "\n")
}

// ShareStatus maps a guess status to its share-message glyph line.
func ShareStatus(status domain.GuessStatus) string {
	switch status {
	case domain.StatusWithHint:
		return "\U0001F7E8 -- Used Hint"
	case domain.StatusCorrect:
		return "✅ -- Correct"
	default:
		return "❌ -- Missed"
	}
}

func revealText(p domain.Player) string {
	if p.SchoolType == domain.SchoolTypeCollege {
		return "I played for " + p.School
	}
	return fmt.Sprintf("I am from %s and played for %s", p.Country, p.School)
}

// formatPoints rounds to two decimals and keeps one decimal for whole
// values, so a perfect share line reads "5.0/5.0" rather than "5/5".
func formatPoints(v float64) string {
	rounded := math.Round(v*100) / 100
	if rounded == math.Trunc(rounded) {
		return strconv.FormatFloat(rounded, 'f', 1, 64)
	}
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}
