package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"starting5-service/internal/domain"
)

// ScoreRepository is an in-memory implementation of app.ScoreRepository,
// used when no postgres URL is configured and throughout the tests. The
// daily-uniqueness check runs under the repository mutex, mirroring the
// conditional insert the postgres implementation gets from its unique index.
type ScoreRepository struct {
	clock func() time.Time

	mu          sync.Mutex
	users       map[int64]domain.User
	scores      []domain.ScoreLog
	guesses     []domain.GuessLog
	nextScoreID int64
	nextGuessID int64
}

func NewScoreRepository() *ScoreRepository {
	return NewScoreRepositoryWithClock(time.Now)
}

// NewScoreRepositoryWithClock allows deterministic timestamps in tests.
func NewScoreRepositoryWithClock(clock func() time.Time) *ScoreRepository {
	return &ScoreRepository{
		clock: clock,
		users: make(map[int64]domain.User),
	}
}

// AddUser registers a user so leaderboard rows can resolve usernames.
func (r *ScoreRepository) AddUser(u domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
}

func (r *ScoreRepository) InsertResult(_ context.Context, entry domain.ScoreLog, guesses []domain.GuessLog) (domain.ScoreLog, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock().UTC()
	if entry.UserID != nil {
		today := dateOf(now)
		for _, existing := range r.scores {
			if existing.UserID != nil && *existing.UserID == *entry.UserID &&
				existing.QuizID == entry.QuizID && dateOf(existing.CreatedAt).Equal(today) {
				return existing, false, nil
			}
		}
	}

	r.nextScoreID++
	entry.ID = r.nextScoreID
	entry.CreatedAt = now
	r.scores = append(r.scores, entry)

	for _, g := range guesses {
		r.nextGuessID++
		g.ID = r.nextGuessID
		g.CreatedAt = now
		r.guesses = append(r.guesses, g)
	}
	return entry, true, nil
}

func (r *ScoreRepository) ScoreDates(_ context.Context, userID int64) ([]time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var dates []time.Time
	for _, s := range r.scores {
		if s.UserID != nil && *s.UserID == userID {
			dates = append(dates, s.CreatedAt)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].After(dates[j]) })
	return dates, nil
}

func (r *ScoreRepository) QuizScores(_ context.Context, quizID string) ([]float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var scores []float64
	for _, s := range r.scores {
		if s.QuizID == quizID {
			scores = append(scores, s.Score)
		}
	}
	return scores, nil
}

func (r *ScoreRepository) Leaderboard(_ context.Context, quizID string, limit int) ([]domain.LeaderboardRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var rows []domain.LeaderboardRow
	for _, s := range r.scores {
		if s.QuizID != quizID || s.UserID == nil {
			continue
		}
		user, ok := r.users[*s.UserID]
		if !ok {
			continue
		}
		rows = append(rows, domain.LeaderboardRow{
			Username:  user.Username,
			Score:     s.Score,
			MaxPoints: s.MaxPoints,
			TimeTaken: s.TimeTaken,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Score != rows[j].Score {
			return rows[i].Score > rows[j].Score
		}
		return rows[i].TimeTaken < rows[j].TimeTaken
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (r *ScoreRepository) PlayerAccuracy(_ context.Context, playerName string) (int, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	correct, total := 0, 0
	for _, g := range r.guesses {
		if g.PlayerName != playerName {
			continue
		}
		total++
		if g.IsCorrect {
			correct++
		}
	}
	return correct, total, nil
}

func (r *ScoreRepository) UserByID(_ context.Context, id int64) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

func dateOf(ts time.Time) time.Time {
	y, m, d := ts.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
