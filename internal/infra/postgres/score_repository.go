package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"starting5-service/internal/domain"
)

// ScoreRepository persists score and guess rows in Postgres. Daily
// idempotence is enforced by the partial unique index on
// (user_id, quiz_id, day): the insert uses ON CONFLICT DO NOTHING and the
// pre-existing row is read back when nothing was written, so concurrent
// duplicate submissions cannot create two rows.
type ScoreRepository struct {
	pool *pgxpool.Pool
}

func NewScoreRepository(pool *pgxpool.Pool) *ScoreRepository {
	return &ScoreRepository{pool: pool}
}

func (r *ScoreRepository) InsertResult(ctx context.Context, entry domain.ScoreLog, guesses []domain.GuessLog) (domain.ScoreLog, bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.ScoreLog{}, false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	stored := entry
	err = tx.QueryRow(ctx, `
		INSERT INTO score_log (quiz_id, user_id, score, max_points, time_taken)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, quiz_id, day) WHERE user_id IS NOT NULL DO NOTHING
		RETURNING id, created_at`,
		entry.QuizID, entry.UserID, entry.Score, entry.MaxPoints, entry.TimeTaken,
	).Scan(&stored.ID, &stored.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		// Lost the race or a same-day replay: hand back the stored attempt.
		existing := domain.ScoreLog{QuizID: entry.QuizID, UserID: entry.UserID}
		err = tx.QueryRow(ctx, `
			SELECT id, score, max_points, COALESCE(time_taken, 0), created_at
			FROM score_log
			WHERE user_id = $1 AND quiz_id = $2 AND day = (now() AT TIME ZONE 'utc')::date`,
			entry.UserID, entry.QuizID,
		).Scan(&existing.ID, &existing.Score, &existing.MaxPoints, &existing.TimeTaken, &existing.CreatedAt)
		if err != nil {
			return domain.ScoreLog{}, false, fmt.Errorf("load existing score: %w", err)
		}
		return existing, false, tx.Commit(ctx)
	}
	if err != nil {
		return domain.ScoreLog{}, false, fmt.Errorf("insert score: %w", err)
	}

	for _, g := range guesses {
		if _, err := tx.Exec(ctx, `
			INSERT INTO guess_log (user_id, player_name, school, guess, is_correct, used_hint)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			g.UserID, g.PlayerName, g.School, g.Guess, g.IsCorrect, g.UsedHint,
		); err != nil {
			return domain.ScoreLog{}, false, fmt.Errorf("insert guess: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.ScoreLog{}, false, fmt.Errorf("commit: %w", err)
	}
	return stored, true, nil
}

func (r *ScoreRepository) ScoreDates(ctx context.Context, userID int64) ([]time.Time, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT created_at FROM score_log
		WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query score dates: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var ts time.Time
		if err := rows.Scan(&ts); err != nil {
			return nil, fmt.Errorf("scan score date: %w", err)
		}
		dates = append(dates, ts)
	}
	return dates, rows.Err()
}

func (r *ScoreRepository) QuizScores(ctx context.Context, quizID string) ([]float64, error) {
	rows, err := r.pool.Query(ctx, `SELECT score FROM score_log WHERE quiz_id = $1`, quizID)
	if err != nil {
		return nil, fmt.Errorf("query quiz scores: %w", err)
	}
	defer rows.Close()

	var scores []float64
	for rows.Next() {
		var s float64
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan quiz score: %w", err)
		}
		scores = append(scores, s)
	}
	return scores, rows.Err()
}

func (r *ScoreRepository) Leaderboard(ctx context.Context, quizID string, limit int) ([]domain.LeaderboardRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT u.username, s.score, s.max_points, COALESCE(s.time_taken, 0)
		FROM score_log s
		JOIN users u ON u.id = s.user_id
		WHERE s.quiz_id = $1
		ORDER BY s.score DESC, s.time_taken ASC
		LIMIT $2`, quizID, limit)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var out []domain.LeaderboardRow
	for rows.Next() {
		var row domain.LeaderboardRow
		if err := rows.Scan(&row.Username, &row.Score, &row.MaxPoints, &row.TimeTaken); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *ScoreRepository) PlayerAccuracy(ctx context.Context, playerName string) (int, int, error) {
	var correct, total int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE is_correct), COUNT(*)
		FROM guess_log
		WHERE player_name = $1`, playerName,
	).Scan(&correct, &total)
	if err != nil {
		return 0, 0, fmt.Errorf("query accuracy: %w", err)
	}
	return correct, total, nil
}

func (r *ScoreRepository) UserByID(ctx context.Context, id int64) (domain.User, error) {
	var user domain.User
	err := r.pool.QueryRow(ctx, `SELECT id, username FROM users WHERE id = $1`, id).Scan(&user.ID, &user.Username)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("query user: %w", err)
	}
	return user, nil
}
