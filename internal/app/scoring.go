package app

import (
	"math"
	"sort"
	"strings"
	"time"

	"starting5-service/internal/domain"
)

// ScoreGuess grades one guess against the canonical player record.
//
// College players are matched on school name only and the hint costs a
// quarter point. Non-college players match on school (full credit) or
// country (0.75) and the hint does not reduce points; that asymmetry is
// intentional product behavior.
func ScoreGuess(p domain.Player, guess string, usedHint bool) domain.GuessResult {
	trimmed := strings.TrimSpace(guess)
	result := domain.GuessResult{
		PlayerName: p.Name,
		Guess:      trimmed,
		UsedHint:   usedHint,
		Status:     domain.StatusMissed,
	}

	if p.SchoolType == domain.SchoolTypeCollege {
		if strings.EqualFold(trimmed, p.School) {
			result.Correct = true
			result.Points = 1.0
			if usedHint {
				result.Points = 0.75
			}
		}
	} else {
		if strings.EqualFold(trimmed, p.School) {
			result.Correct = true
			result.Points = 1.0
		} else if strings.EqualFold(trimmed, p.Country) {
			result.Correct = true
			result.Points = 0.75
		}
	}

	if result.Correct {
		result.Status = domain.StatusCorrect
		if usedHint {
			result.Status = domain.StatusWithHint
		}
	}
	return result
}

// PerformanceText picks the tier line shown after grading.
func PerformanceText(score, maxPoints float64) string {
	switch {
	case score >= maxPoints:
		return "\U0001F410 Perfect game!"
	case score >= 4:
		return "\U0001F525 You crushed it today!"
	case score >= 3:
		return "\U0001F9E0 Solid effort, keep going!"
	case score >= 2:
		return "\U0001F913 Not bad, study those rosters!"
	default:
		return "\U0001F9CA Cold start – better luck tomorrow!"
	}
}

// Streak counts consecutive play days given attempt timestamps ordered
// newest first. Repeat attempts on the same day neither extend nor break
// the streak; a gap larger than one day stops the walk.
func Streak(timestamps []time.Time) int {
	if len(timestamps) == 0 {
		return 0
	}
	streak := 1
	prev := dateOf(timestamps[0])
	for _, ts := range timestamps[1:] {
		d := dateOf(ts)
		if d.Equal(prev) {
			continue
		}
		if prev.Sub(d) == 24*time.Hour {
			streak++
			prev = d
			continue
		}
		break
	}
	return streak
}

func dateOf(ts time.Time) time.Time {
	y, m, d := ts.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Percentile ranks the current score within the quiz population, counting
// ties in the caller's favor. An empty population yields 0.
func Percentile(scores []float64, current float64) int {
	if len(scores) == 0 {
		return 0
	}
	sorted := append([]float64(nil), scores...)
	sort.Float64s(sorted)
	rank := 0
	for _, s := range sorted {
		if s <= current {
			rank++
		}
	}
	return int(math.Round(100 * float64(rank) / float64(len(sorted))))
}
