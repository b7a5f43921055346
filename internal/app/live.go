package app

import (
	"sync"
	"time"

	"starting5-service/internal/domain"
)

// LiveHub fans leaderboard snapshots out to websocket subscribers, keyed by
// quiz ID. Subscribers that fall behind have their stale snapshot replaced
// rather than blocking the broadcaster.
type LiveHub struct {
	now  func() time.Time
	mu   sync.Mutex
	subs map[string]map[chan domain.Leaderboard]struct{}
}

func NewLiveHub() *LiveHub {
	return newLiveHubWithClock(time.Now)
}

// newLiveHubWithClock allows deterministic timestamps in tests.
func newLiveHubWithClock(now func() time.Time) *LiveHub {
	return &LiveHub{
		now:  now,
		subs: make(map[string]map[chan domain.Leaderboard]struct{}),
	}
}

// Subscribe registers a listener for a quiz and delivers the initial rows
// immediately. The caller must invoke the returned cancel function to avoid
// leaks.
func (h *LiveHub) Subscribe(quizID string, initial []domain.LeaderboardRow) (<-chan domain.Leaderboard, func()) {
	ch := make(chan domain.Leaderboard, 8)

	h.mu.Lock()
	if h.subs[quizID] == nil {
		h.subs[quizID] = make(map[chan domain.Leaderboard]struct{})
	}
	h.subs[quizID][ch] = struct{}{}
	h.mu.Unlock()

	ch <- domain.Leaderboard{QuizID: quizID, Rows: initial, UpdatedAt: h.now()}

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if set, ok := h.subs[quizID]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(h.subs, quizID)
			}
		}
	}
	return ch, cancel
}

// Broadcast pushes fresh rows to every subscriber of the quiz.
func (h *LiveHub) Broadcast(quizID string, rows []domain.LeaderboardRow) {
	lb := domain.Leaderboard{QuizID: quizID, Rows: rows, UpdatedAt: h.now()}

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[quizID] {
		select {
		case ch <- lb:
		default:
			// Drop the stale snapshot so a slow client never blocks grading.
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
}
