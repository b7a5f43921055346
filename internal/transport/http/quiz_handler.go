package http

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"starting5-service/internal/app"
	"starting5-service/internal/domain"
	"starting5-service/internal/infra/quizfile"
)

//go:embed templates/quiz.html
var templateFS embed.FS

// QuizHandler serves the quiz form, grades submissions, and exposes the
// player accuracy endpoint.
type QuizHandler struct {
	service *app.QuizService
	store   *quizfile.Store
	users   UserResolver
	logger  *slog.Logger
	tmpl    *template.Template
}

func NewQuizHandler(service *app.QuizService, store *quizfile.Store, users UserResolver, logger *slog.Logger) *QuizHandler {
	tmpl := template.Must(template.New("quiz.html").Funcs(template.FuncMap{
		"shareStatus": func(s domain.GuessStatus) string { return app.ShareStatus(s) },
	}).ParseFS(templateFS, "templates/quiz.html"))
	return &QuizHandler{
		service: service,
		store:   store,
		users:   users,
		logger:  logger,
		tmpl:    tmpl,
	}
}

// Register attaches the HTTP routes.
func (h *QuizHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/", h.Home)
	mux.HandleFunc("/quiz", h.ShowQuiz)
	mux.HandleFunc("/player_accuracy/", h.PlayerAccuracy)
}

func (h *QuizHandler) Home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, "/quiz", http.StatusSeeOther)
}

type quizPage struct {
	Data            domain.QuizRecord
	Colleges        []string
	Confs           map[string]string
	Result          *domain.Result
	Streak          int
	Leaderboard     []domain.LeaderboardRow
	ShowLeaderboard bool
	QuizPath        string
	QuizID          string
}

func (h *QuizHandler) ShowQuiz(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.showForm(w, r)
	case http.MethodPost:
		h.gradeSubmission(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *QuizHandler) showForm(w http.ResponseWriter, r *http.Request) {
	_, colleges, err := h.store.Conferences()
	if err != nil {
		h.serverError(w, "load conference map", err)
		return
	}

	record, err := h.service.CurrentQuiz(r.Context())
	if errors.Is(err, domain.ErrNoCurrentQuiz) {
		http.Error(w, "No current quiz loaded. Please run the rotate command.", http.StatusInternalServerError)
		return
	}
	if err != nil {
		h.serverError(w, "load current quiz", err)
		return
	}

	user, _ := h.users.CurrentUser(r)
	streak, err := h.service.StreakFor(r.Context(), user)
	if err != nil {
		h.serverError(w, "load streak", err)
		return
	}
	leaderboard, err := h.service.Leaderboard(r.Context(), record.ID)
	if err != nil {
		h.serverError(w, "load leaderboard", err)
		return
	}

	h.render(w, quizPage{
		Data:        record,
		Colleges:    colleges,
		Streak:      streak,
		Leaderboard: leaderboard,
		QuizPath:    record.Path,
		QuizID:      record.ID,
	})
}

func (h *QuizHandler) gradeSubmission(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/quiz", http.StatusSeeOther)
		return
	}

	quizPath := r.PostFormValue("quiz_json_path")
	if quizPath == "" {
		http.Redirect(w, r, "/quiz", http.StatusSeeOther)
		return
	}
	record, err := h.service.LoadQuiz(r.Context(), quizPath)
	if err != nil {
		// Tampered or stale path: send them back to the entry point.
		http.Redirect(w, r, "/quiz", http.StatusSeeOther)
		return
	}

	sub := domain.Submission{}
	for i, p := range record.Players {
		sub.Guesses = append(sub.Guesses, r.PostFormValue(p.Name))
		sub.HintsUsed = append(sub.HintsUsed, r.PostFormValue(fmt.Sprintf("hint_used_%d", i)) == "1")
	}
	sub.TimeTaken, _ = strconv.Atoi(r.PostFormValue("time_taken"))

	user, _ := h.users.CurrentUser(r)
	result, err := h.service.Grade(r.Context(), record, sub, user)
	if err != nil {
		h.serverError(w, "grade submission", err)
		return
	}

	_, colleges, err := h.store.Conferences()
	if err != nil {
		h.serverError(w, "load conference map", err)
		return
	}

	h.render(w, quizPage{
		Data:            record,
		Colleges:        colleges,
		Result:          &result,
		Streak:          result.Streak,
		Leaderboard:     result.Leaderboard,
		ShowLeaderboard: len(result.Leaderboard) > 0 || user == nil,
		QuizPath:        record.Path,
		QuizID:          record.ID,
	})
}

// PlayerAccuracy returns {player, accuracy} with no-cache headers so the
// widget always reflects the latest guesses.
func (h *QuizHandler) PlayerAccuracy(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimPrefix(r.URL.Path, "/player_accuracy/")
	name, err := url.PathUnescape(raw)
	if err != nil || name == "" {
		http.NotFound(w, r)
		return
	}

	accuracy, err := h.service.PlayerAccuracy(r.Context(), name)
	if err != nil {
		h.serverError(w, "load accuracy", err)
		return
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"player":   name,
		"accuracy": accuracy,
	})
}

func (h *QuizHandler) render(w http.ResponseWriter, page quizPage) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.Execute(w, page); err != nil {
		h.logger.Error("render quiz page", "err", err)
	}
}

func (h *QuizHandler) serverError(w http.ResponseWriter, action string, err error) {
	h.logger.Error(action, "err", err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}
