package http

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"starting5-service/internal/app"
	"starting5-service/internal/domain"
)

// WSHandler streams live leaderboard updates for a quiz over a websocket.
// Clients receive the current snapshot on connect and a fresh one after
// every graded submission.
type WSHandler struct {
	service  *app.QuizService
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage struct {
	Type    string             `json:"type"`
	Payload domain.Leaderboard `json:"payload"`
}

// ServeWS upgrades the request and wires it into the live hub.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quiz")
	if quizID == "" {
		http.Error(w, "missing quiz", http.StatusBadRequest)
		return
	}

	updates, cancel, err := h.service.SubscribeLeaderboard(r.Context(), quizID)
	if err != nil {
		h.logger.Error("ws subscribe failed", "quiz", quizID, "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for update := range updates {
			if err := conn.WriteJSON(outboundMessage{Type: "leaderboard", Payload: update}); err != nil {
				h.logger.Warn("ws write error", "err", err)
				return
			}
		}
	}()

	// Inbound frames are ignored; the read loop only detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	cancel()
	<-writerDone
}
