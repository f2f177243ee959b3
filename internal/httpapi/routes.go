package httpapi

import (
	"net/http"

	"github.com/buzzdash/buzzdash-backend/internal/hub"
	"github.com/buzzdash/buzzdash-backend/internal/transport"
	"github.com/buzzdash/buzzdash-backend/internal/trivia"
	"github.com/buzzdash/buzzdash-backend/internal/ws"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func SetupRoutes(h *hub.Hub, tr transport.Transport, gen *trivia.Generator, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Post("/rooms", CreateRoom(h, logger))
	r.Get("/rooms/{code}", GetRoom(h))
	r.Get("/question", GetQuestion(gen))
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h, tr, logger))
	return r
}
