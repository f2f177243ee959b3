package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"math/big"
	"net/http"
	"strings"

	"github.com/buzzdash/buzzdash-backend/internal/hub"
	"github.com/buzzdash/buzzdash-backend/internal/trivia"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GenerateCode returns a 6-character human-typeable room code.
func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, 6)
	for i := 0; i < 6; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

func CreateRoom(h *hub.Hub, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var code string
		for {
			c, err := GenerateCode()
			if err != nil {
				http.Error(w, "failed to generate code", http.StatusInternalServerError)
				return
			}
			exists := make(chan bool, 1)
			h.Inbox() <- hub.RoomExists{Code: c, Reply: exists}
			if !<-exists {
				code = c
				break
			}
			logger.Info("room code collision, regenerating", zap.String("code", c))
		}

		hostID := uuid.NewString()
		reply := make(chan error, 1)
		h.Inbox() <- hub.EnsureRoom{Code: code, HostID: hostID, Reply: reply}
		if err := <-reply; err != nil {
			http.Error(w, "failed to create room", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(struct {
			Code   string `json:"code"`
			HostID string `json:"host_id"`
		}{Code: code, HostID: hostID})
	}
}

func GetRoom(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.ToUpper(chi.URLParam(r, "code"))
		exists := make(chan bool, 1)
		h.Inbox() <- hub.RoomExists{Code: code, Reply: exists}
		if !<-exists {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(struct {
			Code string `json:"code"`
		}{Code: code})
	}
}

func GetQuestion(gen *trivia.Generator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		topic := r.URL.Query().Get("topic")
		question := gen.Question(r.Context(), topic)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(struct {
			Question string `json:"question"`
		}{Question: question})
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
