package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/buzzdash/buzzdash-backend/internal/hub"
	"github.com/buzzdash/buzzdash-backend/internal/session"
	"github.com/buzzdash/buzzdash-backend/internal/transport"
	"github.com/buzzdash/buzzdash-backend/internal/types"
	"github.com/coder/websocket"
	"go.uber.org/zap"
)

// Handler bridges one websocket connection to one session controller. Room
// codes are case-insensitive on entry; participants in broadcast deployments
// run replica controllers, authority deployments get mirrors.
func Handler(h *hub.Hub, tr transport.Transport, logger *zap.Logger) http.HandlerFunc {
	log := logger.Named("ws")
	mode := session.ModeReplica
	if h.Mode() == hub.ModeAuthority {
		mode = session.ModeMirror
	}

	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.ToUpper(r.URL.Query().Get("code"))
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		exists := make(chan bool, 1)
		h.Inbox() <- hub.RoomExists{Code: code, Reply: exists}
		if !<-exists {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		ctrl, err := session.New(code, mode, tr, logger)
		if err != nil {
			log.Warn("open session", zap.String("room", code), zap.Error(err))
			conn.Close(websocket.StatusInternalError, "subscribe failed")
			return
		}
		defer ctrl.Close()

		out := make(chan session.Snapshot, 8)
		// Close() closes the outbox, which also ends the writer goroutine.
		ctrl.Attach(ctrl.SelfID(), out)

		// Writer goroutine: controller snapshots -> wire.
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for snap := range out {
				msg := types.ServerMessage{Type: "StateSnapshot", Version: snap.Version, State: &snap.Room}
				payload, _ := json.Marshal(msg)
				ctx, cancel := context.WithTimeout(writeCtx, 3*time.Second)
				_ = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
			}
		}()

		// Reader loop: wire -> controller actions.
		for {
			ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
			_, data, err := conn.Read(ctx)
			cancel()
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				writeError(r.Context(), conn, "bad json")
				continue
			}
			if !dispatch(ctrl, cm) {
				writeError(r.Context(), conn, "unknown type")
			}
		}
	}
}

func dispatch(ctrl *session.Controller, m types.ClientMessage) bool {
	switch m.Type {
	case "Join":
		ctrl.Join(m.Name)
	case "Buzz":
		ctrl.Buzz()
	case "Reset":
		ctrl.Reset()
	case "SetQuestion":
		ctrl.SetQuestion(m.Question)
	case "Kick":
		ctrl.Kick(m.PlayerID)
	case "Pause":
		ctrl.Pause()
	case "Resume":
		ctrl.Resume()
	default:
		return false
	}
	return true
}

func writeError(ctx context.Context, conn *websocket.Conn, msg string) {
	payload, _ := json.Marshal(types.ServerMessage{Type: "Error", Error: msg})
	_ = conn.Write(ctx, websocket.MessageText, payload)
}
