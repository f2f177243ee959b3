package types

import "github.com/buzzdash/buzzdash-backend/internal/game"

// ClientMessage is what a participant sends over the websocket.
//
//	Join:        name
//	Buzz:        {}
//	Reset:       {}
//	SetQuestion: question
//	Kick:        player_id
//	Pause:       {}
//	Resume:      {}
type ClientMessage struct {
	Type     string `json:"type"`
	Name     string `json:"name,omitempty"`
	PlayerID string `json:"player_id,omitempty"`
	Question string `json:"question,omitempty"`
}

// ServerMessage is what the server pushes back.
type ServerMessage struct {
	Type    string     `json:"type"` // "StateSnapshot" | "Error"
	Version int        `json:"version,omitempty"`
	State   *game.Room `json:"state,omitempty"`
	Error   string     `json:"error,omitempty"`
}
