package game

type GameState string

const (
	StateWaiting GameState = "WAITING" // buzzes accepted
	StateLocked  GameState = "LOCKED"  // a winner is fixed
	StatePaused  GameState = "PAUSED"  // host paused; board kept, buzzes suppressed
)

type Player struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	JoinedAt int64  `json:"joinedAt"`
	Score    int    `json:"score"`
}

type Buzz struct {
	PlayerID  string `json:"playerId"`
	Timestamp int64  `json:"timestamp"`
	// Delta is milliseconds behind the winner. The winner's delta is 0.
	Delta int64 `json:"delta"`
}

type Room struct {
	RoomID          string    `json:"roomId"`
	HostID          string    `json:"hostId"`
	GameState       GameState `json:"gameState"`
	Players         []Player  `json:"players"`
	Buzzes          []Buzz    `json:"buzzes"`
	CurrentQuestion string    `json:"currentQuestion,omitempty"`
}

func NewRoom(roomID, hostID string) Room {
	return Room{
		RoomID:    roomID,
		HostID:    hostID,
		GameState: StateWaiting,
		Players:   []Player{},
		Buzzes:    []Buzz{},
	}
}

func (r Room) HasPlayer(id string) bool {
	for _, p := range r.Players {
		if p.ID == id {
			return true
		}
	}
	return false
}

func (r Room) HasBuzz(playerID string) bool {
	for _, b := range r.Buzzes {
		if b.PlayerID == playerID {
			return true
		}
	}
	return false
}

// Winner returns the first accepted buzz of the current round.
func (r Room) Winner() (Buzz, bool) {
	if len(r.Buzzes) == 0 {
		return Buzz{}, false
	}
	return r.Buzzes[0], true
}

// clone deep-copies the slices so Apply never aliases its input.
func (r Room) clone() Room {
	out := r
	out.Players = make([]Player, len(r.Players))
	copy(out.Players, r.Players)
	out.Buzzes = make([]Buzz, len(r.Buzzes))
	copy(out.Buzzes, r.Buzzes)
	return out
}
