package game

type EventType string

const (
	EvtJoin        EventType = "JOIN"
	EvtBuzz        EventType = "BUZZ"
	EvtReset       EventType = "RESET"
	EvtSetQuestion EventType = "SET_QUESTION"
	EvtKick        EventType = "KICK"
	EvtPause       EventType = "PAUSE"
	EvtResume      EventType = "RESUME"
	EvtSyncState   EventType = "SYNC_STATE"
)

// Event is one mutation intent on a room. Events are immutable values;
// fields beyond Type and RoomID are populated per type:
//
//	JOIN         Player
//	BUZZ         PlayerID, Timestamp
//	SET_QUESTION Question
//	KICK         PlayerID
//	SYNC_STATE   State (full or partial snapshot)
//	RESET, PAUSE, RESUME carry no payload.
type Event struct {
	Type      EventType `json:"type"`
	RoomID    string    `json:"roomId"`
	Player    *Player   `json:"player,omitempty"`
	PlayerID  string    `json:"playerId,omitempty"`
	Timestamp int64     `json:"timestamp,omitempty"`
	Question  string    `json:"question,omitempty"`
	State     *Snapshot `json:"state,omitempty"`
}

// Snapshot carries room state inside a SYNC_STATE event. Nil pointer and nil
// slice fields mean "absent" so a partial snapshot merges field-by-field; a
// full snapshot (SnapshotOf) sets everything.
type Snapshot struct {
	RoomID          string     `json:"roomId,omitempty"`
	HostID          string     `json:"hostId,omitempty"`
	GameState       *GameState `json:"gameState,omitempty"`
	Players         []Player   `json:"players"` // no omitempty: an empty round must survive the wire as [], not vanish
	Buzzes          []Buzz     `json:"buzzes"`
	CurrentQuestion *string    `json:"currentQuestion,omitempty"`
}

func SnapshotOf(r Room) Snapshot {
	gs := r.GameState
	q := r.CurrentQuestion
	players := make([]Player, len(r.Players))
	copy(players, r.Players)
	buzzes := make([]Buzz, len(r.Buzzes))
	copy(buzzes, r.Buzzes)
	return Snapshot{
		RoomID:          r.RoomID,
		HostID:          r.HostID,
		GameState:       &gs,
		Players:         players,
		Buzzes:          buzzes,
		CurrentQuestion: &q,
	}
}
