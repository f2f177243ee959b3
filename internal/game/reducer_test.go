package game

import (
	"reflect"
	"testing"
)

func roomWith(players []Player, buzzes []Buzz, gs GameState) Room {
	r := NewRoom("ROOM42", "host-1")
	r.Players = players
	r.Buzzes = buzzes
	r.GameState = gs
	return r
}

func join(roomID string, p Player) Event {
	return Event{Type: EvtJoin, RoomID: roomID, Player: &p}
}

func buzz(roomID, playerID string, ts int64) Event {
	return Event{Type: EvtBuzz, RoomID: roomID, PlayerID: playerID, Timestamp: ts}
}

func TestJoinIsIdempotent(t *testing.T) {
	r := NewRoom("ROOM42", "host-1")
	alice := Player{ID: "p1", Name: "Alice", JoinedAt: 10}

	once := Apply(r, join("ROOM42", alice))
	twice := Apply(once, join("ROOM42", alice))

	if len(once.Players) != 1 {
		t.Fatalf("after one join: want 1 player, got %d", len(once.Players))
	}
	if !reflect.DeepEqual(once.Players, twice.Players) {
		t.Fatalf("duplicate join changed players: %+v vs %+v", once.Players, twice.Players)
	}
}

func TestBuzzDedupSamePlayer(t *testing.T) {
	r := roomWith([]Player{{ID: "p1", Name: "Alice"}}, []Buzz{}, StateWaiting)

	r = Apply(r, buzz("ROOM42", "p1", 100))
	r = Apply(r, buzz("ROOM42", "p1", 100)) // duplicate delivery

	if len(r.Buzzes) != 1 {
		t.Fatalf("want exactly one buzz for p1, got %d", len(r.Buzzes))
	}
}

func TestFirstAcceptedBuzzWinsAndLocks(t *testing.T) {
	cases := []struct {
		name       string
		events     []Event
		wantWinner string
		wantBuzzes int
	}{
		{
			name: "single buzz locks",
			events: []Event{
				buzz("ROOM42", "p1", 100),
			},
			wantWinner: "p1",
			wantBuzzes: 1,
		},
		{
			name: "arrival order beats timestamp order",
			events: []Event{
				buzz("ROOM42", "p2", 100),
				buzz("ROOM42", "p1", 90), // earlier clock, later arrival
			},
			wantWinner: "p2",
			wantBuzzes: 2,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := roomWith([]Player{{ID: "p1"}, {ID: "p2"}}, []Buzz{}, StateWaiting)
			for _, ev := range tc.events {
				r = Apply(r, ev)
			}
			if r.GameState != StateLocked {
				t.Fatalf("want LOCKED, got %s", r.GameState)
			}
			if len(r.Buzzes) != tc.wantBuzzes {
				t.Fatalf("want %d buzzes, got %d", tc.wantBuzzes, len(r.Buzzes))
			}
			winner, ok := r.Winner()
			if !ok || winner.PlayerID != tc.wantWinner {
				t.Fatalf("want winner %s, got %+v", tc.wantWinner, winner)
			}
			if winner.Delta != 0 {
				t.Fatalf("winner delta must be 0, got %d", winner.Delta)
			}
		})
	}
}

func TestScenarioA_DeltaRelativeToWinner(t *testing.T) {
	r := NewRoom("ROOM42", "host-1")
	r = Apply(r, join("ROOM42", Player{ID: "alice", Name: "Alice", JoinedAt: 1}))
	r = Apply(r, join("ROOM42", Player{ID: "bob", Name: "Bob", JoinedAt: 2}))

	r = Apply(r, buzz("ROOM42", "bob", 100))
	r = Apply(r, buzz("ROOM42", "alice", 90))

	want := []Buzz{
		{PlayerID: "bob", Timestamp: 100, Delta: 0},
		{PlayerID: "alice", Timestamp: 90, Delta: -10},
	}
	if !reflect.DeepEqual(r.Buzzes, want) {
		t.Fatalf("buzzes: want %+v, got %+v", want, r.Buzzes)
	}
	if r.GameState != StateLocked {
		t.Fatalf("want LOCKED, got %s", r.GameState)
	}
}

func TestScenarioB_ResetKeepsPlayers(t *testing.T) {
	r := NewRoom("ROOM42", "host-1")
	r = Apply(r, join("ROOM42", Player{ID: "alice", Name: "Alice"}))
	r = Apply(r, join("ROOM42", Player{ID: "bob", Name: "Bob"}))
	r = Apply(r, buzz("ROOM42", "bob", 100))

	r = Apply(r, Event{Type: EvtReset, RoomID: "ROOM42"})

	if len(r.Buzzes) != 0 {
		t.Fatalf("reset must clear buzzes, got %d", len(r.Buzzes))
	}
	if r.GameState != StateWaiting {
		t.Fatalf("reset must reopen buzzing, got %s", r.GameState)
	}
	if len(r.Players) != 2 {
		t.Fatalf("reset must keep players, got %d", len(r.Players))
	}
}

func TestScenarioC_SetQuestionClearsAtomically(t *testing.T) {
	r := roomWith([]Player{{ID: "p1"}}, []Buzz{{PlayerID: "p1", Timestamp: 50}}, StateLocked)

	r = Apply(r, Event{Type: EvtSetQuestion, RoomID: "ROOM42", Question: "2+2?"})

	if r.CurrentQuestion != "2+2?" {
		t.Fatalf("want question set, got %q", r.CurrentQuestion)
	}
	if len(r.Buzzes) != 0 || r.GameState != StateWaiting {
		t.Fatalf("set-question must clear and reopen in one state: buzzes=%d state=%s",
			len(r.Buzzes), r.GameState)
	}
}

func TestScenarioD_BuzzBeforeJoin(t *testing.T) {
	r := NewRoom("ROOM42", "host-1")

	r = Apply(r, buzz("ROOM42", "carol", 200))

	if len(r.Buzzes) != 1 || r.Buzzes[0].PlayerID != "carol" || r.Buzzes[0].Delta != 0 {
		t.Fatalf("buzz from unknown player must be recorded: %+v", r.Buzzes)
	}
	if r.GameState != StateLocked {
		t.Fatalf("want LOCKED, got %s", r.GameState)
	}
	if r.HasPlayer("carol") {
		t.Fatalf("players must not contain carol yet")
	}

	// The join catches up later without duplicating anything.
	r = Apply(r, join("ROOM42", Player{ID: "carol", Name: "Carol"}))
	if !r.HasPlayer("carol") || len(r.Buzzes) != 1 {
		t.Fatalf("join after buzz: players=%+v buzzes=%+v", r.Players, r.Buzzes)
	}
}

func TestLockGating(t *testing.T) {
	r := roomWith([]Player{{ID: "p1"}, {ID: "p2"}}, []Buzz{}, StateWaiting)
	r = Apply(r, buzz("ROOM42", "p1", 100))
	locked := r

	r = Apply(r, Event{Type: EvtBuzz, RoomID: "ROOM42", PlayerID: "p2", Timestamp: 110})

	if !reflect.DeepEqual(r, locked) {
		t.Fatalf("buzz after lock must be a no-op: %+v", r)
	}
}

func TestPauseSuppressesBuzzesButKeepsBoard(t *testing.T) {
	r := roomWith([]Player{{ID: "p1"}}, []Buzz{}, StateWaiting)

	r = Apply(r, Event{Type: EvtPause, RoomID: "ROOM42"})
	if r.GameState != StatePaused {
		t.Fatalf("want PAUSED, got %s", r.GameState)
	}

	r = Apply(r, buzz("ROOM42", "p1", 100))
	if len(r.Buzzes) != 0 {
		t.Fatalf("paused room must ignore buzzes, got %+v", r.Buzzes)
	}

	r = Apply(r, Event{Type: EvtResume, RoomID: "ROOM42"})
	if r.GameState != StateWaiting {
		t.Fatalf("resume must reopen buzzing, got %s", r.GameState)
	}
}

func TestKickRemovesPlayerNotBuzz(t *testing.T) {
	r := roomWith(
		[]Player{{ID: "p1", Name: "Alice"}, {ID: "p2", Name: "Bob"}},
		[]Buzz{},
		StateWaiting,
	)
	r = Apply(r, buzz("ROOM42", "p2", 100))

	r = Apply(r, Event{Type: EvtKick, RoomID: "ROOM42", PlayerID: "p2"})

	if r.HasPlayer("p2") {
		t.Fatalf("kick must remove the player")
	}
	if !r.HasBuzz("p2") {
		t.Fatalf("kick must not strike the round's buzz")
	}
}

func TestEventsForOtherRoomsAreIgnored(t *testing.T) {
	r := NewRoom("ROOM42", "host-1")

	r2 := Apply(r, buzz("OTHER", "p1", 100))

	if !reflect.DeepEqual(r, r2) {
		t.Fatalf("event for another room must be a no-op")
	}
}

func TestSyncStateAdoptsSnapshotWholesale(t *testing.T) {
	local := roomWith([]Player{{ID: "stale"}}, []Buzz{{PlayerID: "stale", Timestamp: 1}}, StateLocked)

	authority := NewRoom("ROOM42", "host-1")
	authority.Players = []Player{{ID: "p1", Name: "Alice"}}
	snap := SnapshotOf(authority)

	got := Apply(local, Event{Type: EvtSyncState, RoomID: "ROOM42", State: &snap})

	if got.GameState != StateWaiting || len(got.Buzzes) != 0 {
		t.Fatalf("snapshot must overwrite derived state: %+v", got)
	}
	if len(got.Players) != 1 || got.Players[0].ID != "p1" {
		t.Fatalf("snapshot must replace players array: %+v", got.Players)
	}
}

func TestSyncStatePartialMerge(t *testing.T) {
	local := roomWith([]Player{{ID: "p1", Name: "Alice"}}, []Buzz{}, StateWaiting)

	q := "capital of France?"
	got := Apply(local, Event{
		Type:   EvtSyncState,
		RoomID: "ROOM42",
		State:  &Snapshot{CurrentQuestion: &q},
	})

	if got.CurrentQuestion != q {
		t.Fatalf("partial snapshot must set the question")
	}
	if len(got.Players) != 1 {
		t.Fatalf("absent fields must stay untouched: %+v", got.Players)
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	r := roomWith([]Player{{ID: "p1"}}, []Buzz{}, StateWaiting)
	before := r.clone()

	_ = Apply(r, buzz("ROOM42", "p2", 100))
	_ = Apply(r, join("ROOM42", Player{ID: "p3"}))

	if !reflect.DeepEqual(r, before) {
		t.Fatalf("Apply mutated its input: %+v", r)
	}
}
