package game

// Apply is the pure transition function for a room. It never mutates its
// inputs and is safe to re-run on duplicate deliveries: duplicate JOINs and
// duplicate BUZZes for the same player are no-ops.
//
// Acceptance order, not the client-supplied timestamp, decides the winner:
// whichever BUZZ this function observes first while the room is WAITING locks
// the round. Timestamps only feed the display delta (time behind the winner).
func Apply(r Room, ev Event) Room {
	// Events are routed by room id before they get here, but the stream may
	// be shared, so filter again rather than trust the caller.
	if ev.RoomID != "" && ev.RoomID != r.RoomID {
		return r
	}

	switch ev.Type {
	case EvtJoin:
		if ev.Player == nil || r.HasPlayer(ev.Player.ID) {
			return r
		}
		next := r.clone()
		next.Players = append(next.Players, *ev.Player)
		return next

	case EvtBuzz:
		if r.GameState != StateWaiting {
			return r
		}
		if ev.PlayerID == "" || r.HasBuzz(ev.PlayerID) {
			return r
		}
		next := r.clone()
		delta := int64(0)
		if first, ok := next.Winner(); ok {
			delta = ev.Timestamp - first.Timestamp
		}
		next.Buzzes = append(next.Buzzes, Buzz{
			PlayerID:  ev.PlayerID,
			Timestamp: ev.Timestamp,
			Delta:     delta,
		})
		if len(next.Buzzes) == 1 {
			next.GameState = StateLocked
		}
		return next

	case EvtReset:
		next := r.clone()
		next.Buzzes = []Buzz{}
		next.GameState = StateWaiting
		return next

	case EvtSetQuestion:
		// A new question always reopens buzzing in the same transition.
		next := r.clone()
		next.CurrentQuestion = ev.Question
		next.Buzzes = []Buzz{}
		next.GameState = StateWaiting
		return next

	case EvtKick:
		if !r.HasPlayer(ev.PlayerID) {
			return r
		}
		next := r.clone()
		players := next.Players[:0]
		for _, p := range next.Players {
			if p.ID != ev.PlayerID {
				players = append(players, p)
			}
		}
		next.Players = players
		// The kicked player's buzz stays on the board until the next reset.
		return next

	case EvtPause:
		if r.GameState != StateWaiting {
			return r
		}
		next := r.clone()
		next.GameState = StatePaused
		return next

	case EvtResume:
		if r.GameState != StatePaused {
			return r
		}
		next := r.clone()
		next.GameState = StateWaiting
		return next

	case EvtSyncState:
		if ev.State == nil {
			return r
		}
		return mergeSnapshot(r, *ev.State)

	default:
		return r
	}
}

// mergeSnapshot overwrites local state with whatever the snapshot carries.
// A replica that is not the source of truth adopts the authority's arrays
// wholesale; it never tries to reconcile conflicting contents itself.
func mergeSnapshot(r Room, s Snapshot) Room {
	next := r.clone()
	if s.HostID != "" {
		next.HostID = s.HostID
	}
	if s.GameState != nil {
		next.GameState = *s.GameState
	}
	if s.Players != nil {
		next.Players = make([]Player, len(s.Players))
		copy(next.Players, s.Players)
	}
	if s.Buzzes != nil {
		next.Buzzes = make([]Buzz, len(s.Buzzes))
		copy(next.Buzzes, s.Buzzes)
	}
	if s.CurrentQuestion != nil {
		next.CurrentQuestion = *s.CurrentQuestion
	}
	return next
}
