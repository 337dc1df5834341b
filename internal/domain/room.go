package domain

type RoomID string

// Room is the persisted shape of one live Q&A session. EndedAt stays zero
// while the room is open; ending a room never deletes its questions.
type Room struct {
	ID      RoomID
	Title   string
	EndedAt int64 // unix milliseconds
}

func (r Room) Ended() bool { return r.EndedAt != 0 }
