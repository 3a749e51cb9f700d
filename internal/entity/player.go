package entity

// ParticipantID identifies an authenticated participant.
type ParticipantID string

// RoomID identifies a matchmaking room.
type RoomID string

// GameID identifies a game record.
type GameID string

func (that ParticipantID) String() string { return string(that) }

func (that RoomID) String() string { return string(that) }

func (that GameID) String() string { return string(that) }

// Player is the identity record owned by the identity gateway. The core only reads it.
type Player struct {
	ID   ParticipantID `json:"id"`
	Name string        `json:"name"`
}

// Seat is a player as seen from inside one game.
type Seat struct {
	ID     ParticipantID `json:"id"`
	Name   string        `json:"name"`
	Symbol Symbol        `json:"symbol"`
}
