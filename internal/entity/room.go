package entity

import (
	"slices"
	"time"
)

const MaxPlayers = 2

type RoomStatus string

const (
	RoomWaiting RoomStatus = "waiting"
	RoomFull    RoomStatus = "full"
	RoomInGame  RoomStatus = "in_game"
)

type Room struct {
	ID         RoomID          `json:"id"`
	Name       string          `json:"name"`
	Players    []ParticipantID `json:"players"`
	GameID     GameID          `json:"game_id,omitempty"`
	Status     RoomStatus      `json:"status"`
	MaxPlayers int             `json:"max_players"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func NewRoom(id RoomID, now time.Time) *Room {
	return &Room{
		ID:         id,
		Name:       "Room-" + id.String(),
		Status:     RoomWaiting,
		MaxPlayers: MaxPlayers,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (that *Room) HasPlayer(id ParticipantID) bool {
	return slices.Contains(that.Players, id)
}

// AddPlayer appends the participant unless already present and reports whether it was added.
func (that *Room) AddPlayer(id ParticipantID) bool {
	if that.HasPlayer(id) || that.IsFull() {
		return false
	}

	that.Players = append(that.Players, id)
	if len(that.Players) >= that.MaxPlayers {
		that.Status = RoomFull
	}

	return true
}

func (that *Room) IsFull() bool {
	return len(that.Players) >= that.MaxPlayers
}

func (that *Room) IsWaiting() bool {
	return that.Status == RoomWaiting
}
