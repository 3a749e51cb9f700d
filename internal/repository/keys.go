package repository

import "github.com/rocketscienceinc/xo-arena/internal/entity"

const (
	roomKeyPrefix   = "room:"
	gameKeyPrefix   = "game:"
	playerKeyPrefix = "player:"

	// waitingRoomsKey is a sorted set of waiting room ids scored by creation time.
	waitingRoomsKey = "rooms:waiting"
)

func roomKey(id entity.RoomID) string {
	return roomKeyPrefix + id.String()
}

func gameKey(id entity.GameID) string {
	return gameKeyPrefix + id.String()
}

func playerKey(id entity.ParticipantID) string {
	return playerKeyPrefix + id.String()
}
