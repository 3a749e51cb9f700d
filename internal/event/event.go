package event

import "github.com/rocketscienceinc/xo-arena/internal/entity"

type Type string

// Outbound events.
const (
	PlayerJoined        Type = "player_joined"
	ReadyToStart        Type = "ready_to_start"
	CountdownStart      Type = "countdownStart"
	CountdownUpdate     Type = "countdownUpdate"
	GameStart           Type = "gameStart"
	GameStateUpdated    Type = "gameStateUpdated"
	GameOver            Type = "gameOver"
	ReconnectionSuccess Type = "reconnectionSuccess"
	ReconnectionFailed  Type = "reconnectionFailed"
	MoveError           Type = "moveError"
)

// Inbound actions.
const (
	ActionReadyToStart    = "readyToStart"
	ActionPlayerMove      = "playerMove"
	ActionReconnectToGame = "reconnectToGame"
)

// Event is a typed message addressed to a room or a single connection.
type Event struct {
	Type Type `json:"type"`
	Data any  `json:"data"`
}

func New(eventType Type, data any) Event {
	return Event{Type: eventType, Data: data}
}

type PlayerJoinedPayload struct {
	PlayerID      entity.ParticipantID `json:"playerId"`
	PlayerName    string               `json:"playerName"`
	PlayersJoined int                  `json:"playersJoined"`
}

type ReadyToStartPayload struct {
	GameID entity.GameID `json:"gameId"`
}

type CountdownStartPayload struct {
	Duration int `json:"duration"`
}

type CountdownUpdatePayload struct {
	TimeLeft int `json:"timeLeft"`
}

type GameStartPayload struct {
	RoomID        entity.RoomID        `json:"roomId"`
	GameID        entity.GameID        `json:"gameId"`
	Status        entity.Status        `json:"status"`
	PlayersJoined int                  `json:"playersJoined"`
	MaxPlayers    int                  `json:"maxPlayers"`
	Players       []entity.Seat        `json:"players"`
	CurrentTurn   entity.ParticipantID `json:"currentTurn"`
	Board         entity.Board         `json:"board"`
}

type GameStateUpdatedPayload struct {
	Board       entity.Board         `json:"board"`
	CurrentTurn entity.ParticipantID `json:"currentTurn"`
	Status      entity.Status        `json:"status"`
}

type GameOverPayload struct {
	Winner entity.ParticipantID `json:"winner"`
	IsDraw bool                 `json:"isDraw"`
}

type ReconnectionFailedPayload struct{}

type MoveErrorPayload struct {
	Message string `json:"message"`
}

type ReadyToStartRequest struct {
	GameID entity.GameID `json:"gameId"`
}

type PlayerMoveRequest struct {
	GameID   entity.GameID        `json:"gameId"`
	PlayerID entity.ParticipantID `json:"playerId"`
	Move     *entity.Cell         `json:"move"`
}

type ReconnectRequest struct {
	GameID   entity.GameID        `json:"gameId"`
	RoomID   entity.RoomID        `json:"roomId"`
	PlayerID entity.ParticipantID `json:"playerId"`
	Status   entity.Status        `json:"status,omitempty"`
}
