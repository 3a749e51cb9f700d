package entity

// Snapshot is the full point-in-time view of a game sent to a single participant.
type Snapshot struct {
	RoomID      RoomID        `json:"roomId"`
	GameID      GameID        `json:"gameId"`
	Status      Status        `json:"status"`
	Players     []Seat        `json:"players"`
	Board       Board         `json:"board"`
	CurrentTurn ParticipantID `json:"currentTurn,omitempty"`
	Winner      ParticipantID `json:"winner,omitempty"`
	IsDraw      bool          `json:"isDraw"`
}

func (that *Game) Snapshot(names map[ParticipantID]string) *Snapshot {
	return &Snapshot{
		RoomID:      that.RoomID,
		GameID:      that.ID,
		Status:      that.Status,
		Players:     that.Seats(names),
		Board:       that.Board,
		CurrentTurn: that.CurrentTurn,
		Winner:      that.Winner,
		IsDraw:      that.IsDraw(),
	}
}
