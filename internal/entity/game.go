package entity

import (
	"fmt"
	"slices"
	"time"

	"github.com/rocketscienceinc/xo-arena/internal/apperror"
)

type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusReady      Status = "ready"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

type Symbol string

const (
	EmptyCell Symbol = ""
	SymbolX   Symbol = "X"
	SymbolO   Symbol = "O"
)

// Draw is stored in Game.Winner when the board fills up without a line.
const Draw ParticipantID = "draw"

const (
	BoardSize = 3
	CellCount = BoardSize * BoardSize
)

// symbols are dealt by seat order: first player is X, second is O.
var symbols = [MaxPlayers]Symbol{SymbolX, SymbolO}

type Board [BoardSize][BoardSize]Symbol

type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// WinLines lists every row, column and diagonal of the board.
var WinLines = [][BoardSize]Cell{
	{{0, 0}, {0, 1}, {0, 2}},
	{{1, 0}, {1, 1}, {1, 2}},
	{{2, 0}, {2, 1}, {2, 2}},
	{{0, 0}, {1, 0}, {2, 0}},
	{{0, 1}, {1, 1}, {2, 1}},
	{{0, 2}, {1, 2}, {2, 2}},
	{{0, 0}, {1, 1}, {2, 2}},
	{{0, 2}, {1, 1}, {2, 0}},
}

type Move struct {
	Seq    int           `json:"seq"`
	Player ParticipantID `json:"player"`
	Row    int           `json:"row"`
	Col    int           `json:"col"`
	Symbol Symbol        `json:"symbol"`
}

type Game struct {
	ID          GameID                   `json:"id"`
	RoomID      RoomID                   `json:"room_id"`
	Players     []ParticipantID          `json:"players"`
	Symbols     map[ParticipantID]Symbol `json:"symbols,omitempty"`
	Board       Board                    `json:"board"`
	CurrentTurn ParticipantID            `json:"current_turn,omitempty"`
	Status      Status                   `json:"status"`
	Winner      ParticipantID            `json:"winner,omitempty"`
	Moves       []Move                   `json:"moves,omitempty"`
	ReadyAcks   []ParticipantID          `json:"ready_acks,omitempty"`
	CreatedAt   time.Time                `json:"created_at"`
	UpdatedAt   time.Time                `json:"updated_at"`
}

func NewGame(id GameID, roomID RoomID, players []ParticipantID, now time.Time) *Game {
	game := &Game{
		ID:        id,
		RoomID:    roomID,
		Players:   slices.Clone(players),
		Status:    StatusWaiting,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if len(game.Players) > 0 {
		game.CurrentTurn = game.Players[0]
	}

	return game
}

func (that *Game) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that *Game) IsReady() bool {
	return that.Status == StatusReady
}

func (that *Game) IsInProgress() bool {
	return that.Status == StatusInProgress
}

func (that *Game) IsCompleted() bool {
	return that.Status == StatusCompleted
}

func (that *Game) IsDraw() bool {
	return that.IsCompleted() && that.Winner == Draw
}

func (that *Game) HasPlayer(id ParticipantID) bool {
	return slices.Contains(that.Players, id)
}

// SymbolOf returns the dealt symbol, falling back to seat order before the deal.
func (that *Game) SymbolOf(id ParticipantID) Symbol {
	if symbol, ok := that.Symbols[id]; ok {
		return symbol
	}

	idx := slices.Index(that.Players, id)
	if idx < 0 || idx >= len(symbols) {
		return EmptyCell
	}

	return symbols[idx]
}

// Seats builds the roster in seat order, taking display names from names.
func (that *Game) Seats(names map[ParticipantID]string) []Seat {
	seats := make([]Seat, 0, len(that.Players))
	for _, id := range that.Players {
		seats = append(seats, Seat{
			ID:     id,
			Name:   names[id],
			Symbol: that.SymbolOf(id),
		})
	}

	return seats
}

// RefreshPlayers replaces the roster while the game has not been dealt yet.
func (that *Game) RefreshPlayers(players []ParticipantID) error {
	if !that.IsWaiting() {
		return fmt.Errorf("%w: cannot change players of a %s game", apperror.ErrInvalidState, that.Status)
	}

	that.Players = slices.Clone(players)
	if len(that.Players) > 0 {
		that.CurrentTurn = that.Players[0]
	}

	return nil
}

// AcknowledgeReady records a ready signal and reports whether it was new.
func (that *Game) AcknowledgeReady(id ParticipantID) bool {
	if !that.HasPlayer(id) || slices.Contains(that.ReadyAcks, id) {
		return false
	}

	that.ReadyAcks = append(that.ReadyAcks, id)

	return true
}

// CanGetReady reports whether the waiting -> ready guard holds.
func (that *Game) CanGetReady() bool {
	if !that.IsWaiting() || len(that.Players) != MaxPlayers {
		return false
	}

	for _, id := range that.Players {
		if !slices.Contains(that.ReadyAcks, id) {
			return false
		}
	}

	return true
}

func (that *Game) MarkReady() error {
	if !that.CanGetReady() {
		return fmt.Errorf("%w: game %s is %s with %d players", apperror.ErrInvalidState, that.ID, that.Status, len(that.Players))
	}

	that.Status = StatusReady

	return nil
}

// Start deals symbols by seat order and hands the first turn to the first player.
func (that *Game) Start() error {
	if !that.IsReady() {
		return fmt.Errorf("%w: game %s is %s", apperror.ErrInvalidState, that.ID, that.Status)
	}

	that.Symbols = make(map[ParticipantID]Symbol, len(that.Players))
	for idx, id := range that.Players {
		that.Symbols[id] = symbols[idx]
	}

	that.CurrentTurn = that.Players[0]
	that.Status = StatusInProgress

	return nil
}

// ApplyMove validates and applies a move, then evaluates termination.
func (that *Game) ApplyMove(player ParticipantID, cell Cell) error {
	if !that.IsInProgress() {
		return fmt.Errorf("%w: game %s is %s", apperror.ErrInvalidState, that.ID, that.Status)
	}

	if that.CurrentTurn != player {
		return apperror.ErrTurnViolation
	}

	if cell.Row < 0 || cell.Row >= BoardSize || cell.Col < 0 || cell.Col >= BoardSize {
		return fmt.Errorf("%w: row %d col %d", apperror.ErrInvalidCell, cell.Row, cell.Col)
	}

	if that.Board[cell.Row][cell.Col] != EmptyCell {
		return apperror.ErrCellOccupied
	}

	symbol := that.SymbolOf(player)
	that.Board[cell.Row][cell.Col] = symbol
	that.Moves = append(that.Moves, Move{
		Seq:    len(that.Moves) + 1,
		Player: player,
		Row:    cell.Row,
		Col:    cell.Col,
		Symbol: symbol,
	})

	switch {
	case CheckWinner(that.Board) != EmptyCell:
		that.Status = StatusCompleted
		that.Winner = player
	case len(that.Moves) == CellCount:
		that.Status = StatusCompleted
		that.Winner = Draw
	default:
		that.CurrentTurn = that.nextPlayer(player)
	}

	return nil
}

func (that *Game) nextPlayer(current ParticipantID) ParticipantID {
	idx := slices.Index(that.Players, current)

	return that.Players[(idx+1)%len(that.Players)]
}

// CheckWinner returns the symbol holding a complete line, or EmptyCell.
func CheckWinner(board Board) Symbol {
	for _, line := range WinLines {
		a := board[line[0].Row][line[0].Col]
		b := board[line[1].Row][line[1].Col]
		c := board[line[2].Row][line[2].Col]

		if a != EmptyCell && a == b && b == c {
			return a
		}
	}

	return EmptyCell
}
