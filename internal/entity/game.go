package entity

import (
	"fmt"
	"math/rand"

	"github.com/tictacnet/tictactoe-server/internal/apperror"
)

const (
	MarkA = "X"
	MarkB = "O"

	EmptyCell = ""

	// NoMove is the LastMove value before any move has been applied.
	NoMove = -1
)

var WinCombos = [][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Game holds the board and turn state for one match between two players.
// PlayerA is the side that accepted the challenge and always plays MarkA.
// The struct itself is not synchronized; a game.Session owns the instance
// and serializes all access from the two connection handlers.
type Game struct {
	PlayerA *Player
	PlayerB *Player

	Board    [9]string
	ATurn    bool
	Over     bool
	Winner   *Player // nil while running and on a draw
	LastMove int

	// HasDisconnect marks a game terminated because one side left; the
	// remaining side is credited with the win.
	HasDisconnect bool
}

// NewGame creates a game between two players with a randomly chosen
// starting side.
func NewGame(playerA, playerB *Player) *Game {
	return &Game{
		PlayerA:  playerA,
		PlayerB:  playerB,
		ATurn:    rand.Intn(2) == 0, //nolint:gosec // it's ok
		LastMove: NoMove,
	}
}

func (that *Game) IsParticipant(username string) bool {
	return that.PlayerA.Username == username || that.PlayerB.Username == username
}

func (that *Game) IsTurn(username string) bool {
	return (that.PlayerA.Username == username) == that.ATurn
}

func (that *Game) Opponent(username string) *Player {
	if that.PlayerA.Username == username {
		return that.PlayerB
	}
	return that.PlayerA
}

// ApplyMove validates and applies a move to the given cell on behalf of the
// named player, then flips the turn. Once the game is over no further move
// is accepted.
func (that *Game) ApplyMove(username string, cell int) error {
	if that.Over {
		return apperror.ErrGameFinished
	}

	if cell < 0 || cell >= len(that.Board) {
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	if !that.IsTurn(username) {
		return apperror.ErrNotYourTurn
	}

	if that.Board[cell] != EmptyCell {
		return apperror.ErrCellOccupied
	}

	mark := MarkB
	if that.ATurn {
		mark = MarkA
	}

	that.Board[cell] = mark
	that.LastMove = cell
	that.updateState()
	that.ATurn = !that.ATurn

	return nil
}

// updateState checks the board for a full line or a draw and sets
// Over/Winner accordingly.
func (that *Game) updateState() {
	for _, combo := range WinCombos {
		a, b, c := that.Board[combo[0]], that.Board[combo[1]], that.Board[combo[2]]
		if a == EmptyCell || a != b || b != c {
			continue
		}

		that.Over = true
		if a == MarkA {
			that.Winner = that.PlayerA
		} else {
			that.Winner = that.PlayerB
		}

		return
	}

	for _, cell := range that.Board {
		if cell == EmptyCell {
			return
		}
	}

	// full board, no line: draw
	that.Over = true
}
