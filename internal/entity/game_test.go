package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tictacnet/tictactoe-server/internal/apperror"
)

// newTestGame returns a game where alice (player A) moves first.
func newTestGame() *Game {
	game := NewGame(NewPlayer("alice"), NewPlayer("bob"))
	game.ATurn = true

	return game
}

func TestGame_ApplyMove(t *testing.T) {
	t.Run("Valid move flips the turn", func(t *testing.T) {
		// Given: a fresh game where alice moves first
		game := newTestGame()

		// When: alice plays an empty cell
		err := game.ApplyMove("alice", 4)

		// Then: the mark is written, the move recorded and the turn flipped
		require.NoError(t, err)
		assert.Equal(t, MarkA, game.Board[4])
		assert.Equal(t, 4, game.LastMove)
		assert.True(t, game.IsTurn("bob"))
	})

	t.Run("Same player can never move twice in a row", func(t *testing.T) {
		// Given: alice has just moved
		game := newTestGame()
		require.NoError(t, game.ApplyMove("alice", 0))

		// When: alice tries to move again
		err := game.ApplyMove("alice", 1)

		// Then: the move is rejected and the board unchanged
		assert.ErrorIs(t, err, apperror.ErrNotYourTurn)
		assert.Equal(t, EmptyCell, game.Board[1])
		assert.True(t, game.IsTurn("bob"))
	})

	t.Run("Occupied cell is rejected without advancing the turn", func(t *testing.T) {
		// Given: alice played cell 0
		game := newTestGame()
		require.NoError(t, game.ApplyMove("alice", 0))

		// When: bob plays the same cell
		err := game.ApplyMove("bob", 0)

		// Then: the move is rejected and it is still bob's turn
		assert.ErrorIs(t, err, apperror.ErrCellOccupied)
		assert.Equal(t, MarkA, game.Board[0])
		assert.True(t, game.IsTurn("bob"))
	})

	t.Run("Out of range cell is rejected", func(t *testing.T) {
		// Given: a fresh game
		game := newTestGame()

		// When: alice plays outside the board
		errLow := game.ApplyMove("alice", -1)
		errHigh := game.ApplyMove("alice", 9)

		// Then: both moves are rejected
		assert.ErrorIs(t, errLow, apperror.ErrInvalidCell)
		assert.ErrorIs(t, errHigh, apperror.ErrInvalidCell)
	})

	t.Run("No move is accepted on a finished game", func(t *testing.T) {
		// Given: a game alice has already won
		game := newTestGame()
		playOut(t, game, []string{"alice", "bob", "alice", "bob", "alice"}, []int{0, 3, 1, 4, 2})
		require.True(t, game.Over)

		// When: bob plays after the end
		err := game.ApplyMove("bob", 5)

		// Then: the move is rejected
		assert.ErrorIs(t, err, apperror.ErrGameFinished)
	})
}

func TestGame_WinDetection(t *testing.T) {
	t.Run("A full row wins for its owner", func(t *testing.T) {
		// Given: a fresh game
		game := newTestGame()

		// When: alice completes the top row
		playOut(t, game, []string{"alice", "bob", "alice", "bob", "alice"}, []int{0, 3, 1, 4, 2})

		// Then: alice is the winner and the game is over
		require.True(t, game.Over)
		require.NotNil(t, game.Winner)
		assert.Equal(t, "alice", game.Winner.Username)
	})

	t.Run("A full column wins for its owner", func(t *testing.T) {
		// Given: a fresh game
		game := newTestGame()

		// When: alice completes the left column
		playOut(t, game, []string{"alice", "bob", "alice", "bob", "alice"}, []int{0, 1, 3, 2, 6})

		// Then: alice is the winner
		require.True(t, game.Over)
		require.NotNil(t, game.Winner)
		assert.Equal(t, "alice", game.Winner.Username)
	})

	t.Run("A diagonal wins for its owner", func(t *testing.T) {
		// Given: a fresh game
		game := newTestGame()

		// When: alice completes the main diagonal
		playOut(t, game, []string{"alice", "bob", "alice", "bob", "alice"}, []int{0, 1, 4, 2, 8})

		// Then: alice is the winner
		require.True(t, game.Over)
		require.NotNil(t, game.Winner)
		assert.Equal(t, "alice", game.Winner.Username)
	})

	t.Run("Second mover can win", func(t *testing.T) {
		// Given: a fresh game
		game := newTestGame()

		// When: bob completes the middle row while alice scatters
		playOut(t, game, []string{"alice", "bob", "alice", "bob", "alice", "bob"}, []int{0, 3, 1, 4, 8, 5})

		// Then: bob is the winner
		require.True(t, game.Over)
		require.NotNil(t, game.Winner)
		assert.Equal(t, "bob", game.Winner.Username)
	})

	t.Run("Full board without a line is a draw", func(t *testing.T) {
		// Given: a fresh game
		game := newTestGame()

		// When: the board fills with no three in a line
		// X O X
		// X O O
		// O X X
		playOut(t, game,
			[]string{"alice", "bob", "alice", "bob", "alice", "bob", "alice", "bob", "alice"},
			[]int{0, 1, 2, 4, 3, 5, 7, 6, 8})

		// Then: the game is over with no winner
		assert.True(t, game.Over)
		assert.Nil(t, game.Winner)
	})
}

// playOut applies a scripted alternating sequence of moves.
func playOut(t *testing.T, game *Game, players []string, cells []int) {
	t.Helper()

	for i := range players {
		require.NoError(t, game.ApplyMove(players[i], cells[i]))
	}
}
