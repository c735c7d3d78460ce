// Package game arbitrates one running match between the two connection
// handlers that share it. Both handlers drive the same Session; the Session
// owns the entity.Game and is the only place its state is read or written.
package game

import (
	"context"
	"sync"

	"github.com/tictacnet/tictactoe-server/internal/entity"
)

// UpdateKind classifies what a waiting participant observed.
type UpdateKind int

const (
	// OpponentMoved - the opponent played and it is now this side's turn.
	OpponentMoved UpdateKind = iota
	// Finished - the opponent's move ended the game.
	Finished
	// OpponentLeft - the opponent disconnected or quit mid-match.
	OpponentLeft
)

// Update describes a state change observed while waiting for the opponent.
// Row and Col are set for OpponentMoved.
type Update struct {
	Kind UpdateKind
	Row  int
	Col  int
}

// Outcome is a game result from one participant's perspective.
type Outcome int

const (
	OutcomeDraw Outcome = iota
	OutcomeWin
	OutcomeLoss
	OutcomeOpponentLeft
)

// Session serializes the two participants' access to a shared game. Waiting
// sides block on a broadcast channel that is re-armed on every state change,
// so there is no fixed-interval polling.
type Session struct {
	mu         sync.Mutex
	game       *entity.Game
	changed    chan struct{}
	firstMover string
}

func NewSession(game *entity.Game) *Session {
	firstMover := game.PlayerB.Username
	if game.IsTurn(game.PlayerA.Username) {
		firstMover = game.PlayerA.Username
	}

	return &Session{
		game:       game,
		changed:    make(chan struct{}),
		firstMover: firstMover,
	}
}

// MovesFirst reports whether the named participant owned the opening turn.
// The answer is fixed at session creation, so both handlers announce
// complementary start codes even if the opening move lands before the slower
// handler reaches its announcement.
func (that *Session) MovesFirst(username string) bool {
	return that.firstMover == username
}

// IsTurn reports whether it is the named participant's turn.
func (that *Session) IsTurn(username string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.game.IsTurn(username)
}

func (that *Session) Over() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.game.Over
}

// SubmitMove applies a move for the named participant and wakes the waiting
// side. It reports whether this move ended the game.
func (that *Session) SubmitMove(username string, row, col int) (bool, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	cell := row*3 + col
	if row < 0 || row > 2 || col < 0 || col > 2 {
		cell = -1 // out of range rows/cols must not alias a valid cell
	}

	if err := that.game.ApplyMove(username, cell); err != nil {
		return false, err
	}

	that.notify()

	return that.game.Over, nil
}

// Forfeit ends the game in favor of the named participant's opponent. It is
// a no-op on an already finished game, so a quit command and the deferred
// disconnect cleanup cannot both terminate the same match.
func (that *Session) Forfeit(username string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.game.Over {
		return
	}

	that.game.Winner = that.game.Opponent(username)
	that.game.HasDisconnect = true
	that.game.Over = true
	that.notify()
}

// AwaitUpdate blocks until the opponent moved, the game finished, or the
// opponent left, and reports which of those happened. The context unblocks
// the wait on server shutdown.
func (that *Session) AwaitUpdate(ctx context.Context, username string) (Update, error) {
	for {
		that.mu.Lock()

		switch {
		case that.game.HasDisconnect:
			that.mu.Unlock()
			return Update{Kind: OpponentLeft}, nil
		case that.game.Over:
			that.mu.Unlock()
			return Update{Kind: Finished}, nil
		case that.game.IsTurn(username):
			update := Update{
				Kind: OpponentMoved,
				Row:  that.game.LastMove / 3,
				Col:  that.game.LastMove % 3,
			}
			that.mu.Unlock()
			return update, nil
		}

		changed := that.changed
		that.mu.Unlock()

		select {
		case <-changed:
		case <-ctx.Done():
			return Update{}, ctx.Err()
		}
	}
}

// Result computes the outcome from the named participant's perspective.
// Never shared verbatim between sides; each handler calls it for its own
// player.
func (that *Session) Result(username string) Outcome {
	that.mu.Lock()
	defer that.mu.Unlock()

	switch {
	case that.game.Winner == nil:
		return OutcomeDraw
	case that.game.Winner.Username != username:
		return OutcomeLoss
	case that.game.HasDisconnect:
		return OutcomeOpponentLeft
	default:
		return OutcomeWin
	}
}

// notify wakes every goroutine blocked in AwaitUpdate. Callers must hold mu.
func (that *Session) notify() {
	close(that.changed)
	that.changed = make(chan struct{})
}
