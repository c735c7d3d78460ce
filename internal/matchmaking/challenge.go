package matchmaking

import (
	"sync"

	"github.com/tictacnet/tictactoe-server/internal/entity"
	"github.com/tictacnet/tictactoe-server/internal/game"
)

const (
	challengePending  = "pending"
	challengeAccepted = "accepted"
	challengeRefused  = "refused"
)

// Challenge is an unresolved match request from a challenger to a target.
// The challenger's goroutine blocks on Resolved until the target accepts or
// refuses; the status transition is monotonic and happens exactly once.
type Challenge struct {
	Challenger *entity.Player

	mu       sync.Mutex
	status   string
	session  *game.Session
	resolved chan struct{}
}

func newChallenge(challenger *entity.Player) *Challenge {
	return &Challenge{
		Challenger: challenger,
		status:     challengePending,
		resolved:   make(chan struct{}),
	}
}

func (that *Challenge) Status() string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.status
}

// Session returns the match spawned by an accepted challenge, nil otherwise.
func (that *Challenge) Session() *game.Session {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.session
}

// Resolved is closed once the challenge leaves the pending state.
func (that *Challenge) Resolved() <-chan struct{} {
	return that.resolved
}

func (that *Challenge) accept(session *game.Session) bool {
	return that.resolve(challengeAccepted, session)
}

func (that *Challenge) refuse() bool {
	return that.resolve(challengeRefused, nil)
}

func (that *Challenge) resolve(status string, session *game.Session) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.status != challengePending {
		return false
	}

	that.status = status
	that.session = session
	close(that.resolved)

	return true
}
