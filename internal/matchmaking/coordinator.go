// Package matchmaking coordinates challenges between independently scheduled
// connection handlers. It is the only synchronization point between a
// challenger's goroutine and its target's goroutine before a match starts.
package matchmaking

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tictacnet/tictactoe-server/internal/apperror"
	"github.com/tictacnet/tictactoe-server/internal/entity"
	"github.com/tictacnet/tictactoe-server/internal/game"
)

type playerRegistry interface {
	Find(username string) (*entity.Player, bool)
}

type Coordinator struct {
	logger   *slog.Logger
	registry playerRegistry

	mu      sync.Mutex
	pending map[string][]*Challenge // target username -> ordered incoming challenges
}

func NewCoordinator(logger *slog.Logger, registry playerRegistry) *Coordinator {
	return &Coordinator{
		logger:   logger.With("component", "matchmaking"),
		registry: registry,
		pending:  make(map[string][]*Challenge),
	}
}

// Challenge issues a challenge to the named target and blocks the calling
// handler until the target resolves it or ctx is canceled. On acceptance the
// challenger is flagged in-game and the shared match session is returned.
func (that *Coordinator) Challenge(ctx context.Context, challenger *entity.Player, targetUsername string) (*game.Session, error) {
	log := that.logger.With("method", "Challenge", "challenger", challenger.Username, "target", targetUsername)

	target, ok := that.registry.Find(targetUsername)
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrPlayerNotFound, targetUsername)
	}

	if targetUsername == challenger.Username || target.Status() == entity.StatusInGame {
		return nil, fmt.Errorf("%w: %s", apperror.ErrPlayerUnavailable, targetUsername)
	}

	challenge := newChallenge(challenger)

	that.mu.Lock()
	that.pending[targetUsername] = append(that.pending[targetUsername], challenge)
	that.mu.Unlock()

	log.Info("challenge issued, waiting for resolution")

	select {
	case <-challenge.Resolved():
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if challenge.Status() == challengeAccepted {
		challenger.SetStatus(entity.StatusInGame)
		return challenge.Session(), nil
	}

	return nil, fmt.Errorf("%w by %s", apperror.ErrChallengeRefused, targetUsername)
}

// Accept resolves the pending challenge from the named challenger against
// the accepting player, spawning the match both handlers will share. Every
// other pending challenge on the acceptor is refused so the waiting
// challengers unblock. Returns nil when no such pending challenge exists.
func (that *Coordinator) Accept(player *entity.Player, challengerUsername string) *game.Session {
	that.mu.Lock()
	defer that.mu.Unlock()

	var accepted *Challenge
	for _, challenge := range that.pending[player.Username] {
		if challenge.Challenger.Username == challengerUsername && challenge.Status() == challengePending {
			accepted = challenge
			break
		}
	}

	if accepted == nil {
		return nil
	}

	for _, challenge := range that.pending[player.Username] {
		if challenge != accepted {
			challenge.refuse()
		}
	}

	session := game.NewSession(entity.NewGame(player, accepted.Challenger))
	accepted.accept(session)
	player.SetStatus(entity.StatusInGame)
	delete(that.pending, player.Username)

	that.logger.Info("challenge accepted",
		"method", "Accept", "acceptor", player.Username, "challenger", challengerUsername)

	return session
}

// Refuse resolves the pending challenge from the named challenger with a
// refusal, unblocking the challenger's handler. Reports whether a matching
// challenge was found.
func (that *Coordinator) Refuse(player *entity.Player, challengerUsername string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	challenges := that.pending[player.Username]
	for i, challenge := range challenges {
		if challenge.Challenger.Username != challengerUsername || challenge.Status() != challengePending {
			continue
		}

		challenge.refuse()
		that.pending[player.Username] = append(challenges[:i], challenges[i+1:]...)

		return true
	}

	return false
}

// RefuseAll refuses every pending challenge attached to the player. Called
// on disconnect so no challenger is left waiting on an orphaned challenge.
func (that *Coordinator) RefuseAll(player *entity.Player) {
	that.mu.Lock()
	defer that.mu.Unlock()

	for _, challenge := range that.pending[player.Username] {
		challenge.refuse()
	}
	delete(that.pending, player.Username)
}

// PendingChallengers lists the usernames with an unresolved challenge
// against the player, in arrival order. Read-only.
func (that *Coordinator) PendingChallengers(player *entity.Player) []string {
	that.mu.Lock()
	defer that.mu.Unlock()

	var names []string
	for _, challenge := range that.pending[player.Username] {
		if challenge.Status() == challengePending {
			names = append(names, challenge.Challenger.Username)
		}
	}

	return names
}
