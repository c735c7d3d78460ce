// Package registry tracks the players currently connected to the server.
// It is an injected component rather than process-global state so tests can
// instantiate isolated instances.
package registry

import (
	"fmt"
	"sync"

	"github.com/tictacnet/tictactoe-server/internal/apperror"
	"github.com/tictacnet/tictactoe-server/internal/entity"
)

type Registry struct {
	mu      sync.RWMutex
	players map[string]*entity.Player
	order   []string
}

func New() *Registry {
	return &Registry{
		players: make(map[string]*entity.Player),
	}
}

// Add inserts a player. A username maps to at most one player at a time;
// inserting a duplicate fails with ErrAlreadyOnline.
func (that *Registry) Add(player *entity.Player) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.players[player.Username]; ok {
		return fmt.Errorf("%w: %s", apperror.ErrAlreadyOnline, player.Username)
	}

	that.players[player.Username] = player
	that.order = append(that.order, player.Username)

	return nil
}

func (that *Registry) Remove(username string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.players[username]; !ok {
		return
	}

	delete(that.players, username)

	for i, name := range that.order {
		if name == username {
			that.order = append(that.order[:i], that.order[i+1:]...)
			break
		}
	}
}

func (that *Registry) Find(username string) (*entity.Player, bool) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	player, ok := that.players[username]

	return player, ok
}

// Snapshot returns the connected players in login order. The slice is a
// copy, the player references are live.
func (that *Registry) Snapshot() []*entity.Player {
	that.mu.RLock()
	defer that.mu.RUnlock()

	players := make([]*entity.Player, 0, len(that.order))
	for _, name := range that.order {
		players = append(players, that.players[name])
	}

	return players
}

func (that *Registry) Len() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.players)
}
