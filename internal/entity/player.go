package entity

import "sync"

const (
	StatusOnline = "online"
	StatusInGame = "in_game"
)

// Stats is a snapshot of a player's cumulative results for the current
// process lifetime.
type Stats struct {
	Wins      int
	Losses    int
	Draws     int
	WinStreak int
}

// Player represents a logged-in player for the lifetime of its connection.
// The username is immutable once assigned; status and stats are mutated by
// the connection handler that owns the player and read by other handlers
// during matchmaking and listing.
type Player struct {
	Username string

	mu     sync.Mutex
	status string
	stats  Stats
}

func NewPlayer(username string) *Player {
	return &Player{
		Username: username,
		status:   StatusOnline,
	}
}

func (that *Player) Status() string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.status
}

func (that *Player) SetStatus(status string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.status = status
}

func (that *Player) Stats() Stats {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.stats
}

func (that *Player) RecordWin() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.stats.Wins++
	that.stats.WinStreak++
}

func (that *Player) RecordLoss() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.stats.Losses++
	that.stats.WinStreak = 0
}

func (that *Player) RecordDraw() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.stats.Draws++
	that.stats.WinStreak = 0
}
