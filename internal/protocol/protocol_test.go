package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	t.Run("Name and positional arguments are split on spaces", func(t *testing.T) {
		// Given: a login line with trailing line ending
		cmd := ParseCommand("LOGIN alice secret\r\n")

		// Then: name and arguments are separated
		assert.Equal(t, "LOGIN", cmd.Name)
		assert.Equal(t, []string{"alice", "secret"}, cmd.Args)
	})

	t.Run("Bare command has no arguments", func(t *testing.T) {
		cmd := ParseCommand("QUIT")

		assert.Equal(t, "QUIT", cmd.Name)
		assert.Empty(t, cmd.Args)
	})

	t.Run("Empty line parses to an empty name", func(t *testing.T) {
		cmd := ParseCommand("")

		assert.Empty(t, cmd.Name)
		assert.Empty(t, cmd.Args)
	})
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "ERROR 2", FormatError(CodeWrongPassword))
	assert.Equal(t, "GAMESTART 1", FormatGameStart(GameStartCode(true)))
	assert.Equal(t, "GAMESTART 2", FormatGameStart(GameStartCode(false)))
	assert.Equal(t, "GAME_OVER 3", FormatGameOver(GameOverOpponentLeft))
	assert.Equal(t, "PLAY 1 2", FormatPlay(1, 2))
}

func TestFormatList(t *testing.T) {
	t.Run("Objects are separated and terminated", func(t *testing.T) {
		// Given: two pending challengers
		reply := FormatList(MsgChallenges, []string{"alice", "bob"})

		// Then: each object ends with the object separator
		assert.Equal(t, "CHALLENGES alice;bob;", reply)
	})

	t.Run("Empty list keeps the message name", func(t *testing.T) {
		reply := FormatList(MsgChallenges, nil)

		assert.Equal(t, "CHALLENGES ", reply)
	})
}
