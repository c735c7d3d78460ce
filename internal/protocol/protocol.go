// Package protocol defines the newline-terminated text protocol spoken
// between client and server: space-separated tokens, first token is the
// message name, `;` between objects in list payloads and `,` between the
// fields of one object.
package protocol

import (
	"fmt"
	"strings"
)

// Server to client message names.
const (
	MsgOK         = "OK"
	MsgError      = "ERROR"
	MsgChallenges = "CHALLENGES"
	MsgPlayers    = "PLAYERS"
	MsgRefuse     = "REFUSE"
	MsgGameStart  = "GAMESTART"
	MsgGameOver   = "GAME_OVER"
)

// Client to server command names. PLAY and REFUSE are also sent by the
// server (move relay, refusal notice).
const (
	CmdLogin      = "LOGIN"
	CmdPlayers    = "PLAYERS"
	CmdChallenges = "CHALLENGES"
	CmdChallenge  = "CHALLENGE"
	CmdAccept     = "ACCEPT"
	CmdRefuse     = "REFUSE"
	CmdQuit       = "QUIT"
	CmdPlay       = "PLAY"
)

const (
	ObjectSeparator  = ";"
	ElementSeparator = ","
)

// Login error codes.
const (
	CodeAlreadyLoggedIn = 1
	CodeWrongPassword   = 2
)

// Matchmaking error codes.
const (
	CodePlayerNotFound    = 1
	CodePlayerUnavailable = 2
)

// CodeIllegalMove answers any rejected or malformed in-match command.
const CodeIllegalMove = 1

// GAME_OVER result codes, always from the receiving side's perspective.
const (
	GameOverDraw         = 0
	GameOverWin          = 1
	GameOverLoss         = 2
	GameOverOpponentLeft = 3
)

// GameStartCode tells one side of a fresh match who moves first: 1 when the
// receiving side does, 2 when its opponent does.
func GameStartCode(movesFirst bool) int {
	if movesFirst {
		return 1
	}
	return 2
}

// Command is one parsed client line.
type Command struct {
	Name string
	Args []string
}

// ParseCommand splits a line into the command name and its positional
// arguments. An empty line parses to an empty name.
func ParseCommand(line string) Command {
	tokens := strings.Fields(strings.TrimRight(line, "\r\n"))
	if len(tokens) == 0 {
		return Command{}
	}

	return Command{Name: tokens[0], Args: tokens[1:]}
}

func FormatError(code int) string {
	return fmt.Sprintf("%s %d", MsgError, code)
}

func FormatGameStart(code int) string {
	return fmt.Sprintf("%s %d", MsgGameStart, code)
}

func FormatGameOver(code int) string {
	return fmt.Sprintf("%s %d", MsgGameOver, code)
}

func FormatPlay(row, col int) string {
	return fmt.Sprintf("%s %d %d", CmdPlay, row, col)
}

// FormatList renders a list reply: the message name followed by the objects,
// each terminated by the object separator.
func FormatList(name string, objects []string) string {
	var sb strings.Builder
	sb.WriteString(name)
	sb.WriteString(" ")
	for _, object := range objects {
		sb.WriteString(object)
		sb.WriteString(ObjectSeparator)
	}

	return sb.String()
}
