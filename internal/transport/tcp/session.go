package tcp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"

	"github.com/tictacnet/tictactoe-server/internal/apperror"
	"github.com/tictacnet/tictactoe-server/internal/entity"
	"github.com/tictacnet/tictactoe-server/internal/game"
	"github.com/tictacnet/tictactoe-server/internal/matchmaking"
	"github.com/tictacnet/tictactoe-server/internal/protocol"
	"github.com/tictacnet/tictactoe-server/internal/registry"
	"github.com/tictacnet/tictactoe-server/internal/repository"
)

// errClientQuit marks a deliberate mid-match quit, closed without a reply.
var errClientQuit = errors.New("client quit")

// session drives one connection through the state machine
// Connecting -> LoggingIn -> InLobby -> InMatch -> InLobby/Closed. All reads
// block on the connection; cross-handler coordination goes through the
// registry, the coordinator, and the shared match session only.
type session struct {
	logger  *slog.Logger
	conn    net.Conn
	scanner *bufio.Scanner
	writer  *bufio.Writer

	credentials credentialsResolver
	registry    *registry.Registry
	coordinator *matchmaking.Coordinator

	player *entity.Player
}

func newSession(logger *slog.Logger, conn net.Conn, credentials credentialsResolver, players *registry.Registry, coordinator *matchmaking.Coordinator) *session {
	return &session{
		logger:      logger,
		conn:        conn,
		scanner:     bufio.NewScanner(conn),
		writer:      bufio.NewWriter(conn),
		credentials: credentials,
		registry:    players,
		coordinator: coordinator,
	}
}

func (that *session) run(ctx context.Context) {
	log := that.logger.With("method", "run")

	if err := that.send(protocol.MsgOK); err != nil {
		log.Error("failed to send handshake", "error", err)
		return
	}

	err := that.loginLoop(ctx)

	if that.player != nil {
		defer func() {
			that.coordinator.RefuseAll(that.player)
			that.registry.Remove(that.player.Username)
			log.Info("player disconnected", "username", that.player.Username)
		}()
	}

	if err != nil {
		log.Info("connection closed before login", "error", err)
		return
	}

	log.Info("player logged in", "username", that.player.Username)

	if err = that.lobbyLoop(ctx); err != nil && !errors.Is(err, errClientQuit) {
		log.Info("connection lost", "username", that.player.Username, "error", err)
	}
}

// loginLoop accepts LOGIN commands until the credentials resolve and the
// username is free, replying with the distinguishing error code otherwise.
func (that *session) loginLoop(ctx context.Context) error {
	log := that.logger.With("method", "loginLoop")

	for {
		line, err := that.readLine()
		if err != nil {
			return err
		}

		cmd := protocol.ParseCommand(line)
		if cmd.Name != protocol.CmdLogin || len(cmd.Args) < 2 {
			if err = that.send(protocol.MsgError); err != nil {
				return err
			}
			continue
		}

		username, password := cmd.Args[0], cmd.Args[1]

		resolution, err := that.credentials.Resolve(ctx, username, password)
		if err != nil {
			return fmt.Errorf("failed to resolve credentials: %w", err)
		}

		if resolution == repository.ResolutionWrongPassword {
			if err = that.send(protocol.FormatError(protocol.CodeWrongPassword)); err != nil {
				return err
			}
			continue
		}

		player := entity.NewPlayer(username)
		if err = that.registry.Add(player); err != nil {
			if err = that.send(protocol.FormatError(protocol.CodeAlreadyLoggedIn)); err != nil {
				return err
			}
			continue
		}

		if resolution == repository.ResolutionCreated {
			log.Info("account created", "username", username)
		}

		that.player = player

		return that.send(protocol.MsgOK)
	}
}

// lobbyLoop handles one command at a time until the client quits or the
// connection drops. Challenging and accepting hand off to playMatch and
// resume here once the match is over.
func (that *session) lobbyLoop(ctx context.Context) error {
	for {
		line, err := that.readLine()
		if err != nil {
			return err
		}

		cmd := protocol.ParseCommand(line)

		switch cmd.Name {
		case protocol.CmdChallenges:
			names := that.coordinator.PendingChallengers(that.player)
			if err = that.send(protocol.FormatList(protocol.MsgChallenges, names)); err != nil {
				return err
			}

		case protocol.CmdPlayers:
			if err = that.send(protocol.FormatList(protocol.MsgPlayers, that.playerListing())); err != nil {
				return err
			}

		case protocol.CmdChallenge:
			if len(cmd.Args) != 1 {
				if err = that.send(protocol.MsgError); err != nil {
					return err
				}
				continue
			}
			if err = that.challenge(ctx, cmd.Args[0]); err != nil {
				return err
			}

		case protocol.CmdAccept:
			if len(cmd.Args) != 1 {
				if err = that.send(protocol.MsgError); err != nil {
					return err
				}
				continue
			}
			match := that.coordinator.Accept(that.player, cmd.Args[0])
			if match == nil {
				continue
			}
			if err = that.playMatch(ctx, match); err != nil {
				return err
			}

		case protocol.CmdRefuse:
			if len(cmd.Args) == 1 && that.coordinator.Refuse(that.player, cmd.Args[0]) {
				if err = that.send(protocol.MsgRefuse); err != nil {
					return err
				}
			}

		case protocol.CmdQuit:
			return nil

		default:
			if err = that.send(protocol.MsgError); err != nil {
				return err
			}
		}
	}
}

// challenge issues a challenge and blocks until it resolves. Matchmaking
// failures are answered on this connection; only transport errors propagate.
func (that *session) challenge(ctx context.Context, targetUsername string) error {
	match, err := that.coordinator.Challenge(ctx, that.player, targetUsername)

	switch {
	case errors.Is(err, apperror.ErrPlayerNotFound):
		return that.send(protocol.FormatError(protocol.CodePlayerNotFound))
	case errors.Is(err, apperror.ErrPlayerUnavailable):
		return that.send(protocol.FormatError(protocol.CodePlayerUnavailable))
	case errors.Is(err, apperror.ErrChallengeRefused):
		return that.send(protocol.MsgRefuse)
	case err != nil:
		return err
	}

	return that.playMatch(ctx, match)
}

// playMatch runs the in-match protocol against the shared match session
// until the game is over. Any early exit forfeits the match so the opponent
// is never left waiting.
func (that *session) playMatch(ctx context.Context, match *game.Session) error {
	username := that.player.Username
	log := that.logger.With("method", "playMatch", "username", username)

	defer match.Forfeit(username) // no-op once the game is over

	// The turn is tracked locally from the opening-turn snapshot rather than
	// read live from the match: the opponent's handler may apply the opening
	// move before this one runs, and the live flag would then skip the relay.
	myTurn := match.MovesFirst(username)

	if err := that.send(protocol.FormatGameStart(protocol.GameStartCode(myTurn))); err != nil {
		return err
	}

	log.Info("match started")

	for {
		if match.Over() {
			return that.finishMatch(match)
		}

		if myTurn {
			moved, err := that.handleOwnTurn(match)
			if err != nil {
				return err
			}
			if moved {
				myTurn = false
			}
			continue
		}

		update, err := match.AwaitUpdate(ctx, username)
		if err != nil {
			return err
		}
		if update.Kind == game.OpponentMoved {
			if err = that.send(protocol.FormatPlay(update.Row, update.Col)); err != nil {
				return err
			}
			myTurn = true
		}
		// Finished and OpponentLeft are settled by the Over check
	}
}

// handleOwnTurn reads one command on this side's turn and reports whether it
// advanced the game. Illegal and malformed moves are answered inline without
// advancing the turn.
func (that *session) handleOwnTurn(match *game.Session) (bool, error) {
	username := that.player.Username

	line, err := that.readLine()
	if err != nil {
		return false, err
	}

	cmd := protocol.ParseCommand(line)

	switch cmd.Name {
	case protocol.CmdPlay:
		row, col, ok := parseMove(cmd.Args)
		if !ok {
			return false, that.send(protocol.FormatError(protocol.CodeIllegalMove))
		}

		if _, err = match.SubmitMove(username, row, col); err != nil {
			return false, that.send(protocol.FormatError(protocol.CodeIllegalMove))
		}

		return true, that.send(protocol.MsgOK)

	case protocol.CmdQuit:
		match.Forfeit(username)
		return false, errClientQuit

	default:
		return false, that.send(protocol.FormatError(protocol.CodeIllegalMove))
	}
}

// finishMatch settles this side of a finished game: stats, status, and the
// terminal GAME_OVER reply computed from this side's own perspective.
func (that *session) finishMatch(match *game.Session) error {
	that.player.SetStatus(entity.StatusOnline)
	that.coordinator.RefuseAll(that.player)

	var code int
	switch outcome := match.Result(that.player.Username); outcome {
	case game.OutcomeWin:
		that.player.RecordWin()
		code = protocol.GameOverWin
	case game.OutcomeLoss:
		that.player.RecordLoss()
		code = protocol.GameOverLoss
	case game.OutcomeDraw:
		that.player.RecordDraw()
		code = protocol.GameOverDraw
	case game.OutcomeOpponentLeft:
		that.player.RecordWin()
		code = protocol.GameOverOpponentLeft
	}

	that.logger.Info("match finished", "username", that.player.Username, "result", code)

	return that.send(protocol.FormatGameOver(code))
}

// playerListing renders every connected player as
// name,wins,losses,draws,streak for the PLAYERS reply.
func (that *session) playerListing() []string {
	players := that.registry.Snapshot()

	listing := make([]string, 0, len(players))
	for _, player := range players {
		stats := player.Stats()
		fields := []string{
			player.Username,
			strconv.Itoa(stats.Wins),
			strconv.Itoa(stats.Losses),
			strconv.Itoa(stats.Draws),
			strconv.Itoa(stats.WinStreak),
		}
		listing = append(listing, strings.Join(fields, protocol.ElementSeparator))
	}

	return listing
}

func parseMove(args []string) (int, int, bool) {
	if len(args) != 2 {
		return 0, 0, false
	}

	row, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, 0, false
	}

	col, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, 0, false
	}

	return row, col, true
}

func (that *session) readLine() (string, error) {
	if !that.scanner.Scan() {
		if err := that.scanner.Err(); err != nil {
			return "", fmt.Errorf("failed to read line: %w", err)
		}
		return "", io.EOF
	}

	return that.scanner.Text(), nil
}

func (that *session) send(message string) error {
	if _, err := that.writer.WriteString(message + "\n"); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	if err := that.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush message: %w", err)
	}

	return nil
}
