// Package tcp serves the line protocol over plain TCP: one goroutine per
// accepted connection runs the session state machine, bounded by the
// configured player limit.
package tcp

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/tictacnet/tictactoe-server/internal/matchmaking"
	"github.com/tictacnet/tictactoe-server/internal/protocol"
	"github.com/tictacnet/tictactoe-server/internal/registry"
	"github.com/tictacnet/tictactoe-server/internal/repository"
)

type credentialsResolver interface {
	Resolve(ctx context.Context, username, password string) (repository.Resolution, error)
}

type Server struct {
	logger      *slog.Logger
	credentials credentialsResolver
	registry    *registry.Registry
	coordinator *matchmaking.Coordinator

	maxPlayers int
	slots      atomic.Int32
}

func New(logger *slog.Logger, credentials credentialsResolver, players *registry.Registry, coordinator *matchmaking.Coordinator, maxPlayers int) *Server {
	return &Server{
		logger:      logger.With("component", "tcp"),
		credentials: credentials,
		registry:    players,
		coordinator: coordinator,
		maxPlayers:  maxPlayers,
	}
}

// Start - listens on the given port and serves until ctx is canceled.
func (that *Server) Start(ctx context.Context, port string) error {
	listener, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return fmt.Errorf("failed to listen on port %s: %w", port, err)
	}

	return that.Serve(ctx, listener)
}

// Serve accepts connections from an existing listener. Canceling ctx closes
// the listener and every active connection.
func (that *Server) Serve(ctx context.Context, listener net.Listener) error {
	log := that.logger.With("method", "Serve")

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	log.Info("listening", "addr", listener.Addr().String())

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to accept connection: %w", err)
		}

		go that.handleConn(ctx, conn)
	}
}

// handleConn runs one connection to completion. The handshake reply is OK
// when a slot is free, a bare ERROR otherwise.
func (that *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	// unblocks sessions stuck in a read when the server shuts down
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	log := that.logger.With("connection_id", uuid.NewString())

	if !that.acquireSlot() {
		log.Info("server full, refusing connection", "remote", conn.RemoteAddr().String())

		fmt.Fprintf(conn, "%s\n", protocol.MsgError)

		return
	}
	defer that.releaseSlot()

	log.Info("connection established", "remote", conn.RemoteAddr().String())

	session := newSession(log, conn, that.credentials, that.registry, that.coordinator)
	session.run(ctx)
}

func (that *Server) acquireSlot() bool {
	for {
		used := that.slots.Load()
		if used >= int32(that.maxPlayers) {
			return false
		}

		if that.slots.CompareAndSwap(used, used+1) {
			return true
		}
	}
}

func (that *Server) releaseSlot() {
	that.slots.Add(-1)
}
