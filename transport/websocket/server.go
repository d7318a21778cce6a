package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-hotseat/internal/entity"
)

const shutdownTimeout = 5 * time.Second

type matchUseCase interface {
	StartMatch(ctx context.Context, first, second string) (*entity.Match, error)
	GetMatch(ctx context.Context, id string) (*entity.Match, error)
	MakeMove(ctx context.Context, id string, cell int) (*entity.Match, bool, error)
	RestartMatch(ctx context.Context, id string) (*entity.Match, error)
	EndMatch(ctx context.Context, id string) error
}

type handlerFunc func(ctx context.Context, conn *connection, message *Message) error

type Server struct {
	logger       *slog.Logger
	matchUseCase matchUseCase
	upgrader     websocket.Upgrader

	handlers map[string]handlerFunc

	connectionsMutex sync.Mutex
	connections      map[*connection]struct{}

	subscribersMutex sync.RWMutex
	subscribers      map[string]map[*connection]struct{}
}

func New(logger *slog.Logger, matchUseCase matchUseCase) *Server {
	server := &Server{
		logger:       logger.With("component", "websocket"),
		matchUseCase: matchUseCase,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},

		handlers:    make(map[string]handlerFunc),
		connections: make(map[*connection]struct{}),
		subscribers: make(map[string]map[*connection]struct{}),
	}

	server.handlers[actionMatchNew] = server.handleNewMatch
	server.handlers[actionMatchState] = server.handleMatchState
	server.handlers[actionMatchTurn] = server.handleMatchTurn
	server.handlers[actionMatchRestart] = server.handleMatchRestart
	server.handlers[actionMatchLeave] = server.handleMatchLeave

	return server
}

// Handler serves the WebSocket endpoint at /ws.
func (that *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", that.upgradeToWebSocket)

	return mux
}

// Start - starts WebSocket server and stops it when ctx is cancelled.
func (that *Server) Start(ctx context.Context, port string) error {
	listener, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return that.serve(ctx, listener)
}

func (that *Server) serve(ctx context.Context, listener net.Listener) error {
	log := that.logger.With("method", "serve")

	srv := &http.Server{
		Handler:     that.Handler(),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("WebSocket server started", "addr", listener.Addr().String())
		errCh <- srv.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Shutdown does not wait for hijacked connections.
	shutdownErr := srv.Shutdown(shutdownCtx)
	that.closeConnections()

	if shutdownErr != nil {
		return fmt.Errorf("failed to shutdown server: %w", shutdownErr)
	}

	log.Info("WebSocket server stopped")

	return nil
}

func (that *Server) register(conn *connection) {
	that.connectionsMutex.Lock()
	that.connections[conn] = struct{}{}
	that.connectionsMutex.Unlock()
}

func (that *Server) unregister(conn *connection) {
	that.connectionsMutex.Lock()
	delete(that.connections, conn)
	that.connectionsMutex.Unlock()
}

func (that *Server) closeConnections() {
	that.connectionsMutex.Lock()
	conns := make([]*connection, 0, len(that.connections))
	for conn := range that.connections {
		conns = append(conns, conn)
	}
	that.connectionsMutex.Unlock()

	for _, conn := range conns {
		if err := conn.close(); err != nil {
			that.logger.Debug("failed to close connection", "error", err)
		}
	}
}

// upgradeToWebSocket - upgrades the connection to WebSocket.
func (that *Server) upgradeToWebSocket(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeToWebSocket")

	wsConn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	conn := newConnection(wsConn)
	that.register(conn)
	defer func() {
		that.unregister(conn)
		that.unsubscribeAll(conn)
		_ = conn.close()
	}()

	log.Info("WebSocket connection established", "remote", req.RemoteAddr)

	that.handleMessages(req.Context(), conn)
}

// handleMessages - processes messages from the client until it disconnects.
func (that *Server) handleMessages(ctx context.Context, conn *connection) {
	log := that.logger.With("method", "handleMessages")

	for {
		_, data, err := conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error("unexpected close", "error", err)
			}
			return
		}

		var message Message
		if err = json.Unmarshal(data, &message); err != nil {
			log.Warn("failed to unmarshal message", "error", err)
			that.reply(conn, "", errInvalidMessage)
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Warn("unknown action", "action", message.Action)
			that.reply(conn, message.Action, errUnknownAction)
			continue
		}

		if err = handler(ctx, conn, &message); err != nil {
			log.Warn("error processing message", "action", message.Action, "error", err)
			that.reply(conn, message.Action, err)
		}
	}
}

func (that *Server) reply(conn *connection, action string, err error) {
	if sendErr := conn.sendErrorResponse(action, publicError(err)); sendErr != nil {
		that.logger.Error("failed to send error response", "action", action, "error", sendErr)
	}
}

func (that *Server) subscribe(conn *connection, matchID string) {
	that.subscribersMutex.Lock()
	defer that.subscribersMutex.Unlock()

	conns, ok := that.subscribers[matchID]
	if !ok {
		conns = make(map[*connection]struct{})
		that.subscribers[matchID] = conns
	}

	conns[conn] = struct{}{}
}

func (that *Server) unsubscribeAll(conn *connection) {
	that.subscribersMutex.Lock()
	defer that.subscribersMutex.Unlock()

	for matchID, conns := range that.subscribers {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(that.subscribers, matchID)
		}
	}
}

// dropSubscribers removes the subscriber set and returns it.
func (that *Server) dropSubscribers(matchID string) []*connection {
	that.subscribersMutex.Lock()
	defer that.subscribersMutex.Unlock()

	conns := make([]*connection, 0, len(that.subscribers[matchID]))
	for conn := range that.subscribers[matchID] {
		conns = append(conns, conn)
	}

	delete(that.subscribers, matchID)

	return conns
}

func (that *Server) subscribersOf(matchID string) []*connection {
	that.subscribersMutex.RLock()
	defer that.subscribersMutex.RUnlock()

	conns := make([]*connection, 0, len(that.subscribers[matchID]))
	for conn := range that.subscribers[matchID] {
		conns = append(conns, conn)
	}

	return conns
}

func (that *Server) broadcast(conns []*connection, action string, payload Payload) {
	for _, conn := range conns {
		if err := conn.sendMessage(action, payload); err != nil {
			that.logger.Warn("failed to broadcast", "action", action, "match", payload.MatchID, "error", err)
		}
	}
}
