package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-sessions/internal/entity"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 64

	shutdownTimeout = 5 * time.Second
)

type gameUseCase interface {
	CreateSession(ctx context.Context, id string) (string, entity.SessionState, error)
	JoinSession(ctx context.Context, id string, mark entity.PlayerMark) (entity.SessionState, error)
	LeaveSession(ctx context.Context, id string, mark entity.PlayerMark) (entity.SessionState, error)
	SubmitMove(ctx context.Context, id string, mark entity.PlayerMark, cell int) (entity.SessionState, error)
	GetSession(ctx context.Context, id string) (entity.SessionState, error)
	Observe(ctx context.Context, id string) (<-chan entity.SessionState, error)
}

type handlerFunc func(ctx context.Context, client *client, payload Payload) (Payload, error)

type Server struct {
	logger      *slog.Logger
	gameUseCase gameUseCase
	upgrader    websocket.Upgrader

	handlers map[string]handlerFunc
}

func New(logger *slog.Logger, gameUseCase gameUseCase) *Server {
	server := &Server{
		logger:      logger.With("component", "websocket"),
		gameUseCase: gameUseCase,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},

		handlers: make(map[string]handlerFunc),
	}

	server.handlers[actionPing] = server.handlePing
	server.handlers[actionCreate] = server.handleCreate
	server.handlers[actionJoin] = server.handleJoin
	server.handlers[actionLeave] = server.handleLeave
	server.handlers[actionMove] = server.handleMove
	server.handlers[actionState] = server.handleState
	server.handlers[actionObserve] = server.handleObserve
	server.handlers[actionUnobserve] = server.handleUnobserve

	return server
}

// Handler - returns the routes of the WebSocket endpoint.
func (that *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.serveWS(ctx, w, r)
	})

	return mux
}

// Start - starts WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Handler(ctx),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// serveWS - upgrades the connection and runs it until either side goes away.
func (that *Server) serveWS(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		that.logger.Error("failed to upgrade connection", "error", err)
		return
	}

	connCtx, cancel := context.WithCancel(ctx)
	c := &client{
		id:        uuid.NewString(),
		conn:      conn,
		send:      make(chan []byte, sendBufferSize),
		ctx:       connCtx,
		cancel:    cancel,
		observing: make(map[string]context.CancelFunc),
	}

	log := that.logger.With("connectionID", c.id)
	log.Info("WebSocket connection established")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.writePump(log)
	}()

	that.readPump(c, log)

	cancel()
	wg.Wait()
	_ = conn.Close()

	log.Info("WebSocket connection closed")
}

// readPump - processes messages from the client.
func (that *Server) readPump(c *client, log *slog.Logger) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error("error reading message", "error", err)
			}
			return
		}

		var message Message
		if err = json.Unmarshal(data, &message); err != nil {
			log.Error("failed to unmarshal message", "error", err)
			c.reply(actionError, Payload{Error: "malformed message"})
			continue
		}

		that.dispatch(c, &message, log)
	}
}

func (that *Server) dispatch(c *client, message *Message, log *slog.Logger) {
	handler, ok := that.handlers[message.Action]
	if !ok {
		log.Warn("unknown action", "action", message.Action)
		c.reply(actionError, Payload{Error: "unknown action " + message.Action})
		return
	}

	var request Payload
	if len(message.Payload) > 0 {
		if err := json.Unmarshal(message.Payload, &request); err != nil {
			log.Error("failed to unmarshal payload", "action", message.Action, "error", err)
			c.reply(message.Action, Payload{Error: "malformed payload"})
			return
		}
	}

	response, err := handler(c.ctx, c, request)
	if errors.Is(err, errAlreadyReplied) {
		return
	}

	if err != nil {
		log.Debug("error processing message", "action", message.Action, "error", err)
		response.SessionID = request.SessionID
		response.Error = err.Error()
	}

	c.reply(message.Action, response)
}
