package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rocketscienceinc/tictactoe-sessions/internal/entity"
)

const shutdownTimeout = 5 * time.Second

type gameUseCase interface {
	CreateSession(ctx context.Context, id string) (string, entity.SessionState, error)
	JoinSession(ctx context.Context, id string, mark entity.PlayerMark) (entity.SessionState, error)
	LeaveSession(ctx context.Context, id string, mark entity.PlayerMark) (entity.SessionState, error)
	SubmitMove(ctx context.Context, id string, mark entity.PlayerMark, cell int) (entity.SessionState, error)
	GetSession(ctx context.Context, id string) (entity.SessionState, error)
	GetResult(ctx context.Context, id string) (*entity.Result, error)
}

type Server struct {
	logger      *slog.Logger
	gameUseCase gameUseCase
}

func New(logger *slog.Logger, gameUseCase gameUseCase) *Server {
	return &Server{
		logger:      logger.With("component", "rest"),
		gameUseCase: gameUseCase,
	}
}

// Handler - returns the routes of the HTTP API.
func (that *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /ping", pingHandler)

	mux.HandleFunc("POST /sessions", that.handleCreateSession)
	mux.HandleFunc("GET /sessions/{id}", that.handleGetSession)
	mux.HandleFunc("POST /sessions/{id}/join", that.handleJoinSession)
	mux.HandleFunc("POST /sessions/{id}/leave", that.handleLeaveSession)
	mux.HandleFunc("POST /sessions/{id}/moves", that.handleSubmitMove)

	mux.HandleFunc("GET /results/{id}", that.handleGetResult)

	return mux
}

// Start - serves the HTTP API until ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
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
