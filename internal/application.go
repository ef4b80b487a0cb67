package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/tictactoe-sessions/internal/config"
	"github.com/rocketscienceinc/tictactoe-sessions/internal/repository"
	"github.com/rocketscienceinc/tictactoe-sessions/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-sessions/internal/session"
	"github.com/rocketscienceinc/tictactoe-sessions/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-sessions/transport/rest"
	"github.com/rocketscienceinc/tictactoe-sessions/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application until ctx is done or a signal arrives.
func RunApp(ctx context.Context, logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	go func() {
		select {
		case sig := <-sigs:
			log.Info("Received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	var results repository.ResultRepository
	if conf.Archive.Disabled {
		log.Info("Result archive disabled")
	} else {
		redisAddrString := conf.Redis.GetRedisAddr()
		if redisAddrString == "" {
			return ErrAddrNotFound
		}

		redisStorage, err := storage.New(ctx, redisAddrString)
		if err != nil {
			return fmt.Errorf("could not connect to redis storage: %w", err)
		}

		defer func() {
			if err = redisStorage.Close(); err != nil {
				log.Error("could not close redis storage", "error", err)
			}
		}()

		results = repository.NewResultRepository(redisStorage, conf.Archive.TTL)
	}

	registry := session.NewRegistry(session.Options{EnforceTurn: conf.EnforceTurn})
	defer registry.Close()

	gameUseCase := usecase.NewGameUseCase(logger, registry, results)

	go gameUseCase.RunReaper(ctx, conf.Reaper.Interval, conf.Reaper.MaxIdle)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		restServer := rest.New(logger, gameUseCase)
		if httpErr := restServer.Start(ctx, conf.HTTPPort); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, gameUseCase)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err := <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err := <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}
