package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/tictactoe-sessions/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-sessions/internal/entity"
	"github.com/rocketscienceinc/tictactoe-sessions/internal/repository"
)

type GameUseCase interface {
	CreateSession(ctx context.Context, id string) (string, entity.SessionState, error)
	JoinSession(ctx context.Context, id string, mark entity.PlayerMark) (entity.SessionState, error)
	LeaveSession(ctx context.Context, id string, mark entity.PlayerMark) (entity.SessionState, error)
	SubmitMove(ctx context.Context, id string, mark entity.PlayerMark, cell int) (entity.SessionState, error)

	GetSession(ctx context.Context, id string) (entity.SessionState, error)
	Observe(ctx context.Context, id string) (<-chan entity.SessionState, error)
	GetResult(ctx context.Context, id string) (*entity.Result, error)

	RunReaper(ctx context.Context, interval, maxIdle time.Duration)
}

type sessionRegistry interface {
	Create(id string) (entity.SessionState, error)
	Join(id string, mark entity.PlayerMark) (entity.SessionState, error)
	Leave(id string, mark entity.PlayerMark) (entity.SessionState, error)
	SubmitMove(id string, mark entity.PlayerMark, cell int) (entity.SessionState, error)
	State(id string) (entity.SessionState, error)
	Subscribe(ctx context.Context, id string) (<-chan entity.SessionState, error)
	Reap(cutoff time.Time) []string
}

type resultRepo interface {
	Save(ctx context.Context, result *entity.Result) error
	GetByID(ctx context.Context, id string) (*entity.Result, error)
}

type gameUseCase struct {
	logger *slog.Logger

	registry   sessionRegistry
	resultRepo resultRepo
}

// NewGameUseCase - resultRepo may be nil, in which case results are not archived.
func NewGameUseCase(logger *slog.Logger, registry sessionRegistry, resultRepo resultRepo) GameUseCase {
	return &gameUseCase{
		logger:     logger.With("component", "game"),
		registry:   registry,
		resultRepo: resultRepo,
	}
}

// CreateSession - registers a session. An empty id is replaced by a generated one.
func (that *gameUseCase) CreateSession(ctx context.Context, id string) (string, entity.SessionState, error) {
	if id == "" {
		id = uuid.NewString()
	}

	log := that.logger.With("method", "CreateSession", "sessionID", id)

	state, err := that.registry.Create(id)
	if err != nil {
		return "", entity.SessionState{}, fmt.Errorf("failed to create session: %w", err)
	}

	if that.resultRepo != nil {
		if err = that.watchResult(ctx, id); err != nil {
			log.Error("failed to watch session result", "error", err)
		}
	}

	log.Info("session created")

	return id, state, nil
}

func (that *gameUseCase) JoinSession(_ context.Context, id string, mark entity.PlayerMark) (entity.SessionState, error) {
	state, err := that.registry.Join(id, mark)
	if err != nil {
		return entity.SessionState{}, fmt.Errorf("failed to join session: %w", err)
	}

	that.logger.Info("player joined", "sessionID", id, "mark", mark, "status", state.Status)

	return state, nil
}

func (that *gameUseCase) LeaveSession(_ context.Context, id string, mark entity.PlayerMark) (entity.SessionState, error) {
	state, err := that.registry.Leave(id, mark)
	if err != nil {
		return entity.SessionState{}, fmt.Errorf("failed to leave session: %w", err)
	}

	that.logger.Info("player left", "sessionID", id, "mark", mark, "status", state.Status)

	return state, nil
}

func (that *gameUseCase) SubmitMove(_ context.Context, id string, mark entity.PlayerMark, cell int) (entity.SessionState, error) {
	state, err := that.registry.SubmitMove(id, mark, cell)
	if err != nil {
		return entity.SessionState{}, fmt.Errorf("failed to submit move: %w", err)
	}

	that.logger.Debug("move submitted", "sessionID", id, "mark", mark, "cell", cell, "status", state.Status)

	return state, nil
}

func (that *gameUseCase) GetSession(_ context.Context, id string) (entity.SessionState, error) {
	state, err := that.registry.State(id)
	if err != nil {
		return entity.SessionState{}, fmt.Errorf("failed to get session: %w", err)
	}

	return state, nil
}

func (that *gameUseCase) Observe(ctx context.Context, id string) (<-chan entity.SessionState, error) {
	updates, err := that.registry.Subscribe(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to observe session: %w", err)
	}

	return updates, nil
}

func (that *gameUseCase) GetResult(ctx context.Context, id string) (*entity.Result, error) {
	if that.resultRepo == nil {
		return nil, fmt.Errorf("%w: results are not archived", apperror.ErrNotFound)
	}

	result, err := that.resultRepo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrResultNotFound) {
		return nil, fmt.Errorf("%w: %w", apperror.ErrNotFound, err)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get result: %w", err)
	}

	return result, nil
}
