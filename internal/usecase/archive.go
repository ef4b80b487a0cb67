package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rocketscienceinc/tictactoe-sessions/internal/entity"
)

const archiveTimeout = 5 * time.Second

// watchResult - observes the session until it finishes and archives the final snapshot.
// The watch ends with the session, independent of the request that created it.
func (that *gameUseCase) watchResult(ctx context.Context, id string) error {
	watchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	updates, err := that.registry.Subscribe(watchCtx, id)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	go func() {
		defer cancel()

		for state := range updates {
			if !state.IsFinished() {
				continue
			}

			that.archive(watchCtx, id, state)

			return
		}
	}()

	return nil
}

func (that *gameUseCase) archive(ctx context.Context, id string, state entity.SessionState) {
	log := that.logger.With("method", "archive", "sessionID", id)

	ctx, cancel := context.WithTimeout(ctx, archiveTimeout)
	defer cancel()

	result := &entity.Result{
		ID:         id,
		State:      state,
		FinishedAt: time.Now().UTC(),
	}

	if err := that.resultRepo.Save(ctx, result); err != nil {
		log.Error("failed to archive result", "error", err)
		return
	}

	log.Info("result archived", "winner", state.Winner)
}
