package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-sessions/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-sessions/internal/entity"
	"github.com/rocketscienceinc/tictactoe-sessions/internal/repository"
	"github.com/rocketscienceinc/tictactoe-sessions/internal/session"
)

var errRedisDown = errors.New("redis down")

type mockResultRepo struct {
	mock.Mock
}

func (m *mockResultRepo) Save(ctx context.Context, result *entity.Result) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

func (m *mockResultRepo) GetByID(ctx context.Context, id string) (*entity.Result, error) {
	args := m.Called(ctx, id)
	result, _ := args.Get(0).(*entity.Result)
	return result, args.Error(1)
}

func newTestUseCase(t *testing.T, repo resultRepo) (GameUseCase, *session.Registry) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := session.NewRegistry(session.Options{})
	t.Cleanup(registry.Close)

	return NewGameUseCase(logger, registry, repo), registry
}

func playToWin(ctx context.Context, t *testing.T, useCase GameUseCase, id string) entity.SessionState {
	t.Helper()

	_, err := useCase.JoinSession(ctx, id, entity.PlayerX)
	require.NoError(t, err)
	_, err = useCase.JoinSession(ctx, id, entity.PlayerO)
	require.NoError(t, err)

	var state entity.SessionState
	for _, cell := range []int{0, 3, 1, 4, 2} {
		current, err := useCase.GetSession(ctx, id)
		require.NoError(t, err)

		state, err = useCase.SubmitMove(ctx, id, current.Turn, cell)
		require.NoError(t, err)
	}

	return state
}

func TestGameUseCase_CreateSession(t *testing.T) {
	ctx := context.Background()

	t.Run("Uses the caller supplied id", func(t *testing.T) {
		useCase, _ := newTestUseCase(t, nil)

		id, state, err := useCase.CreateSession(ctx, "g1")

		require.NoError(t, err)
		assert.Equal(t, "g1", id)
		assert.Equal(t, entity.NewSessionState(), state)
	})

	t.Run("Generates an id when none is given", func(t *testing.T) {
		useCase, registry := newTestUseCase(t, nil)

		id, _, err := useCase.CreateSession(ctx, "")

		require.NoError(t, err)
		assert.NotEmpty(t, id)
		_, err = registry.Get(id)
		require.NoError(t, err)
	})

	t.Run("Returns ErrAlreadyExists for a duplicate id", func(t *testing.T) {
		useCase, _ := newTestUseCase(t, nil)
		_, _, err := useCase.CreateSession(ctx, "g1")
		require.NoError(t, err)

		_, _, err = useCase.CreateSession(ctx, "g1")

		require.ErrorIs(t, err, apperror.ErrAlreadyExists)
	})
}

func TestGameUseCase_Operations(t *testing.T) {
	ctx := context.Background()

	t.Run("Unknown sessions return ErrNotFound", func(t *testing.T) {
		useCase, _ := newTestUseCase(t, nil)

		_, err := useCase.JoinSession(ctx, "missing", entity.PlayerX)
		require.ErrorIs(t, err, apperror.ErrNotFound)

		_, err = useCase.LeaveSession(ctx, "missing", entity.PlayerX)
		require.ErrorIs(t, err, apperror.ErrNotFound)

		_, err = useCase.SubmitMove(ctx, "missing", entity.PlayerX, 0)
		require.ErrorIs(t, err, apperror.ErrNotFound)

		_, err = useCase.GetSession(ctx, "missing")
		require.ErrorIs(t, err, apperror.ErrNotFound)

		_, err = useCase.Observe(ctx, "missing")
		require.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("Observe streams the current state then updates", func(t *testing.T) {
		useCase, _ := newTestUseCase(t, nil)
		_, _, err := useCase.CreateSession(ctx, "g1")
		require.NoError(t, err)

		observeCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		updates, err := useCase.Observe(observeCtx, "g1")
		require.NoError(t, err)

		joined, err := useCase.JoinSession(ctx, "g1", entity.PlayerX)
		require.NoError(t, err)

		assert.Equal(t, entity.NewSessionState(), <-updates)
		assert.Equal(t, joined, <-updates)
	})

	t.Run("Bad cells surface ErrInvalidCell", func(t *testing.T) {
		useCase, _ := newTestUseCase(t, nil)
		_, _, err := useCase.CreateSession(ctx, "g1")
		require.NoError(t, err)

		_, err = useCase.SubmitMove(ctx, "g1", entity.PlayerX, 42)

		require.ErrorIs(t, err, apperror.ErrInvalidCell)
	})
}

func TestGameUseCase_Archive(t *testing.T) {
	ctx := context.Background()

	t.Run("Archives the final state once the game finishes", func(t *testing.T) {
		// Given: a use case with a result repository
		repo := &mockResultRepo{}
		saved := make(chan *entity.Result, 1)
		repo.On("Save", mock.Anything, mock.AnythingOfType("*entity.Result")).
			Run(func(args mock.Arguments) {
				saved <- args.Get(1).(*entity.Result)
			}).
			Return(nil).
			Once()

		useCase, _ := newTestUseCase(t, repo)
		_, _, err := useCase.CreateSession(ctx, "g1")
		require.NoError(t, err)

		// When: X wins the game
		final := playToWin(ctx, t, useCase, "g1")
		require.Equal(t, entity.PlayerX, final.Winner)

		// Then: the final state is archived
		select {
		case result := <-saved:
			assert.Equal(t, "g1", result.ID)
			assert.Equal(t, final, result.State)
			assert.False(t, result.FinishedAt.IsZero())
		case <-time.After(2 * time.Second):
			t.Fatal("result was not archived")
		}

		repo.AssertExpectations(t)
	})

	t.Run("Archive failures do not affect the game", func(t *testing.T) {
		repo := &mockResultRepo{}
		done := make(chan struct{})
		repo.On("Save", mock.Anything, mock.Anything).
			Run(func(mock.Arguments) { close(done) }).
			Return(errRedisDown).
			Once()

		useCase, _ := newTestUseCase(t, repo)
		_, _, err := useCase.CreateSession(ctx, "g1")
		require.NoError(t, err)

		final := playToWin(ctx, t, useCase, "g1")

		<-done
		state, err := useCase.GetSession(ctx, "g1")
		require.NoError(t, err)
		assert.Equal(t, final, state)
	})
}

func TestGameUseCase_GetResult(t *testing.T) {
	ctx := context.Background()

	t.Run("Returns the archived result", func(t *testing.T) {
		repo := &mockResultRepo{}
		expected := &entity.Result{ID: "g1", State: entity.SessionState{Status: entity.StatusFinished}}
		repo.On("GetByID", mock.Anything, "g1").Return(expected, nil).Once()
		useCase, _ := newTestUseCase(t, repo)

		result, err := useCase.GetResult(ctx, "g1")

		require.NoError(t, err)
		assert.Equal(t, expected, result)
	})

	t.Run("Maps a missing result to ErrNotFound", func(t *testing.T) {
		repo := &mockResultRepo{}
		repo.On("GetByID", mock.Anything, "g1").Return(nil, repository.ErrResultNotFound).Once()
		useCase, _ := newTestUseCase(t, repo)

		_, err := useCase.GetResult(ctx, "g1")

		require.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("Wraps storage failures", func(t *testing.T) {
		repo := &mockResultRepo{}
		repo.On("GetByID", mock.Anything, "g1").Return(nil, errRedisDown).Once()
		useCase, _ := newTestUseCase(t, repo)

		_, err := useCase.GetResult(ctx, "g1")

		require.ErrorIs(t, err, errRedisDown)
		assert.NotErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("Reports ErrNotFound when archiving is disabled", func(t *testing.T) {
		useCase, _ := newTestUseCase(t, nil)

		_, err := useCase.GetResult(ctx, "g1")

		require.ErrorIs(t, err, apperror.ErrNotFound)
	})
}

func TestGameUseCase_RunReaper(t *testing.T) {
	t.Run("Evicts finished sessions", func(t *testing.T) {
		// Given: a finished session and a waiting one
		useCase, registry := newTestUseCase(t, nil)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		_, _, err := useCase.CreateSession(ctx, "done")
		require.NoError(t, err)
		playToWin(ctx, t, useCase, "done")
		_, _, err = useCase.CreateSession(ctx, "waiting")
		require.NoError(t, err)

		// When: the reaper runs with no idle allowance
		go useCase.RunReaper(ctx, 10*time.Millisecond, 0)

		// Then: only the finished session disappears
		require.Eventually(t, func() bool { return registry.Len() == 1 }, 2*time.Second, 10*time.Millisecond)
		_, err = useCase.GetSession(ctx, "waiting")
		require.NoError(t, err)
	})

	t.Run("Returns immediately when disabled", func(t *testing.T) {
		useCase, _ := newTestUseCase(t, nil)

		returned := make(chan struct{})
		go func() {
			useCase.RunReaper(context.Background(), 0, time.Minute)
			close(returned)
		}()

		select {
		case <-returned:
		case <-time.After(time.Second):
			t.Fatal("reaper did not return")
		}
	})
}
