package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rocketscienceinc/tictactoe-sessions/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-sessions/internal/entity"
)

// Options tunes rule policies shared by every session of a registry.
type Options struct {
	// EnforceTurn ignores moves from the player who does not hold the turn.
	EnforceTurn bool
}

// Session owns the authoritative state of one game.
//
// Mutations run one at a time under mu and publish the committed snapshot before the
// lock is released, so observers see commits in order. Reads go through an atomic
// pointer and never wait for a mutation.
type Session struct {
	id      string
	options Options

	mu          sync.Mutex
	state       atomic.Pointer[entity.SessionState]
	changedAt   atomic.Int64
	broadcaster *Broadcaster
}

func New(id string, options Options) *Session {
	initial := entity.NewSessionState()

	session := &Session{
		id:          id,
		options:     options,
		broadcaster: NewBroadcaster(initial),
	}
	session.state.Store(&initial)
	session.changedAt.Store(time.Now().UnixNano())

	return session
}

func (that *Session) ID() string {
	return that.id
}

// State - returns the latest committed snapshot.
func (that *Session) State() entity.SessionState {
	return *that.state.Load()
}

// Join - takes the seat of mark.
func (that *Session) Join(mark entity.PlayerMark) (entity.SessionState, error) {
	if !mark.IsPlayable() {
		return that.State(), fmt.Errorf("%w: %q", apperror.ErrInvalidMark, mark)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	current := that.State()

	if current.Occupancy.Has(mark) {
		return current, fmt.Errorf("%w: player %s in session %s", apperror.ErrAlreadyJoined, mark, that.id)
	}

	if current.IsFinished() {
		return current, fmt.Errorf("%w: session %s", apperror.ErrGameFinished, that.id)
	}

	return that.commit(current.WithSeat(mark, true)), nil
}

// Leave - frees the seat of mark. Leaving an empty seat still commits a snapshot.
func (that *Session) Leave(mark entity.PlayerMark) (entity.SessionState, error) {
	if !mark.IsPlayable() {
		return that.State(), fmt.Errorf("%w: %q", apperror.ErrInvalidMark, mark)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	return that.commit(that.State().WithSeat(mark, false)), nil
}

// SubmitMove - places mark on cell when the move is legal. An illegal move on a valid
// cell is ignored and the unchanged snapshot is returned without an error.
func (that *Session) SubmitMove(mark entity.PlayerMark, cell int) (entity.SessionState, error) {
	if !mark.IsPlayable() {
		return that.State(), fmt.Errorf("%w: %q", apperror.ErrInvalidMark, mark)
	}

	if !entity.IsValidCell(cell) {
		return that.State(), fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	current := that.State()

	if !current.CanMove(cell) {
		return current, nil
	}

	if that.options.EnforceTurn && current.Turn != mark {
		return current, nil
	}

	return that.commit(current.ApplyMove(mark, cell)), nil
}

// Subscribe - streams the current snapshot followed by every later commit until ctx is done.
func (that *Session) Subscribe(ctx context.Context) <-chan entity.SessionState {
	return that.broadcaster.Attach(ctx)
}

func (that *Session) ObserverCount() int {
	return that.broadcaster.Count()
}

// LastChanged - returns the time of the latest commit.
func (that *Session) LastChanged() time.Time {
	return time.Unix(0, that.changedAt.Load())
}

func (that *Session) close() {
	that.broadcaster.Close()
}

// commit must be called with mu held.
func (that *Session) commit(next entity.SessionState) entity.SessionState {
	that.state.Store(&next)
	that.changedAt.Store(time.Now().UnixNano())
	that.broadcaster.Publish(next)

	return next
}
