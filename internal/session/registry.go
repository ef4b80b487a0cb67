package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-sessions/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-sessions/internal/entity"
)

// Registry maps session ids to live sessions.
type Registry struct {
	options Options

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry(options Options) *Registry {
	return &Registry{
		options:  options,
		sessions: make(map[string]*Session),
	}
}

// Create - registers a new session under id.
func (that *Registry) Create(id string) (entity.SessionState, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, exists := that.sessions[id]; exists {
		return entity.SessionState{}, fmt.Errorf("%w: id %s", apperror.ErrAlreadyExists, id)
	}

	session := New(id, that.options)
	that.sessions[id] = session

	return session.State(), nil
}

// Get - returns the session registered under id.
func (that *Registry) Get(id string) (*Session, error) {
	that.mu.RLock()
	session, exists := that.sessions[id]
	that.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: id %s", apperror.ErrNotFound, id)
	}

	return session, nil
}

func (that *Registry) Join(id string, mark entity.PlayerMark) (entity.SessionState, error) {
	session, err := that.Get(id)
	if err != nil {
		return entity.SessionState{}, err
	}

	return session.Join(mark)
}

func (that *Registry) Leave(id string, mark entity.PlayerMark) (entity.SessionState, error) {
	session, err := that.Get(id)
	if err != nil {
		return entity.SessionState{}, err
	}

	return session.Leave(mark)
}

func (that *Registry) SubmitMove(id string, mark entity.PlayerMark, cell int) (entity.SessionState, error) {
	session, err := that.Get(id)
	if err != nil {
		return entity.SessionState{}, err
	}

	return session.SubmitMove(mark, cell)
}

func (that *Registry) State(id string) (entity.SessionState, error) {
	session, err := that.Get(id)
	if err != nil {
		return entity.SessionState{}, err
	}

	return session.State(), nil
}

func (that *Registry) Subscribe(ctx context.Context, id string) (<-chan entity.SessionState, error) {
	session, err := that.Get(id)
	if err != nil {
		return nil, err
	}

	return session.Subscribe(ctx), nil
}

// Reap - evicts finished sessions without observers whose last commit is older than cutoff.
func (that *Registry) Reap(cutoff time.Time) []string {
	that.mu.Lock()
	defer that.mu.Unlock()

	var evicted []string
	for id, session := range that.sessions {
		if !session.State().IsFinished() {
			continue
		}

		if session.ObserverCount() > 0 || session.LastChanged().After(cutoff) {
			continue
		}

		delete(that.sessions, id)
		session.close()
		evicted = append(evicted, id)
	}

	return evicted
}

func (that *Registry) Len() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.sessions)
}

// Close - detaches every observer of every session.
func (that *Registry) Close() {
	that.mu.Lock()
	defer that.mu.Unlock()

	for id, session := range that.sessions {
		session.close()
		delete(that.sessions, id)
	}
}
