package websocket

import (
	"context"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-sessions/internal/entity"
)

var (
	ErrSessionIDRequired = errors.New("session id is required")
	ErrPositionRequired  = errors.New("position is required")
	ErrNotObserving      = errors.New("session is not observed")

	// errAlreadyReplied is returned by handlers that wrote their own response.
	errAlreadyReplied = errors.New("already replied")
)

func (that *Server) handlePing(_ context.Context, _ *client, _ Payload) (Payload, error) {
	return Payload{}, nil
}

func (that *Server) handleCreate(ctx context.Context, _ *client, req Payload) (Payload, error) {
	id, state, err := that.gameUseCase.CreateSession(ctx, req.SessionID)
	if err != nil {
		return Payload{}, err
	}

	return statePayload(id, state), nil
}

func (that *Server) handleJoin(ctx context.Context, _ *client, req Payload) (Payload, error) {
	mark, err := parseSeat(req)
	if err != nil {
		return Payload{}, err
	}

	state, err := that.gameUseCase.JoinSession(ctx, req.SessionID, mark)
	if err != nil {
		return Payload{}, err
	}

	return statePayload(req.SessionID, state), nil
}

func (that *Server) handleLeave(ctx context.Context, _ *client, req Payload) (Payload, error) {
	mark, err := parseSeat(req)
	if err != nil {
		return Payload{}, err
	}

	state, err := that.gameUseCase.LeaveSession(ctx, req.SessionID, mark)
	if err != nil {
		return Payload{}, err
	}

	return statePayload(req.SessionID, state), nil
}

func (that *Server) handleMove(ctx context.Context, _ *client, req Payload) (Payload, error) {
	mark, err := parseSeat(req)
	if err != nil {
		return Payload{}, err
	}

	if req.Position == nil {
		return Payload{}, ErrPositionRequired
	}

	state, err := that.gameUseCase.SubmitMove(ctx, req.SessionID, mark, *req.Position)
	if err != nil {
		return Payload{}, err
	}

	return statePayload(req.SessionID, state), nil
}

func (that *Server) handleState(ctx context.Context, _ *client, req Payload) (Payload, error) {
	if req.SessionID == "" {
		return Payload{}, ErrSessionIDRequired
	}

	state, err := that.gameUseCase.GetSession(ctx, req.SessionID)
	if err != nil {
		return Payload{}, err
	}

	return statePayload(req.SessionID, state), nil
}

// handleObserve - acknowledges the request, then forwards every snapshot of the session
// as a session:update message until the client unobserves or disconnects.
func (that *Server) handleObserve(ctx context.Context, c *client, req Payload) (Payload, error) {
	if req.SessionID == "" {
		return Payload{}, ErrSessionIDRequired
	}

	observeCtx, cancel := context.WithCancel(ctx)

	updates, err := that.gameUseCase.Observe(observeCtx, req.SessionID)
	if err != nil {
		cancel()
		return Payload{}, err
	}

	c.observe(req.SessionID, cancel)
	c.reply(actionObserve, Payload{SessionID: req.SessionID})

	go func() {
		for state := range updates {
			if observeCtx.Err() != nil {
				return
			}

			c.reply(actionUpdate, statePayload(req.SessionID, state))
		}
	}()

	return Payload{}, errAlreadyReplied
}

func (that *Server) handleUnobserve(_ context.Context, c *client, req Payload) (Payload, error) {
	if !c.unobserve(req.SessionID) {
		return Payload{}, fmt.Errorf("%w: %s", ErrNotObserving, req.SessionID)
	}

	return Payload{SessionID: req.SessionID}, nil
}

func parseSeat(req Payload) (entity.PlayerMark, error) {
	if req.SessionID == "" {
		return entity.NoMark, ErrSessionIDRequired
	}

	return entity.ParseMark(req.Mark)
}
