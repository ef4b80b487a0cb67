package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rocketscienceinc/tictactoe-sessions/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-sessions/internal/entity"
)

var errBadRequest = errors.New("bad request")

type createRequest struct {
	ID string `json:"id"`
}

type seatRequest struct {
	Mark string `json:"mark"`
}

type moveRequest struct {
	Mark     string `json:"mark"`
	Position *int   `json:"position"`
}

type sessionResponse struct {
	ID      string              `json:"id"`
	Session entity.SessionState `json:"session"`
	Draw    bool                `json:"draw"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (that *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			that.writeError(w, r, err)
			return
		}
	}

	id, state, err := that.gameUseCase.CreateSession(r.Context(), req.ID)
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	that.writeJSON(w, http.StatusCreated, newSessionResponse(id, state))
}

func (that *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	state, err := that.gameUseCase.GetSession(r.Context(), id)
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	that.writeJSON(w, http.StatusOK, newSessionResponse(id, state))
}

func (that *Server) handleJoinSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	mark, err := decodeSeat(r)
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	state, err := that.gameUseCase.JoinSession(r.Context(), id, mark)
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	that.writeJSON(w, http.StatusOK, newSessionResponse(id, state))
}

func (that *Server) handleLeaveSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	mark, err := decodeSeat(r)
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	state, err := that.gameUseCase.LeaveSession(r.Context(), id, mark)
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	that.writeJSON(w, http.StatusOK, newSessionResponse(id, state))
}

func (that *Server) handleSubmitMove(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req moveRequest
	if err := decode(r, &req); err != nil {
		that.writeError(w, r, err)
		return
	}

	if req.Position == nil {
		that.writeError(w, r, fmt.Errorf("%w: position is required", errBadRequest))
		return
	}

	mark, err := entity.ParseMark(req.Mark)
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	state, err := that.gameUseCase.SubmitMove(r.Context(), id, mark, *req.Position)
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	that.writeJSON(w, http.StatusOK, newSessionResponse(id, state))
}

func (that *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	result, err := that.gameUseCase.GetResult(r.Context(), r.PathValue("id"))
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	that.writeJSON(w, http.StatusOK, result)
}

func newSessionResponse(id string, state entity.SessionState) sessionResponse {
	return sessionResponse{
		ID:      id,
		Session: state,
		Draw:    state.IsDraw(),
	}
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}

	return nil
}

func decodeSeat(r *http.Request) (entity.PlayerMark, error) {
	var req seatRequest
	if err := decode(r, &req); err != nil {
		return entity.NoMark, err
	}

	return entity.ParseMark(req.Mark)
}

func statusFromError(err error) int {
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrAlreadyExists),
		errors.Is(err, apperror.ErrAlreadyJoined),
		errors.Is(err, apperror.ErrGameFinished):
		return http.StatusConflict
	case errors.Is(err, apperror.ErrInvalidCell),
		errors.Is(err, apperror.ErrInvalidMark),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (that *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFromError(err)
	if status == http.StatusInternalServerError {
		that.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}

	that.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (that *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		that.logger.Error("failed to write response", "error", err)
	}
}
