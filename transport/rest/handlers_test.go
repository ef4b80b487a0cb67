package rest

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-sessions/internal/entity"
	"github.com/rocketscienceinc/tictactoe-sessions/internal/session"
	"github.com/rocketscienceinc/tictactoe-sessions/internal/usecase"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := session.NewRegistry(session.Options{})
	t.Cleanup(registry.Close)

	server := httptest.NewServer(New(logger, usecase.NewGameUseCase(logger, registry, nil)).Handler())
	t.Cleanup(server.Close)

	return server
}

func post(t *testing.T, url string, body any) *http.Response {
	t.Helper()

	var reader io.Reader = http.NoBody
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	resp, err := http.Post(url, "application/json", reader) //nolint: noctx // test helper
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	return resp
}

func decodeSession(t *testing.T, resp *http.Response) sessionResponse {
	t.Helper()

	var body sessionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	return body
}

func TestPing(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/ping") //nolint: noctx // test
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pong", string(body))
}

func TestSessionAPI_FullGame(t *testing.T) {
	// Given: a running API
	server := newTestServer(t)

	// When: a session is created
	resp := post(t, server.URL+"/sessions", createRequest{ID: "g1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeSession(t, resp)
	assert.Equal(t, "g1", created.ID)
	assert.Equal(t, entity.StatusInitializing, created.Session.Status)

	// And: both players join
	resp = post(t, server.URL+"/sessions/g1/join", seatRequest{Mark: "X"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = post(t, server.URL+"/sessions/g1/join", seatRequest{Mark: "O"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, entity.StatusActive, decodeSession(t, resp).Session.Status)

	// And: they play until X wins
	var last sessionResponse
	for _, move := range []struct {
		mark string
		cell int
	}{{"X", 0}, {"O", 1}, {"X", 3}, {"O", 2}, {"X", 6}} {
		cell := move.cell
		resp = post(t, server.URL+"/sessions/g1/moves", moveRequest{Mark: move.mark, Position: &cell})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		last = decodeSession(t, resp)
	}

	// Then: the final state is reported
	assert.Equal(t, entity.StatusFinished, last.Session.Status)
	assert.Equal(t, entity.PlayerX, last.Session.Winner)
	assert.False(t, last.Draw)

	getResp, err := http.Get(server.URL + "/sessions/g1") //nolint: noctx // test
	require.NoError(t, err)
	defer getResp.Body.Close()
	assert.Equal(t, last.Session, decodeSession(t, getResp).Session)
}

func TestSessionAPI_Errors(t *testing.T) {
	server := newTestServer(t)
	resp := post(t, server.URL+"/sessions", createRequest{ID: "g1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	position := 4
	badPosition := 9

	tests := []struct {
		name   string
		path   string
		body   any
		status int
	}{
		{"duplicate session", "/sessions", createRequest{ID: "g1"}, http.StatusConflict},
		{"unknown session", "/sessions/missing/join", seatRequest{Mark: "X"}, http.StatusNotFound},
		{"invalid mark", "/sessions/g1/join", seatRequest{Mark: "Z"}, http.StatusBadRequest},
		{"missing position", "/sessions/g1/moves", seatRequest{Mark: "X"}, http.StatusBadRequest},
		{"cell out of range", "/sessions/g1/moves", moveRequest{Mark: "X", Position: &badPosition}, http.StatusBadRequest},
		{"move on unknown session", "/sessions/missing/moves", moveRequest{Mark: "X", Position: &position}, http.StatusNotFound},
		{"malformed body", "/sessions/g1/leave", "not an object", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, server.URL+tt.path, tt.body)

			assert.Equal(t, tt.status, resp.StatusCode)

			var body errorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.NotEmpty(t, body.Error)
		})
	}

	t.Run("seat already taken", func(t *testing.T) {
		resp := post(t, server.URL+"/sessions/g1/join", seatRequest{Mark: "X"})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp = post(t, server.URL+"/sessions/g1/join", seatRequest{Mark: "X"})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})
}

func TestSessionAPI_CreateWithoutID(t *testing.T) {
	server := newTestServer(t)

	resp := post(t, server.URL+"/sessions", nil)

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, decodeSession(t, resp).ID)
}

func TestSessionAPI_ResultsWithoutArchive(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/results/g1") //nolint: noctx // test
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
