package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	observing map[string]context.CancelFunc
}

// reply - queues a message for the writer. It gives up once the connection is gone.
func (that *client) reply(action string, payload Payload) {
	body, err := json.Marshal(payload)
	if err != nil {
		return
	}

	data, err := json.Marshal(Message{Action: action, Payload: body})
	if err != nil {
		return
	}

	select {
	case that.send <- data:
	case <-that.ctx.Done():
	}
}

// observe - registers cancel as the observation of id, replacing an earlier one.
func (that *client) observe(id string, cancel context.CancelFunc) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if previous, ok := that.observing[id]; ok {
		previous()
	}

	that.observing[id] = cancel
}

func (that *client) unobserve(id string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	cancel, ok := that.observing[id]
	if ok {
		cancel()
		delete(that.observing, id)
	}

	return ok
}

func (that *client) writePump(log *slog.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data := <-that.send:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error("failed to write message", "error", err)
				that.cancel()
				_ = that.conn.Close()
				return
			}
		case <-ticker.C:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				that.cancel()
				_ = that.conn.Close()
				return
			}
		case <-that.ctx.Done():
			_ = that.conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait),
			)
			_ = that.conn.Close()
			return
		}
	}
}
