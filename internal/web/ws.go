package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/jaminalder/codex-snake/internal/domain"
)

const wsWriteWait = 10 * time.Second

var upgrader = websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 4096}

// wsMessage is what clients send: a key name, or a type of "restart" or
// "pause" as shorthands.
type wsMessage struct {
	Type string `json:"type,omitempty"`
	Key  string `json:"key,omitempty"`
}

func (m wsMessage) keyName() string {
	switch m.Type {
	case "restart", "pause":
		return m.Type
	}
	return m.Key
}

type wsError struct {
	Error string `json:"error"`
}

// socket streams snapshots of a game and accepts key messages from its owner.
// Snapshots are JSON text frames, or msgpack binary frames with
// ?format=msgpack.
func (h *handlers) socket(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	snap, err := h.svc.Snapshot(id)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	pid := playerID(r)
	binary := r.URL.Query().Get("format") == "msgpack"

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade", "game", id, "err", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, unsub, err := h.svc.Subscribe(ctx, id)
	if err != nil {
		return
	}
	defer unsub()

	// Only this goroutine writes to conn; the reader hands refusals back here.
	refusals := make(chan string, 4)
	go func() {
		defer cancel()
		for {
			var msg wsMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			if _, err := h.svc.Input(id, pid, msg.keyName()); err != nil {
				select {
				case refusals <- errorMessage(err):
				default:
				}
			}
		}
	}()

	if err := writeSnapshot(conn, snap, binary); err != nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-refusals:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(wsError{Error: msg}); err != nil {
				return
			}
		case snap, ok := <-ch:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage, h.closeFrame(id), time.Now().Add(wsWriteWait))
				return
			}
			if err := writeSnapshot(conn, snap, binary); err != nil {
				return
			}
		}
	}
}

// closeFrame explains why the snapshot stream ended: the game is gone, or
// this client fell behind and was dropped while the game goes on.
func (h *handlers) closeFrame(id string) []byte {
	if _, err := h.svc.Snapshot(id); err != nil {
		return websocket.FormatCloseMessage(websocket.CloseGoingAway, "game closed")
	}
	return websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "stream ended, reconnect")
}

func writeSnapshot(conn *websocket.Conn, snap domain.Snapshot, binary bool) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if !binary {
		return conn.WriteJSON(snap)
	}
	b, err := msgpack.Marshal(&snap)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.BinaryMessage, b)
}
