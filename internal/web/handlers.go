package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jaminalder/codex-snake/internal/app"
	"github.com/jaminalder/codex-snake/internal/domain"
)

type handlers struct {
	svc *app.Service
	tpl *templates
	log *slog.Logger
}

func (h *handlers) renderBoard(id string, snap domain.Snapshot, spectator bool, errMsg string) []byte {
	return renderTemplate(h.tpl.board, "", newBoardData(id, snap, spectator, errMsg))
}

func writeHTML(w http.ResponseWriter, status int, b []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

func (h *handlers) index(w http.ResponseWriter, r *http.Request) {
	writeHTML(w, http.StatusOK, renderTemplate(h.tpl.index, "base", nil))
}

func (h *handlers) create(w http.ResponseWriter, r *http.Request) {
	pid := ensurePlayerCookie(w, r)
	ss, err := h.svc.CreateGame(pid)
	if err != nil {
		h.log.Error("create game", "err", err)
		http.Error(w, "failed to create", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/game/"+ss.ID, http.StatusSeeOther)
}

func (h *handlers) view(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	pid := ensurePlayerCookie(w, r)
	ss, ok := h.svc.Get(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	data := newBoardData(ss.ID, ss.Game.Snapshot(), ss.Owner != pid, "")
	writeHTML(w, http.StatusOK, renderTemplate(h.tpl.game, "base", data))
}

func (h *handlers) board(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ss, ok := h.svc.Get(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeHTML(w, http.StatusOK, h.renderBoard(ss.ID, ss.Game.Snapshot(), ss.Owner != playerID(r), ""))
}

func (h *handlers) state(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Snapshot(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *handlers) key(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	key := r.Form.Get("key")
	h.control(w, r, func(id, pid string) (*app.Session, error) {
		return h.svc.Input(id, pid, key)
	})
}

func (h *handlers) restart(w http.ResponseWriter, r *http.Request) {
	h.control(w, r, h.svc.Restart)
}

func (h *handlers) pause(w http.ResponseWriter, r *http.Request) {
	h.control(w, r, h.svc.TogglePause)
}

// control runs an owner-only action and answers with the board fragment,
// carrying an error message when the action was refused.
func (h *handlers) control(w http.ResponseWriter, r *http.Request, act func(id, pid string) (*app.Session, error)) {
	id := chi.URLParam(r, "id")
	pid := playerID(r)
	ss, err := act(id, pid)
	var errMsg string
	if err != nil {
		if errors.Is(err, app.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		errMsg = errorMessage(err)
		cur, ok := h.svc.Get(id)
		if !ok {
			http.NotFound(w, r)
			return
		}
		ss = cur
	}
	status := http.StatusOK
	if errors.Is(err, app.ErrNotOwner) {
		status = http.StatusForbidden
	}
	writeHTML(w, status, h.renderBoard(ss.ID, ss.Game.Snapshot(), ss.Owner != pid, errMsg))
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, app.ErrNotOwner):
		return "You are a spectator"
	case errors.Is(err, app.ErrNotFound):
		return "Game not found"
	default:
		return "Invalid input"
	}
}

var heartbeatInterval = 15 * time.Second

func (h *handlers) events(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ss, ok := h.svc.Get(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	// In tests or non-EventSource requests, just acknowledge headers and return
	if r.Header.Get("Accept") != "text/event-stream" {
		w.WriteHeader(http.StatusOK)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		w.WriteHeader(http.StatusOK)
		return
	}
	ctx := r.Context()
	ch, unsub, err := h.svc.Subscribe(ctx, id)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	defer unsub()
	spectator := ss.Owner != playerID(r)

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	flusher.Flush()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = io.WriteString(w, ": ping\n\n")
			flusher.Flush()
		case snap, ok := <-ch:
			if !ok {
				return
			}
			writeEvent(w, "board", h.renderBoard(id, snap, spectator, ""))
			flusher.Flush()
		}
	}
}

// writeEvent writes one SSE event; every payload line gets its own data field.
func writeEvent(w io.Writer, event string, payload []byte) {
	_, _ = fmt.Fprintf(w, "event: %s\n", event)
	for _, line := range strings.Split(string(payload), "\n") {
		_, _ = fmt.Fprintf(w, "data: %s\n", line)
	}
	_, _ = io.WriteString(w, "\n")
}
