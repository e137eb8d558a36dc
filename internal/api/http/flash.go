package http

import (
	"encoding/gob"
	"net/http"

	"github.com/go-chi/httplog/v2"
)

const flashSessionName = "shorty_flash"

const (
	flashWarning = "warning"
	flashDanger  = "danger"
)

// flashMessage is a one-shot user notice carried across a redirect in the
// signed session cookie.
type flashMessage struct {
	Category string
	Message  string
}

func init() {
	gob.Register(flashMessage{})
}

func (h *handler) flash(w http.ResponseWriter, r *http.Request, category, message string) {
	const op = "api.http.handler.flash"

	// Get never fails fatally: a missing or tampered cookie yields a fresh
	// session, which is exactly what we want here.
	session, _ := h.sessions.Get(r, flashSessionName)

	session.AddFlash(flashMessage{Category: category, Message: message})

	if err := session.Save(r, w); err != nil {
		httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})
	}
}

// popFlashes drains pending flash messages and persists the emptied session.
func (h *handler) popFlashes(w http.ResponseWriter, r *http.Request) []flashMessage {
	const op = "api.http.handler.popFlashes"

	session, _ := h.sessions.Get(r, flashSessionName)

	raw := session.Flashes()
	if len(raw) == 0 {
		return nil
	}

	if err := session.Save(r, w); err != nil {
		httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})
	}

	messages := make([]flashMessage, 0, len(raw))
	for _, f := range raw {
		if msg, ok := f.(flashMessage); ok {
			messages = append(messages, msg)
		}
	}

	return messages
}
