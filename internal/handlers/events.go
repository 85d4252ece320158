package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"cardform/internal/models"
	"cardform/internal/services/paymentform"

	"github.com/gofiber/fiber/v2"
)

type stateSource interface {
	Subscribe(observer paymentform.Observer) (unsubscribe func())
	Done() <-chan struct{}
}

// Events streams every published state of the form as server-sent events.
// The stream ends when the client goes away or the form is disposed.
func (h *FormHandler) Events(c *fiber.Ctx) error {
	session, err := h.session(c)
	if err != nil {
		return h.sessionError(c, err)
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	ctrl := session.Controller
	keepAlive := h.keepAlive
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		if err := streamStates(w, ctrl, keepAlive); err != nil {
			h.logger.Debugw("Event stream ended", "session", session.ID, "error", err)
		}
	})
	return nil
}

func streamStates(w *bufio.Writer, src stateSource, keepAlive time.Duration) error {
	states := make(chan models.FormState, 16)
	stop := make(chan struct{})
	defer close(stop)

	unsubscribe := src.Subscribe(func(s models.FormState) {
		select {
		case states <- s:
		case <-stop:
		}
	})
	defer unsubscribe()

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	for {
		select {
		case s := <-states:
			payload, err := json.Marshal(s)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "event: state\nid: %d\ndata: %s\n\n", s.Version, payload)
		case <-ticker.C:
			fmt.Fprint(w, ": keepalive\n\n")
		case <-src.Done():
			fmt.Fprint(w, "event: closed\ndata: {}\n\n")
			return w.Flush()
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
}
