package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"encrypted-match-system/middleware"
)

const sseKeepAlive = 15 * time.Second

// SetupEventRoutes exposes domain events as a server-sent event stream.
func SetupEventRoutes(app *fiber.App, core Core, gatewayToken string) {
	app.Get("/events/stream", middleware.SSEAuthMiddleware(gatewayToken), func(c *fiber.Ctx) error {
		return streamEvents(c, core)
	})
}

func streamEvents(c *fiber.Ctx, core Core) error {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx

	events, cancel := core.Subscribe()

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()

		ticker := time.NewTicker(sseKeepAlive)
		defer ticker.Stop()

		w.WriteString(":\n\n")
		if err := w.Flush(); err != nil {
			return
		}

		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				payload, _ := json.Marshal(ev)
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, payload)
				if err := w.Flush(); err != nil {
					// Client disconnected
					return
				}

			case <-ticker.C:
				w.WriteString(":\n\n")
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	})

	return nil
}
