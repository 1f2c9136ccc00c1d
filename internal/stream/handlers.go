package stream

import (
	"context"

	"backend-tripline/internal/shared/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// TripLookup guards the websocket route against unknown trips.
type TripLookup interface {
	Exists(ctx context.Context, id string) (bool, error)
}

func RegisterRoutes(r fiber.Router, hub *Hub, trips TripLookup) {
	r.Get("/ws/:tripID", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		if trips != nil {
			ok, err := trips.Exists(c.Context(), c.Params("tripID"))
			if err != nil {
				return apperror.HTTP(err)
			}
			if !ok {
				return fiber.NewError(fiber.StatusNotFound, "trip not found")
			}
		}
		return c.Next()
	}, websocket.New(func(c *websocket.Conn) {
		client := hub.Register(c.Params("tripID"))
		defer hub.Unregister(client)

		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := c.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case msg, ok := <-client.Send:
				if !ok {
					return
				}
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}))
}
