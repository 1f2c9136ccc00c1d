package trip

import (
	"backend-tripline/internal/auth"
	"backend-tripline/internal/shared/apperror"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req Trip
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.UserID == "" {
			req.UserID = auth.UserID(c)
		}
		if req.UserID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "user_id required")
		}
		t, err := svc.StartTrip(c.Context(), req)
		if err != nil {
			return apperror.HTTP(err)
		}
		return c.Status(fiber.StatusCreated).JSON(TripWithStats{Trip: t, Stats: ComputeStats(nil, nil)})
	})

	r.Get("/user/:userID", func(c *fiber.Ctx) error {
		trips, err := svc.TripsByUser(c.Context(), c.Params("userID"))
		if err != nil {
			return apperror.HTTP(err)
		}
		return c.JSON(trips)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		t, err := svc.TripWithStats(c.Context(), c.Params("id"))
		if err != nil {
			return apperror.HTTP(err)
		}
		return c.JSON(t)
	})

	r.Post("/:id/end", authMiddleware, func(c *fiber.Ctx) error {
		t, err := svc.EndTrip(c.Context(), c.Params("id"))
		if err != nil {
			return apperror.HTTP(err)
		}
		return c.JSON(t)
	})

	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.DeleteTrip(c.Context(), c.Params("id")); err != nil {
			return apperror.HTTP(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Get("/:id/stats", func(c *fiber.Ctx) error {
		stats, err := svc.Stats(c.Context(), c.Params("id"))
		if err != nil {
			return apperror.HTTP(err)
		}
		return c.JSON(stats)
	})

	r.Get("/:id/segments", func(c *fiber.Ctx) error {
		segments, err := svc.Segments(c.Context(), c.Params("id"))
		if err != nil {
			return apperror.HTTP(err)
		}
		return c.JSON(segments)
	})

	r.Get("/:id/timeline", func(c *fiber.Ctx) error {
		tl, err := svc.Timeline(c.Context(), c.Params("id"))
		if err != nil {
			return apperror.HTTP(err)
		}
		return c.JSON(tl)
	})
}
