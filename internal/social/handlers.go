package social

import (
	"strconv"

	"backend-tripline/internal/auth"
	"backend-tripline/internal/shared/apperror"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/posts", authMiddleware, func(c *fiber.Ctx) error {
		var req Post
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.UserID == "" {
			req.UserID = auth.UserID(c)
		}
		if req.TripID == "" || req.UserID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "trip_id and user_id required")
		}
		post, err := svc.CreatePost(c.Context(), req)
		if err != nil {
			return apperror.HTTP(err)
		}
		return c.Status(fiber.StatusCreated).JSON(post)
	})

	r.Post("/posts/:id/media", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			URL  string `json:"url"`
			Kind string `json:"kind"`
		}
		if err := c.BodyParser(&body); err != nil || body.URL == "" {
			return fiber.NewError(fiber.StatusBadRequest, "url required")
		}
		media, err := svc.AddMedia(c.Context(), c.Params("id"), body.URL, body.Kind)
		if err != nil {
			return apperror.HTTP(err)
		}
		return c.Status(fiber.StatusCreated).JSON(media)
	})

	r.Get("/samples/:sampleID/posts", func(c *fiber.Ctx) error {
		sampleID, err := strconv.ParseInt(c.Params("sampleID"), 10, 64)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "sample id must be an integer")
		}
		posts, err := svc.PostsForSample(c.Context(), sampleID)
		if err != nil {
			return apperror.HTTP(err)
		}
		return c.JSON(posts)
	})

	r.Get("/trips/:tripID/posts", func(c *fiber.Ctx) error {
		posts, err := svc.PostsForTrip(c.Context(), c.Params("tripID"))
		if err != nil {
			return apperror.HTTP(err)
		}
		return c.JSON(posts)
	})
}
