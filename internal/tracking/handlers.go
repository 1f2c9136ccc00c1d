package tracking

import (
	"strconv"
	"time"

	"backend-tripline/internal/shared/apperror"
	"backend-tripline/internal/shared/geo"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts the sample routes on a router scoped to /trips/:id/samples.
func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req SampleCandidate
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		sample, err := svc.AddSample(c.Context(), c.Params("id"), req)
		if err != nil {
			return apperror.HTTP(err)
		}
		if sample == nil {
			// discarded as noise
			return c.Status(fiber.StatusOK).Send(nil)
		}
		return c.Status(fiber.StatusCreated).JSON(sample)
	})

	r.Post("/bulk", authMiddleware, func(c *fiber.Ctx) error {
		var req []SampleCandidate
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		result, err := svc.AddSamples(c.Context(), c.Params("id"), req)
		if err != nil {
			return apperror.HTTP(err)
		}
		status := fiber.StatusOK
		if len(result.Admitted) > 0 {
			status = fiber.StatusCreated
		}
		return c.Status(status).JSON(result)
	})

	r.Get("/", func(c *fiber.Ctx) error {
		samples, err := querySamples(c, svc)
		if err != nil {
			return apperror.HTTP(err)
		}
		return c.JSON(samples)
	})

	r.Get("/latest", func(c *fiber.Ctx) error {
		sample, err := svc.Latest(c.Context(), c.Params("id"))
		if err != nil {
			return apperror.HTTP(err)
		}
		if sample == nil {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.JSON(sample)
	})

	r.Get("/distance", func(c *fiber.Ctx) error {
		meters, err := svc.TotalDistanceMeters(c.Context(), c.Params("id"))
		if err != nil {
			return apperror.HTTP(err)
		}
		return c.JSON(fiber.Map{
			"trip_id":           c.Params("id"),
			"total_distance_m":  meters,
			"total_distance_km": meters / 1000,
		})
	})

	r.Get("/count", func(c *fiber.Ctx) error {
		n, err := svc.SampleCount(c.Context(), c.Params("id"))
		if err != nil {
			return apperror.HTTP(err)
		}
		return c.JSON(fiber.Map{"trip_id": c.Params("id"), "count": n})
	})

	r.Delete("/:sampleID", authMiddleware, func(c *fiber.Ctx) error {
		sampleID, err := strconv.ParseInt(c.Params("sampleID"), 10, 64)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "sample id must be an integer")
		}
		if err := svc.DeleteSample(c.Context(), c.Params("id"), sampleID); err != nil {
			return apperror.HTTP(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

// querySamples picks the read from the query string: a time range
// (start, end), a radius (lat, lng, radius) or a box (min_lat, min_lng,
// max_lat, max_lng). Without filters every sample is returned.
func querySamples(c *fiber.Ctx, svc *Service) ([]Sample, error) {
	tripID := c.Params("id")
	ctx := c.Context()

	switch {
	case c.Query("start") != "" || c.Query("end") != "":
		start, err := queryTime(c, "start")
		if err != nil {
			return nil, err
		}
		end, err := queryTime(c, "end")
		if err != nil {
			return nil, err
		}
		return svc.SamplesInRange(ctx, tripID, start, end)

	case c.Query("radius") != "":
		vals, err := queryFloats(c, "lat", "lng", "radius")
		if err != nil {
			return nil, err
		}
		return svc.SamplesNear(ctx, tripID, geo.Coordinate{Lat: vals[0], Lng: vals[1]}, vals[2])

	case c.Query("min_lat") != "":
		vals, err := queryFloats(c, "min_lat", "min_lng", "max_lat", "max_lng")
		if err != nil {
			return nil, err
		}
		return svc.SamplesInBounds(ctx, tripID, geo.Bounds{MinLat: vals[0], MinLng: vals[1], MaxLat: vals[2], MaxLng: vals[3]})
	}
	return svc.Samples(ctx, tripID)
}

func queryTime(c *fiber.Ctx, key string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, c.Query(key))
	if err != nil {
		return time.Time{}, apperror.Invalid("%s must be an RFC3339 timestamp", key)
	}
	return t, nil
}

func queryFloats(c *fiber.Ctx, keys ...string) ([]float64, error) {
	out := make([]float64, len(keys))
	for i, key := range keys {
		v, err := strconv.ParseFloat(c.Query(key), 64)
		if err != nil {
			return nil, apperror.Invalid("%s must be a number", key)
		}
		out[i] = v
	}
	return out, nil
}
