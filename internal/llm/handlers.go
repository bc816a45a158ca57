package llm

import (
	"errors"
	"regexp"

	"github.com/gofiber/fiber/v2"
)

var hhmm = regexp.MustCompile(`^\d{2}:\d{2}$`)

// RegisterRoutes exposes destination-mode trip generation: the caller
// names a destination and the model picks the spots. This is a thin
// passthrough; the per-day planner flow lives in internal/planner.
func RegisterRoutes(r fiber.Router, client *Client, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req TripRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.Destination == "" {
			return fiber.NewError(fiber.StatusBadRequest, "destination required")
		}
		if req.Days < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "days must be at least 1")
		}
		if !hhmm.MatchString(req.StartTime) || !hhmm.MatchString(req.EndTime) || req.StartTime >= req.EndTime {
			return fiber.NewError(fiber.StatusBadRequest, "times must be HH:MM with start before end")
		}
		if req.Transport == "" {
			req.Transport = "public"
		}

		plan, err := client.GenerateTrip(c.Context(), req)
		if err != nil {
			var upstream *UpstreamError
			if errors.Is(err, ErrNoAPIKey) || errors.Is(err, ErrEmptyPlan) || errors.As(err, &upstream) {
				return fiber.NewError(fiber.StatusBadGateway, "generation failed: "+err.Error())
			}
			return fiber.NewError(fiber.StatusBadGateway, "communication error: "+err.Error())
		}
		return c.JSON(fiber.Map{"plan": plan})
	})
}
