package planner

import (
	"context"
	"errors"

	"backend-tripday/internal/bookmark"
	"backend-tripday/internal/llm"
	"backend-tripday/internal/shared/geo"

	"github.com/gofiber/fiber/v2"
)

// BookmarkSource resolves a bookmark id to its saved place. Satisfied
// by *bookmark.Service.
type BookmarkSource interface {
	Get(ctx context.Context, userID, id string) (bookmark.Bookmark, error)
}

func RegisterRoutes(r fiber.Router, svc *Service, bookmarks BookmarkSource, authMiddleware fiber.Handler) {
	sessions := svc.Sessions()

	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		state, err := sessions.Load(c.Context(), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(state)
	})

	r.Put("/days", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			Days int `json:"days"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return mutate(c, sessions, func(s State) (State, error) {
			return Reconcile(s, body.Days)
		})
	})

	r.Put("/transport", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			Transport string `json:"transport"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return mutate(c, sessions, func(s State) (State, error) {
			return SetTransport(s, body.Transport)
		})
	})

	r.Put("/active-day", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			Day int `json:"day"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return mutate(c, sessions, func(s State) (State, error) {
			return SelectDay(s, body.Day)
		})
	})

	r.Post("/days/:day/spots", authMiddleware, func(c *fiber.Ctx) error {
		day, err := c.ParamsInt("day")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "day must be a number")
		}
		var body struct {
			BookmarkID string `json:"bookmark_id"`
		}
		if err := c.BodyParser(&body); err != nil || body.BookmarkID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "bookmark_id required")
		}
		userID, _ := c.Locals("user_id").(string)

		b, err := bookmarks.Get(c.Context(), userID, body.BookmarkID)
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "bookmark not found")
		}
		spot := Spot{BookmarkID: b.ID, Name: b.Name, Lat: b.Lat, Lng: b.Lng}
		return mutate(c, sessions, func(s State) (State, error) {
			return AddToDay(s, day, spot)
		})
	})

	r.Delete("/days/:day/spots/:bookmarkID", authMiddleware, func(c *fiber.Ctx) error {
		day, err := c.ParamsInt("day")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "day must be a number")
		}
		bookmarkID := c.Params("bookmarkID")
		return mutate(c, sessions, func(s State) (State, error) {
			return RemoveFromDay(s, day, bookmarkID)
		})
	})

	r.Post("/days/:day/move", authMiddleware, func(c *fiber.Ctx) error {
		day, err := c.ParamsInt("day")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "day must be a number")
		}
		var body struct {
			Index     int    `json:"index"`
			Direction string `json:"direction"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if body.Direction != "up" && body.Direction != "down" {
			return fiber.NewError(fiber.StatusBadRequest, "direction must be up or down")
		}
		return mutate(c, sessions, func(s State) (State, error) {
			if body.Direction == "up" {
				return MoveUp(s, day, body.Index)
			}
			return MoveDown(s, day, body.Index)
		})
	})

	r.Put("/days/:day/times", authMiddleware, func(c *fiber.Ctx) error {
		day, err := c.ParamsInt("day")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "day must be a number")
		}
		var body TimeWindow
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return mutate(c, sessions, func(s State) (State, error) {
			return SetTimeWindow(s, day, body)
		})
	})

	r.Post("/days/:day/status/ack", authMiddleware, func(c *fiber.Ctx) error {
		day, err := c.ParamsInt("day")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "day must be a number")
		}
		return mutate(c, sessions, func(s State) (State, error) {
			return AckStatus(s, day)
		})
	})

	r.Post("/days/:day/generate", authMiddleware, func(c *fiber.Ctx) error {
		day, err := c.ParamsInt("day")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "day must be a number")
		}
		userID, _ := c.Locals("user_id").(string)

		result, err := svc.GenerateDay(c.Context(), userID, day)
		if err != nil {
			return fiber.NewError(generateStatus(err), generateMessage(err))
		}
		return c.JSON(result)
	})

	r.Get("/days/:day/summary", authMiddleware, func(c *fiber.Ctx) error {
		day, err := c.ParamsInt("day")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "day must be a number")
		}
		userID, _ := c.Locals("user_id").(string)
		state, err := sessions.Load(c.Context(), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		plan, ok := state.Schedule[day]
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "day not found")
		}

		distanceKm := 0.0
		for i := 1; i < len(plan.Spots); i++ {
			prev, cur := plan.Spots[i-1], plan.Spots[i]
			distanceKm += geo.HaversineKm(prev.Lat, prev.Lng, cur.Lat, cur.Lng)
		}
		return c.JSON(fiber.Map{
			"day":         day,
			"spot_count":  len(plan.Spots),
			"distance_km": distanceKm,
			"start_time":  state.Times[day].StartTime,
			"end_time":    state.Times[day].EndTime,
		})
	})
}

// mutate runs one reducer against the stored state and saves the result.
func mutate(c *fiber.Ctx, sessions *SessionStore, apply func(State) (State, error)) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "user identity missing")
	}

	state, err := sessions.Load(c.Context(), userID)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	next, err := apply(state)
	if err != nil {
		return fiber.NewError(reducerStatus(err), err.Error())
	}
	if err := sessions.Save(c.Context(), userID, next); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(next)
}

func reducerStatus(err error) int {
	if errors.Is(err, ErrDayOutOfRange) {
		return fiber.StatusNotFound
	}
	return fiber.StatusBadRequest
}

func generateStatus(err error) int {
	switch {
	case errors.Is(err, ErrDayOutOfRange):
		return fiber.StatusNotFound
	case errors.Is(err, ErrNoSpots), errors.Is(err, ErrBadTimeFormat), errors.Is(err, ErrTimeOrder):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusBadGateway
	}
}

func generateMessage(err error) string {
	var upstream *llm.UpstreamError
	switch {
	case errors.Is(err, ErrNoSpots), errors.Is(err, ErrBadTimeFormat),
		errors.Is(err, ErrTimeOrder), errors.Is(err, ErrDayOutOfRange):
		return err.Error()
	case errors.Is(err, llm.ErrNoAPIKey), errors.Is(err, llm.ErrEmptyPlan), errors.As(err, &upstream):
		return "generation failed: " + err.Error()
	default:
		return "communication error: " + err.Error()
	}
}
