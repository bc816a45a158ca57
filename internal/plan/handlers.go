package plan

import (
	"backend-tripday/internal/planner"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, sessions *planner.SessionStore, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			Title string `json:"title"`
		}
		if err := c.BodyParser(&body); err != nil || body.Title == "" {
			return fiber.NewError(fiber.StatusBadRequest, "title required")
		}
		userID, _ := c.Locals("user_id").(string)

		state, err := sessions.Load(c.Context(), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}

		saved, err := svc.Save(c.Context(), ToDocument(body.Title, userID, state))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(saved)
	})

	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		plans, err := svc.List(c.Context(), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if plans == nil {
			plans = []Summary{}
		}
		return c.JSON(plans)
	})

	r.Get("/:id", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		doc, err := svc.Get(c.Context(), userID, c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "plan not found")
		}
		return c.JSON(FromDocument(doc))
	})

	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		if err := svc.Delete(c.Context(), userID, c.Params("id")); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
