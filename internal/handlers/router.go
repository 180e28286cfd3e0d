package handlers

import (
	"errors"

	"intake/internal/app"
	"intake/internal/handlers/middleware"
	"intake/internal/logger"
	. "intake/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type Handler struct {
	middleware middleware.Middleware
	log        logger.Logger
	router     fiber.Router
}

func Router(router fiber.Router, app *app.App) (err error) {
	router.Use(app.Middleware.SecurityHeaders())
	setupWebSocketRoute(router, app)

	api := router.Group("/api")
	HealthHandler(api, app)
	NewSessionHandler(*app, api).Register()
	NewQuestionnaireHandler(*app, api).Register()
	NewAdminHandler(*app, api).Register()

	return nil
}

func setupWebSocketRoute(router fiber.Router, app *app.App) {
	router.Use("/ws", app.Middleware.WebsocketUpgrade())
	router.Get("/ws", websocket.New(func(c *websocket.Conn) {
		app.Websocket.HandleConnection(c)
	}))
}

// respondError maps domain errors onto HTTP statuses. Storage failures are
// logged and reported without internals.
func (h Handler) respondError(c *fiber.Ctx, function string, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, ErrStepOutOfOrder):
		status = fiber.StatusConflict
	case errors.Is(err, ErrValidation):
		status = fiber.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		status = fiber.StatusNotFound
	}

	if status == fiber.StatusInternalServerError {
		h.log.Function(function).Er("request failed", err, "path", c.Path())
		return c.Status(status).JSON(fiber.Map{"message": "error", "error": "internal server error"})
	}

	return c.Status(status).JSON(fiber.Map{"message": "error", "error": err.Error()})
}

func (h Handler) badRequest(c *fiber.Ctx, function string, err error) error {
	h.log.Function(function).Debug("failed to parse request", "error", err)
	return c.Status(fiber.StatusBadRequest).
		JSON(fiber.Map{"message": "error", "error": "failed to parse request body"})
}
