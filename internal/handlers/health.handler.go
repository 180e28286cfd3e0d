package handlers

import (
	"context"
	"time"

	"intake/internal/app"

	"github.com/gofiber/fiber/v2"
)

func HealthHandler(router fiber.Router, app *app.App) {
	router.Get("/health", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		database := "ok"
		status := fiber.StatusOK
		if err := app.Database.Ping(ctx); err != nil {
			database = "unavailable"
			status = fiber.StatusServiceUnavailable
		}

		return c.Status(status).JSON(fiber.Map{
			"message":  "success",
			"status":   database,
			"version":  app.Config.GeneralVersion,
			"database": app.Database.Driver,
			"cache":    app.Database.Cache.Enabled(),
		})
	})
}
