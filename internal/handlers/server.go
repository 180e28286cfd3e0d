package handlers

import (
	"errors"

	"intake/internal/app"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// NewServer builds the fiber application with the global middleware stack
// and every route registered.
func NewServer(a *app.App) (*fiber.App, error) {
	server := fiber.New(fiber.Config{
		AppName:      "intake " + a.Config.GeneralVersion,
		ErrorHandler: errorHandler,
	})

	server.Use(recover.New())
	server.Use(requestid.New())
	server.Use(cors.New(cors.Config{
		AllowOrigins: a.Config.CorsAllowOrigins,
		AllowMethods: "GET,POST,PUT,OPTIONS",
	}))
	server.Use(a.Middleware.RequestLogger())

	if err := Router(server, a); err != nil {
		return nil, err
	}

	return server, nil
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "internal server error"

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
	}

	return c.Status(code).JSON(fiber.Map{"message": "error", "error": message})
}
