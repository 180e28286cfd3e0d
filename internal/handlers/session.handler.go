package handlers

import (
	"intake/internal/app"
	sessionController "intake/internal/controllers/session"
	"intake/internal/logger"
	. "intake/internal/models"

	"github.com/gofiber/fiber/v2"
)

type SessionHandler struct {
	Handler
	controller *sessionController.SessionController
}

func NewSessionHandler(app app.App, router fiber.Router) *SessionHandler {
	log := logger.New("handlers").File("session_handler")
	return &SessionHandler{
		controller: app.SessionController,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *SessionHandler) Register() {
	sessions := h.router.Group("/sessions")
	sessions.Post("/create", h.create)
	sessions.Post("/", h.create)
	sessions.Get("/:token", h.resolve)
}

func (h *SessionHandler) create(c *fiber.Ctx) error {
	var req CreateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return h.badRequest(c, "create", err)
	}

	result, err := h.controller.Create(c.UserContext(), req)
	if err != nil {
		return h.respondError(c, "create", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":       "success",
		"session_token": result.SessionToken,
		"patient_id":    result.PatientID,
	})
}

func (h *SessionHandler) resolve(c *fiber.Ctx) error {
	session, err := h.controller.Resolve(c.UserContext(), c.Params("token"))
	if err != nil {
		return h.respondError(c, "resolve", err)
	}

	return c.JSON(fiber.Map{"message": "success", "session": session})
}
