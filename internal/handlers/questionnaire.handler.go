package handlers

import (
	"context"

	"intake/internal/app"
	questionnaireController "intake/internal/controllers/questionnaire"
	"intake/internal/logger"

	"github.com/gofiber/fiber/v2"
)

type QuestionnaireHandler struct {
	Handler
	controller *questionnaireController.QuestionnaireController
}

func NewQuestionnaireHandler(app app.App, router fiber.Router) *QuestionnaireHandler {
	log := logger.New("handlers").File("questionnaire_handler")
	return &QuestionnaireHandler{
		controller: app.QuestionnaireController,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *QuestionnaireHandler) Register() {
	questionnaires := h.router.Group("/questionnaires")
	questionnaires.Post("/odi", submitStep(h, "submitODI", h.controller.SubmitODI))
	questionnaires.Post("/vas", submitStep(h, "submitVAS", h.controller.SubmitVAS))
	questionnaires.Post("/eq5d", submitStep(h, "submitEQ5D", h.controller.SubmitEQ5D))
	questionnaires.Post("/consent", submitStep(h, "submitConsent", h.controller.SubmitConsent))
	questionnaires.Post("/ifc", submitStep(h, "submitIFC", h.controller.SubmitIFC))
}

func submitStep[T any](
	h *QuestionnaireHandler,
	function string,
	submit func(context.Context, T) (*questionnaireController.SubmissionResult, error),
) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req T
		if err := c.BodyParser(&req); err != nil {
			return h.badRequest(c, function, err)
		}

		result, err := submit(c.UserContext(), req)
		if err != nil {
			return h.respondError(c, function, err)
		}

		body := fiber.Map{
			"message":   "success",
			"success":   result.Success,
			"next_step": result.NextStep,
			"completed": result.Completed,
		}
		if result.TotalScore != nil {
			body["total_score"] = *result.TotalScore
		}

		return c.JSON(body)
	}
}
