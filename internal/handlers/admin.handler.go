package handlers

import (
	"bytes"

	"intake/internal/app"
	adminController "intake/internal/controllers/admin"
	"intake/internal/logger"
	. "intake/internal/models"

	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	Handler
	controller *adminController.AdminController
}

func NewAdminHandler(app app.App, router fiber.Router) *AdminHandler {
	log := logger.New("handlers").File("admin_handler")
	return &AdminHandler{
		controller: app.AdminController,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *AdminHandler) Register() {
	admin := h.router.Group("/admin")
	admin.Get("/patients", h.listPatients)
	admin.Get("/patients/export", h.exportPatients)
	admin.Get("/patients/:id", h.getPatient)
	admin.Get("/stats", h.getStats)
	admin.Get("/ifc/:session_token", h.getIFCTemplate)
	admin.Put("/ifc/:session_token", h.upsertIFC)
}

func (h *AdminHandler) listPatients(c *fiber.Ctx) error {
	filter := PatientFilter{
		Status: SessionStatus(c.Query("status")),
		Search: c.Query("search"),
	}

	patients, err := h.controller.ListPatients(c.UserContext(), filter)
	if err != nil {
		return h.respondError(c, "listPatients", err)
	}

	return c.JSON(fiber.Map{"message": "success", "patients": patients})
}

func (h *AdminHandler) exportPatients(c *fiber.Ctx) error {
	filter := PatientFilter{
		Status: SessionStatus(c.Query("status")),
		Search: c.Query("search"),
	}

	var body bytes.Buffer
	rows, err := h.controller.ExportPatients(c.UserContext(), filter, &body)
	if err != nil {
		return h.respondError(c, "exportPatients", err)
	}

	h.log.Function("exportPatients").Info("patients exported", "rows", rows)
	c.Attachment("patients.csv")
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	return c.Send(body.Bytes())
}

func (h *AdminHandler) getPatient(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"message": "error", "error": "patient id must be a positive integer"})
	}

	detail, err := h.controller.GetPatientDetail(c.UserContext(), id)
	if err != nil {
		return h.respondError(c, "getPatient", err)
	}

	return c.JSON(fiber.Map{
		"message": "success",
		"patient": detail.Patient,
		"session": detail.Session,
		"odi":     detail.ODI,
		"vas":     detail.VAS,
		"eq5d":    detail.EQ5D,
		"consent": detail.Consent,
		"ifc":     detail.IFC,
	})
}

func (h *AdminHandler) getStats(c *fiber.Ctx) error {
	stats, err := h.controller.GetStats(c.UserContext())
	if err != nil {
		return h.respondError(c, "getStats", err)
	}

	return c.JSON(fiber.Map{"message": "success", "stats": stats})
}

func (h *AdminHandler) getIFCTemplate(c *fiber.Ctx) error {
	template, err := h.controller.GetIFCTemplate(c.UserContext(), c.Params("session_token"))
	if err != nil {
		return h.respondError(c, "getIFCTemplate", err)
	}

	return c.JSON(fiber.Map{"message": "success", "template": template})
}

func (h *AdminHandler) upsertIFC(c *fiber.Ctx) error {
	var financials IFCFinancials
	if err := c.BodyParser(&financials); err != nil {
		return h.badRequest(c, "upsertIFC", err)
	}

	ifc, err := h.controller.UpsertIFC(c.UserContext(), c.Params("session_token"), financials)
	if err != nil {
		return h.respondError(c, "upsertIFC", err)
	}

	return c.JSON(fiber.Map{"message": "success", "success": true, "ifc": ifc})
}
