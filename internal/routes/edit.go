package routes

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/blissito/whatsapp-bot-educational-service/internal/config"
	"github.com/blissito/whatsapp-bot-educational-service/internal/student"
)

// RegisterEditRoutes wires the two-phase edit flow: a JSON authenticate
// action that returns the record for form pre-fill, and a form update
// action that re-authenticates and overwrites the mutable fields.
func RegisterEditRoutes(app *fiber.App, students *student.Service, cfg config.Config, logger *slog.Logger) {
	app.Get("/edit", func(c *fiber.Ctx) error {
		return renderHTML(c, http.StatusOK, "edit.html", nil)
	})

	app.Post("/edit", func(c *fiber.Ctx) error {
		if strings.Contains(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
			return handleEditAuthenticate(c, students, logger)
		}
		return handleEditUpdate(c, students, cfg, logger)
	})
}

func handleEditAuthenticate(c *fiber.Ctx, students *student.Service, logger *slog.Logger) error {
	var req struct {
		Action        string `json:"action"`
		PhoneNumberID string `json:"phoneNumberId"`
		VerifyToken   string `json:"verifyToken"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if req.Action != "authenticate" {
		return c.Status(http.StatusBadRequest).SendString("Bad Request")
	}
	if req.PhoneNumberID == "" || req.VerifyToken == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Phone Number ID y Webhook Verify Token son requeridos"})
	}

	rec, err := students.Authenticate(c.UserContext(), req.PhoneNumberID, req.VerifyToken)
	switch {
	case errors.Is(err, student.ErrNotFound):
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": student.ErrNotFound.Error()})
	case errors.Is(err, student.ErrInvalidToken):
		logger.Warn("edit authentication failed", slog.String("phone_number_id", req.PhoneNumberID))
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": student.ErrInvalidToken.Error()})
	case err != nil:
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	// Full record, credentials included: the edit form pre-fills from it.
	return c.JSON(rec)
}

func handleEditUpdate(c *fiber.Ctx, students *student.Service, cfg config.Config, logger *slog.Logger) error {
	if c.FormValue("action") != "update" {
		return c.Status(http.StatusBadRequest).SendString("Bad Request")
	}

	in := student.UpdateInput{
		PhoneNumberID:      c.FormValue("phoneNumberId"),
		VerifyToken:        c.FormValue("verifyToken"),
		StudentName:        c.FormValue("studentName"),
		CompleteFlowURL:    c.FormValue("completeFlowiseUrl"),
		AccessToken:        c.FormValue("accessToken"),
		WebhookVerifyToken: c.FormValue("webhookVerifyToken"),
	}

	updated, err := students.Update(c.UserContext(), in)
	if err != nil {
		logger.Warn("config edit rejected",
			slog.String("phone_number_id", in.PhoneNumberID),
			slog.Any("error", err))
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	logger.Info("config updated", slog.String("phone_number_id", updated.PhoneNumberID))
	return renderHTML(c, http.StatusOK, "success.html", successData(cfg, updated))
}
