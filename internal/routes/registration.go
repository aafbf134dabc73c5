package routes

import (
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/blissito/whatsapp-bot-educational-service/internal/config"
	"github.com/blissito/whatsapp-bot-educational-service/internal/student"
	"github.com/blissito/whatsapp-bot-educational-service/internal/web"
)

// RegisterStudentRoutes wires the registration form, its JSON helper
// endpoints and the static policy page.
func RegisterStudentRoutes(app *fiber.App, students *student.Service, cfg config.Config, logger *slog.Logger) {
	app.Get("/", func(c *fiber.Ctx) error {
		return renderHTML(c, http.StatusOK, "register.html", nil)
	})

	app.Get("/policies", func(c *fiber.Ctx) error {
		return renderHTML(c, http.StatusOK, "policies.html", nil)
	})

	app.Post("/", func(c *fiber.Ctx) error {
		in := student.RegistrationInput{
			StudentName:        c.FormValue("studentName"),
			PhoneNumberID:      c.FormValue("phoneNumberId"),
			CompleteFlowURL:    c.FormValue("completeFlowiseUrl"),
			AccessToken:        c.FormValue("accessToken"),
			WebhookVerifyToken: c.FormValue("webhookVerifyToken"),
		}

		created, err := students.Register(c.UserContext(), in)
		if err != nil {
			logger.Warn("registration rejected",
				slog.String("phone_number_id", in.PhoneNumberID),
				slog.Any("error", err))
			return renderHTML(c, http.StatusBadRequest, "error.html", web.ErrorData{Message: err.Error()})
		}

		logger.Info("student registered",
			slog.String("phone_number_id", created.PhoneNumberID),
			slog.String("student_name", created.StudentName))
		return renderHTML(c, http.StatusOK, "success.html", successData(cfg, created))
	})

	app.Post("/api/check-phone", func(c *fiber.Ctx) error {
		var req struct {
			PhoneNumberID string `json:"phoneNumberId"`
		}
		if err := c.BodyParser(&req); err != nil || req.PhoneNumberID == "" {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Phone Number ID requerido"})
		}

		res, err := students.CheckPhone(c.UserContext(), req.PhoneNumberID)
		if err != nil {
			logger.Error("check phone failed",
				slog.String("phone_number_id", req.PhoneNumberID),
				slog.Any("error", err))
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Error verificando Phone Number ID"})
		}
		return c.JSON(res)
	})

	app.Post("/api/verify-registration", func(c *fiber.Ctx) error {
		var req struct {
			PhoneNumberID string `json:"phoneNumberId"`
		}
		if err := c.BodyParser(&req); err != nil || req.PhoneNumberID == "" {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Phone Number ID requerido"})
		}

		res, err := students.VerifyRegistration(c.UserContext(), req.PhoneNumberID)
		if err != nil {
			logger.Error("verify registration failed",
				slog.String("phone_number_id", req.PhoneNumberID),
				slog.Any("error", err))
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
				"exists": false,
				"valid":  false,
				"error":  "Error verificando registro",
			})
		}
		return c.JSON(res)
	})
}
