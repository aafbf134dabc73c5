package routes

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/blissito/whatsapp-bot-educational-service/internal/config"
	"github.com/blissito/whatsapp-bot-educational-service/internal/middleware"
	"github.com/blissito/whatsapp-bot-educational-service/internal/relay"
	"github.com/blissito/whatsapp-bot-educational-service/internal/student"
	"github.com/blissito/whatsapp-bot-educational-service/internal/web"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if !d.Cfg.IsDev() && d.DB == nil && d.Cache == nil {
		return fmt.Errorf("a redis or postgres store is required when APP_ENV=%s", d.Cfg.AppEnv)
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	// Store selection: Redis when available, Postgres otherwise, memory
	// only as the dev fallback.
	var repo student.Repository
	switch {
	case d.Cache != nil:
		repo = student.NewRedisRepository(d.Cache)
	case d.DB != nil:
		pgRepo := student.NewPostgresRepository(d.DB)
		if err := pgRepo.EnsureSchema(context.Background()); err != nil {
			return err
		}
		repo = pgRepo
	default:
		repo = student.NewMemoryRepository()
	}

	students := student.NewService(repo, d.Cfg.WebhookVerifyToken)
	forwarder := relay.NewForwarder(d.Cfg.ForwardTimeout)
	relaySvc := relay.NewService(repo, forwarder, d.Logger)

	RegisterHealthRoutes(app, d.Cfg)
	RegisterStudentRoutes(app, students, d.Cfg, d.Logger)
	RegisterEditRoutes(app, students, d.Cfg, d.Logger)
	RegisterWebhookRoutes(app, relaySvc, d.Cfg, d.Logger)

	return nil
}

func renderHTML(c *fiber.Ctx, status int, page string, data any) error {
	body, err := web.Render(page, data)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Status(status).Send(body)
}

func successData(cfg config.Config, rec student.Config) web.SuccessData {
	return web.SuccessData{
		StudentName:   rec.StudentName,
		PhoneNumberID: rec.PhoneNumberID,
		FlowBaseURL:   rec.FlowBaseURL,
		FlowID:        rec.FlowID,
		WebhookURL:    cfg.PublicBaseURL + "/webhook/",
		VerifyToken:   student.ResolveVerifyToken(rec, cfg.WebhookVerifyToken),
	}
}
