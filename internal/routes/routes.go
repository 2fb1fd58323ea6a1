package routes

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Ananth-NQI/lineflow-backend/internal/config"
	"github.com/Ananth-NQI/lineflow-backend/internal/handlers"
	"github.com/Ananth-NQI/lineflow-backend/internal/logger"
	"github.com/Ananth-NQI/lineflow-backend/internal/middleware"
	"github.com/Ananth-NQI/lineflow-backend/internal/services"
	"github.com/Ananth-NQI/lineflow-backend/internal/storage"
)

const Version = "1.0.0"

// Dependencies are the collaborators the routes need.
type Dependencies struct {
	Store       storage.Store
	Line        *services.LineService
	Sender      services.ReplySender // defaults to Line
	StorageName string
	Ping        func() error
}

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, deps Dependencies, cfg config.Config) {
	sender := deps.Sender
	if sender == nil {
		sender = deps.Line
	}

	accountSvc := services.NewAccountService(deps.Store)
	messageSvc := services.NewMessageService(deps.Store)
	imageSvc := services.NewImageService(deps.Store)
	auditor := services.NewGraphAuditor(deps.Store)
	engine := services.NewConversationEngine(deps.Store, services.NewAssetResolver(deps.Store))
	renderer := services.NewReplyRenderer()
	dispatcher := services.NewDispatcher(engine, renderer, sender)

	health := handlers.NewHealthHandler(Version, deps.StorageName, deps.Ping)
	webhook := handlers.NewLineWebhookHandler(dispatcher, engine, renderer, accountSvc)
	accounts := handlers.NewAccountHandler(accountSvc)
	messages := handlers.NewMessageHandler(messageSvc)
	images := handlers.NewImageHandler(imageSvc)
	analytics := handlers.NewAnalyticsHandler(deps.Store, auditor)

	app.Get("/", health.Info)
	app.Get("/health", health.Check)

	// ========== WEBHOOK ROUTES ==========
	webhooks := app.Group("/webhook")
	resolve := middleware.ResolveLineAccount(accountSvc)

	if cfg.SkipWebhookValidation() {
		// Development: skip signature validation for ngrok
		webhooks.Post("/line/:accountID", resolve, webhook.HandleWebhook)
		logger.Log.Warn("LINE webhook signature validation DISABLED",
			zap.String("environment", cfg.Environment))
	} else {
		webhooks.Post("/line/:accountID", resolve, middleware.ValidateLineSignature(deps.Line), webhook.HandleWebhook)
	}

	// ========== TEST ROUTES (Development Only) ==========
	if cfg.IsDevelopment() {
		app.Post("/test/line", webhook.HandleTestWebhook)
	}

	// ========== ADMIN API ==========
	api := app.Group("/api", middleware.RequireJWT(cfg.JWTSecret))

	api.Get("/accounts", accounts.ListAccounts)
	api.Post("/accounts", accounts.CreateAccount)

	owned := middleware.RequireAccount(accountSvc)
	api.Get("/accounts/:accountID", owned, accounts.GetAccount)
	api.Put("/accounts/:accountID", owned, accounts.UpdateAccount)
	api.Delete("/accounts/:accountID", owned, accounts.DeleteAccount)

	api.Get("/accounts/:accountID/messages", owned, messages.ListMessages)
	api.Post("/accounts/:accountID/messages", owned, messages.CreateMessage)
	api.Get("/accounts/:accountID/messages/:messageID", owned, messages.GetMessage)
	api.Put("/accounts/:accountID/messages/:messageID", owned, messages.UpdateMessage)
	api.Delete("/accounts/:accountID/messages/:messageID", owned, messages.DeleteMessage)

	api.Get("/accounts/:accountID/images", owned, images.ListImages)
	api.Post("/accounts/:accountID/images", owned, images.RegisterImage)
	api.Get("/accounts/:accountID/images/:imageID", owned, images.GetImage)
	api.Delete("/accounts/:accountID/images/:imageID", owned, images.DeleteImage)

	api.Get("/accounts/:accountID/graph/audit", owned, analytics.GetGraphAudit)
	api.Get("/accounts/:accountID/stats", owned, analytics.GetAccountStats)
}
