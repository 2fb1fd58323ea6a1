package handlers

import "github.com/gofiber/fiber/v2"

// HealthHandler handles health check requests
type HealthHandler struct {
	Version string
	Storage string
	ping    func() error
}

// NewHealthHandler creates a new health handler. ping may be nil when the
// store has no connection to check.
func NewHealthHandler(version, storage string, ping func() error) *HealthHandler {
	return &HealthHandler{
		Version: version,
		Storage: storage,
		ping:    ping,
	}
}

// Check returns the health status of the service
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	status := "healthy"
	statusCode := fiber.StatusOK
	database := true

	if h.ping != nil {
		if err := h.ping(); err != nil {
			status = "unhealthy"
			statusCode = fiber.StatusServiceUnavailable
			database = false
		}
	}

	return c.Status(statusCode).JSON(fiber.Map{
		"status":  status,
		"version": h.Version,
		"storage": h.Storage,
		"services": fiber.Map{
			"database": database,
		},
	})
}

// Info describes the service and its entry points
func (h *HealthHandler) Info(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service": "LineFlow Backend API",
		"version": h.Version,
		"storage": h.Storage,
		"endpoints": fiber.Map{
			"health":    "/health",
			"api":       "/api",
			"webhook":   "/webhook/line/:accountID",
			"test_line": "/test/line",
		},
	})
}
