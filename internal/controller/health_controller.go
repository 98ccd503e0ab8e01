package controller

import (
	"context"
	"time"

	"feature-store-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
)

// HealthCheck pings one dependency.
type HealthCheck func(ctx context.Context) error

type IHealthController interface {
	RegisterRoutes(r fiber.Router)
	Health(ctx *fiber.Ctx) error
	Live(ctx *fiber.Ctx) error
	Ready(ctx *fiber.Ctx) error
}

type healthController struct {
	service string
	version string
	checks  map[string]HealthCheck
	timeout time.Duration
}

func NewHealthController(service, version string, checks map[string]HealthCheck) IHealthController {
	return &healthController{
		service: service,
		version: version,
		checks:  checks,
		timeout: 2 * time.Second,
	}
}

func (c *healthController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/health")
	h.Get("", c.Health)
	h.Get("/live", c.Live)
	h.Get("/ready", c.Ready)
}

func (c *healthController) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Service is healthy", fiber.Map{
		"status":    "healthy",
		"service":   c.service,
		"version":   c.version,
		"timestamp": time.Now().UTC(),
	}))
}

func (c *healthController) Live(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Service is alive", fiber.Map{"status": "alive"}))
}

func (c *healthController) Ready(ctx *fiber.Ctx) error {
	checkCtx, cancel := context.WithTimeout(ctx.UserContext(), c.timeout)
	defer cancel()

	results := make(map[string]string, len(c.checks))
	ready := true
	for name, check := range c.checks {
		if err := check(checkCtx); err != nil {
			results[name] = "unavailable: " + err.Error()
			ready = false
			continue
		}
		results[name] = "ok"
	}

	if !ready {
		return ctx.Status(fiber.StatusServiceUnavailable).JSON(&serverutils.Response[fiber.Map]{
			Success:   false,
			Message:   "Service is not ready",
			Data:      fiber.Map{"status": "not_ready", "checks": results},
			ErrorCode: "NOT_READY",
		})
	}
	return ctx.JSON(serverutils.SuccessResponse("Service is ready", fiber.Map{"status": "ready", "checks": results}))
}
