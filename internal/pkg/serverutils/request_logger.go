package serverutils

import (
	"time"

	"feature-store-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// RequestLogger logs one line per request once the response status is known.
// Register it before ErrorHandlerMiddleware.
func RequestLogger(log logger.ILogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		start := time.Now()
		err := ctx.Next()

		details := map[string]interface{}{
			"method":      ctx.Method(),
			"path":        ctx.Path(),
			"status":      ctx.Response().StatusCode(),
			"duration_ms": time.Since(start).Milliseconds(),
		}
		if organizationId, ok := ctx.Locals(LocalOrganizationID).(uuid.UUID); ok {
			details["organization_id"] = organizationId
		}
		log.Info("HTTP", "Request handled", details)
		return err
	}
}
