package serverutils

import (
	"context"
	"strconv"

	"feature-store-be/internal/pkg/apperror"
	"feature-store-be/internal/pkg/logger"
	"feature-store-be/pkg/ratelimit"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type RateLimiter interface {
	Allow(ctx context.Context, key string) (ratelimit.Result, error)
}

// RateLimitMiddleware limits requests per organization. It must run after
// JwtMiddleware. When the limiter itself fails the request is let through.
func RateLimitMiddleware(limiter RateLimiter, log logger.ILogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		organizationId, ok := ctx.Locals(LocalOrganizationID).(uuid.UUID)
		if !ok {
			return ctx.Next()
		}

		res, err := limiter.Allow(ctx.UserContext(), "org:"+organizationId.String())
		if err != nil {
			log.Warn("RateLimit", "Rate limiter unavailable, allowing request", map[string]interface{}{
				"organization_id": organizationId,
				"error":           err.Error(),
			})
			return ctx.Next()
		}

		ctx.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		ctx.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		ctx.Set("X-RateLimit-Reset", strconv.Itoa(int(res.ResetAfter.Seconds())))
		if !res.Allowed {
			ctx.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(res.ResetAfter.Seconds())+1))
			return apperror.RateLimited("Rate limit exceeded")
		}
		return ctx.Next()
	}
}
