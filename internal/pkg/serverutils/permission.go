package serverutils

import (
	"feature-store-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

// RequirePermission lets the request through when the caller holds
// resource:action, resource:admin, resource:* or the wildcard "*".
func RequirePermission(resource, action string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		perms, _ := ctx.Locals(LocalPermissions).([]string)
		if !HasPermission(perms, resource, action) {
			return apperror.Forbidden("Permission denied: " + resource + ":" + action)
		}
		return ctx.Next()
	}
}

func HasPermission(perms []string, resource, action string) bool {
	for _, p := range perms {
		switch p {
		case "*", "*:*", resource + ":*", resource + ":admin", resource + ":" + action:
			return true
		}
	}
	return false
}
