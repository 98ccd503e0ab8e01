package serverutils

import (
	"strings"

	"feature-store-be/internal/entity"
	"feature-store-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	LocalUserID         = "user_id"
	LocalOrganizationID = "organization_id"
	LocalPermissions    = "permissions"
)

// JwtMiddleware authenticates the bearer token and stores the caller's user,
// organization and permissions in the request locals.
func JwtMiddleware(secret string) fiber.Handler {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{
		jwt.SigningMethodHS256.Alg(),
		jwt.SigningMethodHS384.Alg(),
		jwt.SigningMethodHS512.Alg(),
	}))

	return func(ctx *fiber.Ctx) error {
		authHeader := ctx.Get(fiber.HeaderAuthorization)
		if len(authHeader) < 7 || !strings.EqualFold(authHeader[:7], "Bearer ") {
			return apperror.Unauthenticated("Missing token")
		}
		tokenStr := strings.TrimSpace(authHeader[7:])

		claims := jwt.MapClaims{}
		token, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return apperror.Unauthenticated("Invalid token")
		}

		userId, err := claimUUID(claims, "sub", "user_id")
		if err != nil {
			return apperror.Unauthenticated("Token has no valid user id")
		}
		organizationId, err := claimUUID(claims, "organization_id", "org_id")
		if err != nil {
			return apperror.Unauthenticated("Token has no valid organization id")
		}

		ctx.Locals(LocalUserID, userId)
		ctx.Locals(LocalOrganizationID, organizationId)
		ctx.Locals(LocalPermissions, claimPermissions(claims))
		return ctx.Next()
	}
}

// CallerFromCtx returns the identity JwtMiddleware stored for this request.
func CallerFromCtx(ctx *fiber.Ctx) (entity.Caller, error) {
	userId, ok := ctx.Locals(LocalUserID).(uuid.UUID)
	if !ok {
		return entity.Caller{}, apperror.Unauthenticated("Not authenticated")
	}
	organizationId, ok := ctx.Locals(LocalOrganizationID).(uuid.UUID)
	if !ok {
		return entity.Caller{}, apperror.Unauthenticated("Not authenticated")
	}
	return entity.Caller{UserId: userId, OrganizationId: organizationId}, nil
}

func claimUUID(claims jwt.MapClaims, names ...string) (uuid.UUID, error) {
	var lastErr error = apperror.Unauthenticated("missing claim")
	for _, name := range names {
		raw, ok := claims[name].(string)
		if !ok || raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			lastErr = err
			continue
		}
		return id, nil
	}
	return uuid.Nil, lastErr
}

// claimPermissions accepts a "permissions" array or an OAuth style
// space-separated "scope" string.
func claimPermissions(claims jwt.MapClaims) []string {
	var perms []string
	if list, ok := claims["permissions"].([]interface{}); ok {
		for _, p := range list {
			if s, ok := p.(string); ok && s != "" {
				perms = append(perms, s)
			}
		}
	}
	if scope, ok := claims["scope"].(string); ok {
		perms = append(perms, strings.Fields(scope)...)
	}
	return perms
}
