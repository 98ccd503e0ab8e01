package serverutils

import (
	"errors"

	"feature-store-be/internal/pkg/apperror"
	"feature-store-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware converts any error returned further down the chain
// into the response envelope. Internal errors are logged with their cause and
// answered with a generic message.
func ErrorHandlerMiddleware(log logger.ILogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if err == nil {
			return nil
		}
		return WriteError(c, log, err)
	}
}

func WriteError(c *fiber.Ctx, log logger.ILogger, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(ErrorResponse(codeForStatus(fiberErr.Code), fiberErr.Message))
	}

	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		appErr = apperror.Internal(err)
	}

	if appErr.Kind == apperror.KindInternal || appErr.Kind == apperror.KindTimeout {
		details := map[string]interface{}{
			"method": c.Method(),
			"path":   c.Path(),
		}
		if cause := appErr.Unwrap(); cause != nil {
			details["error"] = cause.Error()
		}
		log.Error("HTTP", appErr.Message, details)
	}

	return c.Status(appErr.Status()).JSON(ErrorResponse(string(appErr.Kind), appErr.Message, appErr.Details...))
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return string(apperror.KindBadRequest)
	case fiber.StatusUnauthorized:
		return string(apperror.KindUnauthenticated)
	case fiber.StatusForbidden:
		return string(apperror.KindForbidden)
	case fiber.StatusNotFound:
		return string(apperror.KindNotFound)
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case fiber.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case fiber.StatusUnprocessableEntity:
		return string(apperror.KindValidation)
	case fiber.StatusTooManyRequests:
		return string(apperror.KindRateLimited)
	}
	if status >= 500 {
		return string(apperror.KindInternal)
	}
	return string(apperror.KindBadRequest)
}
