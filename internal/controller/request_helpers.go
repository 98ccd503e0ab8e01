package controller

import (
	"strconv"
	"time"

	"feature-store-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func parseIDParam(ctx *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params(name))
	if err != nil {
		return uuid.Nil, apperror.Validation("Invalid "+name, name+" must be a UUID")
	}
	return id, nil
}

func parseBody(ctx *fiber.Ctx, out interface{}) error {
	if err := ctx.BodyParser(out); err != nil {
		return apperror.BadRequest("Invalid request body")
	}
	return nil
}

func queryUUID(ctx *fiber.Ctx, name string) (*uuid.UUID, error) {
	raw := ctx.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperror.Validation("Invalid query parameter", name+" must be a UUID")
	}
	return &id, nil
}

func queryTime(ctx *fiber.Ctx, name string) (*time.Time, error) {
	raw := ctx.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, apperror.Validation("Invalid query parameter", name+" must be an RFC 3339 timestamp")
	}
	return &t, nil
}

func queryInt(ctx *fiber.Ctx, name string) (int, error) {
	raw := ctx.Query(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.Validation("Invalid query parameter", name+" must be an integer")
	}
	return n, nil
}
