package controller

import (
	"feature-store-be/internal/dto"
	"feature-store-be/internal/pkg/apperror"
	"feature-store-be/internal/pkg/serverutils"
	"feature-store-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

const featuresResource = "features"

type IFeatureController interface {
	RegisterRoutes(r fiber.Router, middleware ...fiber.Handler)
	Create(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type featureController struct {
	service service.IFeatureService
}

func NewFeatureController(service service.IFeatureService) IFeatureController {
	return &featureController{service: service}
}

func (c *featureController) RegisterRoutes(r fiber.Router, middleware ...fiber.Handler) {
	h := r.Group("/features", middleware...)
	h.Post("", serverutils.RequirePermission(featuresResource, "write"), c.Create)
	h.Get("", serverutils.RequirePermission(featuresResource, "read"), c.List)
	h.Get("/:id", serverutils.RequirePermission(featuresResource, "read"), c.Show)
	h.Put("/:id", serverutils.RequirePermission(featuresResource, "write"), c.Update)
	h.Delete("/:id", serverutils.RequirePermission(featuresResource, "delete"), c.Delete)
}

func (c *featureController) Create(ctx *fiber.Ctx) error {
	caller, err := serverutils.CallerFromCtx(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateFeatureRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Create(ctx.UserContext(), caller, &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Feature created", res))
}

func (c *featureController) List(ctx *fiber.Ctx) error {
	caller, err := serverutils.CallerFromCtx(ctx)
	if err != nil {
		return err
	}

	var req dto.ListFeaturesRequest
	if err := ctx.QueryParser(&req); err != nil {
		return apperror.Validation("Invalid query parameters")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.List(ctx.UserContext(), caller, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list features", res))
}

func (c *featureController) Show(ctx *fiber.Ctx) error {
	caller, err := serverutils.CallerFromCtx(ctx)
	if err != nil {
		return err
	}
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return err
	}

	res, err := c.service.Show(ctx.UserContext(), caller, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show feature", res))
}

func (c *featureController) Update(ctx *fiber.Ctx) error {
	caller, err := serverutils.CallerFromCtx(ctx)
	if err != nil {
		return err
	}
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return err
	}

	var req dto.UpdateFeatureRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}
	req.Id = id

	res, err := c.service.Update(ctx.UserContext(), caller, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Feature updated", res))
}

func (c *featureController) Delete(ctx *fiber.Ctx) error {
	caller, err := serverutils.CallerFromCtx(ctx)
	if err != nil {
		return err
	}
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return err
	}

	if err := c.service.Delete(ctx.UserContext(), caller, id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Feature deleted", nil))
}
