package controller

import (
	"feature-store-be/internal/dto"
	"feature-store-be/internal/pkg/serverutils"
	"feature-store-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

const featureValuesResource = "feature_values"

type IFeatureValueController interface {
	RegisterRoutes(r fiber.Router, middleware ...fiber.Handler)
	Create(ctx *fiber.Ctx) error
	CreateBatch(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	Serve(ctx *fiber.Ctx) error
	Stats(ctx *fiber.Ctx) error
}

type featureValueController struct {
	service service.IFeatureValueService
}

func NewFeatureValueController(service service.IFeatureValueService) IFeatureValueController {
	return &featureValueController{service: service}
}

// RegisterRoutes mounts the value store. middleware runs before the
// permission checks and must authenticate the caller.
func (c *featureValueController) RegisterRoutes(r fiber.Router, middleware ...fiber.Handler) {
	h := r.Group("/feature-values", middleware...)

	read := serverutils.RequirePermission(featureValuesResource, "read")
	write := serverutils.RequirePermission(featureValuesResource, "write")

	h.Post("", write, c.Create)
	h.Get("", read, c.List)
	h.Post("/batch", write, c.CreateBatch)
	h.Post("/serve", read, c.Serve)
	h.Get("/stats/feature/:feature_id", read, c.Stats)
	h.Get("/:id", read, c.Show)
	h.Put("/:id", write, c.Update)
	h.Delete("/:id", write, c.Delete)
}

func (c *featureValueController) Create(ctx *fiber.Ctx) error {
	caller, err := serverutils.CallerFromCtx(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateFeatureValueRequest
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

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Feature value created", res))
}

func (c *featureValueController) CreateBatch(ctx *fiber.Ctx) error {
	caller, err := serverutils.CallerFromCtx(ctx)
	if err != nil {
		return err
	}

	var req dto.BatchCreateFeatureValuesRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.CreateBatch(ctx.UserContext(), caller, &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Feature values created", res))
}

func (c *featureValueController) List(ctx *fiber.Ctx) error {
	caller, err := serverutils.CallerFromCtx(ctx)
	if err != nil {
		return err
	}

	req := dto.ListFeatureValuesRequest{EntityId: ctx.Query("entity_id")}
	if req.FeatureId, err = queryUUID(ctx, "feature_id"); err != nil {
		return err
	}
	if req.StartTimestamp, err = queryTime(ctx, "start_timestamp"); err != nil {
		return err
	}
	if req.EndTimestamp, err = queryTime(ctx, "end_timestamp"); err != nil {
		return err
	}
	if req.Page, err = queryInt(ctx, "page"); err != nil {
		return err
	}
	if req.Limit, err = queryInt(ctx, "limit"); err != nil {
		return err
	}

	res, err := c.service.List(ctx.UserContext(), caller, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list feature values", res))
}

func (c *featureValueController) Show(ctx *fiber.Ctx) error {
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

	return ctx.JSON(serverutils.SuccessResponse("Success show feature value", res))
}

func (c *featureValueController) Update(ctx *fiber.Ctx) error {
	caller, err := serverutils.CallerFromCtx(ctx)
	if err != nil {
		return err
	}
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return err
	}

	var req dto.UpdateFeatureValueRequest
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

	return ctx.JSON(serverutils.SuccessResponse("Feature value updated", res))
}

func (c *featureValueController) Delete(ctx *fiber.Ctx) error {
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

	return ctx.JSON(serverutils.SuccessResponse[any]("Feature value deleted", nil))
}

func (c *featureValueController) Serve(ctx *fiber.Ctx) error {
	caller, err := serverutils.CallerFromCtx(ctx)
	if err != nil {
		return err
	}

	var req dto.ServeFeaturesRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Serve(ctx.UserContext(), caller, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success serve features", res))
}

func (c *featureValueController) Stats(ctx *fiber.Ctx) error {
	caller, err := serverutils.CallerFromCtx(ctx)
	if err != nil {
		return err
	}
	featureId, err := parseIDParam(ctx, "feature_id")
	if err != nil {
		return err
	}

	req := dto.FeatureValueStatsRequest{FeatureId: featureId}
	if req.StartTimestamp, err = queryTime(ctx, "start_timestamp"); err != nil {
		return err
	}
	if req.EndTimestamp, err = queryTime(ctx, "end_timestamp"); err != nil {
		return err
	}

	res, err := c.service.Stats(ctx.UserContext(), caller, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get feature value stats", res))
}
