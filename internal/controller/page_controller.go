package controller

import (
	"ai-intent-be/internal/dto"
	"ai-intent-be/internal/pkg/serverutils"
	"ai-intent-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IPageController interface {
	RegisterRoutes(r fiber.Router)
	Ingest(ctx *fiber.Ctx) error
	Index(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Destroy(ctx *fiber.Ctx) error
	Tasks(ctx *fiber.Ctx) error
}

type pageController struct {
	storeService service.IStoreService
	queryService service.IQueryService
}

func NewPageController(storeService service.IStoreService, queryService service.IQueryService) IPageController {
	return &pageController{
		storeService: storeService,
		queryService: queryService,
	}
}

func (c *pageController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/page/v1")
	h.Post("", c.Ingest)
	h.Get("", c.Index)
	h.Get(":id", c.Show)
	h.Delete(":id", c.Destroy)
	h.Get(":id/tasks", c.Tasks)
}

func (c *pageController) Ingest(ctx *fiber.Ctx) error {
	var req dto.IngestPageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.storeService.UpsertPage(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success ingest page", res))
}

func (c *pageController) Index(ctx *fiber.Ctx) error {
	limit := ctx.QueryInt("limit", 50)
	offset := ctx.QueryInt("offset", 0)

	res, err := c.queryService.ListPages(ctx.Context(), limit, offset)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list pages", res))
}

func (c *pageController) Show(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid page id")
	}

	res, err := c.queryService.GetPage(ctx.Context(), id)
	if err != nil {
		return err
	}
	if res == nil {
		return fiber.NewError(fiber.StatusNotFound, "page not found")
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show page", res))
}

func (c *pageController) Destroy(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid page id")
	}

	if err := c.storeService.DeletePage(ctx.Context(), id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success delete page", dto.PageResponse{Id: id}))
}

func (c *pageController) Tasks(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid page id")
	}
	limit := ctx.QueryInt("limit", 50)
	offset := ctx.QueryInt("offset", 0)

	res, err := c.queryService.ListTasks(ctx.Context(), &id, nil, limit, offset)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list page tasks", res))
}
