package controller

import (
	"ai-intent-be/internal/pkg/serverutils"
	"ai-intent-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ITaskController interface {
	RegisterRoutes(r fiber.Router)
	Index(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Cancel(ctx *fiber.Ctx) error
}

type taskController struct {
	queryService     service.IQueryService
	schedulerService service.ISchedulerService
}

func NewTaskController(queryService service.IQueryService, schedulerService service.ISchedulerService) ITaskController {
	return &taskController{
		queryService:     queryService,
		schedulerService: schedulerService,
	}
}

func (c *taskController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/task/v1")
	h.Get("", c.Index)
	h.Get(":id", c.Show)
	h.Delete(":id", c.Cancel)
}

func (c *taskController) Index(ctx *fiber.Ctx) error {
	limit := ctx.QueryInt("limit", 50)
	offset := ctx.QueryInt("offset", 0)

	res, err := c.queryService.ListTasks(ctx.Context(), nil, nil, limit, offset)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list tasks", res))
}

func (c *taskController) Show(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid task id")
	}

	res, err := c.queryService.GetTask(ctx.Context(), id)
	if err != nil {
		return err
	}
	if res == nil {
		return fiber.NewError(fiber.StatusNotFound, "task not found")
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show task", res))
}

func (c *taskController) Cancel(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid task id")
	}

	if err := c.schedulerService.Cancel(ctx.Context(), id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success cancel task", nil))
}
