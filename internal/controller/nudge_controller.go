package controller

import (
	"ai-intent-be/internal/dto"
	"ai-intent-be/internal/pkg/serverutils"
	"ai-intent-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type INudgeController interface {
	RegisterRoutes(r fiber.Router)
	Index(ctx *fiber.Ctx) error
	Acknowledge(ctx *fiber.Ctx) error
	Snooze(ctx *fiber.Ctx) error
	Dismiss(ctx *fiber.Ctx) error
}

type nudgeController struct {
	queryService      service.IQueryService
	suggestionService service.ISuggestionService
}

func NewNudgeController(queryService service.IQueryService, suggestionService service.ISuggestionService) INudgeController {
	return &nudgeController{
		queryService:      queryService,
		suggestionService: suggestionService,
	}
}

func (c *nudgeController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/nudge/v1")
	h.Get("", c.Index)
	h.Put(":id/acknowledge", c.Acknowledge)
	h.Put(":id/snooze", c.Snooze)
	h.Put(":id/dismiss", c.Dismiss)
}

func (c *nudgeController) Index(ctx *fiber.Ctx) error {
	res, err := c.queryService.ListPendingNudges(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list pending nudges", res))
}

func (c *nudgeController) Acknowledge(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid nudge id")
	}

	if err := c.suggestionService.Acknowledge(ctx.Context(), id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success acknowledge nudge", dto.NudgeActionResponse{Id: id}))
}

func (c *nudgeController) Snooze(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid nudge id")
	}

	var req dto.SnoozeNudgeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	req.Id = id

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.suggestionService.Snooze(ctx.Context(), id, req.Until); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success snooze nudge", dto.NudgeActionResponse{Id: id}))
}

func (c *nudgeController) Dismiss(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid nudge id")
	}

	if err := c.suggestionService.Dismiss(ctx.Context(), id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success dismiss nudge", dto.NudgeActionResponse{Id: id}))
}
