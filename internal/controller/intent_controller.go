package controller

import (
	"ai-intent-be/internal/dto"
	"ai-intent-be/internal/pkg/serverutils"
	"ai-intent-be/internal/service"
	"ai-intent-be/pkg/events"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IIntentController interface {
	RegisterRoutes(r fiber.Router)
	Index(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	Merge(ctx *fiber.Ctx) error
	Enrich(ctx *fiber.Ctx) error
	Tasks(ctx *fiber.Ctx) error
}

type intentController struct {
	storeService service.IStoreService
	queryService service.IQueryService
	publisher    service.IPublisherService
}

func NewIntentController(
	storeService service.IStoreService,
	queryService service.IQueryService,
	publisher service.IPublisherService,
) IIntentController {
	return &intentController{
		storeService: storeService,
		queryService: queryService,
		publisher:    publisher,
	}
}

func (c *intentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/intent/v1")
	h.Get("", c.Index)
	h.Get(":id", c.Show)
	h.Patch(":id", c.Update)
	h.Post("merge", c.Merge)
	h.Post(":id/enrich", c.Enrich)
	h.Get(":id/tasks", c.Tasks)
}

func (c *intentController) Index(ctx *fiber.Ctx) error {
	status := ctx.Query("status", "")
	limit := ctx.QueryInt("limit", 50)
	offset := ctx.QueryInt("offset", 0)

	res, err := c.queryService.ListIntents(ctx.Context(), status, limit, offset)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list intents", res))
}

func (c *intentController) Show(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid intent id")
	}

	res, err := c.queryService.GetIntent(ctx.Context(), id)
	if err != nil {
		return err
	}
	if res == nil {
		return fiber.NewError(fiber.StatusNotFound, "intent not found")
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show intent", res))
}

func (c *intentController) Update(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid intent id")
	}

	var req dto.UpdateIntentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	req.Id = id

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.storeService.UpdateIntentFields(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success update intent", res))
}

func (c *intentController) Merge(ctx *fiber.Ctx) error {
	var req dto.MergeIntentsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.storeService.MergeIntents(ctx.Context(), req.LoserId, req.WinnerId); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success merge intents", dto.MergeIntentsResponse{
		WinnerId: req.WinnerId,
	}))
}

// Enrich forces a re-run of the derived-content jobs for an intent, at
// refresh priority.
func (c *intentController) Enrich(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid intent id")
	}

	detail, err := c.queryService.GetIntent(ctx.Context(), id)
	if err != nil {
		return err
	}
	if detail == nil {
		return fiber.NewError(fiber.StatusNotFound, "intent not found")
	}

	if err := publishEnrichmentEvent(ctx, c.publisher, dto.EnrichmentEventMessage{
		EventType: events.TypeIntentPagesChanged,
		IntentId:  &id,
	}); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success request re-enrichment", dto.UpdateIntentResponse{Id: id}))
}

func (c *intentController) Tasks(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid intent id")
	}
	limit := ctx.QueryInt("limit", 50)
	offset := ctx.QueryInt("offset", 0)

	res, err := c.queryService.ListTasks(ctx.Context(), nil, &id, limit, offset)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list intent tasks", res))
}
