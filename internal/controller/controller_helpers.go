package controller

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"ai-intent-be/internal/dto"
	"ai-intent-be/internal/service"
)

// publishEnrichmentEvent puts a bus event on behalf of an endpoint, e.g. the
// forced re-enrichment command.
func publishEnrichmentEvent(ctx *fiber.Ctx, publisher service.IPublisherService, msg dto.EnrichmentEventMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return publisher.Publish(ctx.Context(), payload)
}
