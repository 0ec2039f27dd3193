package service

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"

	"ai-intent-be/internal/constant"
	"ai-intent-be/internal/dto"
	"ai-intent-be/internal/pkg/logger"
	"ai-intent-be/pkg/events"
)

// IConsumerService drains the in-process bus and turns store events into
// scheduler jobs. It is the only place that decides which enrichment runs
// when, and at what priority.
type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub           *gochannel.GoChannel
	topicName        string
	schedulerService ISchedulerService
	log              logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	schedulerService ISchedulerService,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:           pubSub,
		topicName:        topicName,
		schedulerService: schedulerService,
		log:              log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.EnrichmentEventMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.log.Error("consumer", "failed to unmarshal event", map[string]interface{}{"error": err.Error()})
		msg.Ack() // invalid payloads never become valid; drop them
		return
	}

	var err error
	switch payload.EventType {
	case events.TypePageAdded:
		err = cs.enqueuePageChain(ctx, payload.PageId)
	case events.TypePageUpdated:
		// An updated page may read differently now; refresh its profile.
		// Matching re-runs afterwards off the extraction dependency.
		err = cs.enqueuePageChain(ctx, payload.PageId)
	case events.TypeIntentCreated:
		err = cs.enqueueIntentChain(ctx, payload.IntentId, 0)
	case events.TypeIntentPagesChanged:
		penalty := constant.RefreshPriorityPenalty
		if payload.FirstTime {
			penalty = 0
		}
		err = cs.enqueueIntentChain(ctx, payload.IntentId, penalty)
	default:
		cs.log.Warn("consumer", "unknown event type", map[string]interface{}{"event_type": payload.EventType})
	}

	if err != nil {
		cs.log.Error("consumer", "failed to enqueue enrichment", map[string]interface{}{
			"event_type": payload.EventType,
			"error":      err.Error(),
		})
		msg.Nack()
		return
	}
	msg.Ack()
}

// enqueuePageChain submits extraction and matching for a page; matching only
// runs once extraction completed.
func (cs *consumerService) enqueuePageChain(ctx context.Context, pageId *uuid.UUID) error {
	if pageId == nil {
		return nil
	}
	extraction, err := cs.schedulerService.Enqueue(ctx,
		constant.TaskSemanticExtraction, pageId, nil, constant.PrioritySemanticExtraction, nil)
	if err != nil {
		return err
	}
	_, err = cs.schedulerService.Enqueue(ctx,
		constant.TaskIntentMatching, pageId, nil, constant.PriorityIntentMatching,
		[]uuid.UUID{extraction.Id})
	return err
}

// enqueueIntentChain submits the derived-content jobs. Summary waits for the
// label, insights wait for the summary. The penalty demotes refreshes below
// first-time enrichment.
func (cs *consumerService) enqueueIntentChain(ctx context.Context, intentId *uuid.UUID, penalty int) error {
	if intentId == nil {
		return nil
	}
	label, err := cs.schedulerService.Enqueue(ctx,
		constant.TaskIntentLabel, nil, intentId, constant.PriorityIntentLabel+penalty, nil)
	if err != nil {
		return err
	}
	summary, err := cs.schedulerService.Enqueue(ctx,
		constant.TaskIntentSummary, nil, intentId, constant.PriorityIntentSummary+penalty,
		[]uuid.UUID{label.Id})
	if err != nil {
		return err
	}
	_, err = cs.schedulerService.Enqueue(ctx,
		constant.TaskIntentInsights, nil, intentId, constant.PriorityIntentInsights+penalty,
		[]uuid.UUID{summary.Id})
	return err
}
