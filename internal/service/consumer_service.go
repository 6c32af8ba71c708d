package service

import (
	"context"
	"encoding/json"

	"ai-grammar-companion/internal/monitor"
	"ai-grammar-companion/internal/pkg/logger"
	"ai-grammar-companion/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// IConsumerService drains the page-notify bus and applies each
// notification to the owning page session's monitor.
type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub   *gochannel.GoChannel
	topic    string
	registry *monitor.Registry
	logger   logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topic string,
	registry *monitor.Registry,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:   pubSub,
		topic:    topic,
		registry: registry,
		logger:   log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(msg *message.Message) {
	var n events.PageNotification
	if err := json.Unmarshal(msg.Payload, &n); err != nil {
		cs.logger.Error("Consumer", "Failed to unmarshal page notification", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	// Viewer-status transitions may precede any field event, so they
	// create the monitor; everything else targets an existing session.
	if n.Type == events.TypeViewerStatus {
		cs.registry.GetOrCreate(n.PageSessionID).HandleNotification(n)
		msg.Ack()
		return
	}

	m, ok := cs.registry.Get(n.PageSessionID)
	if !ok {
		cs.logger.Warn("Consumer", "Notification for unknown page session", map[string]interface{}{
			"page_session_id": n.PageSessionID,
			"type":            n.Type,
		})
		msg.Ack()
		return
	}

	m.HandleNotification(n)
	msg.Ack()
}
