package service

import (
	"context"
	"encoding/json"
	"fmt"

	"ai-grammar-companion/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// IPublisherService puts coordinator-to-page notifications on the
// in-process bus.
type IPublisherService interface {
	PublishPageNotification(ctx context.Context, n events.PageNotification) error
}

type publisherService struct {
	topic  string
	pubSub message.Publisher
}

func NewPublisherService(topic string, pubSub message.Publisher) IPublisherService {
	return &publisherService{
		topic:  topic,
		pubSub: pubSub,
	}
}

func (p *publisherService) PublishPageNotification(ctx context.Context, n events.PageNotification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal page notification: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)

	if err := p.pubSub.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", p.topic, err)
	}
	return nil
}
