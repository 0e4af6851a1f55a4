package kafka

import (
	"context"
	"fmt"

	"github.com/andreyxaxa/Image-Vectorizer/internal/entity"
	"github.com/andreyxaxa/Image-Vectorizer/pkg/kafka/producer"
	"github.com/segmentio/kafka-go"
)

const (
	HeaderEventID = "event_id"
	HeaderImageID = "image_id"
)

// EventProducer publishes outbox events as conversion tasks.
// The topic is fixed on the underlying writer.
type EventProducer struct {
	*producer.Producer
}

func NewEventProducer(p *producer.Producer) *EventProducer {
	return &EventProducer{p}
}

func (ep *EventProducer) SendEvents(ctx context.Context, events []*entity.OutboxEvent) error {
	if len(events) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(events))
	for _, event := range events {
		msgs = append(msgs, kafka.Message{
			Key:   []byte(event.AggregateID.String()),
			Value: event.Payload,
			Headers: []kafka.Header{
				{Key: HeaderEventID, Value: []byte(event.ID.String())},
				{Key: HeaderImageID, Value: []byte(event.AggregateID.String())},
			},
		})
	}

	err := ep.Writer.WriteMessages(ctx, msgs...)
	if err != nil {
		return fmt.Errorf("EventProducer - SendEvents - ep.Writer.WriteMessages: %w", err)
	}

	return nil
}

func (ep *EventProducer) Close() error {
	err := ep.Producer.Close()
	if err != nil {
		return fmt.Errorf("EventProducer - Close: %w", err)
	}

	return nil
}
