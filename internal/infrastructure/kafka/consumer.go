package kafka

import (
	"context"
	"fmt"

	"github.com/andreyxaxa/Image-Vectorizer/internal/dto"
	"github.com/andreyxaxa/Image-Vectorizer/pkg/kafka/consumer"
	"github.com/segmentio/kafka-go"
)

// Delivery is one fetched message. ParseErr is set when the payload is not a task;
// such a message can never succeed and is committed without processing.
type Delivery struct {
	Message  kafka.Message
	Task     dto.ConvertTask
	ParseErr error
}

type TaskConsumer struct {
	*consumer.Consumer
}

func NewTaskConsumer(c *consumer.Consumer) *TaskConsumer {
	return &TaskConsumer{c}
}

func (tc *TaskConsumer) Fetch(ctx context.Context) (Delivery, error) {
	msg, err := tc.Reader.FetchMessage(ctx)
	if err != nil {
		return Delivery{}, fmt.Errorf("TaskConsumer - Fetch - tc.Reader.FetchMessage: %w", err)
	}

	d := Delivery{Message: msg}
	d.Task, d.ParseErr = dto.ParseConvertTask(msg.Value)

	return d, nil
}

func (tc *TaskConsumer) Commit(ctx context.Context, d Delivery) error {
	err := tc.Reader.CommitMessages(ctx, d.Message)
	if err != nil {
		return fmt.Errorf("TaskConsumer - Commit - tc.Reader.CommitMessages: %w", err)
	}

	return nil
}

func (tc *TaskConsumer) Close() error {
	err := tc.Consumer.Close()
	if err != nil {
		return fmt.Errorf("TaskConsumer - Close: %w", err)
	}

	return nil
}
