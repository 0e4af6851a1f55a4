package consumer

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/andreyxaxa/Image-Vectorizer/pkg/kafka/admin"
	"github.com/segmentio/kafka-go"
)

const (
	_defaultConnAttempts = 10
	_defaultConnTimeout  = time.Second
	_defaultMaxWait      = time.Second
)

type Consumer struct {
	connAttempts int
	connTimeout  time.Duration
	maxWait      time.Duration

	brokers []string
	groupID string
	topic   string

	Reader *kafka.Reader
}

func New(ctx context.Context, brokers []string, groupID, topic string, opts ...Option) (*Consumer, error) {
	c := &Consumer{
		connAttempts: _defaultConnAttempts,
		connTimeout:  _defaultConnTimeout,
		maxWait:      _defaultMaxWait,
		brokers:      brokers,
		groupID:      groupID,
		topic:        topic,
	}

	for _, opt := range opts {
		opt(c)
	}

	var err error
	for c.connAttempts > 0 {
		err = admin.Ping(ctx, c.brokers)
		if err == nil {
			break
		}

		log.Printf("Kafka consumer is trying to connect, attempts left: %d", c.connAttempts)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("Kafka Consumer - New: %w", ctx.Err())
		case <-time.After(c.connTimeout):
		}

		c.connAttempts--
	}

	if err != nil {
		return nil, fmt.Errorf("Kafka Consumer - New - connAttempts == 0: %w", err)
	}

	// коммиты только явные, после обработки
	c.Reader = kafka.NewReader(kafka.ReaderConfig{
		Brokers:        c.brokers,
		GroupID:        c.groupID,
		Topic:          c.topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		MaxWait:        c.maxWait,
		CommitInterval: 0,
	})

	return c, nil
}

func (c *Consumer) Close() error {
	if c.Reader != nil {
		return c.Reader.Close()
	}
	return nil
}
