package producer

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
	_defaultBatchTimeout = 50 * time.Millisecond
)

type Producer struct {
	connAttempts int
	connTimeout  time.Duration
	batchTimeout time.Duration
	topic        string

	brokers []string
	Writer  *kafka.Writer
}

func New(ctx context.Context, brokers []string, opts ...Option) (*Producer, error) {
	p := &Producer{
		connAttempts: _defaultConnAttempts,
		connTimeout:  _defaultConnTimeout,
		batchTimeout: _defaultBatchTimeout,
		brokers:      brokers,
	}

	for _, opt := range opts {
		opt(p)
	}

	// ключ сообщения = id изображения, все события одного изображения идут в одну партицию
	p.Writer = &kafka.Writer{
		Addr:         kafka.TCP(p.brokers...),
		Topic:        p.topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: p.batchTimeout,
	}

	var err error
	for p.connAttempts > 0 {
		err = admin.Ping(ctx, p.brokers)
		if err == nil {
			break
		}

		log.Printf("Kafka producer is trying to connect, attempts left: %d", p.connAttempts)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("Kafka Producer - New: %w", ctx.Err())
		case <-time.After(p.connTimeout):
		}

		p.connAttempts--
	}

	if err != nil {
		return nil, fmt.Errorf("Kafka Producer - New - connAttempts == 0: %w", err)
	}

	return p, nil
}

func (p *Producer) Close() error {
	if p.Writer != nil {
		return p.Writer.Close()
	}

	return nil
}
