package app

import (
	"context"
	"fmt"
	"runtime"

	"github.com/andreyxaxa/Image-Vectorizer/config"
	kafkactrl "github.com/andreyxaxa/Image-Vectorizer/internal/controller/kafka"
	convworker "github.com/andreyxaxa/Image-Vectorizer/internal/controller/worker/conversion"
	"github.com/andreyxaxa/Image-Vectorizer/internal/infrastructure"
	"github.com/andreyxaxa/Image-Vectorizer/internal/infrastructure/inproc"
	infrakafka "github.com/andreyxaxa/Image-Vectorizer/internal/infrastructure/kafka"
	"github.com/andreyxaxa/Image-Vectorizer/internal/usecase"
	"github.com/andreyxaxa/Image-Vectorizer/pkg/kafka/admin"
	"github.com/andreyxaxa/Image-Vectorizer/pkg/kafka/consumer"
	"github.com/andreyxaxa/Image-Vectorizer/pkg/kafka/producer"
	"github.com/andreyxaxa/Image-Vectorizer/pkg/logger"
)

// component is a background part of the app with a start/shutdown lifecycle.
type component interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// newDispatch returns the sender used by the outbox relay and the component that runs conversions.
func newDispatch(
	ctx context.Context,
	cfg *config.Config,
	conv usecase.ConversionUseCase,
	l logger.Interface,
) (infrastructure.EventsSender, component, error) {
	workers := cfg.Dispatch.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	if cfg.Dispatch.Driver == config.DispatchInproc {
		q := inproc.NewQueue(cfg.Dispatch.QueueSize, l)
		pool := convworker.New(conv, q.Tasks(), l, cfg.Dispatch.ProcessTimeout, workers)

		return q, pool, nil
	}

	// Kafka
	err := admin.EnsureTopic(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.Partitions, cfg.Kafka.ReplicationFactor)
	if err != nil {
		// топик мог быть создан заранее, а прав на создание нет
		l.Warn("app - newDispatch - admin.EnsureTopic: %v", err)
	}

	kafkaProducer, err := producer.New(ctx, cfg.Kafka.Brokers, producer.Topic(cfg.Kafka.Topic))
	if err != nil {
		return nil, nil, fmt.Errorf("app - newDispatch - producer.New: %w", err)
	}

	kafkaConsumer, err := consumer.New(ctx, cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.Topic)
	if err != nil {
		kafkaProducer.Close()
		return nil, nil, fmt.Errorf("app - newDispatch - consumer.New: %w", err)
	}

	kafkaController := kafkactrl.New(
		conv,
		infrakafka.NewTaskConsumer(kafkaConsumer),
		l,
		cfg.KafkaController.CommitTimeout,
		cfg.Dispatch.ProcessTimeout,
		workers,
	)

	return infrakafka.NewEventProducer(kafkaProducer), kafkaController, nil
}
