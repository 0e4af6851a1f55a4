// Package admin holds the broker-level calls shared by the producer and the consumer.
package admin

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/segmentio/kafka-go"
)

var errNoBrokers = errors.New("no brokers configured")

// Ping succeeds as soon as one of the brokers answers a metadata request.
func Ping(ctx context.Context, brokers []string) error {
	if len(brokers) == 0 {
		return fmt.Errorf("Kafka Admin - Ping: %w", errNoBrokers)
	}

	var err error
	for _, broker := range brokers {
		err = ping(ctx, broker)
		if err == nil {
			return nil
		}
	}

	return err
}

func ping(ctx context.Context, broker string) error {
	conn, err := kafka.DialContext(ctx, "tcp", broker)
	if err != nil {
		return fmt.Errorf("Kafka Admin - kafka.DialContext(%s): %w", broker, err)
	}
	defer conn.Close()

	_, err = conn.Brokers()
	if err != nil {
		return fmt.Errorf("Kafka Admin - conn.Brokers: %w", err)
	}

	return nil
}

// EnsureTopic creates the topic through the cluster controller; an existing topic is left as is.
func EnsureTopic(ctx context.Context, brokers []string, topic string, partitions, replication int) error {
	if len(brokers) == 0 {
		return fmt.Errorf("Kafka Admin - EnsureTopic: %w", errNoBrokers)
	}

	conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		return fmt.Errorf("Kafka Admin - EnsureTopic - kafka.DialContext: %w", err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("Kafka Admin - EnsureTopic - conn.Controller: %w", err)
	}

	cc, err := kafka.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return fmt.Errorf("Kafka Admin - EnsureTopic - kafka.DialContext(controller): %w", err)
	}
	defer cc.Close()

	err = cc.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     partitions,
		ReplicationFactor: replication,
	})
	if err != nil && !errors.Is(err, kafka.TopicAlreadyExists) {
		return fmt.Errorf("Kafka Admin - EnsureTopic - cc.CreateTopics: %w", err)
	}

	return nil
}
