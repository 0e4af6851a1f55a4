package producer

import "time"

type Option func(*Producer)

func ConnAttempts(attempts int) Option {
	return func(p *Producer) {
		p.connAttempts = attempts
	}
}

func ConnTimeout(timeout time.Duration) Option {
	return func(p *Producer) {
		p.connTimeout = timeout
	}
}

// BatchTimeout bounds how long the writer waits to fill a batch before flushing it.
func BatchTimeout(timeout time.Duration) Option {
	return func(p *Producer) {
		p.batchTimeout = timeout
	}
}

// Topic pins every message to one topic, leaving Message.Topic empty.
func Topic(topic string) Option {
	return func(p *Producer) {
		p.topic = topic
	}
}
