package infrastructure

import (
	"context"

	"github.com/andreyxaxa/Image-Vectorizer/internal/entity"
)

type (
	// EventsSender delivers outbox events to the conversion workers.
	EventsSender interface {
		SendEvents(ctx context.Context, events []*entity.OutboxEvent) error
		Close() error
	}

	Preprocessor interface {
		Preprocess(ctx context.Context, data []byte) ([]byte, error)
	}

	Vectorizer interface {
		Vectorize(ctx context.Context, data []byte) ([]byte, error)
	}

	Optimizer interface {
		Optimize(ctx context.Context, svg []byte) ([]byte, error)
	}
)
