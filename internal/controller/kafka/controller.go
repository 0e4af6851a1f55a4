package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	kafkapc "github.com/andreyxaxa/Image-Vectorizer/internal/infrastructure/kafka"
	"github.com/andreyxaxa/Image-Vectorizer/internal/usecase"
	"github.com/andreyxaxa/Image-Vectorizer/pkg/logger"
)

const _fetchBackoff = 500 * time.Millisecond

// TaskSource is the consuming side of the conversion topic.
type TaskSource interface {
	Fetch(ctx context.Context) (kafkapc.Delivery, error)
	Commit(ctx context.Context, d kafkapc.Delivery) error
	Close() error
}

type KafkaController struct {
	conv   usecase.ConversionUseCase
	src    TaskSource
	logger logger.Interface

	commitTimeout  time.Duration
	processTimeout time.Duration

	workers int
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	started atomic.Bool
}

func New(
	conv usecase.ConversionUseCase,
	src TaskSource,
	l logger.Interface,
	commitTimeout time.Duration,
	processTimeout time.Duration,
	workers int,
) *KafkaController {
	if workers < 1 {
		workers = 1
	}

	return &KafkaController{
		conv:           conv,
		src:            src,
		logger:         l,
		commitTimeout:  commitTimeout,
		processTimeout: processTimeout,
		workers:        workers,
	}
}

func (c *KafkaController) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return fmt.Errorf("KafkaController - Start - controller already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)

	// канал для задач
	deliveries := make(chan kafkapc.Delivery, c.workers*2)

	// запускаем воркеры
	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go c.worker(deliveries)
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(deliveries)

		for {
			// 1. читаем из кафки
			d, err := c.src.Fetch(c.ctx)
			if err != nil {
				if c.ctx.Err() != nil || errors.Is(err, io.EOF) {
					return
				}
				c.logger.Error(err, "KafkaController - Start - c.src.Fetch")

				select {
				case <-c.ctx.Done():
					return
				case <-time.After(_fetchBackoff):
				}
				continue
			}

			// 2. отправляем в канал для воркеров
			select {
			case deliveries <- d:
			case <-c.ctx.Done():
				return
			}
		}
	}()

	return nil
}

func (c *KafkaController) worker(deliveries <-chan kafkapc.Delivery) {
	defer c.wg.Done()

	// читаем канал, пока не закроется
	for d := range deliveries {
		c.handle(d)
	}
}

func (c *KafkaController) handle(d kafkapc.Delivery) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error(fmt.Errorf("panic %v", r), "KafkaController - handle - panic")
		}
	}()

	if d.ParseErr != nil {
		// повторная доставка не поможет
		c.logger.Error(d.ParseErr, "KafkaController - handle - offset %d: bad payload, skipping", d.Message.Offset)
	} else {
		processCtx, processCancel := context.WithTimeout(c.ctx, c.processTimeout)
		err := c.conv.Convert(processCtx, d.Task)
		processCancel()
		if err != nil {
			// не коммитим: сообщение будет доставлено снова
			c.logger.Error(err, "KafkaController - handle - c.conv.Convert")

			return
		}
	}

	commitCtx, commitCancel := context.WithTimeout(context.WithoutCancel(c.ctx), c.commitTimeout)
	err := c.src.Commit(commitCtx, d)
	commitCancel()
	if err != nil {
		c.logger.Error(err, "KafkaController - handle - c.src.Commit")
	}
}

func (c *KafkaController) Shutdown(ctx context.Context) error {
	if !c.started.Load() {
		return nil
	}

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})

	go func() {
		c.wg.Wait()
		if err := c.src.Close(); err != nil {
			c.logger.Error(err, "KafkaController - Shutdown - c.src.Close")
		}
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("KafkaController - Shutdown: %w", ctx.Err())
	}
}
