package outbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/andreyxaxa/Image-Vectorizer/internal/infrastructure"
	"github.com/andreyxaxa/Image-Vectorizer/internal/usecase"
	"github.com/andreyxaxa/Image-Vectorizer/pkg/logger"
	"github.com/andreyxaxa/Image-Vectorizer/pkg/types/errs"
)

type Config struct {
	PollInterval        time.Duration
	CleanupInterval     time.Duration
	MarkFailedInterval  time.Duration
	ProcessBatchTimeout time.Duration
	BatchSize           int
	MaxRetries          int
}

// OutboxRelay moves conversion tasks from the outbox table to the dispatcher.
type OutboxRelay struct {
	outbox usecase.OutboxUseCase
	es     infrastructure.EventsSender
	logger logger.Interface
	cfg    Config

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	started atomic.Bool
}

func New(outbox usecase.OutboxUseCase, es infrastructure.EventsSender, l logger.Interface, cfg Config) *OutboxRelay {
	return &OutboxRelay{
		outbox: outbox,
		es:     es,
		logger: l,
		cfg:    cfg,
	}
}

func (r *OutboxRelay) Start(ctx context.Context) error {
	if !r.started.CompareAndSwap(false, true) {
		return fmt.Errorf("OutboxRelay - Start - relay already started")
	}

	r.ctx, r.cancel = context.WithCancel(ctx)

	// 1. отправка задач диспетчеру
	r.worker(r.cfg.PollInterval, func() {
		batchCtx, batchCancel := context.WithTimeout(r.ctx, r.cfg.ProcessBatchTimeout)
		r.processEventsBatch(batchCtx)
		batchCancel()
	})

	// 2. пометка failed
	r.worker(r.cfg.MarkFailedInterval, func() {
		err := r.outbox.MarkMaxRetriesAsFailed(r.ctx, r.cfg.MaxRetries)
		if err != nil {
			r.logger.Error(err, "OutboxRelay - Start - worker - r.outbox.MarkMaxRetriesAsFailed")
		}
	})

	// 3. очистка failed/processed
	r.worker(r.cfg.CleanupInterval, func() {
		err := r.outbox.CleanupOutbox(r.ctx)
		if err != nil {
			r.logger.Error(err, "OutboxRelay - Start - worker - r.outbox.CleanupOutbox")
		}
	})

	return nil
}

func (r *OutboxRelay) processEventsBatch(ctx context.Context) {
	// 1. pending события, у которых retry count < max retries
	events, err := r.outbox.GetPendingEvents(ctx, r.cfg.MaxRetries, r.cfg.BatchSize)
	if err != nil {
		r.logger.Error(err, "OutboxRelay - processEventsBatch - r.outbox.GetPendingEvents")

		return
	}
	if len(events) == 0 {
		return
	}

	// 2. помечаем как processing
	err = r.outbox.MarkAsProcessingBatch(ctx, events)
	if err != nil {
		r.logger.Error(err, "OutboxRelay - processEventsBatch - r.outbox.MarkAsProcessingBatch")

		return
	}

	// 3. отправляем
	err = r.es.SendEvents(ctx, events)
	switch {
	case errors.Is(err, errs.ErrQueueFull):
		// диспетчер занят: вернём в pending, попытка не тратится
		r.logger.Warn("OutboxRelay - processEventsBatch - dispatcher is full, %d events postponed", len(events))
		if relErr := r.outbox.ReleaseBatch(ctx, events); relErr != nil {
			r.logger.Error(relErr, "OutboxRelay - processEventsBatch - r.outbox.ReleaseBatch")
		}
		return
	case err != nil:
		r.logger.Error(err, "OutboxRelay - processEventsBatch - r.es.SendEvents")
		// 3.1 увеличиваем счетчик ретраев, статус снова pending
		if incErr := r.outbox.IncrementRetryCountBatch(ctx, events); incErr != nil {
			r.logger.Error(incErr, "OutboxRelay - processEventsBatch - r.outbox.IncrementRetryCountBatch")
		}
		return
	}

	// 4. отправлено - processed
	err = r.outbox.MarkAsProcessedBatch(ctx, events)
	if err != nil {
		r.logger.Error(err, "OutboxRelay - processEventsBatch - r.outbox.MarkAsProcessedBatch")
	}
}

func (r *OutboxRelay) worker(interval time.Duration, task func()) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-r.ctx.Done():
				return
			case <-ticker.C:
				task()
			}
		}
	}()
}

// Shutdown stops the tickers and closes the sender once no batch is in flight.
func (r *OutboxRelay) Shutdown(ctx context.Context) error {
	if !r.started.Load() {
		return nil
	}

	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})

	go func() {
		r.wg.Wait()
		if err := r.es.Close(); err != nil {
			r.logger.Error(err, "OutboxRelay - Shutdown - r.es.Close")
		}
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("OutboxRelay - Shutdown: %w", ctx.Err())
	}
}
