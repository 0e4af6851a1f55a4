// Package conversion runs conversion tasks handed over in process.
package conversion

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/andreyxaxa/Image-Vectorizer/internal/dto"
	"github.com/andreyxaxa/Image-Vectorizer/internal/usecase"
	"github.com/andreyxaxa/Image-Vectorizer/pkg/logger"
)

type WorkerPool struct {
	conv   usecase.ConversionUseCase
	tasks  <-chan dto.ConvertTask
	logger logger.Interface

	processTimeout time.Duration
	workers        int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	started atomic.Bool
}

func New(
	conv usecase.ConversionUseCase,
	tasks <-chan dto.ConvertTask,
	l logger.Interface,
	processTimeout time.Duration,
	workers int,
) *WorkerPool {
	if workers < 1 {
		workers = 1
	}

	return &WorkerPool{
		conv:           conv,
		tasks:          tasks,
		logger:         l,
		processTimeout: processTimeout,
		workers:        workers,
	}
}

func (p *WorkerPool) Start(ctx context.Context) error {
	if !p.started.CompareAndSwap(false, true) {
		return fmt.Errorf("WorkerPool - Start - pool already started")
	}

	p.ctx, p.cancel = context.WithCancel(ctx)

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	return nil
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			p.handle(task)
		}
	}
}

func (p *WorkerPool) handle(task dto.ConvertTask) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error(fmt.Errorf("panic %v", r), "WorkerPool - handle - panic")
		}
	}()

	ctx, cancel := context.WithTimeout(p.ctx, p.processTimeout)
	defer cancel()

	// повторной доставки нет: событие в аутбоксе уже processed
	if err := p.conv.Convert(ctx, task); err != nil {
		p.logger.Error(err, "WorkerPool - handle - p.conv.Convert - image %s", task.ImageID)
	}
}

// Shutdown lets the workers drain the task channel, which the sender closes on its own shutdown.
// Tasks still queued when ctx expires are abandoned.
func (p *WorkerPool) Shutdown(ctx context.Context) error {
	if !p.started.Load() {
		return nil
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		return fmt.Errorf("WorkerPool - Shutdown: %w", ctx.Err())
	}
}
