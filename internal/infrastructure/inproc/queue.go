// Package inproc dispatches conversion tasks through a buffered channel for single-process deployments.
package inproc

import (
	"context"
	"fmt"
	"sync"

	"github.com/andreyxaxa/Image-Vectorizer/internal/dto"
	"github.com/andreyxaxa/Image-Vectorizer/internal/entity"
	"github.com/andreyxaxa/Image-Vectorizer/pkg/logger"
	"github.com/andreyxaxa/Image-Vectorizer/pkg/types/errs"
)

const _defaultCapacity = 64

type Queue struct {
	mu     sync.Mutex
	closed bool
	tasks  chan dto.ConvertTask

	logger logger.Interface
}

func NewQueue(capacity int, l logger.Interface) *Queue {
	if capacity < 1 {
		capacity = _defaultCapacity
	}

	return &Queue{
		tasks:  make(chan dto.ConvertTask, capacity),
		logger: l,
	}
}

// SendEvents enqueues the whole batch or nothing: errs.ErrQueueFull leaves the events
// pending in the outbox for the next poll. Senders are serialized, so free capacity
// checked under the lock can only grow until the batch is in.
func (q *Queue) SendEvents(ctx context.Context, events []*entity.OutboxEvent) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("Queue - SendEvents: %w", err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return fmt.Errorf("Queue - SendEvents: queue is closed")
	}

	tasks := make([]dto.ConvertTask, 0, len(events))
	for _, event := range events {
		task, err := dto.ParseConvertTask(event.Payload)
		if err != nil {
			// такое событие не выполнится никогда, не блокируем им остальные
			q.logger.Error(err, "Queue - SendEvents - event %s: bad payload, dropping", event.ID)
			continue
		}
		tasks = append(tasks, task)
	}

	if cap(q.tasks)-len(q.tasks) < len(tasks) {
		return fmt.Errorf("Queue - SendEvents: %w", errs.ErrQueueFull)
	}

	// не блокируется: место проверено выше
	for _, task := range tasks {
		q.tasks <- task
	}

	return nil
}

// Tasks is closed by Close once every accepted task has been read.
func (q *Queue) Tasks() <-chan dto.ConvertTask {
	return q.tasks
}

func (q *Queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		close(q.tasks)
	}

	return nil
}
