package outbox

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/andreyxaxa/Image-Vectorizer/internal/entity"
	"github.com/andreyxaxa/Image-Vectorizer/pkg/logger"
	"github.com/andreyxaxa/Image-Vectorizer/pkg/types/errs"
	"github.com/google/uuid"
)

// fakeOutbox keeps event statuses in memory.
type fakeOutbox struct {
	mu      sync.Mutex
	events  []*entity.OutboxEvent
	cleaned int
}

func (f *fakeOutbox) GetPendingEvents(_ context.Context, maxRetries, limit int) ([]*entity.OutboxEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*entity.OutboxEvent
	for _, e := range f.events {
		if e.Status == entity.OutboxPending && e.RetryCount < maxRetries && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeOutbox) set(events []*entity.OutboxEvent, fn func(e *entity.OutboxEvent)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, e := range events {
		fn(e)
	}
	return nil
}

func (f *fakeOutbox) MarkAsProcessingBatch(_ context.Context, events []*entity.OutboxEvent) error {
	return f.set(events, func(e *entity.OutboxEvent) { e.Status = entity.OutboxProcessing })
}

func (f *fakeOutbox) MarkAsProcessedBatch(_ context.Context, events []*entity.OutboxEvent) error {
	return f.set(events, func(e *entity.OutboxEvent) { e.Status = entity.OutboxProcessed })
}

func (f *fakeOutbox) ReleaseBatch(_ context.Context, events []*entity.OutboxEvent) error {
	return f.set(events, func(e *entity.OutboxEvent) { e.Status = entity.OutboxPending })
}

func (f *fakeOutbox) IncrementRetryCountBatch(_ context.Context, events []*entity.OutboxEvent) error {
	return f.set(events, func(e *entity.OutboxEvent) {
		e.Status = entity.OutboxPending
		e.RetryCount++
	})
}

func (f *fakeOutbox) MarkMaxRetriesAsFailed(_ context.Context, maxRetries int) error {
	return f.set(f.events, func(e *entity.OutboxEvent) {
		if e.Status == entity.OutboxPending && e.RetryCount >= maxRetries {
			e.Status = entity.OutboxFailed
		}
	})
}

func (f *fakeOutbox) CleanupOutbox(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.cleaned++
	return nil
}

func (f *fakeOutbox) snapshot(i int) entity.OutboxEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.events[i]
}

type fakeSender struct {
	mu     sync.Mutex
	err    error
	sent   int
	closed bool
}

func (s *fakeSender) SendEvents(_ context.Context, events []*entity.OutboxEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	s.sent += len(events)
	return nil
}

func (s *fakeSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func newOutbox(n int) *fakeOutbox {
	f := &fakeOutbox{}
	for i := 0; i < n; i++ {
		f.events = append(f.events, &entity.OutboxEvent{ID: uuid.New(), Status: entity.OutboxPending})
	}
	return f
}

func testConfig() Config {
	return Config{
		PollInterval:        10 * time.Millisecond,
		CleanupInterval:     10 * time.Millisecond,
		MarkFailedInterval:  10 * time.Millisecond,
		ProcessBatchTimeout: time.Second,
		BatchSize:           10,
		MaxRetries:          2,
	}
}

func TestProcessEventsBatch(t *testing.T) {
	tests := []struct {
		name        string
		sendErr     error
		wantStatus  entity.OutboxStatus
		wantRetries int
	}{
		{"delivered", nil, entity.OutboxProcessed, 0},
		{"queue full", errs.ErrQueueFull, entity.OutboxPending, 0},
		{"broker down", errors.New("connection refused"), entity.OutboxPending, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outbox := newOutbox(2)
			r := New(outbox, &fakeSender{err: tt.sendErr}, logger.NewWithWriter("error", io.Discard), testConfig())

			r.processEventsBatch(context.Background())

			for i := range outbox.events {
				e := outbox.snapshot(i)
				if e.Status != tt.wantStatus || e.RetryCount != tt.wantRetries {
					t.Errorf("event %d = %s/%d, want %s/%d", i, e.Status, e.RetryCount, tt.wantStatus, tt.wantRetries)
				}
			}
		})
	}
}

func TestRelayRunsUntilShutdown(t *testing.T) {
	outbox := newOutbox(3)
	sender := &fakeSender{}

	r := New(outbox, sender, logger.NewWithWriter("error", io.Discard), testConfig())
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := r.Start(context.Background()); err == nil {
		t.Error("second Start succeeded")
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		sender.mu.Lock()
		sent := sender.sent
		sender.mu.Unlock()
		if sent == 3 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("sent %d events, want 3", sent)
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := r.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	sender.mu.Lock()
	defer sender.mu.Unlock()
	if !sender.closed {
		t.Error("sender not closed on shutdown")
	}
}

func TestRetriesExhaustedMarkFailed(t *testing.T) {
	outbox := newOutbox(1)
	r := New(outbox, &fakeSender{err: errors.New("down")}, logger.NewWithWriter("error", io.Discard), testConfig())

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		r.processEventsBatch(ctx)
	}
	if err := outbox.MarkMaxRetriesAsFailed(ctx, r.cfg.MaxRetries); err != nil {
		t.Fatalf("MarkMaxRetriesAsFailed failed: %v", err)
	}

	if e := outbox.snapshot(0); e.Status != entity.OutboxFailed || e.RetryCount != 2 {
		t.Errorf("event = %s/%d, want failed/2", e.Status, e.RetryCount)
	}
}
