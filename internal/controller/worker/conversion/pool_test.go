package conversion

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/andreyxaxa/Image-Vectorizer/internal/dto"
	"github.com/andreyxaxa/Image-Vectorizer/pkg/logger"
	"github.com/google/uuid"
)

type fakeConversion struct {
	done    chan uuid.UUID
	panicOn uuid.UUID
}

func (f fakeConversion) Convert(_ context.Context, task dto.ConvertTask) error {
	defer func() { f.done <- task.ImageID }()

	if task.ImageID == f.panicOn {
		panic("converter blew up")
	}
	return errors.New("ignored")
}

func TestPoolRunsTasks(t *testing.T) {
	tasks := make(chan dto.ConvertTask, 4)
	conv := fakeConversion{done: make(chan uuid.UUID, 4), panicOn: uuid.New()}

	p := New(conv, tasks, logger.NewWithWriter("error", io.Discard), time.Second, 2)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	want := map[uuid.UUID]bool{conv.panicOn: true, uuid.New(): true, uuid.New(): true}
	for id := range want {
		tasks <- dto.ConvertTask{ImageID: id}
	}

	for len(want) > 0 {
		select {
		case id := <-conv.done:
			if !want[id] {
				t.Fatalf("unexpected task %s", id)
			}
			delete(want, id)
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out, still waiting for %d tasks", len(want))
		}
	}

	close(tasks)
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
}

func TestPoolShutdownDeadline(t *testing.T) {
	tasks := make(chan dto.ConvertTask)
	p := New(fakeConversion{done: make(chan uuid.UUID, 1)}, tasks, logger.NewWithWriter("error", io.Discard), time.Second, 1)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// канал не закрыт: ждём до дедлайна и прерываем воркеры
	if err := p.Shutdown(ctx); err == nil {
		t.Error("Shutdown returned nil with an open channel")
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("workers still running after forced shutdown")
	}
}

func TestPoolStopsWhenChannelCloses(t *testing.T) {
	tasks := make(chan dto.ConvertTask)
	p := New(fakeConversion{done: make(chan uuid.UUID, 1)}, tasks, logger.NewWithWriter("error", io.Discard), time.Second, 3)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	close(tasks)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("workers still running after the channel closed")
	}
}
