package persistent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/andreyxaxa/Image-Vectorizer/internal/entity"
	"github.com/andreyxaxa/Image-Vectorizer/internal/testsupport"
	"github.com/andreyxaxa/Image-Vectorizer/pkg/types/errs"
	"github.com/google/uuid"
)

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newImage(t *testing.T, at time.Time) *entity.Image {
	t.Helper()
	id, err := uuid.NewV7()
	if err != nil {
		t.Fatalf("uuid.NewV7: %v", err)
	}
	return &entity.Image{
		ID:          id,
		OriginalKey: "PNG/20240501/" + id.String() + ".png",
		ContentType: "image/png",
		CreatedAt:   at,
		UpdatedAt:   at,
	}
}

func mustCreate(t *testing.T, r *ImageSQLiteRepo, img *entity.Image) {
	t.Helper()
	if err := r.Create(context.Background(), img); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
}

func mustAppend(t *testing.T, r *StatusEventSQLiteRepo, imageID uuid.UUID, status entity.Status, at time.Time) *entity.StatusEvent {
	t.Helper()
	id, err := uuid.NewV7()
	if err != nil {
		t.Fatalf("uuid.NewV7: %v", err)
	}
	e := &entity.StatusEvent{ID: id, ImageID: imageID, Status: status, CreatedAt: at}
	if err := r.Append(context.Background(), e); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	return e
}

func TestImageRoundTrip(t *testing.T) {
	db := testsupport.MustOpenSQLite(t)
	images := NewImageSQLiteRepo(db)
	ctx := context.Background()

	img := newImage(t, base)
	label := "cat"
	img.Label = &label
	mustCreate(t, images, img)

	got, err := images.GetByID(ctx, img.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.ID != img.ID || got.OriginalKey != img.OriginalKey {
		t.Errorf("GetByID = %+v, want %+v", got, img)
	}
	if got.Label == nil || *got.Label != label {
		t.Errorf("Label = %v, want %q", got.Label, label)
	}
	if got.VectorKey != nil {
		t.Errorf("VectorKey = %q, want nil", *got.VectorKey)
	}
	if !got.CreatedAt.Equal(base) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, base)
	}

	_, err = images.GetByID(ctx, uuid.New())
	if !errors.Is(err, errs.ErrRecordNotFound) {
		t.Errorf("GetByID(unknown) error = %v, want ErrRecordNotFound", err)
	}
}

func TestSetVectorKeyOnce(t *testing.T) {
	db := testsupport.MustOpenSQLite(t)
	images := NewImageSQLiteRepo(db)
	ctx := context.Background()

	img := newImage(t, base)
	mustCreate(t, images, img)

	later := base.Add(time.Minute)
	if err := images.SetVectorKey(ctx, img.ID, "SVG/20240501/a.svg", later); err != nil {
		t.Fatalf("first SetVectorKey failed: %v", err)
	}

	err := images.SetVectorKey(ctx, img.ID, "SVG/20240501/b.svg", later.Add(time.Minute))
	if !errors.Is(err, errs.ErrRecordNotFound) {
		t.Fatalf("second SetVectorKey error = %v, want ErrRecordNotFound", err)
	}

	got, err := images.GetByID(ctx, img.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.VectorKey == nil || *got.VectorKey != "SVG/20240501/a.svg" {
		t.Errorf("VectorKey = %v, want first key", got.VectorKey)
	}
	if !got.UpdatedAt.Equal(later) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, later)
	}
}

func TestLatestIgnoresInsertionOrder(t *testing.T) {
	db := testsupport.MustOpenSQLite(t)
	images := NewImageSQLiteRepo(db)
	events := NewStatusEventSQLiteRepo(db)
	ctx := context.Background()

	img := newImage(t, base)
	mustCreate(t, images, img)

	mustAppend(t, events, img.ID, entity.Completed, base.Add(2*time.Second))
	mustAppend(t, events, img.ID, entity.Ready, base)
	mustAppend(t, events, img.ID, entity.Processing, base.Add(time.Second))

	latest, err := events.Latest(ctx, img.ID)
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if latest.Status != entity.Completed {
		t.Errorf("Latest status = %s, want %s", latest.Status, entity.Completed)
	}

	history, err := events.ListByImage(ctx, img.ID)
	if err != nil {
		t.Fatalf("ListByImage failed: %v", err)
	}
	want := []entity.Status{entity.Completed, entity.Processing, entity.Ready}
	if len(history) != len(want) {
		t.Fatalf("history len = %d, want %d", len(history), len(want))
	}
	for i, e := range history {
		if e.Status != want[i] {
			t.Errorf("history[%d] = %s, want %s", i, e.Status, want[i])
		}
	}
}

func TestLatestTieBrokenByID(t *testing.T) {
	db := testsupport.MustOpenSQLite(t)
	images := NewImageSQLiteRepo(db)
	events := NewStatusEventSQLiteRepo(db)
	ctx := context.Background()

	img := newImage(t, base)
	mustCreate(t, images, img)

	mustAppend(t, events, img.ID, entity.Processing, base)
	second := mustAppend(t, events, img.ID, entity.Failed, base)

	latest, err := events.Latest(ctx, img.ID)
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if latest.ID != second.ID {
		t.Errorf("Latest = %s (%s), want the later insert %s", latest.ID, latest.Status, second.ID)
	}
}

func TestLatestWithoutEvents(t *testing.T) {
	db := testsupport.MustOpenSQLite(t)
	images := NewImageSQLiteRepo(db)
	events := NewStatusEventSQLiteRepo(db)

	img := newImage(t, base)
	mustCreate(t, images, img)

	_, err := events.Latest(context.Background(), img.ID)
	if !errors.Is(err, errs.ErrRecordNotFound) {
		t.Errorf("Latest error = %v, want ErrRecordNotFound", err)
	}
}

func TestAppendUnknownImage(t *testing.T) {
	db := testsupport.MustOpenSQLite(t)
	events := NewStatusEventSQLiteRepo(db)

	err := events.Append(context.Background(), &entity.StatusEvent{
		ID:        uuid.New(),
		ImageID:   uuid.New(),
		Status:    entity.Ready,
		CreatedAt: base,
	})
	if err == nil {
		t.Error("Append for a missing image succeeded, want foreign key error")
	}
}

func TestDeleteCascadesEvents(t *testing.T) {
	db := testsupport.MustOpenSQLite(t)
	images := NewImageSQLiteRepo(db)
	events := NewStatusEventSQLiteRepo(db)
	ctx := context.Background()

	img := newImage(t, base)
	mustCreate(t, images, img)
	mustAppend(t, events, img.ID, entity.Ready, base)
	mustAppend(t, events, img.ID, entity.Processing, base.Add(time.Second))

	if err := images.Delete(ctx, img.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	history, err := events.ListByImage(ctx, img.ID)
	if err != nil {
		t.Fatalf("ListByImage failed: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("events after delete = %d, want 0", len(history))
	}

	if err := images.Delete(ctx, img.ID); !errors.Is(err, errs.ErrRecordNotFound) {
		t.Errorf("second Delete error = %v, want ErrRecordNotFound", err)
	}
}

func TestListWithLatestStatus(t *testing.T) {
	db := testsupport.MustOpenSQLite(t)
	images := NewImageSQLiteRepo(db)
	events := NewStatusEventSQLiteRepo(db)
	ctx := context.Background()

	oldest := newImage(t, base)
	middle := newImage(t, base.Add(time.Minute))
	newest := newImage(t, base.Add(2*time.Minute))
	for _, img := range []*entity.Image{oldest, middle, newest} {
		mustCreate(t, images, img)
	}

	// middle has a long log, newest has none
	mustAppend(t, events, oldest.ID, entity.Ready, base)
	mustAppend(t, events, middle.ID, entity.Ready, base.Add(time.Minute))
	mustAppend(t, events, middle.ID, entity.Processing, base.Add(time.Minute+time.Second))
	mustAppend(t, events, middle.ID, entity.Completed, base.Add(time.Minute+2*time.Second))

	total, err := images.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if total != 3 {
		t.Errorf("Count = %d, want 3", total)
	}

	first, err := images.ListWithLatestStatus(ctx, 2, 0)
	if err != nil {
		t.Fatalf("ListWithLatestStatus(page 0) failed: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("page 0 len = %d, want 2", len(first))
	}
	if first[0].Image.ID != newest.ID || first[1].Image.ID != middle.ID {
		t.Errorf("page 0 order = [%s %s], want [%s %s]", first[0].Image.ID, first[1].Image.ID, newest.ID, middle.ID)
	}
	if first[0].Latest != nil {
		t.Errorf("newest latest = %+v, want nil", first[0].Latest)
	}
	if first[1].Latest == nil || first[1].Latest.Status != entity.Completed {
		t.Errorf("middle latest = %+v, want completed", first[1].Latest)
	}

	second, err := images.ListWithLatestStatus(ctx, 2, 2)
	if err != nil {
		t.Fatalf("ListWithLatestStatus(page 1) failed: %v", err)
	}
	if len(second) != 1 || second[0].Image.ID != oldest.ID {
		t.Fatalf("page 1 = %+v, want only the oldest image", second)
	}
	if second[0].Latest == nil || second[0].Latest.Status != entity.Ready {
		t.Errorf("oldest latest = %+v, want ready", second[0].Latest)
	}

	third, err := images.ListWithLatestStatus(ctx, 2, 4)
	if err != nil {
		t.Fatalf("ListWithLatestStatus(page 2) failed: %v", err)
	}
	if len(third) != 0 {
		t.Errorf("page 2 len = %d, want 0", len(third))
	}
}

func TestListOrdersEqualTimestampsByID(t *testing.T) {
	db := testsupport.MustOpenSQLite(t)
	images := NewImageSQLiteRepo(db)
	ctx := context.Background()

	a := newImage(t, base)
	b := newImage(t, base)
	mustCreate(t, images, a)
	mustCreate(t, images, b)

	items, err := images.ListWithLatestStatus(ctx, 10, 0)
	if err != nil {
		t.Fatalf("ListWithLatestStatus failed: %v", err)
	}
	if len(items) != 2 || items[0].Image.ID != b.ID {
		t.Errorf("first item = %v, want the later id %s", items, b.ID)
	}
}

func TestOutboxLifecycle(t *testing.T) {
	db := testsupport.MustOpenSQLite(t)
	images := NewImageSQLiteRepo(db)
	outbox := NewOutboxSQLiteRepo(db)
	ctx := context.Background()

	img := newImage(t, base)
	mustCreate(t, images, img)

	event := &entity.OutboxEvent{
		ID:          uuid.New(),
		AggregateID: img.ID,
		Payload:     []byte(`{"id":"x"}`),
		Status:      entity.OutboxPending,
		CreatedAt:   base,
	}
	if err := outbox.Create(ctx, event); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	pending, err := outbox.GetPendingEvents(ctx, 3, 10)
	if err != nil {
		t.Fatalf("GetPendingEvents failed: %v", err)
	}
	if len(pending) != 1 || string(pending[0].Payload) != `{"id":"x"}` {
		t.Fatalf("pending = %+v, want the created event", pending)
	}

	ids := []uuid.UUID{event.ID}
	for i := 0; i < 3; i++ {
		if err := outbox.MarkAsProcessingBatch(ctx, ids); err != nil {
			t.Fatalf("MarkAsProcessingBatch failed: %v", err)
		}
		if err := outbox.IncrementRetryCountBatch(ctx, ids); err != nil {
			t.Fatalf("IncrementRetryCountBatch failed: %v", err)
		}
	}

	pending, err = outbox.GetPendingEvents(ctx, 3, 10)
	if err != nil {
		t.Fatalf("GetPendingEvents failed: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending after max retries = %d, want 0", len(pending))
	}

	if err := outbox.MarkMaxRetriesAsFailed(ctx, 3); err != nil {
		t.Fatalf("MarkMaxRetriesAsFailed failed: %v", err)
	}

	n, err := outbox.DeleteOldProcessedAndFailed(ctx, base)
	if err != nil {
		t.Fatalf("DeleteOldProcessedAndFailed failed: %v", err)
	}
	if n != 0 {
		t.Errorf("deleted %d events not older than cutoff, want 0", n)
	}

	n, err = outbox.DeleteOldProcessedAndFailed(ctx, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("DeleteOldProcessedAndFailed failed: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}
}

func TestOutboxReleaseKeepsRetries(t *testing.T) {
	db := testsupport.MustOpenSQLite(t)
	images := NewImageSQLiteRepo(db)
	outbox := NewOutboxSQLiteRepo(db)
	ctx := context.Background()

	img := newImage(t, base)
	mustCreate(t, images, img)

	event := &entity.OutboxEvent{
		ID:          uuid.New(),
		AggregateID: img.ID,
		Payload:     []byte(`{}`),
		Status:      entity.OutboxPending,
		CreatedAt:   base,
	}
	if err := outbox.Create(ctx, event); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	ids := []uuid.UUID{event.ID}
	if err := outbox.MarkAsProcessingBatch(ctx, ids); err != nil {
		t.Fatalf("MarkAsProcessingBatch failed: %v", err)
	}

	pending, err := outbox.GetPendingEvents(ctx, 3, 10)
	if err != nil {
		t.Fatalf("GetPendingEvents failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("pending while processing = %d, want 0", len(pending))
	}

	if err := outbox.ReleaseBatch(ctx, ids); err != nil {
		t.Fatalf("ReleaseBatch failed: %v", err)
	}

	pending, err = outbox.GetPendingEvents(ctx, 3, 10)
	if err != nil {
		t.Fatalf("GetPendingEvents failed: %v", err)
	}
	if len(pending) != 1 || pending[0].RetryCount != 0 || pending[0].ProcessedAt != nil {
		t.Errorf("pending = %+v, want the released event with no retries", pending)
	}
}

func TestTransactionRollsBackImageAndEvents(t *testing.T) {
	db := testsupport.MustOpenSQLite(t)
	images := NewImageSQLiteRepo(db)
	events := NewStatusEventSQLiteRepo(db)
	ctx := context.Background()

	img := newImage(t, base)
	boom := errors.New("boom")

	err := db.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := images.Create(ctx, img); err != nil {
			return err
		}
		if err := events.Append(ctx, &entity.StatusEvent{ID: uuid.New(), ImageID: img.ID, Status: entity.Ready, CreatedAt: base}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithinTransaction error = %v, want %v", err, boom)
	}

	if _, err := images.GetByID(ctx, img.ID); !errors.Is(err, errs.ErrRecordNotFound) {
		t.Errorf("GetByID after rollback error = %v, want ErrRecordNotFound", err)
	}
}
