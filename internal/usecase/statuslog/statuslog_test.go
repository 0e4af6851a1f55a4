package statuslog

import (
	"context"
	"testing"
	"time"

	"github.com/andreyxaxa/Image-Vectorizer/internal/entity"
	"github.com/andreyxaxa/Image-Vectorizer/internal/repo/persistent"
	"github.com/andreyxaxa/Image-Vectorizer/internal/testsupport"
	"github.com/andreyxaxa/Image-Vectorizer/pkg/types/errs"
	"github.com/google/uuid"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	log     *StatusLog
	imageID uuid.UUID
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()

	db := testsupport.MustOpenSQLite(t)

	id := uuid.Must(uuid.NewV7())
	err := persistent.NewImageSQLiteRepo(db).Create(ctx, &entity.Image{
		ID:          id,
		OriginalKey: "PNG/20240501/1-00000-000-0.png",
		ContentType: "image/png",
		CreatedAt:   t0,
		UpdatedAt:   t0,
	})
	if err != nil {
		t.Fatalf("Create image failed: %v", err)
	}

	now := t0
	clock := func() time.Time {
		now = now.Add(time.Second)
		return now
	}

	return fixture{
		log:     New(persistent.NewStatusEventSQLiteRepo(db), Clock(clock)),
		imageID: id,
	}
}

func TestAppendUsesClock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	e, err := f.log.Append(ctx, f.imageID, entity.Ready, nil)
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if !e.CreatedAt.Equal(t0.Add(time.Second)) {
		t.Errorf("CreatedAt = %v, want %v", e.CreatedAt, t0.Add(time.Second))
	}
	if e.ID == uuid.Nil || e.ID.Version() != 7 {
		t.Errorf("ID = %s, want a v7 uuid", e.ID)
	}
}

func TestAppendAllowsDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := f.log.Append(ctx, f.imageID, entity.Processing, nil); err != nil {
			t.Fatalf("Append #%d failed: %v", i, err)
		}
	}

	history, err := f.log.History(ctx, f.imageID)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 2 {
		t.Errorf("history len = %d, want 2", len(history))
	}
}

func TestLatestFollowsTimestampsNotInsertOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	desc := "boom"
	steps := []struct {
		status entity.Status
		at     time.Time
		desc   *string
	}{
		{entity.Failed, t0.Add(3 * time.Second), &desc},
		{entity.Ready, t0, nil},
		{entity.Processing, t0.Add(time.Second), nil},
	}
	for _, s := range steps {
		if _, err := f.log.AppendAt(ctx, f.imageID, s.status, s.desc, s.at); err != nil {
			t.Fatalf("AppendAt(%s) failed: %v", s.status, err)
		}
	}

	latest, err := f.log.Latest(ctx, f.imageID)
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if latest == nil || latest.Status != entity.Failed {
		t.Fatalf("Latest = %+v, want failed", latest)
	}
	if latest.Description == nil || *latest.Description != desc {
		t.Errorf("Description = %v, want %q", latest.Description, desc)
	}
}

func TestLatestEmptyLog(t *testing.T) {
	f := newFixture(t)

	latest, err := f.log.Latest(context.Background(), f.imageID)
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if latest != nil {
		t.Errorf("Latest = %+v, want nil", latest)
	}
}

func TestAppendFailuresAreSaveErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.log.Append(ctx, uuid.New(), entity.Ready, nil)
	if errs.KindOf(err) != errs.KindSave {
		t.Errorf("Append(missing image) kind = %s, want save (err %v)", errs.KindOf(err), err)
	}

	_, err = f.log.Append(ctx, f.imageID, entity.Status("paused"), nil)
	if errs.KindOf(err) != errs.KindSave {
		t.Errorf("Append(unknown status) kind = %s, want save (err %v)", errs.KindOf(err), err)
	}
}
