package conversion

import (
	"bytes"
	"context"
	"errors"
	"image"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/andreyxaxa/Image-Vectorizer/internal/dto"
	"github.com/andreyxaxa/Image-Vectorizer/internal/entity"
	"github.com/andreyxaxa/Image-Vectorizer/internal/infrastructure/processor"
	"github.com/andreyxaxa/Image-Vectorizer/internal/repo/persistent"
	"github.com/andreyxaxa/Image-Vectorizer/internal/testsupport"
	"github.com/andreyxaxa/Image-Vectorizer/internal/usecase"
	"github.com/andreyxaxa/Image-Vectorizer/internal/usecase/imageprocessor"
	"github.com/andreyxaxa/Image-Vectorizer/internal/usecase/statuslog"
	"github.com/andreyxaxa/Image-Vectorizer/pkg/logger"
	"github.com/google/uuid"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	uc       *ConversionUseCase
	blobs    *testsupport.MemBlobs
	images   *persistent.ImageSQLiteRepo
	statuses *statuslog.StatusLog
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	db := testsupport.MustOpenSQLite(t)

	now := t0
	clock := func() time.Time {
		now = now.Add(time.Second)
		return now
	}

	prc := imageprocessor.New(processor.NewPreprocessor(), processor.NewVectorizer(), processor.NewOptimizer())

	f := fixture{
		blobs:    testsupport.NewMemBlobs(),
		images:   persistent.NewImageSQLiteRepo(db),
		statuses: statuslog.New(persistent.NewStatusEventSQLiteRepo(db), statuslog.Clock(clock)),
	}
	f.uc = New(f.images, f.blobs, f.statuses, prc, logger.NewWithWriter("error", io.Discard))

	return f
}

// seed stores data as an uploaded original in READY state.
func (f fixture) seed(t *testing.T, data []byte) dto.ConvertTask {
	t.Helper()
	ctx := context.Background()

	id := uuid.Must(uuid.NewV7())
	key := "PNG/20240501/" + id.String() + ".png"

	if data != nil {
		if _, err := f.blobs.Put(ctx, key, data, "image/png"); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	err := f.images.Create(ctx, &entity.Image{
		ID:          id,
		OriginalKey: key,
		ContentType: "image/png",
		CreatedAt:   t0,
		UpdatedAt:   t0,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := f.statuses.AppendAt(ctx, id, entity.Ready, nil, t0); err != nil {
		t.Fatalf("AppendAt failed: %v", err)
	}

	return dto.ConvertTask{ImageID: id, OriginalKey: key, ContentType: "image/png"}
}

func (f fixture) statusTrail(t *testing.T, id uuid.UUID) []entity.Status {
	t.Helper()

	events, err := f.statuses.History(context.Background(), id)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}

	trail := make([]entity.Status, 0, len(events))
	for i := len(events) - 1; i >= 0; i-- {
		trail = append(trail, events[i].Status)
	}
	return trail
}

func equalTrail(a, b []entity.Status) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func raster(t *testing.T) []byte {
	t.Helper()
	return testsupport.SquaresPNG(t, 20, 20, image.Rect(2, 2, 10, 10), image.Rect(13, 13, 17, 17))
}

func TestConvertCompletes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	task := f.seed(t, raster(t))

	if err := f.uc.Convert(ctx, task); err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	want := []entity.Status{entity.Ready, entity.Processing, entity.Completed}
	if got := f.statusTrail(t, task.ImageID); !equalTrail(got, want) {
		t.Errorf("status trail = %v, want %v", got, want)
	}

	img, err := f.images.GetByID(ctx, task.ImageID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if img.VectorKey == nil || !strings.HasPrefix(*img.VectorKey, "SVG/") || !strings.HasSuffix(*img.VectorKey, ".svg") {
		t.Fatalf("vector key = %v", img.VectorKey)
	}

	doc, err := f.blobs.Get(ctx, *img.VectorKey)
	if err != nil {
		t.Fatalf("vector object missing: %v", err)
	}
	if !bytes.HasPrefix(doc, []byte("<svg")) || !bytes.Contains(doc, []byte("viewBox")) {
		t.Errorf("unexpected document: %s", doc)
	}
}

func TestConvertSkipsVectorized(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	task := f.seed(t, raster(t))
	if err := f.uc.Convert(ctx, task); err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	keys := f.blobs.Keys()

	// повторная доставка
	if err := f.uc.Convert(ctx, task); err != nil {
		t.Fatalf("second Convert failed: %v", err)
	}

	want := []entity.Status{entity.Ready, entity.Processing, entity.Completed}
	if got := f.statusTrail(t, task.ImageID); !equalTrail(got, want) {
		t.Errorf("status trail = %v, want %v", got, want)
	}
	if got := f.blobs.Keys(); len(got) != len(keys) {
		t.Errorf("objects = %v, want %v", got, keys)
	}
}

func TestConvertRecordsFailure(t *testing.T) {
	tests := []struct {
		name    string
		data    func(t *testing.T) []byte
		failPut bool
	}{
		{name: "not an image", data: func(*testing.T) []byte { return []byte("definitely not a raster") }},
		{name: "missing original", data: func(*testing.T) []byte { return nil }},
		{name: "store failure", data: raster, failPut: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()

			task := f.seed(t, tt.data(t))
			f.blobs.FailPut = tt.failPut

			if err := f.uc.Convert(ctx, task); err != nil {
				t.Fatalf("Convert returned %v, want nil", err)
			}

			latest, err := f.statuses.Latest(ctx, task.ImageID)
			if err != nil {
				t.Fatalf("Latest failed: %v", err)
			}
			if latest.Status != entity.Failed {
				t.Fatalf("latest = %s, want failed", latest.Status)
			}
			if latest.Description == nil || *latest.Description == "" {
				t.Errorf("failed event has no description")
			}

			img, err := f.images.GetByID(ctx, task.ImageID)
			if err != nil {
				t.Fatalf("GetByID failed: %v", err)
			}
			if img.VectorKey != nil {
				t.Errorf("vector key = %q, want nil", *img.VectorKey)
			}
		})
	}
}

func TestConvertImageGone(t *testing.T) {
	f := newFixture(t)

	task := dto.ConvertTask{ImageID: uuid.Must(uuid.NewV7()), OriginalKey: "PNG/20240501/x.png"}
	if err := f.uc.Convert(context.Background(), task); err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if keys := f.blobs.Keys(); len(keys) != 0 {
		t.Errorf("objects stored for a missing image: %v", keys)
	}
}

type brokenStatuses struct {
	usecase.StatusLog
}

func (brokenStatuses) Append(context.Context, uuid.UUID, entity.Status, *string) (*entity.StatusEvent, error) {
	return nil, errors.New("database is locked")
}

func TestConvertReturnsStatusFailure(t *testing.T) {
	f := newFixture(t)
	task := f.seed(t, raster(t))

	uc := New(f.images, f.blobs, brokenStatuses{f.statuses}, f.uc.prc, f.uc.logger)
	if err := uc.Convert(context.Background(), task); err == nil {
		t.Fatal("Convert returned nil, want error")
	}
}

// racingProcessor stores a vector for the image while the conversion is running,
// the way a concurrent delivery of the same task would.
type racingProcessor struct {
	images *persistent.ImageSQLiteRepo
	id     uuid.UUID
}

func (p racingProcessor) Preprocess(_ context.Context, data []byte) ([]byte, error) {
	return data, nil
}

func (p racingProcessor) Process(ctx context.Context, _ []byte) ([]byte, error) {
	if err := p.images.SetVectorKey(ctx, p.id, "SVG/20240501/winner.svg", t0); err != nil {
		return nil, err
	}
	return []byte(`<svg xmlns="http://www.w3.org/2000/svg"/>`), nil
}

func TestConvertLosesVectorRace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	task := f.seed(t, raster(t))
	uc := New(f.images, f.blobs, f.statuses, racingProcessor{images: f.images, id: task.ImageID}, f.uc.logger)

	if err := uc.Convert(ctx, task); err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	want := []entity.Status{entity.Ready, entity.Processing, entity.Completed}
	if got := f.statusTrail(t, task.ImageID); !equalTrail(got, want) {
		t.Errorf("status trail = %v, want %v", got, want)
	}

	img, err := f.images.GetByID(ctx, task.ImageID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if img.VectorKey == nil || *img.VectorKey != "SVG/20240501/winner.svg" {
		t.Errorf("vector key = %v, want the winner's", img.VectorKey)
	}

	// only the original remains; the loser's document was removed
	if keys := f.blobs.Keys(); len(keys) != 1 || keys[0] != task.OriginalKey {
		t.Errorf("objects = %v, want only %s", keys, task.OriginalKey)
	}
}

// blockingProcessor holds the pipeline until its ctx is done.
type blockingProcessor struct{}

func (blockingProcessor) Preprocess(_ context.Context, data []byte) ([]byte, error) {
	return data, nil
}

func (blockingProcessor) Process(ctx context.Context, _ []byte) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestConvertRecordsTimeout(t *testing.T) {
	f := newFixture(t)
	task := f.seed(t, raster(t))

	uc := New(f.images, f.blobs, f.statuses, blockingProcessor{}, f.uc.logger)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := uc.Convert(ctx, task); err != nil {
		t.Fatalf("Convert returned %v, want nil", err)
	}

	want := []entity.Status{entity.Ready, entity.Processing, entity.Failed}
	if got := f.statusTrail(t, task.ImageID); !equalTrail(got, want) {
		t.Errorf("status trail = %v, want %v", got, want)
	}

	latest, err := f.statuses.Latest(context.Background(), task.ImageID)
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if latest.Description == nil || !strings.Contains(*latest.Description, context.DeadlineExceeded.Error()) {
		t.Errorf("description = %v, want the deadline error", latest.Description)
	}
}
