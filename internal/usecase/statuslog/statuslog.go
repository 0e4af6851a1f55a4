// Package statuslog records image lifecycle transitions as an append-only log.
// Writers follow READY -> PROCESSING -> COMPLETED | FAILED; the log itself does not enforce it.
package statuslog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andreyxaxa/Image-Vectorizer/internal/entity"
	"github.com/andreyxaxa/Image-Vectorizer/internal/repo"
	"github.com/andreyxaxa/Image-Vectorizer/pkg/types/errs"
	"github.com/google/uuid"
)

type Option func(*StatusLog)

// Clock replaces time.Now as the source of event timestamps.
func Clock(now func() time.Time) Option {
	return func(s *StatusLog) {
		s.now = now
	}
}

type StatusLog struct {
	repo repo.StatusEventRepo
	now  func() time.Time
}

func New(r repo.StatusEventRepo, opts ...Option) *StatusLog {
	s := &StatusLog{
		repo: r,
		now:  time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *StatusLog) Append(ctx context.Context, imageID uuid.UUID, status entity.Status, description *string) (*entity.StatusEvent, error) {
	return s.AppendAt(ctx, imageID, status, description, s.now())
}

func (s *StatusLog) AppendAt(
	ctx context.Context,
	imageID uuid.UUID,
	status entity.Status,
	description *string,
	at time.Time,
) (*entity.StatusEvent, error) {
	if !status.Valid() {
		return nil, errs.Wrap(errs.KindSave, "StatusLog - AppendAt", fmt.Errorf("unknown status %q", status))
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, errs.Wrap(errs.KindSave, "StatusLog - AppendAt - uuid.NewV7", err)
	}

	event := &entity.StatusEvent{
		ID:          id,
		ImageID:     imageID,
		Status:      status,
		Description: description,
		CreatedAt:   at,
	}

	if err := s.repo.Append(ctx, event); err != nil {
		return nil, errs.Wrap(errs.KindSave, "StatusLog - AppendAt - s.repo.Append", err)
	}

	return event, nil
}

// Latest returns nil without error when the image has no events.
func (s *StatusLog) Latest(ctx context.Context, imageID uuid.UUID) (*entity.StatusEvent, error) {
	event, err := s.repo.Latest(ctx, imageID)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("StatusLog - Latest - s.repo.Latest: %w", err)
	}

	return event, nil
}

// History returns the whole log of an image, newest first.
func (s *StatusLog) History(ctx context.Context, imageID uuid.UUID) ([]*entity.StatusEvent, error) {
	events, err := s.repo.ListByImage(ctx, imageID)
	if err != nil {
		return nil, fmt.Errorf("StatusLog - History - s.repo.ListByImage: %w", err)
	}

	return events, nil
}
