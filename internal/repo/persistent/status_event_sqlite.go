package persistent

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/andreyxaxa/Image-Vectorizer/internal/entity"
	"github.com/andreyxaxa/Image-Vectorizer/pkg/sqlite"
	"github.com/andreyxaxa/Image-Vectorizer/pkg/types/errs"
	"github.com/google/uuid"
)

type StatusEventSQLiteRepo struct {
	*sqlite.SQLite
}

func NewStatusEventSQLiteRepo(db *sqlite.SQLite) *StatusEventSQLiteRepo {
	return &StatusEventSQLiteRepo{db}
}

func (r *StatusEventSQLiteRepo) Append(ctx context.Context, event *entity.StatusEvent) error {
	query, args, err := r.Builder.
		Insert(statusEventsTable).
		Columns(
			eventIDColumn,
			eventImageIDColumn,
			eventStatusColumn,
			eventDescriptionColumn,
			eventCreatedAtColumn,
		).
		Values(
			event.ID,
			event.ImageID,
			event.Status,
			event.Description,
			toNanos(event.CreatedAt),
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("StatusEventSQLiteRepo - Append - r.Builder.ToSql: %w", err)
	}

	_, err = r.GetExecutor(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("StatusEventSQLiteRepo - Append - executor.ExecContext: %w", err)
	}

	return nil
}

func (r *StatusEventSQLiteRepo) Latest(ctx context.Context, imageID uuid.UUID) (*entity.StatusEvent, error) {
	query, args, err := r.selectEvents(imageID).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("StatusEventSQLiteRepo - Latest - r.Builder.ToSql: %w", err)
	}

	event, err := scanStatusEvent(r.GetExecutor(ctx).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("StatusEventSQLiteRepo - Latest: %w", errs.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("StatusEventSQLiteRepo - Latest - executor.QueryRowContext: %w", err)
	}

	return event, nil
}

func (r *StatusEventSQLiteRepo) ListByImage(ctx context.Context, imageID uuid.UUID) ([]*entity.StatusEvent, error) {
	query, args, err := r.selectEvents(imageID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("StatusEventSQLiteRepo - ListByImage - r.Builder.ToSql: %w", err)
	}

	rows, err := r.GetExecutor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("StatusEventSQLiteRepo - ListByImage - executor.QueryContext: %w", err)
	}
	defer rows.Close()

	var events []*entity.StatusEvent
	for rows.Next() {
		event, err := scanStatusEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("StatusEventSQLiteRepo - ListByImage - rows.Scan: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("StatusEventSQLiteRepo - ListByImage - rows.Err: %w", err)
	}

	return events, nil
}

func (r *StatusEventSQLiteRepo) selectEvents(imageID uuid.UUID) squirrel.SelectBuilder {
	return r.Builder.
		Select(
			eventIDColumn,
			eventImageIDColumn,
			eventStatusColumn,
			eventDescriptionColumn,
			eventCreatedAtColumn,
		).
		From(statusEventsTable).
		Where(squirrel.Eq{eventImageIDColumn: imageID}).
		OrderBy(latestOrder...)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStatusEvent(row rowScanner) (*entity.StatusEvent, error) {
	var (
		event     entity.StatusEvent
		createdAt int64
	)

	err := row.Scan(
		&event.ID,
		&event.ImageID,
		&event.Status,
		&event.Description,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	event.CreatedAt = fromNanos(createdAt)

	return &event, nil
}
