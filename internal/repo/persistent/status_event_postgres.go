package persistent

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/andreyxaxa/Image-Vectorizer/internal/entity"
	"github.com/andreyxaxa/Image-Vectorizer/pkg/postgres"
	"github.com/andreyxaxa/Image-Vectorizer/pkg/types/errs"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type StatusEventPostgresRepo struct {
	*postgres.Postgres
}

func NewStatusEventPostgresRepo(pg *postgres.Postgres) *StatusEventPostgresRepo {
	return &StatusEventPostgresRepo{pg}
}

func (r *StatusEventPostgresRepo) Append(ctx context.Context, event *entity.StatusEvent) error {
	sql, args, err := r.Builder.
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
			event.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("StatusEventPostgresRepo - Append - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("StatusEventPostgresRepo - Append - executor.Exec: %w", err)
	}

	return nil
}

func (r *StatusEventPostgresRepo) Latest(ctx context.Context, imageID uuid.UUID) (*entity.StatusEvent, error) {
	sql, args, err := r.selectEvents(imageID).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("StatusEventPostgresRepo - Latest - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	var event entity.StatusEvent
	err = executor.QueryRow(ctx, sql, args...).Scan(
		&event.ID,
		&event.ImageID,
		&event.Status,
		&event.Description,
		&event.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("StatusEventPostgresRepo - Latest: %w", errs.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("StatusEventPostgresRepo - Latest - executor.QueryRow: %w", err)
	}

	return &event, nil
}

func (r *StatusEventPostgresRepo) ListByImage(ctx context.Context, imageID uuid.UUID) ([]*entity.StatusEvent, error) {
	sql, args, err := r.selectEvents(imageID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("StatusEventPostgresRepo - ListByImage - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	rows, err := executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("StatusEventPostgresRepo - ListByImage - executor.Query: %w", err)
	}
	defer rows.Close()

	var events []*entity.StatusEvent
	for rows.Next() {
		var event entity.StatusEvent
		err = rows.Scan(
			&event.ID,
			&event.ImageID,
			&event.Status,
			&event.Description,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("StatusEventPostgresRepo - ListByImage - rows.Scan: %w", err)
		}
		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("StatusEventPostgresRepo - ListByImage - rows.Err: %w", err)
	}

	return events, nil
}

func (r *StatusEventPostgresRepo) selectEvents(imageID uuid.UUID) squirrel.SelectBuilder {
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
