package persistent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/andreyxaxa/Image-Vectorizer/internal/entity"
	"github.com/andreyxaxa/Image-Vectorizer/pkg/postgres"
	"github.com/andreyxaxa/Image-Vectorizer/pkg/types/errs"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ImagePostgresRepo struct {
	*postgres.Postgres
}

func NewImagePostgresRepo(pg *postgres.Postgres) *ImagePostgresRepo {
	return &ImagePostgresRepo{pg}
}

func (r *ImagePostgresRepo) Create(ctx context.Context, image *entity.Image) error {
	sql, args, err := r.Builder.
		Insert(imagesTable).
		Columns(
			idColumn,
			originalKeyColumn,
			vectorKeyColumn,
			labelColumn,
			contentTypeColumn,
			createdAtColumn,
			updatedAtColumn,
		).
		Values(
			image.ID,
			image.OriginalKey,
			image.VectorKey,
			image.Label,
			image.ContentType,
			image.CreatedAt,
			image.UpdatedAt,
		).ToSql()
	if err != nil {
		return fmt.Errorf("ImagePostgresRepo - Create - r.Builder.ToSql: %w", err)
	}

	// Pool / Tx
	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("ImagePostgresRepo - Create - executor.Exec: %w", err)
	}

	return nil
}

func (r *ImagePostgresRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Image, error) {
	sql, args, err := r.Builder.
		Select(
			idColumn,
			originalKeyColumn,
			vectorKeyColumn,
			labelColumn,
			contentTypeColumn,
			createdAtColumn,
			updatedAtColumn,
		).
		From(imagesTable).
		Where(squirrel.Eq{idColumn: id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ImagePostgresRepo - GetByID - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	var image entity.Image
	err = executor.QueryRow(ctx, sql, args...).Scan(
		&image.ID,
		&image.OriginalKey,
		&image.VectorKey,
		&image.Label,
		&image.ContentType,
		&image.CreatedAt,
		&image.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("ImagePostgresRepo - GetByID: %w", errs.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("ImagePostgresRepo - GetByID - executor.QueryRow: %w", err)
	}

	return &image, nil
}

func (r *ImagePostgresRepo) SetVectorKey(ctx context.Context, id uuid.UUID, key string, updatedAt time.Time) error {
	sql, args, err := r.Builder.
		Update(imagesTable).
		Set(vectorKeyColumn, key).
		Set(updatedAtColumn, updatedAt).
		Where(squirrel.And{
			squirrel.Eq{idColumn: id},
			squirrel.Eq{vectorKeyColumn: nil},
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("ImagePostgresRepo - SetVectorKey - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("ImagePostgresRepo - SetVectorKey - executor.Exec: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ImagePostgresRepo - SetVectorKey: %w", errs.ErrRecordNotFound)
	}

	return nil
}

func (r *ImagePostgresRepo) Delete(ctx context.Context, id uuid.UUID) error {
	sql, args, err := r.Builder.
		Delete(imagesTable).
		Where(squirrel.Eq{idColumn: id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("ImagePostgresRepo - Delete - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("ImagePostgresRepo - Delete - executor.Exec: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ImagePostgresRepo - Delete: %w", errs.ErrRecordNotFound)
	}

	return nil
}

func (r *ImagePostgresRepo) Count(ctx context.Context) (int64, error) {
	sql, args, err := r.Builder.
		Select("COUNT(*)").
		From(imagesTable).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("ImagePostgresRepo - Count - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	var total int64
	err = executor.QueryRow(ctx, sql, args...).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("ImagePostgresRepo - Count - executor.QueryRow.Scan: %w", err)
	}

	return total, nil
}

func (r *ImagePostgresRepo) ListWithLatestStatus(ctx context.Context, limit, offset int) ([]entity.ImageWithStatus, error) {
	sql, args, err := listWithLatestStatusQuery(r.Builder, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ImagePostgresRepo - ListWithLatestStatus: %w", err)
	}

	executor := r.GetExecutor(ctx)

	rows, err := executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("ImagePostgresRepo - ListWithLatestStatus - executor.Query: %w", err)
	}
	defer rows.Close()

	items := make([]entity.ImageWithStatus, 0, limit)
	for rows.Next() {
		var (
			image       entity.Image
			eventID     *uuid.UUID
			status      *entity.Status
			description *string
			eventAt     *time.Time
		)

		err = rows.Scan(
			&image.ID,
			&image.OriginalKey,
			&image.VectorKey,
			&image.Label,
			&image.ContentType,
			&image.CreatedAt,
			&image.UpdatedAt,
			&eventID,
			&status,
			&description,
			&eventAt,
		)
		if err != nil {
			return nil, fmt.Errorf("ImagePostgresRepo - ListWithLatestStatus - rows.Scan: %w", err)
		}

		item := entity.ImageWithStatus{Image: &image}
		if eventID != nil && status != nil && eventAt != nil {
			item.Latest = &entity.StatusEvent{
				ID:          *eventID,
				ImageID:     image.ID,
				Status:      *status,
				Description: description,
				CreatedAt:   *eventAt,
			}
		}

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ImagePostgresRepo - ListWithLatestStatus - rows.Err: %w", err)
	}

	return items, nil
}
