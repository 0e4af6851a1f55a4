package persistent

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/andreyxaxa/Image-Vectorizer/internal/entity"
	"github.com/andreyxaxa/Image-Vectorizer/pkg/sqlite"
	"github.com/andreyxaxa/Image-Vectorizer/pkg/types/errs"
	"github.com/google/uuid"
)

// SQLite keeps timestamps as unix nanoseconds.
func toNanos(t time.Time) int64 {
	return t.UnixNano()
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

type ImageSQLiteRepo struct {
	*sqlite.SQLite
}

func NewImageSQLiteRepo(db *sqlite.SQLite) *ImageSQLiteRepo {
	return &ImageSQLiteRepo{db}
}

func (r *ImageSQLiteRepo) Create(ctx context.Context, image *entity.Image) error {
	query, args, err := r.Builder.
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
			toNanos(image.CreatedAt),
			toNanos(image.UpdatedAt),
		).ToSql()
	if err != nil {
		return fmt.Errorf("ImageSQLiteRepo - Create - r.Builder.ToSql: %w", err)
	}

	_, err = r.GetExecutor(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("ImageSQLiteRepo - Create - executor.ExecContext: %w", err)
	}

	return nil
}

func (r *ImageSQLiteRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Image, error) {
	query, args, err := r.Builder.
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
		return nil, fmt.Errorf("ImageSQLiteRepo - GetByID - r.Builder.ToSql: %w", err)
	}

	var (
		image                entity.Image
		createdAt, updatedAt int64
	)

	err = r.GetExecutor(ctx).QueryRowContext(ctx, query, args...).Scan(
		&image.ID,
		&image.OriginalKey,
		&image.VectorKey,
		&image.Label,
		&image.ContentType,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("ImageSQLiteRepo - GetByID: %w", errs.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("ImageSQLiteRepo - GetByID - executor.QueryRowContext: %w", err)
	}

	image.CreatedAt = fromNanos(createdAt)
	image.UpdatedAt = fromNanos(updatedAt)

	return &image, nil
}

func (r *ImageSQLiteRepo) SetVectorKey(ctx context.Context, id uuid.UUID, key string, updatedAt time.Time) error {
	query, args, err := r.Builder.
		Update(imagesTable).
		Set(vectorKeyColumn, key).
		Set(updatedAtColumn, toNanos(updatedAt)).
		Where(squirrel.And{
			squirrel.Eq{idColumn: id},
			squirrel.Eq{vectorKeyColumn: nil},
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("ImageSQLiteRepo - SetVectorKey - r.Builder.ToSql: %w", err)
	}

	res, err := r.GetExecutor(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("ImageSQLiteRepo - SetVectorKey - executor.ExecContext: %w", err)
	}

	return expectAffected(res, "ImageSQLiteRepo - SetVectorKey")
}

func (r *ImageSQLiteRepo) Delete(ctx context.Context, id uuid.UUID) error {
	query, args, err := r.Builder.
		Delete(imagesTable).
		Where(squirrel.Eq{idColumn: id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("ImageSQLiteRepo - Delete - r.Builder.ToSql: %w", err)
	}

	res, err := r.GetExecutor(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("ImageSQLiteRepo - Delete - executor.ExecContext: %w", err)
	}

	return expectAffected(res, "ImageSQLiteRepo - Delete")
}

func (r *ImageSQLiteRepo) Count(ctx context.Context) (int64, error) {
	query, args, err := r.Builder.
		Select("COUNT(*)").
		From(imagesTable).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("ImageSQLiteRepo - Count - r.Builder.ToSql: %w", err)
	}

	var total int64
	err = r.GetExecutor(ctx).QueryRowContext(ctx, query, args...).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("ImageSQLiteRepo - Count - executor.QueryRowContext.Scan: %w", err)
	}

	return total, nil
}

func (r *ImageSQLiteRepo) ListWithLatestStatus(ctx context.Context, limit, offset int) ([]entity.ImageWithStatus, error) {
	query, args, err := listWithLatestStatusQuery(r.Builder, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ImageSQLiteRepo - ListWithLatestStatus: %w", err)
	}

	rows, err := r.GetExecutor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ImageSQLiteRepo - ListWithLatestStatus - executor.QueryContext: %w", err)
	}
	defer rows.Close()

	items := make([]entity.ImageWithStatus, 0, limit)
	for rows.Next() {
		var (
			image                entity.Image
			createdAt, updatedAt int64
			eventID              *uuid.UUID
			status               *entity.Status
			description          *string
			eventAt              sql.NullInt64
		)

		err = rows.Scan(
			&image.ID,
			&image.OriginalKey,
			&image.VectorKey,
			&image.Label,
			&image.ContentType,
			&createdAt,
			&updatedAt,
			&eventID,
			&status,
			&description,
			&eventAt,
		)
		if err != nil {
			return nil, fmt.Errorf("ImageSQLiteRepo - ListWithLatestStatus - rows.Scan: %w", err)
		}

		image.CreatedAt = fromNanos(createdAt)
		image.UpdatedAt = fromNanos(updatedAt)

		item := entity.ImageWithStatus{Image: &image}
		if eventID != nil && status != nil && eventAt.Valid {
			item.Latest = &entity.StatusEvent{
				ID:          *eventID,
				ImageID:     image.ID,
				Status:      *status,
				Description: description,
				CreatedAt:   fromNanos(eventAt.Int64),
			}
		}

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ImageSQLiteRepo - ListWithLatestStatus - rows.Err: %w", err)
	}

	return items, nil
}

func expectAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s - res.RowsAffected: %w", op, err)
	}

	if n == 0 {
		return fmt.Errorf("%s: %w", op, errs.ErrRecordNotFound)
	}

	return nil
}
