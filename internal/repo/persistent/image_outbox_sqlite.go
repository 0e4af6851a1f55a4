package persistent

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/andreyxaxa/Image-Vectorizer/internal/entity"
	"github.com/andreyxaxa/Image-Vectorizer/pkg/sqlite"
	"github.com/google/uuid"
)

type OutboxSQLiteRepo struct {
	*sqlite.SQLite
}

func NewOutboxSQLiteRepo(db *sqlite.SQLite) *OutboxSQLiteRepo {
	return &OutboxSQLiteRepo{db}
}

func (r *OutboxSQLiteRepo) Create(ctx context.Context, event *entity.OutboxEvent) error {
	query, args, err := r.Builder.
		Insert(outboxTable).
		Columns(
			outboxIDColumn,
			outboxAggregateIDColumn,
			outboxPayloadColumn,
			outboxStatusColumn,
			outboxCreatedAtColumn,
			outboxRetryCountColumn,
		).
		Values(
			event.ID,
			event.AggregateID,
			event.Payload,
			event.Status,
			toNanos(event.CreatedAt),
			event.RetryCount,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("OutboxSQLiteRepo - Create - r.Builder.ToSql: %w", err)
	}

	_, err = r.GetExecutor(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("OutboxSQLiteRepo - Create - executor.ExecContext: %w", err)
	}

	return nil
}

func (r *OutboxSQLiteRepo) GetPendingEvents(ctx context.Context, maxRetries, limit int) ([]*entity.OutboxEvent, error) {
	query, args, err := r.Builder.
		Select(
			outboxIDColumn,
			outboxAggregateIDColumn,
			outboxPayloadColumn,
			outboxStatusColumn,
			outboxCreatedAtColumn,
			outboxProcessedAtColumn,
			outboxRetryCountColumn,
		).
		From(outboxTable).
		Where(squirrel.And{
			squirrel.Eq{outboxStatusColumn: entity.OutboxPending},
			squirrel.Lt{outboxRetryCountColumn: maxRetries},
		}).
		OrderBy(outboxCreatedAtColumn + " ASC").
		Limit(uint64(limit)). //nolint:gosec // positive by config
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("OutboxSQLiteRepo - GetPendingEvents - r.Builder.ToSql: %w", err)
	}

	rows, err := r.GetExecutor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("OutboxSQLiteRepo - GetPendingEvents - executor.QueryContext: %w", err)
	}
	defer rows.Close()

	events := make([]*entity.OutboxEvent, 0, limit)
	for rows.Next() {
		var (
			event       entity.OutboxEvent
			createdAt   int64
			processedAt sql.NullInt64
		)

		err = rows.Scan(
			&event.ID,
			&event.AggregateID,
			&event.Payload,
			&event.Status,
			&createdAt,
			&processedAt,
			&event.RetryCount,
		)
		if err != nil {
			return nil, fmt.Errorf("OutboxSQLiteRepo - GetPendingEvents - rows.Scan: %w", err)
		}

		event.CreatedAt = fromNanos(createdAt)
		if processedAt.Valid {
			t := fromNanos(processedAt.Int64)
			event.ProcessedAt = &t
		}

		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("OutboxSQLiteRepo - GetPendingEvents - rows.Err: %w", err)
	}

	return events, nil
}

func (r *OutboxSQLiteRepo) MarkAsProcessingBatch(ctx context.Context, IDs uuid.UUIDs) error {
	return r.setStatusBatch(ctx, "MarkAsProcessingBatch", IDs, entity.OutboxProcessing)
}

func (r *OutboxSQLiteRepo) MarkAsProcessedBatch(ctx context.Context, IDs uuid.UUIDs) error {
	return r.setStatusBatch(ctx, "MarkAsProcessedBatch", IDs, entity.OutboxProcessed)
}

// ReleaseBatch returns events to pending without spending a retry.
func (r *OutboxSQLiteRepo) ReleaseBatch(ctx context.Context, IDs uuid.UUIDs) error {
	query, args, err := r.Builder.
		Update(outboxTable).
		Set(outboxStatusColumn, entity.OutboxPending).
		Set(outboxProcessedAtColumn, nil).
		Where(squirrel.Eq{outboxIDColumn: IDs}).
		ToSql()
	if err != nil {
		return fmt.Errorf("OutboxSQLiteRepo - ReleaseBatch - r.Builder.ToSql: %w", err)
	}

	_, err = r.GetExecutor(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("OutboxSQLiteRepo - ReleaseBatch - executor.ExecContext: %w", err)
	}

	return nil
}

func (r *OutboxSQLiteRepo) setStatusBatch(ctx context.Context, op string, IDs uuid.UUIDs, status entity.OutboxStatus) error {
	query, args, err := r.Builder.
		Update(outboxTable).
		Set(outboxStatusColumn, status).
		Set(outboxProcessedAtColumn, toNanos(time.Now())).
		Where(squirrel.Eq{outboxIDColumn: IDs}).
		ToSql()
	if err != nil {
		return fmt.Errorf("OutboxSQLiteRepo - %s - r.Builder.ToSql: %w", op, err)
	}

	res, err := r.GetExecutor(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("OutboxSQLiteRepo - %s - executor.ExecContext: %w", op, err)
	}

	return expectAffected(res, "OutboxSQLiteRepo - "+op)
}

func (r *OutboxSQLiteRepo) MarkMaxRetriesAsFailed(ctx context.Context, maxRetries int) error {
	query, args, err := r.Builder.
		Update(outboxTable).
		Set(outboxStatusColumn, entity.OutboxFailed).
		Where(squirrel.And{
			squirrel.Eq{outboxStatusColumn: entity.OutboxPending},
			squirrel.GtOrEq{outboxRetryCountColumn: maxRetries},
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("OutboxSQLiteRepo - MarkMaxRetriesAsFailed - r.Builder.ToSql: %w", err)
	}

	_, err = r.GetExecutor(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("OutboxSQLiteRepo - MarkMaxRetriesAsFailed - executor.ExecContext: %w", err)
	}

	return nil
}

func (r *OutboxSQLiteRepo) IncrementRetryCountBatch(ctx context.Context, IDs uuid.UUIDs) error {
	query, args, err := r.Builder.
		Update(outboxTable).
		Set(outboxRetryCountColumn, squirrel.Expr(outboxRetryCountColumn+" + 1")).
		Set(outboxStatusColumn, entity.OutboxPending).
		Where(squirrel.Eq{outboxIDColumn: IDs}).
		ToSql()
	if err != nil {
		return fmt.Errorf("OutboxSQLiteRepo - IncrementRetryCountBatch - r.Builder.ToSql: %w", err)
	}

	res, err := r.GetExecutor(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("OutboxSQLiteRepo - IncrementRetryCountBatch - executor.ExecContext: %w", err)
	}

	return expectAffected(res, "OutboxSQLiteRepo - IncrementRetryCountBatch")
}

func (r *OutboxSQLiteRepo) DeleteOldProcessedAndFailed(ctx context.Context, olderThan time.Time) (int64, error) {
	query, args, err := r.Builder.
		Delete(outboxTable).
		Where(squirrel.And{
			squirrel.Eq{outboxStatusColumn: []entity.OutboxStatus{entity.OutboxProcessed, entity.OutboxFailed}},
			squirrel.Lt{outboxCreatedAtColumn: toNanos(olderThan)},
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("OutboxSQLiteRepo - DeleteOldProcessedAndFailed - r.Builder.ToSql: %w", err)
	}

	res, err := r.GetExecutor(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("OutboxSQLiteRepo - DeleteOldProcessedAndFailed - executor.ExecContext: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("OutboxSQLiteRepo - DeleteOldProcessedAndFailed - res.RowsAffected: %w", err)
	}

	return n, nil
}
