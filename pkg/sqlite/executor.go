package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

type txKey struct{}

type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLite) GetExecutor(ctx context.Context) Executor {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return s.DB
}

func (s *SQLite) WithinTransaction(ctx context.Context, f func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return f(ctx)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("SQLite - WithinTransaction - s.DB.BeginTx: %w", err)
	}

	err = f(context.WithValue(ctx, txKey{}, tx))
	if err != nil {
		_ = tx.Rollback()

		return fmt.Errorf("SQLite - WithinTransaction: %w", err)
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("SQLite - WithinTransaction - tx.Commit: %w", err)
	}

	return nil
}
