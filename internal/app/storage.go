package app

import (
	"context"
	"fmt"

	"github.com/andreyxaxa/Image-Vectorizer/config"
	"github.com/andreyxaxa/Image-Vectorizer/internal/repo"
	"github.com/andreyxaxa/Image-Vectorizer/internal/repo/persistent"
	"github.com/andreyxaxa/Image-Vectorizer/migrations"
	"github.com/andreyxaxa/Image-Vectorizer/pkg/postgres"
	"github.com/andreyxaxa/Image-Vectorizer/pkg/sqlite"
)

// storage is the set of repositories over one database.
type storage struct {
	images     repo.ImageRepo
	statuses   repo.StatusEventRepo
	outbox     repo.OutboxRepo
	transactor repo.Transactor
	close      func()
}

func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	switch cfg.Storage.Driver {
	case config.StorageSQLite:
		db, err := sqlite.New(cfg.SQLite.Path, sqlite.BusyTimeout(cfg.SQLite.BusyTimeout))
		if err != nil {
			return nil, fmt.Errorf("app - openStorage - sqlite.New: %w", err)
		}

		if err = db.Migrate(ctx, migrations.SQLite()); err != nil {
			db.Close()
			return nil, fmt.Errorf("app - openStorage - db.Migrate: %w", err)
		}

		return &storage{
			images:     persistent.NewImageSQLiteRepo(db),
			statuses:   persistent.NewStatusEventSQLiteRepo(db),
			outbox:     persistent.NewOutboxSQLiteRepo(db),
			transactor: db,
			close:      func() { db.Close() },
		}, nil
	default:
		pg, err := postgres.New(cfg.PG.URL, postgres.MaxPoolSize(cfg.PG.PoolMax))
		if err != nil {
			return nil, fmt.Errorf("app - openStorage - postgres.New: %w", err)
		}

		if err = pg.Migrate(ctx, migrations.Postgres()); err != nil {
			pg.Close()
			return nil, fmt.Errorf("app - openStorage - pg.Migrate: %w", err)
		}

		return &storage{
			images:     persistent.NewImagePostgresRepo(pg),
			statuses:   persistent.NewStatusEventPostgresRepo(pg),
			outbox:     persistent.NewOutboxPostgresRepo(pg),
			transactor: pg,
			close:      pg.Close,
		}, nil
	}
}
