package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/andreyxaxa/Image-Vectorizer/config"
	"github.com/andreyxaxa/Image-Vectorizer/internal/controller/restapi"
	"github.com/andreyxaxa/Image-Vectorizer/internal/controller/worker/outbox"
	"github.com/andreyxaxa/Image-Vectorizer/internal/infrastructure/processor"
	"github.com/andreyxaxa/Image-Vectorizer/internal/repo/persistent"
	"github.com/andreyxaxa/Image-Vectorizer/internal/usecase/conversion"
	"github.com/andreyxaxa/Image-Vectorizer/internal/usecase/image"
	"github.com/andreyxaxa/Image-Vectorizer/internal/usecase/imageprocessor"
	"github.com/andreyxaxa/Image-Vectorizer/internal/usecase/statuslog"
	"github.com/andreyxaxa/Image-Vectorizer/pkg/httpserver"
	"github.com/andreyxaxa/Image-Vectorizer/pkg/logger"
	"github.com/andreyxaxa/Image-Vectorizer/pkg/s3client"
)

func Run(cfg *config.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Logger
	l := logger.New(cfg.Log.Level)

	// Repository

	// s3
	s3Ctx, s3Cancel := context.WithTimeout(ctx, cfg.S3.CfgLoadTimeout)
	defer s3Cancel()
	s3c, err := s3client.New(s3Ctx, cfg.S3.Endpoint, cfg.S3.AccessKey, cfg.S3.SecretKey, s3client.Region(cfg.S3.Region))
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - s3client.New: %w", err))
	}
	if cfg.S3.CreateBucket {
		if err = s3c.EnsureBucket(s3Ctx, cfg.S3.Bucket); err != nil {
			l.Fatal(fmt.Errorf("app - Run - s3c.EnsureBucket: %w", err))
		}
	}
	blobRepo := persistent.NewBlobS3Repo(s3c, cfg.S3.Bucket, cfg.S3.PublicURL)

	// postgres | sqlite
	st, err := openStorage(ctx, cfg)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - openStorage: %w", err))
	}
	defer st.close()

	// Use-Case
	statuses := statuslog.New(st.statuses)
	imageProcessorUseCase := imageprocessor.New(processor.NewPreprocessor(), processor.NewVectorizer(), processor.NewOptimizer())

	imageUseCase := image.New(
		st.images,
		blobRepo,
		st.outbox,
		st.transactor,
		statuses,
		imageProcessorUseCase,
		l,
		image.MaxFiles(cfg.Upload.MaxFiles),
		image.MaxFileSize(cfg.Upload.MaxFileSize),
		image.OutboxRetention(cfg.OutboxRelay.Retention),
	)

	conversionUseCase := conversion.New(st.images, blobRepo, statuses, imageProcessorUseCase, l)

	// Dispatch (kafka | inproc)
	sender, converter, err := newDispatch(ctx, cfg, conversionUseCase, l)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - newDispatch: %w", err))
	}

	// Outbox Relay Worker
	outboxRelayWorker := outbox.New(imageUseCase, sender, l, outbox.Config{
		PollInterval:        cfg.OutboxRelay.PollInterval,
		CleanupInterval:     cfg.OutboxRelay.CleanupInterval,
		MarkFailedInterval:  cfg.OutboxRelay.MarkFailedInterval,
		ProcessBatchTimeout: cfg.OutboxRelay.ProcessBatchTimeout,
		BatchSize:           cfg.OutboxRelay.BatchSize,
		MaxRetries:          cfg.OutboxRelay.MaxRetries,
	})

	// HTTP Server
	httpServer := httpserver.New(l,
		httpserver.Port(cfg.HTTP.Port),
		httpserver.Prefork(cfg.HTTP.UsePreforkMode),
		httpserver.BodyLimit(cfg.HTTP.BodyLimit),
	)
	restapi.NewRouter(httpServer.App, cfg, imageUseCase, l)

	// Start Components
	err = converter.Start(ctx)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - converter.Start: %w", err))
	}
	err = outboxRelayWorker.Start(ctx)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - outboxRelayWorker.Start: %w", err))
	}
	httpServer.Start()

	l.Info("app - Run - storage=%s dispatch=%s", cfg.Storage.Driver, cfg.Dispatch.Driver)

	// Waiting Signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		l.Info("app - Run - signal: %s", s.String())
	case err = <-httpServer.Notify():
		l.Error(fmt.Errorf("app - Run - httpServer.Notify: %w", err))
	}

	// Shutdown: http -> relay (закрывает sender) -> converter
	err = httpServer.Shutdown()
	if err != nil {
		l.Error(fmt.Errorf("app - Run - httpServer.Shutdown: %w", err))
	}

	orlShutdownCtx, orlShutdownCancel := context.WithTimeout(ctx, cfg.OutboxRelay.ShutdownTimeout)
	defer orlShutdownCancel()
	err = outboxRelayWorker.Shutdown(orlShutdownCtx)
	if err != nil {
		l.Error(fmt.Errorf("app - Run - outboxRelayWorker.Shutdown: %w", err))
	}

	convShutdownCtx, convShutdownCancel := context.WithTimeout(ctx, cfg.Dispatch.ShutdownTimeout)
	defer convShutdownCancel()
	err = converter.Shutdown(convShutdownCtx)
	if err != nil {
		l.Error(fmt.Errorf("app - Run - converter.Shutdown: %w", err))
	}
}
