// Package main wires together the jewelry harvester service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gcsclient "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/Bharath-2002/Agentic-Jewelry-Intelligence-Framework/internal/api"
	"github.com/Bharath-2002/Agentic-Jewelry-Intelligence-Framework/internal/clock/system"
	"github.com/Bharath-2002/Agentic-Jewelry-Intelligence-Framework/internal/config"
	"github.com/Bharath-2002/Agentic-Jewelry-Intelligence-Framework/internal/crawler"
	"github.com/Bharath-2002/Agentic-Jewelry-Intelligence-Framework/internal/enrich"
	collyfetcher "github.com/Bharath-2002/Agentic-Jewelry-Intelligence-Framework/internal/fetcher/colly"
	headlessfetcher "github.com/Bharath-2002/Agentic-Jewelry-Intelligence-Framework/internal/fetcher/headless"
	"github.com/Bharath-2002/Agentic-Jewelry-Intelligence-Framework/internal/id/uuid"
	"github.com/Bharath-2002/Agentic-Jewelry-Intelligence-Framework/internal/logging"
	"github.com/Bharath-2002/Agentic-Jewelry-Intelligence-Framework/internal/metrics"
	"github.com/Bharath-2002/Agentic-Jewelry-Intelligence-Framework/internal/notify"
	"github.com/Bharath-2002/Agentic-Jewelry-Intelligence-Framework/internal/pipeline"
	"github.com/Bharath-2002/Agentic-Jewelry-Intelligence-Framework/internal/storage"
	"github.com/Bharath-2002/Agentic-Jewelry-Intelligence-Framework/internal/storage/gcs"
	"github.com/Bharath-2002/Agentic-Jewelry-Intelligence-Framework/internal/storage/images"
	"github.com/Bharath-2002/Agentic-Jewelry-Intelligence-Framework/internal/storage/local"
	memorystorage "github.com/Bharath-2002/Agentic-Jewelry-Intelligence-Framework/internal/storage/memory"
	"github.com/Bharath-2002/Agentic-Jewelry-Intelligence-Framework/internal/storage/postgres"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()
	zap.ReplaceGlobals(logger)
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("service failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	productStore, jobStore, closeStores, err := buildStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStores()

	httpFetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent: cfg.HTTP.UserAgent,
		Timeout:   time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second,
	})

	renderer, err := headlessfetcher.NewRenderer(headlessfetcher.Config{
		MaxParallel:       cfg.Headless.MaxParallel,
		UserAgent:         cfg.Headless.UserAgent,
		NavigationTimeout: time.Duration(cfg.Headless.NavTimeoutSec) * time.Second,
		SettleDelay:       time.Duration(cfg.Headless.SettleDelayMs) * time.Millisecond,
		PerDomainQPS:      cfg.Headless.PerDomainQPS,
	})
	if err != nil {
		return fmt.Errorf("init headless renderer: %w", err)
	}
	defer renderer.Close()

	var (
		analyst crawler.StructureAnalyst
		client  enrich.Client
	)
	if cfg.OpenAI.APIKey != "" {
		openaiClient, err := enrich.NewOpenAIClient(enrich.OpenAIConfig{
			APIKey:      cfg.OpenAI.APIKey,
			BaseURL:     cfg.OpenAI.BaseURL,
			Model:       cfg.OpenAI.Model,
			MaxTokens:   cfg.OpenAI.MaxTokens,
			Temperature: cfg.OpenAI.Temperature,
		})
		if err != nil {
			return fmt.Errorf("init openai client: %w", err)
		}
		client = openaiClient
		if analyst, err = enrich.NewStructureAnalyst(openaiClient); err != nil {
			return fmt.Errorf("init structure analyst: %w", err)
		}
	} else {
		logger.Warn("no openai api key configured, using rule-based enrichment only")
	}

	engine, err := crawler.NewEngine(crawler.Config{
		Concurrency:         cfg.Crawler.Concurrency,
		PageBudget:          cfg.Crawler.PageBudget,
		MaxImagesPerProduct: cfg.Crawler.MaxImagesPerProduct,
	}, renderer, httpFetcher, analyst, logger.Named("crawler"))
	if err != nil {
		return fmt.Errorf("init crawl engine: %w", err)
	}

	imageStore, err := buildImageStore(ctx, cfg, httpFetcher, logger)
	if err != nil {
		return err
	}

	processor, err := pipeline.NewProcessor(pipeline.ProcessorConfig{
		Concurrency: cfg.Pipeline.Concurrency,
		MaxProducts: cfg.Pipeline.MaxProducts,
	}, productStore, imageStore, enrich.New(client, logger.Named("enrich")), logger.Named("pipeline"))
	if err != nil {
		return fmt.Errorf("init processor: %w", err)
	}

	notifier, err := buildNotifier(ctx, cfg, logger)
	if err != nil {
		return err
	}

	runner, err := pipeline.NewRunner(engine, processor, jobStore, notifier, system.New(), uuid.New(), logger.Named("runner"))
	if err != nil {
		return fmt.Errorf("init runner: %w", err)
	}
	runner.JobTimeout = cfg.JobTimeout()

	apiServer := api.NewServer(runner, jobStore, productStore, logger.Named("api"))
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	runner.Wait()
	logger.Info("shutdown complete")
	return nil
}

func buildStores(ctx context.Context, cfg config.Config) (storage.ProductStore, storage.JobStore, func(), error) {
	if cfg.DB.DSN == "" {
		return memorystorage.NewProductStore(), memorystorage.NewJobStore(), func() {}, nil
	}
	poolCfg := postgres.PoolConfig{
		DSN:             cfg.DB.DSN,
		MaxConns:        cfg.DB.MaxConns,
		MinConns:        cfg.DB.MinConns,
		MaxConnLifetime: time.Duration(cfg.DB.MaxConnLifetime) * time.Minute,
	}
	products, err := postgres.NewProductStore(ctx, poolCfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init product store: %w", err)
	}
	jobs, err := postgres.NewJobStore(ctx, poolCfg)
	if err != nil {
		products.Close()
		return nil, nil, nil, fmt.Errorf("init job store: %w", err)
	}
	return products, jobs, func() {
		products.Close()
		jobs.Close()
	}, nil
}

func buildImageStore(ctx context.Context, cfg config.Config, getter images.Getter, logger *zap.Logger) (*images.Store, error) {
	var blobs images.BlobStore
	switch cfg.Images.Backend {
	case "gcs":
		client, err := gcsclient.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("init gcs client: %w", err)
		}
		blobs, err = gcs.New(client, gcs.Config{
			Bucket: cfg.Images.GCSBucket,
			Prefix: cfg.Images.GCSPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("init gcs blob store: %w", err)
		}
	default:
		store, err := local.New(local.Config{BaseDir: cfg.Images.BaseDir})
		if err != nil {
			return nil, fmt.Errorf("init local blob store: %w", err)
		}
		blobs = store
	}
	imageStore, err := images.New(getter, blobs, logger.Named("images"))
	if err != nil {
		return nil, fmt.Errorf("init image store: %w", err)
	}
	return imageStore, nil
}

func buildNotifier(ctx context.Context, cfg config.Config, logger *zap.Logger) (notify.Notifier, error) {
	notifiers := []notify.Notifier{notify.NewLogNotifier(logger.Named("notify"))}
	if cfg.Notify.SMTP.Host != "" {
		mailer, err := notify.NewMailer(notify.MailerConfig{
			Host:     cfg.Notify.SMTP.Host,
			Port:     cfg.Notify.SMTP.Port,
			Username: cfg.Notify.SMTP.Username,
			Password: cfg.Notify.SMTP.Password,
			From:     cfg.Notify.SMTP.From,
			To:       cfg.Notify.SMTP.To,
		})
		if err != nil {
			return nil, fmt.Errorf("init mailer: %w", err)
		}
		notifiers = append(notifiers, mailer)
	}
	if cfg.Notify.PubSub.ProjectID != "" {
		publisher, err := notify.NewPubSubNotifier(ctx, notify.PubSubConfig{
			ProjectID: cfg.Notify.PubSub.ProjectID,
			TopicID:   cfg.Notify.PubSub.TopicID,
		})
		if err != nil {
			return nil, fmt.Errorf("init pubsub notifier: %w", err)
		}
		notifiers = append(notifiers, publisher)
	}
	return notify.NewFanout(logger.Named("notify"), notifiers...), nil
}
