package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crmlens/crmlens/internal/api"
	"github.com/crmlens/crmlens/internal/archive"
	"github.com/crmlens/crmlens/internal/auth"
	"github.com/crmlens/crmlens/internal/config"
	"github.com/crmlens/crmlens/internal/crm"
	"github.com/crmlens/crmlens/internal/filings"
	"github.com/crmlens/crmlens/internal/intent"
	"github.com/crmlens/crmlens/internal/llm"
	"github.com/crmlens/crmlens/internal/news"
	"github.com/crmlens/crmlens/internal/observability"
	"github.com/crmlens/crmlens/internal/schema"
	"github.com/crmlens/crmlens/internal/sessions"
	"github.com/crmlens/crmlens/internal/sqlgen"
)

func main() {
	cfg, err := config.LoadFromEnv("crmlens-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	crmDB, err := crm.Open(ctx, cfg.CRM.DatabasePath)
	if err != nil {
		logger.Error("failed to open crm database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = crmDB.Close() }()
	if err := crm.EnsureSchema(ctx, crmDB); err != nil {
		logger.Error("failed to ensure crm schema", slog.Any("error", err))
		os.Exit(1)
	}

	// Sessions and the archive are optional: when their backing services
	// are unreachable the API starts anyway and the related endpoints
	// answer 503.
	var sessionStore *sessions.Store
	if cfg.Sessions.DSN != "" {
		sessionsDB, err := sessions.Open(ctx, sessions.DBConfig{
			DSN:             cfg.Sessions.DSN,
			MaxOpenConns:    cfg.Sessions.MaxOpenConns,
			MaxIdleConns:    cfg.Sessions.MaxIdleConns,
			ConnMaxIdleTime: cfg.Sessions.ConnMaxIdleTime,
			ConnMaxLifetime: cfg.Sessions.ConnMaxLifetime,
		})
		if err != nil {
			logger.Warn("sessions database unavailable, continuing without sessions", slog.Any("error", err))
		} else {
			defer func() { _ = sessionsDB.Close() }()
			sessionStore = sessions.NewStore(sessionsDB)
		}
	}

	var objectArchive *archive.Store
	if cfg.ObjectStore.Endpoint != "" {
		objectArchive, err = archive.New(ctx, archive.Config{
			Endpoint:         cfg.ObjectStore.Endpoint,
			Region:           cfg.ObjectStore.Region,
			Bucket:           cfg.ObjectStore.Bucket,
			AccessKeyID:      cfg.ObjectStore.AccessKeyID,
			SecretAccessKey:  cfg.ObjectStore.SecretAccessKey,
			UseSSL:           cfg.ObjectStore.UseSSL,
			Prefix:           cfg.ObjectStore.Prefix,
			AutoCreateBucket: cfg.ObjectStore.AutoCreateBucket,
		})
		if err != nil {
			logger.Warn("object archive unavailable, continuing without exports", slog.Any("error", err))
			objectArchive = nil
		}
	}

	backends := llm.Backends(cfg.LLM)
	if len(backends) == 0 {
		logger.Warn("no completion backends configured; question answering is degraded")
	}

	filingsClient := filings.NewClient(cfg.Filings.UserAgent, cfg.Filings.Timeout)
	if cfg.Filings.TickerURL != "" {
		filingsClient.TickerURL = cfg.Filings.TickerURL
	}
	if cfg.Filings.SubmissionsURL != "" {
		filingsClient.SubmissionsURL = cfg.Filings.SubmissionsURL
	}
	if cfg.Filings.MaxItems > 0 {
		filingsClient.MaxItems = cfg.Filings.MaxItems
	}

	newsClient := news.NewClient(cfg.News.Timeout)
	if cfg.News.FeedURL != "" {
		newsClient.FeedURL = cfg.News.FeedURL
	}
	if cfg.News.MaxItems > 0 {
		newsClient.MaxItems = cfg.News.MaxItems
	}

	deps := api.Dependencies{
		Logger:            logger,
		DependencyTimeout: time.Second,
		Classifier:        intent.NewRouter(backends),
		Generator:         sqlgen.NewGenerator(backends, cfg.CRM.DefaultRowLimit),
		Backends:          backends,
		Schema:            schema.NewProvider(crmDB),
		Executor:          crm.NewExecutor(crmDB),
		Catalog:           crm.NewCatalog(crmDB),
		Filings:           filingsClient,
		News:              newsClient,
		DocumentMaxChars:  cfg.Filings.DocumentMaxChars,
		RowLimit:          cfg.CRM.DefaultRowLimit,
		PreviewRows:       cfg.CRM.PreviewRows,
	}
	readiness := []api.ReadinessCheck{api.CheckCRMConfig(cfg)}
	if sessionStore != nil {
		deps.Sessions = sessionStore
		readiness = append(readiness, sessionStore.HealthCheck)
	}
	if objectArchive != nil {
		deps.Archive = objectArchive
	}
	deps.Readiness = api.CombineReadinessChecks(readiness...)

	if cfg.Auth.Required {
		validator, err := auth.NewStaticAPIKeyValidator(cfg.Auth.StaticKeys)
		if err != nil {
			logger.Error("failed to parse static auth keys", slog.Any("error", err))
			os.Exit(1)
		}
		deps.AuthMiddleware = auth.Middleware(logger, validator)
	}

	if sessionStore != nil {
		retention := &sessions.RetentionService{
			Store: sessionStore,
			Config: sessions.RetentionConfig{
				Age:      cfg.Sessions.RetentionAge,
				Interval: cfg.Sessions.RetentionInterval,
			},
			Logger: logger,
		}
		go func() { _ = retention.Run(ctx) }()
	}

	handler := api.NewHandler(cfg, deps)
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		logger.Info("starting api server", slog.String("addr", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}
