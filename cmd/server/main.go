package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"docintake/internal/analysis"
	"docintake/internal/analysis/claude"
	"docintake/internal/analysis/gemini"
	"docintake/internal/analysis/openai"
	rediscache "docintake/internal/cache/redis"
	"docintake/internal/config"
	"docintake/internal/extraction"
	"docintake/internal/extraction/azure"
	"docintake/internal/handler"
	"docintake/internal/port"
	"docintake/internal/repository/sqlstore"
	"docintake/internal/router"
	"docintake/internal/secret"
	"docintake/internal/service"
	"docintake/internal/session"
	"docintake/internal/storage/azblob"
	s3storage "docintake/internal/storage/s3"
)

// @title docintake API
// @version 1.0
// @description Document extraction and question answering over Azure Document Intelligence and language models.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Session token as "Bearer <token>"

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := map[string]handler.Pinger{}

	// Initialize repositories
	var settingsRepo port.SettingsRepository
	var turnRepo port.TurnRepository
	if cfg.DB.Enabled() {
		db, dbErr := openStore(&cfg.DB)
		if dbErr != nil {
			return dbErr
		}
		defer db.Close()
		settingsRepo = sqlstore.NewSettingsRepo(db)
		turnRepo = sqlstore.NewTurnRepo(db)
		checks["database"] = db
	} else {
		log.Println("Database disabled: settings profiles and question history are not persisted")
	}

	// Initialize storage
	archive, err := newArchive(ctx, cfg, checks)
	if err != nil {
		return err
	}

	// Initialize extraction and analysis providers
	extractor, err := newExtractor(ctx, cfg, checks)
	if err != nil {
		return err
	}
	analyzer, err := newAnalyzer(cfg)
	if err != nil {
		return err
	}

	box, err := secret.NewBox(cfg.Security.SettingsSecret)
	if err != nil {
		return fmt.Errorf("failed to initialize settings encryption: %w", err)
	}

	// Initialize services
	authSvc := service.NewAuthService(cfg.Security)
	fileSvc := service.NewFileService(archive, &cfg.S3)
	settingsSvc := service.NewSettingsService(settingsRepo, box)
	documentSvc := service.NewDocumentService(fileSvc, extractor, analyzer)

	manager := session.NewManager(session.Deps{
		Extractor:        extractor,
		Analyzer:         analyzer,
		Turns:            turnRepo,
		OperationTimeout: cfg.Session.OperationTimeout,
		Now:              time.Now,
	}, cfg.Session.IdleTTL)
	sessionSvc := service.NewSessionService(manager, fileSvc, settingsSvc, authSvc, turnRepo)
	go manager.StartJanitor(ctx, cfg.Session.JanitorInterval)

	// Initialize handlers
	h := router.Handlers{
		Document: handler.NewDocumentHandler(documentSvc, hasServerCredentials(cfg), cfg.AnalysisProvider()),
		Session:  handler.NewSessionHandler(sessionSvc),
		Settings: handler.NewSettingsHandler(settingsSvc),
		Health:   handler.NewHealthHandler(checks),
	}

	// Setup router
	r := router.Setup(authSvc, h, cfg.CORS.AllowedOrigins)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s (extraction=%s, analysis=%s)",
			cfg.Server.Port, cfg.ExtractionProvider(), cfg.AnalysisProvider())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		log.Println("Shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	manager.CloseAll()

	log.Println("Server stopped")
	return nil
}

func openStore(cfg *config.DBConfig) (*sqlx.DB, error) {
	db, err := sqlstore.NewDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := sqlstore.Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// newArchive returns the configured document archive, or nil when uploads
// are kept only in memory for the session.
func newArchive(ctx context.Context, cfg *config.Config, checks map[string]handler.Pinger) (port.DocumentArchive, error) {
	switch {
	case cfg.S3.Enabled:
		a, err := s3storage.NewArchive(ctx, &cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 client: %w", err)
		}
		if err := a.PingContext(ctx); err != nil {
			return nil, fmt.Errorf("failed to reach S3 bucket %s: %w", cfg.S3.Bucket, err)
		}
		checks["archive"] = a
		return a, nil
	case cfg.Blob.Enabled:
		a, err := azblob.NewArchive(&cfg.Blob)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize blob client: %w", err)
		}
		if err := a.EnsureContainer(ctx); err != nil {
			return nil, err
		}
		checks["archive"] = a
		return a, nil
	default:
		return nil, nil
	}
}

func newExtractor(ctx context.Context, cfg *config.Config, checks map[string]handler.Pinger) (port.DocumentExtractor, error) {
	var extractor port.DocumentExtractor
	var modelID string
	switch cfg.ExtractionProvider() {
	case "mock":
		log.Println("Demo mode: using mock extraction")
		extractor = extraction.NewMockExtractor(2 * time.Second)
		modelID = "mock"
	case "azure":
		client := azure.NewClient(&cfg.Extraction)
		modelID = client.ModelID()
		extractor = client
	default:
		return nil, fmt.Errorf("unknown extraction provider: %s", cfg.ExtractionProvider())
	}

	if cfg.Cache.Addr == "" {
		return extractor, nil
	}
	client, err := rediscache.New(ctx, &cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	cache := rediscache.NewExtractionCache(client, time.Duration(cfg.Cache.TTLSecs)*time.Second)
	checks["cache"] = cache
	return extraction.NewCachedExtractor(extractor, cache, modelID), nil
}

func newAnalyzer(cfg *config.Config) (port.DocumentAnalyzer, error) {
	analysis.RegisterProvider("claude", func(c *config.AnalysisConfig) (port.DocumentAnalyzer, error) {
		return claude.NewAnalyzer(c), nil
	})
	analysis.RegisterProvider("openai", func(c *config.AnalysisConfig) (port.DocumentAnalyzer, error) {
		return openai.NewAnalyzer(c), nil
	})
	analysis.RegisterProvider("gemini", func(c *config.AnalysisConfig) (port.DocumentAnalyzer, error) {
		return gemini.NewAnalyzer(c), nil
	})

	analysisCfg := cfg.Analysis
	analysisCfg.Provider = cfg.AnalysisProvider()
	analyzer, err := analysis.NewAnalyzer(&analysisCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize analyzer: %w", err)
	}
	return analyzer, nil
}

// hasServerCredentials reports whether the sessionless endpoints can run
// without caller-supplied credentials.
func hasServerCredentials(cfg *config.Config) bool {
	if cfg.Session.DemoMode {
		return true
	}
	return cfg.Extraction.Endpoint != "" && cfg.Extraction.APIKey != "" && cfg.Analysis.APIKey != ""
}
