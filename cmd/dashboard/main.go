package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"macroIndicators/internal/admin"
	"macroIndicators/internal/backend"
	"macroIndicators/internal/config"
	"macroIndicators/internal/finance"
	"macroIndicators/internal/logging"
	"macroIndicators/internal/openai"
	"macroIndicators/internal/server"
	"macroIndicators/internal/storage"
	"macroIndicators/internal/telegram"
	"macroIndicators/internal/web"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Printf("Warning: .env file not loaded: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.New(cfg.Stage, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// Ensure parent directory for the DB exists
	_ = os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755)
	db, err := storage.OpenSQLite("file:" + cfg.DBPath + "?_fk=1")
	if err != nil {
		logger.Fatal("db: open", zap.Error(err))
	}
	defer db.Close()
	if err := storage.InitSchema(db); err != nil {
		logger.Fatal("db: schema", zap.Error(err))
	}
	logger.Info("db: upload ledger ready", zap.String("path", cfg.DBPath))
	ledger := storage.NewStore(db)

	notifier, err := telegram.NewNotifier(cfg.TelegramToken, cfg.TelegramAdminChatID, logger)
	if err != nil {
		logger.Warn("telegram: alerts disabled", zap.Error(err))
		notifier = nil
	}

	api := backend.NewClient(cfg.BackendURL, nil)
	runner := admin.NewRunner(api, ledger, notifier, logger.Named("upload"))

	narrator := openai.NewNarrator(cfg.OpenAIKey)
	handlers, err := web.New(api, ledger, runner, narrator, logger, web.Options{
		IndicatorLimit: cfg.IndicatorLimit,
		CacheTTL:       cfg.CacheTTL,
		Location:       finance.LoadLocation(cfg.Timezone),
		CookieSecure:   cfg.CookieSecure,
		CORSOrigins:    cfg.CORSOrigins,
	})
	if err != nil {
		logger.Fatal("web: init", zap.Error(err))
	}

	engine := server.NewEngine(logger)
	handlers.Register(engine)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	logger.Info("dashboard: starting",
		zap.String("stage", cfg.Stage),
		zap.String("backend", cfg.BackendURL),
		zap.Bool("insights", narrator.Enabled()),
		zap.Bool("alerts", notifier.Enabled()),
	)
	if err := server.ListenAndServe(ctx, cfg.Addr(), engine, logger); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("dashboard: stopped")
}
