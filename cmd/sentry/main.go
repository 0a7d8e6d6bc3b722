package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"invite-sentry/internal/bot"
	"invite-sentry/internal/config"
	"invite-sentry/internal/scan"
	"invite-sentry/internal/storage"
	"invite-sentry/internal/sweeper"
	"invite-sentry/internal/validator"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := config.BuildLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	store, err := storage.New(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("storage init failed", zap.Error(err))
	}
	defer store.Close()
	if err := store.Migrate(); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}

	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		logger.Fatal("session init failed", zap.Error(err))
	}

	validatorSvc := validator.New(session, store, logger)
	runner := scan.NewRunner(
		store,
		scan.NewStateCache(session),
		scan.NewCachedMessageSource(session),
		validatorSvc,
		scan.NewChannelReporter(session),
		logger,
		cfg.CheckCooldown(),
		cfg.MessageFetchLimit,
	)

	botSvc := bot.New(cfg, session, logger, store, runner)
	if err := botSvc.Start(); err != nil {
		logger.Fatal("bot start failed", zap.Error(err))
	}
	logger.Info("bot started")

	sw := sweeper.New(store, validatorSvc, logger, cfg.Sweep.BatchSize)
	if err := sw.Start(); err != nil {
		logger.Fatal("sweeper start failed", zap.Error(err))
	}

	var server *http.Server
	if cfg.Health.Enabled {
		server = &http.Server{Addr: cfg.Health.Addr}
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		go func() {
			logger.Info("health endpoint enabled", zap.String("addr", cfg.Health.Addr))
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("health server error", zap.Error(err))
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown requested")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if server != nil {
		_ = server.Shutdown(ctx)
	}
	sw.Stop()
	if err := botSvc.Close(); err != nil {
		logger.Error("session close failed", zap.Error(err))
	}
}
