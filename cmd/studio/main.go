package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Freeeeeet/studio_scheduler/internal/app"
	"github.com/Freeeeeet/studio_scheduler/internal/config"
	"github.com/Freeeeeet/studio_scheduler/internal/controller"
	"github.com/Freeeeeet/studio_scheduler/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := app.NewLogger(cfg.Environment, "studio", "stdout")
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Studio scheduler stopped with error", zap.Error(err))
	}
	logger.Info("Studio scheduler stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting studio scheduler",
		zap.String("environment", cfg.Environment),
		zap.String("storage", cfg.Storage),
		zap.String("timezone", cfg.StudioTimezone),
		zap.Int("staff_count", len(cfg.StaffTelegram)))

	store, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	metrics := app.NewMetrics()
	clock := service.SystemClock(cfg.Location())
	services := service.New(store, clock, service.DefaultPolicy(), metrics, logger)

	g, ctx := errgroup.WithContext(ctx)

	if cfg.TelegramToken != "" {
		b, err := bot.New(cfg.TelegramToken, bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, update *models.Update) {
			logger.Debug("Unhandled update", zap.Int64("update_id", update.ID))
		}))
		if err != nil {
			return err
		}

		botController := controller.NewBotController(b, services, clock, cfg.StaffTelegram, logger)
		if err := botController.RegisterHandlers(ctx); err != nil {
			// меню команд не критично, бот работает и без него
			logger.Warn("Failed to register bot commands", zap.Error(err))
		}
		g.Go(func() error {
			return botController.Start(ctx)
		})
	} else {
		logger.Warn("TELEGRAM_TOKEN is empty, bot is disabled")
	}

	if cfg.MetricsAddr != "" {
		g.Go(func() error {
			return app.ServeMetrics(ctx, cfg.MetricsAddr, metrics, logger)
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		return nil
	})

	return g.Wait()
}
