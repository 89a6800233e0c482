package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"AHRSentinel/internal/app"
	"AHRSentinel/internal/config"
	"AHRSentinel/internal/logger"
	"AHRSentinel/internal/notifier"
	"AHRSentinel/internal/scheduler"
)

func main() {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	zl := logger.New(cfg.Log)
	zl.Info().Str("config", cfgPath).Msg("AHRSentinel starting...")

	if err := cfg.ValidateBot(); err != nil {
		zl.Fatal().Err(err).Msg("config validation")
	}

	fetcher := app.NewOnlineFetcher(cfg)
	zl.Info().Str("source", fetcher.Name()).Str("symbol", cfg.DataSource.Symbol).Msg("data source")

	svc, vlog, err := app.NewService(cfg, fetcher, zl)
	if err != nil {
		zl.Fatal().Err(err).Msg("init valuation service")
	}
	defer app.Close(zl, "valuation log", vlog.Close)

	bot, err := notifier.NewBot(notifier.Options{
		Token:    cfg.Telegram.BotToken,
		ChatID:   cfg.Telegram.ChatID,
		ProxyURL: cfg.Proxy,
	}, zl)
	if err != nil {
		zl.Fatal().Err(err).Msg("init telegram bot")
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.NewScheduler(ctx, svc, app.AnalysisOptions(cfg), bot, zl)
	if err := sched.RegisterAll(cfg.Schedule.ValuationCron, cfg.Schedule.RefitCron); err != nil {
		zl.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	bot.Register(sched.HandleCommand)
	go bot.Start(ctx)

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		zl.Info().Msg("RUN_ON_START enabled, executing valuation task now")
		go sched.RunNow()
	}

	zl.Info().Msg("AHRSentinel is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	zl.Info().Msg("shutdown signal received, stopping...")
	cancel()
	zl.Info().Msg("AHRSentinel stopped")
}
