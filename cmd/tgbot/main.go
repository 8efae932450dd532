package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Alias1177/LottoPredictor/internal/config"
	"github.com/Alias1177/LottoPredictor/internal/pipeline"
	"github.com/Alias1177/LottoPredictor/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).Level(lvl).With().Timestamp().Logger()
	logger := log.With().Str("component", "tgbot").Logger()

	if cfg.TelegramBotToken == "" {
		logger.Fatal().Msg("TELEGRAM_BOT_TOKEN not set in environment")
	}

	pipe, err := pipeline.Build(ctx, cfg, pipeline.Options{
		OnLine: func(step, line string) {
			logger.Debug().Str("step", step).Msg(line)
		},
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build pipeline")
	}
	defer pipe.Close()

	// Initialize Telegram bot
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize Telegram bot")
	}
	logger.Info().Str("username", bot.Self.UserName).Str("variant", pipe.Variant.Code).Msg("Authorized on Telegram")

	w := worker.New()
	w.Start(ctx)
	defer w.Stop()

	sh := newShell(bot, w, pipe, cfg.TrainTestSplit, cfg.TelegramChatID)

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := bot.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			bot.StopReceivingUpdates()
			logger.Info().Msg("Shutting down")
			return
		case update := <-updates:
			if update.Message == nil {
				continue
			}
			sh.handleMessage(update.Message)
		}
	}
}
