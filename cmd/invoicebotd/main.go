package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/flywheels-garage/invoicebot/internal/actions"
	"github.com/flywheels-garage/invoicebot/internal/bot"
	"github.com/flywheels-garage/invoicebot/internal/common"
	"github.com/flywheels-garage/invoicebot/internal/llm"
	"github.com/flywheels-garage/invoicebot/internal/llm/gemini"
	"github.com/flywheels-garage/invoicebot/internal/server"
)

func main() {
	// Logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	log := logger.Sugar()

	// Env
	if err := godotenv.Load(); err != nil {
		log.Info("no .env file found, using process environment")
	}
	cfg := common.LoadConfig()
	for _, w := range cfg.Warnings() {
		log.Warn(w)
	}

	// Context with signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	slogger := slog.Default()

	// AI clients; nil when no credential is configured, the action layer
	// short-circuits with the remediation message.
	var extractor llm.Extractor
	var modifier llm.Modifier
	if cfg.AIConfigured() {
		client, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:      cfg.LLM.APIKey,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
		}, slogger)
		if err != nil {
			log.Fatalf("creating gemini client: %v", err)
		}
		extractor, modifier = client, client
	}

	svc := actions.NewService(cfg, extractor, modifier, slogger)
	tg := bot.New(cfg.Telegram, slogger)
	webhook := bot.NewHandler(cfg, tg, svc, slogger)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.New(cfg, svc, webhook, slogger).Router(),
	}

	go func() {
		log.Infof("HTTP serving on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http serve: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warnf("shutdown: %v", err)
	}
	log.Info("stopped.")
}
