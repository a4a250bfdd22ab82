package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Gogobubblesmobilewash/GoGoBubblesDashboard-sub000/internal/config"
	"github.com/Gogobubblesmobilewash/GoGoBubblesDashboard-sub000/internal/db"
	httpapi "github.com/Gogobubblesmobilewash/GoGoBubblesDashboard-sub000/internal/http"
	"github.com/Gogobubblesmobilewash/GoGoBubblesDashboard-sub000/internal/notify"
	"github.com/Gogobubblesmobilewash/GoGoBubblesDashboard-sub000/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "ops-backend").Logger()

	ctx := context.Background()
	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect db")
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to apply migrations")
	}

	var notifier notify.Notifier
	if cfg.NotifyURL == "" {
		notifier = notify.NewMock()
		logger.Info().Msg("using mock notifier")
	} else {
		notifier = notify.WebhookNotifier{BaseURL: cfg.NotifyURL}
	}

	sessions := service.NewSessionManager(store, store, notifier, logger)
	sessions.WrapUpSeconds = cfg.WrapUpSeconds

	sweeper := cron.New()
	_, err = sweeper.AddFunc(cfg.ShiftSweepCron, func() {
		sweepCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		n, err := store.EndExpiredShifts(sweepCtx, time.Now().UTC())
		if err != nil {
			logger.Error().Err(err).Msg("shift sweep failed")
			return
		}
		if n > 0 {
			logger.Info().Int64("ended", n).Msg("expired shifts closed")
		}
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid shift sweep schedule")
	}
	_, err = sweeper.AddFunc(cfg.EvaluateCron, func() {
		runCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		runEvaluation(runCtx, store, notifier, logger)
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid evaluation schedule")
	}
	sweeper.Start()
	defer sweeper.Stop()

	router := httpapi.Router(cfg, store, sessions, notifier, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}

func runEvaluation(ctx context.Context, store *db.Store, notifier notify.Notifier, logger zerolog.Logger) {
	runID, err := store.CreateRun(ctx, "RUNNING")
	if err != nil {
		logger.Error().Err(err).Msg("failed to create scheduled run")
		return
	}
	evaluator := service.EvaluationService{Store: store, Notifier: notifier, Logger: logger}
	summary, err := evaluator.Evaluate(ctx, false)
	status := "SUCCESS"
	if err != nil {
		status = "FAILED"
		logger.Error().Err(err).Msg("scheduled evaluation failed")
	}
	b, marshalErr := json.Marshal(summary)
	if marshalErr != nil {
		b = []byte("{}")
	}
	if err := store.FinishRun(ctx, runID, status, b); err != nil {
		logger.Error().Err(err).Msg("failed to finish scheduled run")
	}
}
