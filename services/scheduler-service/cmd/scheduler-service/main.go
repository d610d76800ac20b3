package main

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/citizengate/citizengate/libs/config"
	"github.com/citizengate/citizengate/libs/db"
	"github.com/citizengate/citizengate/libs/httpx"
	"github.com/citizengate/citizengate/libs/kafkax"
	otelx "github.com/citizengate/citizengate/libs/otel"
	"github.com/citizengate/citizengate/libs/outbox"
	"github.com/citizengate/citizengate/libs/runtime"
	"github.com/citizengate/citizengate/services/scheduler-service/internal/notify"
	"github.com/citizengate/citizengate/services/scheduler-service/internal/reminder"
	"github.com/citizengate/citizengate/services/scheduler-service/internal/storage"
)

func main() {
	service := config.String("SERVICE_NAME", "scheduler-service")
	port, err := config.Port("PORT", "8084")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	outboxRepo := outbox.NewRepository(pool)
	store := storage.NewReminderStore(pool, outboxRepo)

	var notifier notify.Notifier
	switch mode := config.String("NOTIFY_MODE", "smtp"); mode {
	case "smtp":
		notifier = notify.NewSMTPSender(
			config.String("SMTP_HOST", "localhost"),
			config.String("SMTP_PORT", "1025"),
			config.String("SMTP_FROM", ""),
		)
	case "webhook":
		notifier = notify.NewWebhookSender(
			config.String("NOTIFY_WEBHOOK_URL", ""),
			config.String("NOTIFY_WEBHOOK_TOKEN", ""),
		)
	default:
		logger.Warn("unknown NOTIFY_MODE; reminders will be dropped silently", "mode", mode)
		notifier = notify.NoopSender{}
	}

	worker := reminder.NewWorker(store, notifier, logger, reminder.WorkerConfig{
		Interval:    config.Minutes("SCAN_INTERVAL_MINUTES", time.Hour),
		Window:      config.Minutes("REMINDER_WINDOW_MINUTES", 24*time.Hour),
		BatchSize:   config.Int("SCAN_BATCH_SIZE", 100),
		SendTimeout: time.Duration(config.Int("SEND_TIMEOUT_SECONDS", 10)) * time.Second,
		Concurrency: config.Int("SEND_CONCURRENCY", 8),
	})
	go worker.Run(ctx)

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "scheduler")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
