package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/citizengate/citizengate/libs/config"
	"github.com/citizengate/citizengate/libs/db"
	"github.com/citizengate/citizengate/libs/httpx"
	"github.com/citizengate/citizengate/libs/kafkax"
	otelx "github.com/citizengate/citizengate/libs/otel"
	"github.com/citizengate/citizengate/libs/runtime"
	"github.com/citizengate/citizengate/services/analytics-service/internal/consumer"
	"github.com/citizengate/citizengate/services/analytics-service/internal/handlers"
	"github.com/citizengate/citizengate/services/analytics-service/internal/inbox"
	"github.com/citizengate/citizengate/services/analytics-service/internal/metrics"
)

func main() {
	service := config.String("SERVICE_NAME", "analytics-service")
	port, err := config.Port("PORT", "8085")
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

	inboxRepo := inbox.NewRepository(pool)
	store := metrics.NewStore(pool)
	brokers := config.String("KAFKA_BROKERS", "")
	groupID := config.String("KAFKA_GROUP_ID", "analytics-service")

	startConsumer := func(topic string, handler consumer.Handler) {
		c := consumer.New(logger, inboxRepo, consumer.Config{
			Brokers: brokers,
			GroupID: groupID,
			Topic:   topic,
		}, handler)
		go c.Run(ctx)
	}

	startConsumer("appointment.booked.v1", func(ctx context.Context, msg kafka.Message) error {
		var payload struct {
			AppointmentID   string    `json:"appointment_id"`
			ServiceID       string    `json:"service_id"`
			AppointmentTime time.Time `json:"appointment_time"`
		}
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			logger.Error("invalid booked payload", "err", err)
			return nil
		}
		if payload.AppointmentID == "" || payload.AppointmentTime.IsZero() {
			logger.Error("missing booked fields")
			return nil
		}
		if err := store.Bump(ctx, payload.AppointmentTime, payload.ServiceID, metrics.MetricBooked, 1); err != nil {
			return err
		}
		logger.Info("booking metric recorded", "appointment_id", payload.AppointmentID, "service_id", payload.ServiceID)
		return nil
	})

	startConsumer("appointment.status_changed.v1", func(ctx context.Context, msg kafka.Message) error {
		var payload struct {
			AppointmentID string    `json:"appointment_id"`
			ServiceID     string    `json:"service_id"`
			To            string    `json:"to"`
			ChangedAt     time.Time `json:"changed_at"`
		}
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			logger.Error("invalid status payload", "err", err)
			return nil
		}
		var metric string
		switch payload.To {
		case "confirmed":
			metric = metrics.MetricConfirmed
		case "completed":
			metric = metrics.MetricCompleted
		case "cancelled":
			metric = metrics.MetricCancelled
		default:
			return nil
		}
		if payload.ChangedAt.IsZero() {
			payload.ChangedAt = time.Now()
		}
		if err := store.Bump(ctx, payload.ChangedAt, payload.ServiceID, metric, 1); err != nil {
			return err
		}
		logger.Info("status metric recorded", "appointment_id", payload.AppointmentID, "metric", metric)
		return nil
	})

	startConsumer("reminder.sent.v1", func(ctx context.Context, msg kafka.Message) error {
		var payload struct {
			AppointmentID string `json:"appointment_id"`
			SentAt        string `json:"sent_at"`
		}
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			logger.Error("invalid reminder payload", "err", err)
			return nil
		}
		sentAt, err := time.Parse(time.RFC3339, payload.SentAt)
		if err != nil {
			logger.Error("invalid sent_at", "err", err)
			return nil
		}
		if err := store.Bump(ctx, sentAt, "", metrics.MetricReminderSent, 1); err != nil {
			return err
		}
		logger.Info("reminder metric recorded", "appointment_id", payload.AppointmentID)
		return nil
	})

	summaryHandler := handlers.NewSummaryHandler(store, logger)
	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)},
	)
	summaryHandler.Register(mux)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "analytics")
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
