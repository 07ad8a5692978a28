// Cascade Engine — движок последовательного тендера (tender waterfall).
//
// Engine:
//   - Запускает waterfall runs и отправляет офферы перевозчикам по одному
//   - Армирует per-step таймауты и эскалирует ставку между раундами
//   - Принимает ответы перевозчиков через HTTP API и очередь tenders.responses
//   - Ведёт negotiation-протокол counter-offers
//   - Восстанавливает in-flight runs после рестарта
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Cascade/internal/api"
	"github.com/shaiso/Cascade/internal/mq"
	"github.com/shaiso/Cascade/internal/notify"
	"github.com/shaiso/Cascade/internal/ranking"
	"github.com/shaiso/Cascade/internal/registry"
	"github.com/shaiso/Cascade/internal/telemetry"
	"github.com/shaiso/Cascade/internal/waterfall"
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting cascade-engine")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Registry: Postgres при заданном DB_URL, иначе in-memory.
	var reg registry.Registry
	if os.Getenv("DB_URL") != "" {
		pool, err := registry.NewPool(ctx)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		reg = registry.NewPostgres(pool)
		logger.Info("database connected")
	} else {
		reg = registry.NewMemory()
		logger.Warn("DB_URL not set, using in-memory registry (runs will not survive restart)")
	}

	// Ranking Provider / Carrier Directory
	var provider ranking.Provider
	var directory ranking.Directory
	if url := os.Getenv("RANKING_URL"); url != "" {
		client := ranking.NewHTTPClient(url)
		provider = client
		directory = client
		logger.Info("ranking provider configured", "url", url)
	} else {
		logger.Warn("RANKING_URL not set, waterfalls require explicit carrier lists")
	}

	// RabbitMQ (опционально: без него ответы принимаются только через HTTP)
	var mqConn *mq.Connection
	var publisher *mq.Publisher
	var notifier notify.Notifier = notify.Noop{}

	mqURL := os.Getenv("RABBITMQ_URL")
	if mqURL == "" {
		mqURL = mq.DefaultURL()
	}

	mqConn, err := mq.NewConnection(mqURL, logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, running in HTTP-only mode", "error", err)
		mqConn = nil
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")

		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}

		publisher = mq.NewPublisher(mqConn, logger)
		notifier = notify.NewMQNotifier(publisher)
	}

	// Интервал timeout sweep (опционально).
	var sweepInterval time.Duration
	if v := os.Getenv("SWEEP_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			logger.Warn("invalid SWEEP_INTERVAL, using default", "value", v, "error", err)
		} else {
			sweepInterval = d
		}
	}

	// Создаём движок
	engine := waterfall.New(waterfall.Config{
		Registry:      reg,
		Provider:      provider,
		Directory:     directory,
		Notifier:      notifier,
		Publisher:     publisher,
		Conn:          mqConn,
		SweepInterval: sweepInterval,
		SweepCron:     os.Getenv("SWEEP_CRON"),
		Logger:        logger,
	})

	if err := engine.Start(ctx); err != nil {
		logger.Error("failed to start engine", "error", err)
		os.Exit(1)
	}

	// HTTP: API + /healthz + /metrics
	handler := api.NewHandler(api.Config{
		Engine: engine,
		Logger: logger,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())
	handler.RegisterRoutes(mux)

	addr := ":8080"
	if v := os.Getenv("API_PORT"); v != "" {
		addr = ":" + v
	}

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()
	logger.Info("shutting down")

	// Graceful shutdown с таймаутом 10 секунд
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	engine.Stop()
	logger.Info("cascade-engine stopped")
}
