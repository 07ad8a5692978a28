package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики движка. Экспортируются на /metrics endpoint.
var (
	// RunsStarted — количество запущенных waterfall runs.
	RunsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cascade_runs_started_total",
		Help: "Total number of waterfall runs started",
	})

	// RunsResolved — количество завершённых runs по финальному статусу.
	RunsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cascade_runs_resolved_total",
		Help: "Total number of waterfall runs resolved, by terminal status",
	}, []string{"status"})

	// ActiveRuns — количество runs в обработке (в памяти движка).
	ActiveRuns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cascade_active_runs",
		Help: "Number of waterfall runs currently being processed",
	})

	// StepsSent — количество отправленных тендерных офферов.
	StepsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cascade_steps_sent_total",
		Help: "Total number of tender offers sent to carriers",
	})

	// StepTimeouts — количество шагов, истёкших по таймауту.
	StepTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cascade_step_timeouts_total",
		Help: "Total number of tender steps expired by timeout",
	})

	// CounterOffers — количество встречных предложений от перевозчиков.
	CounterOffers = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cascade_counter_offers_total",
		Help: "Total number of counter-offers received from carriers",
	})
)
