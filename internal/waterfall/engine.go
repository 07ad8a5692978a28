package waterfall

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Cascade/internal/domain"
	"github.com/shaiso/Cascade/internal/mq"
	"github.com/shaiso/Cascade/internal/notify"
	"github.com/shaiso/Cascade/internal/ranking"
	"github.com/shaiso/Cascade/internal/registry"
	"github.com/shaiso/Cascade/internal/telemetry"
)

// Default configuration values.
const (
	defaultSweepInterval = 30 * time.Second
	maxPersistRetries    = 3
)

// Engine управляет выполнением waterfall runs.
//
// Engine — центральный компонент системы, который:
//   - Запускает waterfall по запросу диспетчера или автоматизации
//   - Отправляет тендерные офферы перевозчикам по одному, в порядке ранга
//   - Армирует per-step таймауты и эскалирует ставку между раундами
//   - Принимает ответы перевозчиков (HTTP и очередь tenders.responses)
//   - Ведёт negotiation-протокол counter-offers
//   - Восстанавливает in-flight runs после рестарта (timeout sweep)
type Engine struct {
	registry  registry.Registry
	provider  ranking.Provider
	directory ranking.Directory
	notifier  notify.Notifier

	// MQ. Nil при запуске без RabbitMQ: интенты офферов и audit-события
	// не публикуются, ответы принимаются только через HTTP.
	publisher *mq.Publisher
	conn      *mq.Connection

	// Процессные дефолты конфигурации (правятся через API).
	defaults   domain.WaterfallConfig
	defaultsMu sync.RWMutex

	// Active runs — runs в обработке (runID → state).
	activeRuns map[uuid.UUID]*runState
	mu         sync.RWMutex

	responseConsumer *mq.Consumer

	sweepInterval time.Duration
	sweepCron     string

	// Lifecycle
	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// Config — конфигурация Engine.
type Config struct {
	Registry  registry.Registry
	Provider  ranking.Provider
	Directory ranking.Directory
	Notifier  notify.Notifier

	// MQ (опционально).
	Publisher *mq.Publisher
	Conn      *mq.Connection

	// Defaults — стартовые процессные дефолты waterfall-конфигурации.
	Defaults domain.WaterfallConfig

	// SweepInterval — интервал timeout sweep (default: 30s).
	SweepInterval time.Duration

	// SweepCron — cron-выражение sweep вместо фиксированного интервала.
	SweepCron string

	Logger *slog.Logger
}

// New создаёт новый Engine.
func New(cfg Config) *Engine {
	sweepInterval := cfg.SweepInterval
	if sweepInterval <= 0 {
		sweepInterval = defaultSweepInterval
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	notifier := cfg.Notifier
	if notifier == nil {
		notifier = notify.Noop{}
	}

	defaults := cfg.Defaults
	if defaults.TimeoutMinutes <= 0 {
		defaults = domain.DefaultConfig()
	}

	return &Engine{
		registry:      cfg.Registry,
		provider:      cfg.Provider,
		directory:     cfg.Directory,
		notifier:      notifier,
		publisher:     cfg.Publisher,
		conn:          cfg.Conn,
		defaults:      defaults,
		activeRuns:    make(map[uuid.UUID]*runState),
		sweepInterval: sweepInterval,
		sweepCron:     cfg.SweepCron,
		logger:        logger,
	}
}

// Start запускает Engine.
//
// Запускает:
//   - Consumer для tenders.responses (если есть MQ)
//   - Sweep-горутину: восстановление runs после рестарта
//     и страховка от потерянных таймеров
func (e *Engine) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	e.cancelFunc = cancel

	e.logger.Info("starting waterfall engine",
		"sweep_interval", e.sweepInterval,
		"sweep_cron", e.sweepCron,
		"mq_enabled", e.conn != nil,
	)

	if e.conn != nil {
		e.responseConsumer = mq.NewConsumer(e.conn, e.logger, mq.ConsumerConfig{
			Queue:    string(mq.QueueTenderResponses),
			Handler:  e.handleTenderResponse,
			Prefetch: 10,
		})

		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			if err := e.responseConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				e.logger.Error("response consumer error", "error", err)
			}
		}()
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.sweepLoop(ctx)
	}()

	e.logger.Info("waterfall engine started")
	return nil
}

// Stop останавливает Engine.
// In-flight runs остаются в Registry и будут подхвачены sweep'ом
// после следующего старта.
func (e *Engine) Stop() {
	e.logger.Info("stopping waterfall engine...")

	if e.cancelFunc != nil {
		e.cancelFunc()
	}

	if e.responseConsumer != nil {
		e.responseConsumer.Stop()
	}

	e.wg.Wait()

	// Гасим таймеры, чтобы callbacks не стреляли после остановки.
	e.mu.Lock()
	for _, state := range e.activeRuns {
		state.mu.Lock()
		state.stopTimerLocked()
		state.mu.Unlock()
	}
	active := len(e.activeRuns)
	e.mu.Unlock()

	e.logger.Info("waterfall engine stopped", "active_runs", active)
}

// Defaults возвращает процессные дефолты конфигурации.
func (e *Engine) Defaults() domain.WaterfallConfig {
	e.defaultsMu.RLock()
	defer e.defaultsMu.RUnlock()
	return e.defaults
}

// SetDefaults заменяет процессные дефолты конфигурации.
// Действует только на новые runs: эффективная конфигурация
// запущенного run зафиксирована при старте.
func (e *Engine) SetDefaults(cfg domain.WaterfallConfig) error {
	if cfg.TimeoutMinutes <= 0 {
		return fmt.Errorf("%w: timeout_minutes must be positive", ErrInvalidState)
	}
	if cfg.RateIncreasePerRoundPercent < 0 {
		return fmt.Errorf("%w: rate_increase_per_round_percent must not be negative", ErrInvalidState)
	}
	if cfg.MaxCarriers <= 0 {
		return fmt.Errorf("%w: max_carriers must be positive", ErrInvalidState)
	}

	e.defaultsMu.Lock()
	e.defaults = cfg
	e.defaultsMu.Unlock()

	e.logger.Info("waterfall defaults updated",
		"timeout_minutes", cfg.TimeoutMinutes,
		"rate_increase_percent", cfg.RateIncreasePerRoundPercent,
		"auto_escalate", cfg.AutoEscalate,
		"max_carriers", cfg.MaxCarriers,
	)
	return nil
}

// getActiveRun возвращает активный runState.
func (e *Engine) getActiveRun(runID uuid.UUID) *runState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.activeRuns[runID]
}

// addActiveRun добавляет run в активные.
func (e *Engine) addActiveRun(state *runState) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.activeRuns[state.RunID()]; exists {
		return ErrRunAlreadyActive
	}

	e.activeRuns[state.RunID()] = state
	telemetry.ActiveRuns.Set(float64(len(e.activeRuns)))
	return nil
}

// removeActiveRun удаляет run из активных.
func (e *Engine) removeActiveRun(runID uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.activeRuns, runID)
	telemetry.ActiveRuns.Set(float64(len(e.activeRuns)))
}

// ActiveRunsCount возвращает количество активных runs.
func (e *Engine) ActiveRunsCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.activeRuns)
}

// loadState возвращает runState для run: из памяти или,
// если движок рестартовал, восстановленный из Registry.
// Для завершённых runs возвращает (nil, snapshot): состояние
// в памяти не создаётся, снимок отдаётся как есть.
func (e *Engine) loadState(ctx context.Context, runID uuid.UUID) (*runState, *domain.WaterfallRun, error) {
	if state := e.getActiveRun(runID); state != nil {
		return state, nil, nil
	}

	run, err := e.registry.Get(ctx, runID)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("get run: %w", err)
	}

	if run.IsFinished() {
		return nil, run, nil
	}

	state, err := e.restoreRun(ctx, run)
	if err != nil {
		return nil, nil, err
	}
	return state, nil, nil
}

// persistLocked сохраняет run в Registry через CAS по версии.
//
// Вызывается под state.mu. In-memory состояние авторитетно:
// при конфликте версия перечитывается из store и запись повторяется.
// Конфликт возможен только если durable-снимок менял кто-то чужой,
// per-run lock не допускает второго писателя внутри процесса.
func (e *Engine) persistLocked(ctx context.Context, state *runState) error {
	var err error
	for attempt := 0; attempt < maxPersistRetries; attempt++ {
		err = e.registry.Update(ctx, state.run)
		if err == nil {
			return nil
		}
		if !errors.Is(err, registry.ErrConflict) {
			if errors.Is(err, registry.ErrNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("update run: %w", err)
		}

		stored, getErr := e.registry.Get(ctx, state.run.ID)
		if getErr != nil {
			return fmt.Errorf("reread run version: %w", getErr)
		}
		state.run.Version = stored.Version

		e.logger.Warn("registry version conflict, retrying",
			"run_id", state.run.ID,
			"attempt", attempt+1,
		)
	}
	return fmt.Errorf("%w: %v", ErrConflict, err)
}
