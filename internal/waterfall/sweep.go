package waterfall

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shaiso/Cascade/internal/domain"
)

// cronParser — парсер cron-выражений (стандартные 5 полей).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCronExpr проверяет валидность cron-выражения sweep'а.
func ValidateCronExpr(expr string) error {
	_, err := cronParser.Parse(expr)
	return err
}

// sweepLoop — цикл timeout sweep.
//
// Sweep — страховка поверх per-step таймеров: подхватывает RUNNING
// runs, которых нет в памяти (рестарт движка), и дожимает шаги
// с прошедшим дедлайном, чей таймер потерян вместе с процессом.
func (e *Engine) sweepLoop(ctx context.Context) {
	// Первый sweep сразу при старте: runs предыдущего процесса
	// не должны ждать первого тика.
	e.sweep(ctx)

	if e.sweepCron != "" {
		schedule, err := cronParser.Parse(e.sweepCron)
		if err != nil {
			e.logger.Error("invalid sweep cron expression, falling back to interval",
				"cron", e.sweepCron,
				"interval", e.sweepInterval,
				"error", err,
			)
		} else {
			e.cronLoop(ctx, schedule)
			return
		}
	}

	ticker := time.NewTicker(e.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.sweep(ctx)
		}
	}
}

// cronLoop запускает sweep по cron-расписанию.
func (e *Engine) cronLoop(ctx context.Context, schedule cron.Schedule) {
	for {
		next := schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			e.sweep(ctx)
		}
	}
}

// sweep выполняет один проход: все RUNNING runs из Registry,
// отсутствующие в памяти, восстанавливаются.
func (e *Engine) sweep(ctx context.Context) {
	runs, err := e.registry.ListActive(ctx)
	if err != nil {
		e.logger.Error("failed to list active runs", "error", err)
		return
	}

	for i := range runs {
		run := &runs[i]
		if e.getActiveRun(run.ID) != nil {
			continue
		}
		if _, err := e.restoreRun(ctx, run); err != nil && !errors.Is(err, ErrRunAlreadyActive) {
			e.logger.Error("failed to restore run",
				"run_id", run.ID,
				"error", err,
			)
		}
	}
}

// restoreRun поднимает RUNNING run в память движка.
//
// In-flight шаг получает таймер на остаток дедлайна; если дедлайн
// прошёл, пока движок был выключен, таймаут применяется немедленно.
// Run в паузе или с pending counter восстанавливается без таймера.
func (e *Engine) restoreRun(ctx context.Context, run *domain.WaterfallRun) (*runState, error) {
	state := newRunState(run)
	if err := e.addActiveRun(state); err != nil {
		if errors.Is(err, ErrRunAlreadyActive) {
			// Кто-то уже восстановил — возвращаем его.
			return e.getActiveRun(run.ID), nil
		}
		return nil, err
	}

	e.logger.Info("run state restored",
		"run_id", run.ID,
		"shipment_id", run.ShipmentID,
		"step_index", run.CurrentStepIndex,
		"total_candidates", run.TotalCandidates,
	)

	state.mu.Lock()
	step := run.CurrentStep
	switch {
	case step == nil:
		// Пауза (auto_escalate=false) — ждёт явного advance.
	case step.Status == domain.StepStatusCountered:
		// Ждёт решения по counter-offer, дедлайн снят.
	case !time.Now().Before(step.Deadline):
		stepID := step.ID
		runID := run.ID
		state.mu.Unlock()
		e.onStepTimeout(runID, stepID)
		state.mu.Lock()
	default:
		e.armTimerLocked(state, step)
	}
	state.mu.Unlock()

	return state, nil
}
