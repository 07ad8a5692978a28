package waterfall

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shaiso/Cascade/internal/domain"
	"github.com/shaiso/Cascade/internal/registry"
)

// CreateCounterOffer регистрирует встречное предложение перевозчика
// по in-flight шагу.
//
// В отличие от RespondToStep, вызов по уже резолвнутому шагу —
// ошибка, а не no-op: инициатор создания counter должен узнать,
// что шаг ушёл другим путём.
func (e *Engine) CreateCounterOffer(ctx context.Context, stepID uuid.UUID, counterRate int64, notes string) (*domain.WaterfallRun, error) {
	owner, err := e.registry.FindByStep(ctx, stepID)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find step: %w", err)
	}

	if owner.IsFinished() {
		return nil, fmt.Errorf("%w: run is finished", ErrInvalidState)
	}

	state, _, err := e.loadState(ctx, owner.ID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, fmt.Errorf("%w: run is finished", ErrInvalidState)
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	run := state.run
	if run.IsFinished() {
		return nil, fmt.Errorf("%w: run is finished", ErrInvalidState)
	}

	step := run.CurrentStep
	if step == nil || step.ID != stepID {
		return nil, fmt.Errorf("%w: step is already resolved", ErrInvalidState)
	}

	return e.counterStepLocked(ctx, state, counterRate, notes)
}

// AcceptCounterOffer принимает pending counter-offer run.
//
// counterID опционален (uuid.Nil — взять pending counter run'а);
// если задан и не совпадает с pending — ErrNotFound.
// Шаг резолвится ACCEPTED со ставкой counter_rate, run завершается.
func (e *Engine) AcceptCounterOffer(ctx context.Context, runID, counterID uuid.UUID) (*domain.WaterfallRun, error) {
	state, _, err := e.loadState(ctx, runID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, fmt.Errorf("%w: run is finished", ErrInvalidState)
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	run := state.run
	if run.IsFinished() {
		return nil, fmt.Errorf("%w: run is finished", ErrInvalidState)
	}

	counter := run.PendingCounter()
	if counter == nil {
		return nil, fmt.Errorf("%w: no pending counter-offer", ErrNotFound)
	}
	if counterID != uuid.Nil && counter.ID != counterID {
		return nil, fmt.Errorf("%w: counter-offer %s", ErrNotFound, counterID)
	}

	counter.MarkAccepted()

	step := run.CurrentStep
	step.OfferedRate = counter.CounterRate
	e.resolveCurrentLocked(state, domain.StepStatusAccepted, "counter-offer accepted")

	run.MarkAccepted(step.CarrierID, counter.CounterRate)
	if err := e.finishLocked(ctx, state, domain.ReasonCounterAccepted); err != nil {
		return nil, err
	}

	e.logger.Info("counter-offer accepted",
		"run_id", run.ID,
		"counter_offer_id", counter.ID,
		"carrier_id", step.CarrierID,
		"rate", counter.CounterRate,
	)

	return state.snapshotLocked(), nil
}

// RejectCounterOffer отклоняет pending counter-offer run.
// Шаг резолвится DECLINED, waterfall эскалирует дальше как обычно.
func (e *Engine) RejectCounterOffer(ctx context.Context, runID, counterID uuid.UUID) (*domain.WaterfallRun, error) {
	state, _, err := e.loadState(ctx, runID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, fmt.Errorf("%w: run is finished", ErrInvalidState)
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	run := state.run
	if run.IsFinished() {
		return nil, fmt.Errorf("%w: run is finished", ErrInvalidState)
	}

	counter := run.PendingCounter()
	if counter == nil {
		return nil, fmt.Errorf("%w: no pending counter-offer", ErrNotFound)
	}
	if counterID != uuid.Nil && counter.ID != counterID {
		return nil, fmt.Errorf("%w: counter-offer %s", ErrNotFound, counterID)
	}

	counter.MarkRejected()
	e.resolveCurrentLocked(state, domain.StepStatusDeclined, "counter-offer rejected")

	e.logger.Info("counter-offer rejected",
		"run_id", run.ID,
		"counter_offer_id", counter.ID,
	)

	if err := e.advanceLocked(ctx, state); err != nil {
		return nil, err
	}
	return state.snapshotLocked(), nil
}
