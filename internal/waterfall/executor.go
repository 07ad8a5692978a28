package waterfall

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Cascade/internal/domain"
	"github.com/shaiso/Cascade/internal/mq"
	"github.com/shaiso/Cascade/internal/registry"
	"github.com/shaiso/Cascade/internal/telemetry"
)

// Ответы перевозчика на тендерный оффер.
const (
	ResponseAccepted  = "accepted"
	ResponseDeclined  = "declined"
	ResponseCountered = "countered"
)

// StartRequest — запрос на запуск waterfall.
type StartRequest struct {
	// ShipmentID — shipment, который тендерится.
	ShipmentID string

	// CarrierIDs — явный список кандидатов в порядке приоритета.
	// Если пуст, список строится через Ranking Provider.
	CarrierIDs []string

	// OfferedRate — стартовая ставка в центах. Строго положительная.
	OfferedRate int64

	// Overrides — пер-run оверрайды поверх процессных дефолтов.
	Overrides domain.ConfigOverrides

	// Notes — заметки диспетчера.
	Notes string
}

// StartWaterfall запускает новый waterfall run.
//
// Атомарность создания: run публикуется в Registry одним Put —
// сразу RUNNING и с армированным шагом 0. Частично созданный run
// снаружи не виден.
func (e *Engine) StartWaterfall(ctx context.Context, req StartRequest) (*domain.WaterfallRun, error) {
	if req.ShipmentID == "" {
		return nil, fmt.Errorf("%w: shipment_id is required", ErrInvalidState)
	}
	if req.OfferedRate <= 0 {
		return nil, ErrInvalidRate
	}

	cfg := e.Defaults().Merge(req.Overrides)

	candidates, err := e.resolveCandidates(ctx, req, cfg)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}

	run := &domain.WaterfallRun{
		ID:              uuid.New(),
		ShipmentID:      req.ShipmentID,
		Status:          domain.RunStatusPending,
		BaseRate:        req.OfferedRate,
		CurrentRate:     req.OfferedRate,
		TotalCandidates: len(candidates),
		Candidates:      candidates,
		Config:          cfg,
		Notes:           req.Notes,
		StartedAt:       time.Now(),
	}

	first := candidates[0]
	step := domain.NewStep(run.ID, 0, first.CarrierID, first.CarrierName, run.CurrentRate, cfg.StepTimeout())
	run.CurrentStep = step
	run.Status = domain.RunStatusRunning

	if err := e.registry.Put(ctx, run); err != nil {
		return nil, fmt.Errorf("put run: %w", err)
	}

	state := newRunState(run)
	if err := e.addActiveRun(state); err != nil {
		return nil, err
	}

	state.mu.Lock()
	e.armTimerLocked(state, step)
	e.notifyCarrier(ctx, run, step)
	snapshot := state.snapshotLocked()
	state.mu.Unlock()

	telemetry.RunsStarted.Inc()
	telemetry.StepsSent.Inc()

	e.logger.Info("waterfall started",
		"run_id", run.ID,
		"shipment_id", run.ShipmentID,
		"total_candidates", run.TotalCandidates,
		"base_rate", run.BaseRate,
		"first_carrier", first.CarrierID,
	)

	return snapshot, nil
}

// resolveCandidates строит список кандидатов для run.
// Явный список используется как есть; ранжированный обрезается
// до config.max_carriers.
func (e *Engine) resolveCandidates(ctx context.Context, req StartRequest, cfg domain.WaterfallConfig) ([]domain.CarrierCandidate, error) {
	if len(req.CarrierIDs) > 0 {
		out := make([]domain.CarrierCandidate, 0, len(req.CarrierIDs))
		for _, id := range req.CarrierIDs {
			name := ""
			if e.directory != nil {
				n, err := e.directory.Lookup(ctx, id)
				if err != nil {
					e.logger.Debug("carrier lookup failed", "carrier_id", id, "error", err)
				} else {
					name = n
				}
			}
			out = append(out, domain.CarrierCandidate{CarrierID: id, CarrierName: name})
		}
		return out, nil
	}

	if e.provider == nil {
		return nil, ErrNoCandidates
	}

	ranked, err := e.provider.Rank(ctx, req.ShipmentID)
	if err != nil {
		return nil, fmt.Errorf("rank carriers: %w", err)
	}
	if cfg.MaxCarriers > 0 && len(ranked) > cfg.MaxCarriers {
		ranked = ranked[:cfg.MaxCarriers]
	}
	return ranked, nil
}

// RespondToStep применяет ответ перевозчика к шагу.
//
// Идемпотентность: ответ по уже резолвнутому шагу или завершённому
// run — no-op, возвращается текущий снимок. Поздний accept после
// таймаута или cancel ничего не переоткрывает (first-resolution-wins).
func (e *Engine) RespondToStep(ctx context.Context, stepID uuid.UUID, response string, counterRate int64, notes string) (*domain.WaterfallRun, error) {
	owner, err := e.registry.FindByStep(ctx, stepID)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find step: %w", err)
	}

	if owner.IsFinished() {
		e.logger.Debug("late carrier response for finished run",
			"run_id", owner.ID,
			"step_id", stepID,
			"response", response,
		)
		return owner, nil
	}

	state, snapshot, err := e.loadState(ctx, owner.ID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return snapshot, nil
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	run := state.run
	if run.IsFinished() {
		return state.snapshotLocked(), nil
	}

	step := run.CurrentStep
	if step == nil || step.ID != stepID {
		// Шаг уже резолвнут другим триггером.
		return state.snapshotLocked(), nil
	}

	switch response {
	case ResponseAccepted:
		return e.acceptStepLocked(ctx, state, notes)
	case ResponseDeclined:
		return e.declineStepLocked(ctx, state, notes)
	case ResponseCountered:
		return e.counterStepLocked(ctx, state, counterRate, notes)
	default:
		return nil, fmt.Errorf("%w: unknown response %q", ErrInvalidState, response)
	}
}

// acceptStepLocked резолвит шаг ACCEPTED и завершает run.
func (e *Engine) acceptStepLocked(ctx context.Context, state *runState, notes string) (*domain.WaterfallRun, error) {
	run := state.run
	step := run.CurrentStep

	if step.Status == domain.StepStatusCountered {
		// Counter pending — шаг резолвится только через negotiation.
		return nil, fmt.Errorf("%w: step has a pending counter-offer", ErrInvalidState)
	}

	if e.resolveCurrentLocked(state, domain.StepStatusAccepted, notes) == nil {
		return state.snapshotLocked(), nil
	}

	run.MarkAccepted(step.CarrierID, step.OfferedRate)
	if err := e.finishLocked(ctx, state, domain.ReasonAccepted); err != nil {
		return nil, err
	}
	return state.snapshotLocked(), nil
}

// declineStepLocked резолвит шаг DECLINED и эскалирует дальше.
// Decline эскалирует всегда: auto_escalate управляет только таймаутом.
func (e *Engine) declineStepLocked(ctx context.Context, state *runState, notes string) (*domain.WaterfallRun, error) {
	step := state.run.CurrentStep
	if step.Status == domain.StepStatusCountered {
		return nil, fmt.Errorf("%w: step has a pending counter-offer", ErrInvalidState)
	}

	if e.resolveCurrentLocked(state, domain.StepStatusDeclined, notes) == nil {
		return state.snapshotLocked(), nil
	}

	if err := e.advanceLocked(ctx, state); err != nil {
		return nil, err
	}
	return state.snapshotLocked(), nil
}

// counterStepLocked регистрирует встречное предложение по шагу.
// Дедлайн шага снимается: run ждёт явного accept/reject инициатора.
func (e *Engine) counterStepLocked(ctx context.Context, state *runState, counterRate int64, notes string) (*domain.WaterfallRun, error) {
	if counterRate <= 0 {
		return nil, ErrInvalidRate
	}

	run := state.run
	step := run.CurrentStep
	if step.Status != domain.StepStatusSent {
		return nil, fmt.Errorf("%w: counter-offer requires an in-flight step", ErrInvalidState)
	}

	counter := domain.NewCounterOffer(step.ID, counterRate, notes)
	step.Counter = counter
	step.Status = domain.StepStatusCountered
	state.stopTimerLocked()

	if err := e.persistLocked(ctx, state); err != nil {
		return nil, err
	}

	telemetry.CounterOffers.Inc()
	e.logger.Info("counter-offer received",
		"run_id", run.ID,
		"step_id", step.ID,
		"carrier_id", step.CarrierID,
		"offered_rate", step.OfferedRate,
		"counter_rate", counterRate,
	)

	return state.snapshotLocked(), nil
}

// resolveCurrentLocked резолвит in-flight шаг и переносит его в history.
// Возвращает nil, если шага нет или он уже резолвнут: среди
// {ответ перевозчика, таймаут, cancel} побеждает первый триггер.
func (e *Engine) resolveCurrentLocked(state *runState, status domain.StepStatus, notes string) *domain.WaterfallStep {
	step := state.run.CurrentStep
	if step == nil || !step.Resolve(status, notes) {
		return nil
	}

	state.stopTimerLocked()
	state.run.AppendStep(*step)
	state.run.CurrentStepIndex = len(state.run.History)

	e.logger.Info("step resolved",
		"run_id", state.run.ID,
		"step_id", step.ID,
		"step_number", step.StepNumber,
		"carrier_id", step.CarrierID,
		"status", status,
	)

	return &state.run.History[len(state.run.History)-1]
}

// advanceLocked — решение после decline/expire: следующий кандидат
// или исчерпание.
func (e *Engine) advanceLocked(ctx context.Context, state *runState) error {
	run := state.run
	if run.CurrentStepIndex >= run.TotalCandidates {
		run.MarkExhausted()
		return e.finishLocked(ctx, state, domain.ReasonExhausted)
	}
	return e.sendNextLocked(ctx, state)
}

// sendNextLocked отправляет оффер следующему кандидату.
// Ставка эскалируется от текущей при каждом переходе к новому
// кандидату (rate escalation компаундится между раундами).
func (e *Engine) sendNextLocked(ctx context.Context, state *runState) error {
	run := state.run
	idx := run.CurrentStepIndex
	cand := run.Candidates[idx]

	rate := run.CurrentRate
	if idx > 0 {
		rate = run.Config.NextRate(run.CurrentRate)
	}
	run.CurrentRate = rate

	step := domain.NewStep(run.ID, idx, cand.CarrierID, cand.CarrierName, rate, run.Config.StepTimeout())
	run.CurrentStep = step

	if err := e.persistLocked(ctx, state); err != nil {
		return err
	}

	e.armTimerLocked(state, step)
	e.notifyCarrier(ctx, run, step)
	telemetry.StepsSent.Inc()

	e.logger.Info("tender offer sent",
		"run_id", run.ID,
		"step_id", step.ID,
		"step_number", idx,
		"carrier_id", cand.CarrierID,
		"rate", rate,
		"deadline", step.Deadline,
	)

	return nil
}

// armTimerLocked армирует таймер дедлайна шага.
func (e *Engine) armTimerLocked(state *runState, step *domain.WaterfallStep) {
	runID := state.run.ID
	stepID := step.ID

	d := time.Until(step.Deadline)
	if d < 0 {
		d = 0
	}

	state.timer = time.AfterFunc(d, func() {
		e.onStepTimeout(runID, stepID)
	})
}

// onStepTimeout обрабатывает истечение дедлайна шага.
//
// Устаревший callback (шаг уже резолвнут другим путём, run завершён,
// counter pending) — no-op, не ошибка.
func (e *Engine) onStepTimeout(runID, stepID uuid.UUID) {
	ctx := context.Background()

	state := e.getActiveRun(runID)
	if state == nil {
		return
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	run := state.run
	if run.IsFinished() {
		return
	}

	step := run.CurrentStep
	if step == nil || step.ID != stepID {
		return
	}
	if step.Status == domain.StepStatusCountered {
		// Дедлайн снят counter-offer'ом; таймер просто не успел погаситься.
		return
	}

	if e.resolveCurrentLocked(state, domain.StepStatusExpired, "no response before deadline") == nil {
		return
	}

	telemetry.StepTimeouts.Inc()

	if !run.Config.AutoEscalate && run.CurrentStepIndex < run.TotalCandidates {
		// Пауза: run остаётся RUNNING без in-flight шага
		// и ждёт явного advance.
		if err := e.persistLocked(ctx, state); err != nil {
			e.logger.Error("failed to persist paused run", "run_id", runID, "error", err)
		}
		e.logger.Info("step expired, awaiting manual advance", "run_id", runID, "step_id", stepID)
		return
	}

	if err := e.advanceLocked(ctx, state); err != nil {
		e.logger.Error("failed to advance after timeout", "run_id", runID, "error", err)
	}
}

// Advance вручную эскалирует приостановленный run к следующему
// кандидату. Работает только для run в паузе после таймаута
// при auto_escalate=false.
func (e *Engine) Advance(ctx context.Context, runID uuid.UUID) (*domain.WaterfallRun, error) {
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
	if run.CurrentStep != nil {
		return nil, ErrNotPaused
	}
	if run.CurrentStepIndex >= run.TotalCandidates {
		// Кандидаты кончились, пока run стоял в паузе.
		run.MarkExhausted()
		if err := e.finishLocked(ctx, state, domain.ReasonExhausted); err != nil {
			return nil, err
		}
		return state.snapshotLocked(), nil
	}

	if err := e.sendNextLocked(ctx, state); err != nil {
		return nil, err
	}
	return state.snapshotLocked(), nil
}

// Cancel отменяет run.
//
// In-flight шаг резолвится EXPIRED (административно), pending
// counter-offer отклоняется. Отмена уже завершённого run — no-op,
// возвращается текущий снимок: конкурентные cancel не гоняются.
func (e *Engine) Cancel(ctx context.Context, runID uuid.UUID, reason string) (*domain.WaterfallRun, error) {
	state, snapshot, err := e.loadState(ctx, runID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return snapshot, nil
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	run := state.run
	if run.IsFinished() {
		return state.snapshotLocked(), nil
	}

	if counter := run.PendingCounter(); counter != nil {
		counter.MarkRejected()
	}
	e.resolveCurrentLocked(state, domain.StepStatusExpired, "run cancelled")

	run.MarkCancelled(reason)
	if err := e.finishLocked(ctx, state, domain.ReasonCancelled); err != nil {
		return nil, err
	}

	return state.snapshotLocked(), nil
}

// GetRun возвращает консистентный снимок run.
func (e *Engine) GetRun(ctx context.Context, runID uuid.UUID) (*domain.WaterfallRun, error) {
	if state := e.getActiveRun(runID); state != nil {
		state.mu.Lock()
		defer state.mu.Unlock()
		return state.snapshotLocked(), nil
	}

	run, err := e.registry.Get(ctx, runID)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return run, nil
}

// ListRuns возвращает runs по фильтру.
func (e *Engine) ListRuns(ctx context.Context, filter registry.Filter) ([]domain.WaterfallRun, error) {
	return e.registry.List(ctx, filter)
}

// finishLocked завершает run: durable-запись, audit-событие, метрики,
// снятие из активных.
func (e *Engine) finishLocked(ctx context.Context, state *runState, reason domain.ResolutionReason) error {
	run := state.run

	if err := e.persistLocked(ctx, state); err != nil {
		return err
	}

	telemetry.RunsResolved.WithLabelValues(string(run.Status)).Inc()
	e.publishResolved(ctx, run, reason)
	e.removeActiveRun(run.ID)

	e.logger.Info("waterfall resolved",
		"run_id", run.ID,
		"shipment_id", run.ShipmentID,
		"status", run.Status,
		"reason", reason,
		"steps_tried", len(run.History),
		"winning_carrier_id", run.WinningCarrierID,
		"final_rate", run.CurrentRate,
		"duration", run.Duration(),
	)

	return nil
}

// publishResolved публикует audit-событие финального перехода.
// Сбой публикации не откатывает переход: durable-состояние уже записано.
func (e *Engine) publishResolved(ctx context.Context, run *domain.WaterfallRun, reason domain.ResolutionReason) {
	if e.publisher == nil {
		return
	}

	payload := mq.RunResolvedPayload{
		RunID:            run.ID,
		ShipmentID:       run.ShipmentID,
		Status:           string(run.Status),
		Reason:           string(reason),
		WinningCarrierID: run.WinningCarrierID,
		FinalRateCents:   run.CurrentRate,
		StepsTried:       len(run.History),
	}
	if err := e.publisher.PublishRunResolved(ctx, payload); err != nil {
		e.logger.Warn("failed to publish run.resolved",
			"run_id", run.ID,
			"error", err,
		)
	}
}

// notifyCarrier публикует интент доставки оффера.
// Fire-and-forget: при молчании перевозчика авторитетен таймаут.
func (e *Engine) notifyCarrier(ctx context.Context, run *domain.WaterfallRun, step *domain.WaterfallStep) {
	offer := mq.TenderOfferPayload{
		StepID:      step.ID,
		RunID:       run.ID,
		ShipmentID:  run.ShipmentID,
		CarrierID:   step.CarrierID,
		CarrierName: step.CarrierName,
		RateCents:   step.OfferedRate,
		Deadline:    step.Deadline,
	}
	if err := e.notifier.NotifyCarrier(ctx, offer); err != nil {
		e.logger.Warn("failed to notify carrier",
			"run_id", run.ID,
			"step_id", step.ID,
			"carrier_id", step.CarrierID,
			"error", err,
		)
	}
}
