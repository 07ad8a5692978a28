package domain

import (
	"time"

	"github.com/google/uuid"
)

// WaterfallRun — один процесс эскалации тендера для одного shipment.
//
// Run создаётся когда:
// - Диспетчер запускает waterfall вручную (через API/CLI)
// - Автоматизация запускает waterfall для нового shipment
//
// Run строго последователен: в каждый момент времени оффер отправлен
// максимум одному перевозчику (одному in-flight шагу).
type WaterfallRun struct {
	// ID — уникальный идентификатор run. Неизменен после создания.
	ID uuid.UUID `json:"id"`

	// ShipmentID — shipment, который тендерится.
	// Данные shipment принадлежат внешнему сервису, здесь только ссылка.
	ShipmentID string `json:"shipment_id"`

	// Status — текущий статус run.
	Status RunStatus `json:"status"`

	// BaseRate — начальная ставка в центах, заданная при старте.
	BaseRate int64 `json:"base_rate"`

	// CurrentRate — ставка текущего шага в центах.
	// Монотонно не убывает от шага к шагу (rate escalation),
	// кроме случая принятия counter-offer.
	CurrentRate int64 `json:"current_rate"`

	// CurrentStepIndex — индекс текущего шага (0-based).
	// Инвариант: CurrentStepIndex <= TotalCandidates.
	CurrentStepIndex int `json:"current_step_index"`

	// TotalCandidates — размер списка кандидатов на момент старта.
	// Фиксируется при создании run и больше не меняется.
	TotalCandidates int `json:"total_candidates"`

	// Candidates — ранжированный список кандидатов, зафиксированный
	// при старте. Нужен для продолжения waterfall после рестарта.
	Candidates []CarrierCandidate `json:"candidates"`

	// History — завершённые шаги в порядке выполнения. Append-only.
	// Инвариант: len(History) == CurrentStepIndex после резолюции шага.
	History []WaterfallStep `json:"history"`

	// CurrentStep — in-flight шаг (status == SENT или COUNTERED).
	// Nil, если run ожидает ручного advance или завершён.
	CurrentStep *WaterfallStep `json:"current_step,omitempty"`

	// WinningCarrierID — перевозчик, принявший тендер.
	// Заполняется только при Status == ACCEPTED.
	WinningCarrierID string `json:"winning_carrier_id,omitempty"`

	// Config — эффективная конфигурация run (дефолты + оверрайды старта).
	Config WaterfallConfig `json:"config"`

	// Notes — произвольные заметки диспетчера, переданные при старте.
	Notes string `json:"notes,omitempty"`

	// CancelReason — причина отмены, если run был отменён.
	CancelReason string `json:"cancel_reason,omitempty"`

	// StartedAt — время старта run (отправки шага 0).
	StartedAt time.Time `json:"started_at"`

	// CompletedAt — время финального перехода. Nil, пока run не завершён.
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Version — токен оптимистичной конкуренции.
	// Принадлежит Registry: инкрементируется при каждом успешном Update.
	Version int64 `json:"version"`
}

// IsFinished возвращает true, если run завершён (в любом финальном статусе).
func (r *WaterfallRun) IsFinished() bool {
	return r.Status.IsTerminal()
}

// Duration возвращает продолжительность run.
// Возвращает 0, если run ещё не завершён.
func (r *WaterfallRun) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// MarkAccepted переводит run в статус ACCEPTED с победившим перевозчиком.
func (r *WaterfallRun) MarkAccepted(carrierID string, winningRate int64) {
	now := time.Now()
	r.Status = RunStatusAccepted
	r.WinningCarrierID = carrierID
	r.CurrentRate = winningRate
	r.CompletedAt = &now
}

// MarkExhausted переводит run в статус EXHAUSTED.
func (r *WaterfallRun) MarkExhausted() {
	now := time.Now()
	r.Status = RunStatusExhausted
	r.CompletedAt = &now
}

// MarkCancelled переводит run в статус CANCELLED с причиной.
func (r *WaterfallRun) MarkCancelled(reason string) {
	now := time.Now()
	r.Status = RunStatusCancelled
	r.CancelReason = reason
	r.CompletedAt = &now
}

// AppendStep добавляет завершённый шаг в history и снимает его с in-flight.
// History append-only: порядок вставки равен порядку выполнения.
func (r *WaterfallRun) AppendStep(step WaterfallStep) {
	r.History = append(r.History, step)
	r.CurrentStep = nil
}

// PendingCounter возвращает pending counter-offer текущего шага.
// Nil, если встречного предложения нет или оно уже разрешено.
func (r *WaterfallRun) PendingCounter() *CounterOffer {
	if r.CurrentStep == nil || r.CurrentStep.Counter == nil {
		return nil
	}
	if r.CurrentStep.Counter.Status != CounterStatusPending {
		return nil
	}
	return r.CurrentStep.Counter
}

// Clone возвращает глубокую копию run.
// Используется Registry для выдачи консистентных снапшотов.
func (r *WaterfallRun) Clone() *WaterfallRun {
	cp := *r
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		cp.CompletedAt = &t
	}
	if r.CurrentStep != nil {
		cp.CurrentStep = r.CurrentStep.Clone()
	}
	cp.History = make([]WaterfallStep, len(r.History))
	for i := range r.History {
		cp.History[i] = *r.History[i].Clone()
	}
	cp.Candidates = make([]CarrierCandidate, len(r.Candidates))
	copy(cp.Candidates, r.Candidates)
	return &cp
}
