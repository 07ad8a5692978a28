package domain

import (
	"time"

	"github.com/google/uuid"
)

// WaterfallStep — один тендерный оффер одному перевозчику по одной ставке.
//
// Шаг создаётся Step Executor'ом при отправке оффера и резолвится
// ровно один раз: ответом перевозчика, таймаутом или отменой run.
// Кто первый — тот и выиграл; остальные триггеры становятся no-op.
type WaterfallStep struct {
	// ID — уникальный идентификатор шага.
	// По нему перевозчик (портал/EDI) адресует свой ответ.
	ID uuid.UUID `json:"id"`

	// RunID — ссылка на родительский run.
	RunID uuid.UUID `json:"run_id"`

	// StepNumber — позиция шага в waterfall (0-based).
	// Совпадает с индексом шага в History после резолюции.
	StepNumber int `json:"step_number"`

	// CarrierID — перевозчик, которому отправлен оффер.
	CarrierID string `json:"carrier_id"`

	// CarrierName — имя перевозчика для отображения.
	// Копия из ranking/directory на момент отправки.
	CarrierName string `json:"carrier_name,omitempty"`

	// OfferedRate — ставка оффера в центах.
	// При принятии counter-offer перезаписывается counter_rate.
	OfferedRate int64 `json:"offered_rate"`

	// Status — текущий статус шага.
	Status StepStatus `json:"status"`

	// Counter — встречное предложение перевозчика, если было.
	Counter *CounterOffer `json:"counter_offer,omitempty"`

	// Notes — детали ответа перевозчика (например, причина отказа).
	Notes string `json:"notes,omitempty"`

	// SentAt — время отправки оффера.
	SentAt time.Time `json:"sent_at"`

	// Deadline — момент, когда шаг истекает по таймауту.
	Deadline time.Time `json:"deadline"`

	// ResolvedAt — время резолюции. Nil, пока шаг in-flight.
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// NewStep создаёт in-flight шаг с армированным дедлайном.
func NewStep(runID uuid.UUID, stepNumber int, carrierID, carrierName string, rate int64, timeout time.Duration) *WaterfallStep {
	now := time.Now()
	return &WaterfallStep{
		ID:          uuid.New(),
		RunID:       runID,
		StepNumber:  stepNumber,
		CarrierID:   carrierID,
		CarrierName: carrierName,
		OfferedRate: rate,
		Status:      StepStatusSent,
		SentAt:      now,
		Deadline:    now.Add(timeout),
	}
}

// IsResolved возвращает true, если шаг резолвнут.
func (s *WaterfallStep) IsResolved() bool {
	return s.Status.IsTerminal()
}

// Resolve переводит шаг в финальный статус и ставит отметку времени.
// Возвращает false, если шаг уже резолвнут (first-resolution-wins):
// повторный вызов ничего не меняет.
func (s *WaterfallStep) Resolve(status StepStatus, notes string) bool {
	if s.IsResolved() {
		return false
	}
	now := time.Now()
	s.Status = status
	s.ResolvedAt = &now
	if notes != "" {
		s.Notes = notes
	}
	return true
}

// Clone возвращает глубокую копию шага.
func (s *WaterfallStep) Clone() *WaterfallStep {
	cp := *s
	if s.ResolvedAt != nil {
		t := *s.ResolvedAt
		cp.ResolvedAt = &t
	}
	if s.Counter != nil {
		c := *s.Counter
		if s.Counter.ResolvedAt != nil {
			ct := *s.Counter.ResolvedAt
			c.ResolvedAt = &ct
		}
		cp.Counter = &c
	}
	return &cp
}
