package domain

import (
	"time"

	"github.com/google/uuid"
)

// CounterOffer — встречное предложение перевозчика по in-flight шагу.
//
// Counter создаётся пока шаг в статусе SENT и переводит его в COUNTERED.
// Пока counter PENDING, run не эскалирует дальше — ждёт явного
// accept/reject со стороны инициатора waterfall.
type CounterOffer struct {
	// ID — уникальный идентификатор counter-offer.
	ID uuid.UUID `json:"id"`

	// StepID — шаг, по которому выставлен counter.
	// Counter принадлежит своему шагу и не дублируется.
	StepID uuid.UUID `json:"step_id"`

	// CounterRate — предложенная перевозчиком ставка в центах.
	CounterRate int64 `json:"counter_rate"`

	// Notes — комментарий перевозчика.
	Notes string `json:"notes,omitempty"`

	// Status — текущий статус counter-offer.
	Status CounterStatus `json:"status"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`

	// ResolvedAt — время решения. Nil, пока PENDING.
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// NewCounterOffer создаёт pending counter-offer для шага.
func NewCounterOffer(stepID uuid.UUID, counterRate int64, notes string) *CounterOffer {
	return &CounterOffer{
		ID:          uuid.New(),
		StepID:      stepID,
		CounterRate: counterRate,
		Notes:       notes,
		Status:      CounterStatusPending,
		CreatedAt:   time.Now(),
	}
}

// MarkAccepted помечает counter принятым.
func (c *CounterOffer) MarkAccepted() {
	now := time.Now()
	c.Status = CounterStatusAccepted
	c.ResolvedAt = &now
}

// MarkRejected помечает counter отклонённым.
func (c *CounterOffer) MarkRejected() {
	now := time.Now()
	c.Status = CounterStatusRejected
	c.ResolvedAt = &now
}
