package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Cascade/internal/domain"
)

// Waterfall DTOs

// StartWaterfallRequest — запрос на запуск waterfall.
type StartWaterfallRequest struct {
	ShipmentID  string   `json:"shipment_id"`
	CarrierIDs  []string `json:"carrier_ids,omitempty"`
	OfferedRate int64    `json:"offered_rate"`

	// Оверрайды процессных дефолтов конфигурации.
	TimeoutMinutes              *int     `json:"timeout_minutes,omitempty"`
	RateIncreasePerRoundPercent *float64 `json:"rate_increase_per_round_percent,omitempty"`
	AutoEscalate                *bool    `json:"auto_escalate,omitempty"`
	MaxCarriers                 *int     `json:"max_carriers,omitempty"`

	Notes string `json:"notes,omitempty"`
}

// Overrides возвращает пер-run оверрайды конфигурации из запроса.
func (r StartWaterfallRequest) Overrides() domain.ConfigOverrides {
	return domain.ConfigOverrides{
		TimeoutMinutes:              r.TimeoutMinutes,
		RateIncreasePerRoundPercent: r.RateIncreasePerRoundPercent,
		AutoEscalate:                r.AutoEscalate,
		MaxCarriers:                 r.MaxCarriers,
	}
}

// CancelWaterfallRequest — запрос на отмену waterfall.
type CancelWaterfallRequest struct {
	Reason string `json:"reason,omitempty"`
}

// RespondRequest — ответ перевозчика на тендерный оффер.
type RespondRequest struct {
	// Response: "accepted", "declined" или "countered".
	Response    string `json:"response"`
	CounterRate int64  `json:"counter_rate,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// CreateCounterOfferRequest — запрос на создание counter-offer.
type CreateCounterOfferRequest struct {
	StepID      uuid.UUID `json:"step_id"`
	CounterRate int64     `json:"counter_rate"`
	Notes       string    `json:"notes,omitempty"`
}

// ResolveCounterOfferRequest — решение по pending counter-offer run.
type ResolveCounterOfferRequest struct {
	// CounterOfferID опционален: по умолчанию берётся pending
	// counter-offer run'а.
	CounterOfferID *uuid.UUID `json:"counter_offer_id,omitempty"`
}

// CounterOfferResponse — ответ с counter-offer.
type CounterOfferResponse struct {
	ID          uuid.UUID  `json:"id"`
	StepID      uuid.UUID  `json:"step_id"`
	CounterRate int64      `json:"counter_rate"`
	Notes       string     `json:"notes,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
}

// CounterOfferFromDomain конвертирует domain.CounterOffer в CounterOfferResponse.
func CounterOfferFromDomain(c domain.CounterOffer) CounterOfferResponse {
	return CounterOfferResponse{
		ID:          c.ID,
		StepID:      c.StepID,
		CounterRate: c.CounterRate,
		Notes:       c.Notes,
		Status:      string(c.Status),
		CreatedAt:   c.CreatedAt,
		ResolvedAt:  c.ResolvedAt,
	}
}

// StepResponse — ответ с тендерным шагом.
type StepResponse struct {
	ID          uuid.UUID             `json:"id"`
	RunID       uuid.UUID             `json:"run_id"`
	StepNumber  int                   `json:"step_number"`
	CarrierID   string                `json:"carrier_id"`
	CarrierName string                `json:"carrier_name,omitempty"`
	OfferedRate int64                 `json:"offered_rate"`
	Status      string                `json:"status"`
	Counter     *CounterOfferResponse `json:"counter_offer,omitempty"`
	Notes       string                `json:"notes,omitempty"`
	SentAt      time.Time             `json:"sent_at"`
	Deadline    time.Time             `json:"deadline"`
	ResolvedAt  *time.Time            `json:"resolved_at,omitempty"`
}

// StepFromDomain конвертирует domain.WaterfallStep в StepResponse.
func StepFromDomain(s domain.WaterfallStep) StepResponse {
	resp := StepResponse{
		ID:          s.ID,
		RunID:       s.RunID,
		StepNumber:  s.StepNumber,
		CarrierID:   s.CarrierID,
		CarrierName: s.CarrierName,
		OfferedRate: s.OfferedRate,
		Status:      string(s.Status),
		Notes:       s.Notes,
		SentAt:      s.SentAt,
		Deadline:    s.Deadline,
		ResolvedAt:  s.ResolvedAt,
	}
	if s.Counter != nil {
		counter := CounterOfferFromDomain(*s.Counter)
		resp.Counter = &counter
	}
	return resp
}

// RunResponse — ответ с waterfall run.
type RunResponse struct {
	ID               uuid.UUID             `json:"waterfall_id"`
	ShipmentID       string                `json:"shipment_id"`
	Status           string                `json:"status"`
	BaseRate         int64                 `json:"base_rate"`
	CurrentRate      int64                 `json:"current_rate"`
	CurrentStepIndex int                   `json:"current_step_index"`
	TotalCarriers    int                   `json:"total_carriers"`
	WinningCarrierID string                `json:"winning_carrier_id,omitempty"`
	Config           domain.WaterfallConfig `json:"config"`
	Notes            string                `json:"notes,omitempty"`
	CancelReason     string                `json:"cancel_reason,omitempty"`
	Steps            []StepResponse        `json:"steps"`
	CurrentStep      *StepResponse         `json:"current_step,omitempty"`
	StartedAt        time.Time             `json:"started_at"`
	CompletedAt      *time.Time            `json:"completed_at,omitempty"`
}

// RunFromDomain конвертирует domain.WaterfallRun в RunResponse.
func RunFromDomain(r domain.WaterfallRun) RunResponse {
	steps := make([]StepResponse, len(r.History))
	for i, s := range r.History {
		steps[i] = StepFromDomain(s)
	}

	resp := RunResponse{
		ID:               r.ID,
		ShipmentID:       r.ShipmentID,
		Status:           string(r.Status),
		BaseRate:         r.BaseRate,
		CurrentRate:      r.CurrentRate,
		CurrentStepIndex: r.CurrentStepIndex,
		TotalCarriers:    r.TotalCandidates,
		WinningCarrierID: r.WinningCarrierID,
		Config:           r.Config,
		Notes:            r.Notes,
		CancelReason:     r.CancelReason,
		Steps:            steps,
		StartedAt:        r.StartedAt,
		CompletedAt:      r.CompletedAt,
	}
	if r.CurrentStep != nil {
		step := StepFromDomain(*r.CurrentStep)
		resp.CurrentStep = &step
	}
	return resp
}

// Config DTOs

// UpdateConfigRequest — запрос на обновление процессных дефолтов.
type UpdateConfigRequest struct {
	TimeoutMinutes              int     `json:"timeout_minutes"`
	RateIncreasePerRoundPercent float64 `json:"rate_increase_per_round_percent"`
	AutoEscalate                bool    `json:"auto_escalate"`
	MaxCarriers                 int     `json:"max_carriers"`
}
