package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Конфигурация по умолчанию.
const (
	DefaultTimeoutMinutes = 30
	DefaultMaxCarriers    = 5
)

// WaterfallConfig — конфигурация waterfall.
//
// Существует как процессный дефолт (правится через API) и как
// эффективная конфигурация run: оверрайды старта поверх дефолтов.
// После старта конфигурация run не меняется.
type WaterfallConfig struct {
	// TimeoutMinutes — дедлайн ответа перевозчика на один шаг.
	TimeoutMinutes int `json:"timeout_minutes"`

	// RateIncreasePerRoundPercent — процент повышения ставки при
	// переходе к следующему кандидату после decline/expire.
	// 0 — ставка не растёт.
	RateIncreasePerRoundPercent float64 `json:"rate_increase_per_round_percent"`

	// AutoEscalate — эскалировать ли автоматически по таймауту.
	// false: таймаут помечает шаг EXPIRED, run ждёт явного advance.
	AutoEscalate bool `json:"auto_escalate"`

	// MaxCarriers — максимум кандидатов из Ranking Provider.
	// Не обрезает явно переданный список.
	MaxCarriers int `json:"max_carriers"`
}

// DefaultConfig возвращает процессные дефолты.
func DefaultConfig() WaterfallConfig {
	return WaterfallConfig{
		TimeoutMinutes: DefaultTimeoutMinutes,
		AutoEscalate:   true,
		MaxCarriers:    DefaultMaxCarriers,
	}
}

// StepTimeout возвращает дедлайн шага как Duration.
func (c WaterfallConfig) StepTimeout() time.Duration {
	minutes := c.TimeoutMinutes
	if minutes <= 0 {
		minutes = DefaultTimeoutMinutes
	}
	return time.Duration(minutes) * time.Minute
}

// NextRate возвращает ставку следующего раунда в центах.
//
// rate * (1 + percent/100), округление half up — ставка в целых центах,
// дробных центов не остаётся. При нулевом проценте ставка не меняется.
// Decimal-арифметика, чтобы не ловить float-погрешности на деньгах.
func (c WaterfallConfig) NextRate(rate int64) int64 {
	if c.RateIncreasePerRoundPercent <= 0 {
		return rate
	}

	factor := decimal.NewFromFloat(c.RateIncreasePerRoundPercent).
		Div(decimal.NewFromInt(100)).
		Add(decimal.NewFromInt(1))

	// decimal.Round — half away from zero; для положительных ставок
	// это и есть round half up.
	return decimal.NewFromInt(rate).Mul(factor).Round(0).IntPart()
}

// Merge возвращает конфигурацию run: оверрайды поверх дефолтов.
// Nil-поля оверрайда означают "взять дефолт".
func (c WaterfallConfig) Merge(o ConfigOverrides) WaterfallConfig {
	out := c
	if o.TimeoutMinutes != nil && *o.TimeoutMinutes > 0 {
		out.TimeoutMinutes = *o.TimeoutMinutes
	}
	if o.RateIncreasePerRoundPercent != nil && *o.RateIncreasePerRoundPercent >= 0 {
		out.RateIncreasePerRoundPercent = *o.RateIncreasePerRoundPercent
	}
	if o.AutoEscalate != nil {
		out.AutoEscalate = *o.AutoEscalate
	}
	if o.MaxCarriers != nil && *o.MaxCarriers > 0 {
		out.MaxCarriers = *o.MaxCarriers
	}
	return out
}

// ConfigOverrides — пер-run оверрайды конфигурации, принятые при старте.
type ConfigOverrides struct {
	TimeoutMinutes              *int     `json:"timeout_minutes,omitempty"`
	RateIncreasePerRoundPercent *float64 `json:"rate_increase_per_round_percent,omitempty"`
	AutoEscalate                *bool    `json:"auto_escalate,omitempty"`
	MaxCarriers                 *int     `json:"max_carriers,omitempty"`
}
