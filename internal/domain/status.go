package domain

// RunStatus — статус waterfall run.
//
// Жизненный цикл:
//
//	PENDING → RUNNING → ACCEPTED
//	                  ↘ EXHAUSTED
//	          (или) → CANCELLED (из RUNNING)
type RunStatus string

const (
	// RunStatusPending — run создан, но первый шаг ещё не отправлен.
	RunStatusPending RunStatus = "PENDING"

	// RunStatusRunning — run в процессе: есть in-flight шаг
	// или run ожидает ручного advance.
	RunStatusRunning RunStatus = "RUNNING"

	// RunStatusAccepted — перевозчик принял тендер, run завершён.
	RunStatusAccepted RunStatus = "ACCEPTED"

	// RunStatusExhausted — все кандидаты отказались или не ответили.
	RunStatusExhausted RunStatus = "EXHAUSTED"

	// RunStatusCancelled — run отменён диспетчером.
	RunStatusCancelled RunStatus = "CANCELLED"
)

// IsTerminal возвращает true, если статус финальный (run завершён).
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusAccepted, RunStatusExhausted, RunStatusCancelled:
		return true
	default:
		return false
	}
}

// StepStatus — статус одного тендерного шага.
//
// Жизненный цикл:
//
//	SENT → ACCEPTED
//	     ↘ DECLINED
//	     ↘ EXPIRED (таймаут или административно при cancel)
//	     ↘ COUNTERED → ACCEPTED (counter принят)
//	                 ↘ DECLINED (counter отклонён)
type StepStatus string

const (
	// StepStatusSent — оффер отправлен перевозчику, ответа ещё нет.
	StepStatusSent StepStatus = "SENT"

	// StepStatusAccepted — перевозчик принял оффер.
	StepStatusAccepted StepStatus = "ACCEPTED"

	// StepStatusDeclined — перевозчик отказался.
	StepStatusDeclined StepStatus = "DECLINED"

	// StepStatusExpired — оффер истёк по таймауту.
	StepStatusExpired StepStatus = "EXPIRED"

	// StepStatusCountered — перевозчик выставил встречное предложение.
	// Не финальный: шаг ждёт разрешения counter-offer.
	StepStatusCountered StepStatus = "COUNTERED"
)

// IsTerminal возвращает true, если статус финальный.
// COUNTERED не финальный — шаг ещё может стать ACCEPTED или DECLINED.
func (s StepStatus) IsTerminal() bool {
	switch s {
	case StepStatusAccepted, StepStatusDeclined, StepStatusExpired:
		return true
	default:
		return false
	}
}

// CounterStatus — статус встречного предложения.
//
// Жизненный цикл:
//
//	PENDING → ACCEPTED
//	        ↘ REJECTED
type CounterStatus string

const (
	// CounterStatusPending — counter-offer ждёт решения инициатора.
	CounterStatusPending CounterStatus = "PENDING"

	// CounterStatusAccepted — counter принят, run завершается ACCEPTED.
	CounterStatusAccepted CounterStatus = "ACCEPTED"

	// CounterStatusRejected — counter отклонён, шаг считается DECLINED.
	CounterStatusRejected CounterStatus = "REJECTED"
)

// IsResolved возвращает true, если по counter-offer принято решение.
func (s CounterStatus) IsResolved() bool {
	return s == CounterStatusAccepted || s == CounterStatusRejected
}

// ResolutionReason — причина финального перехода run.
// Логируется и публикуется в audit-событии.
type ResolutionReason string

const (
	ReasonAccepted        ResolutionReason = "accepted"
	ReasonExhausted       ResolutionReason = "exhausted"
	ReasonCancelled       ResolutionReason = "cancelled"
	ReasonCounterAccepted ResolutionReason = "counter_accepted"
)
