package waterfall

import "errors"

// Ошибки движка.
var (
	// ErrNoCandidates — пустой список кандидатов при старте.
	// Run не создаётся.
	ErrNoCandidates = errors.New("no carrier candidates")

	// ErrInvalidRate — ставка не положительное число центов.
	ErrInvalidRate = errors.New("rate must be a positive amount of cents")

	// ErrInvalidState — операция невозможна в текущем состоянии
	// run/шага/counter-offer. Состояние не меняется.
	ErrInvalidState = errors.New("invalid state")

	// ErrNotFound — неизвестный run, шаг или counter-offer.
	ErrNotFound = errors.New("not found")

	// ErrConflict — оптимистичная конкуренция Registry не сошлась
	// после повторных попыток.
	ErrConflict = errors.New("concurrency conflict")

	// ErrRunAlreadyActive — run уже обрабатывается движком.
	ErrRunAlreadyActive = errors.New("run already being processed")

	// ErrNotPaused — advance вызван для run, который не ждёт
	// ручной эскалации.
	ErrNotPaused = errors.New("run is not awaiting manual advance")
)
