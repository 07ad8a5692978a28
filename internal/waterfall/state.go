package waterfall

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Cascade/internal/domain"
)

// runState — состояние одного run в памяти движка.
//
// runState создаётся при старте run (или при восстановлении после
// рестарта) и удаляется, когда run достигает финального статуса.
//
// mu — актор-дисциплина run: любая мутация (ответ перевозчика,
// таймаут, cancel, решение по counter-offer) берёт lock на всё время
// применения. Разные runs независимы и мутируются параллельно.
type runState struct {
	mu sync.Mutex

	// run — авторитетная in-memory копия.
	// Registry хранит её durable-снимок.
	run *domain.WaterfallRun

	// timer — армированный дедлайн in-flight шага.
	// Nil, если шага нет или шаг ждёт решения по counter-offer.
	timer *time.Timer
}

func newRunState(run *domain.WaterfallRun) *runState {
	return &runState{run: run}
}

// RunID возвращает ID run.
func (s *runState) RunID() uuid.UUID {
	return s.run.ID
}

// stopTimerLocked снимает армированный таймер шага.
// Вызывается под s.mu: резолюция шага любым путём гасит его дедлайн,
// чтобы устаревший callback не просыпался зря.
func (s *runState) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// snapshotLocked возвращает глубокую копию run.
// Вызывается под s.mu — снимок не смешивает данные двух мутаций.
func (s *runState) snapshotLocked() *domain.WaterfallRun {
	return s.run.Clone()
}
