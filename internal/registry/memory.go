package registry

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/shaiso/Cascade/internal/domain"
)

// Memory — in-memory реализация Registry.
//
// Используется в тестах и при запуске без БД (DB_URL не задан).
// Все методы выдают глубокие копии: снимок run никогда не содержит
// данных двух разных шагов (no torn reads).
type Memory struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]*domain.WaterfallRun
}

// NewMemory создаёт пустой in-memory Registry.
func NewMemory() *Memory {
	return &Memory{
		runs: make(map[uuid.UUID]*domain.WaterfallRun),
	}
}

// Put сохраняет новый run.
func (m *Memory) Put(ctx context.Context, run *domain.WaterfallRun) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.runs[run.ID]; exists {
		return ErrAlreadyExists
	}

	run.Version = 1
	m.runs[run.ID] = run.Clone()
	return nil
}

// Get возвращает снапшот run по id.
func (m *Memory) Get(ctx context.Context, id uuid.UUID) (*domain.WaterfallRun, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	run, exists := m.runs[id]
	if !exists {
		return nil, ErrNotFound
	}
	return run.Clone(), nil
}

// Update сохраняет run с проверкой версии (compare-and-swap).
func (m *Memory) Update(ctx context.Context, run *domain.WaterfallRun) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stored, exists := m.runs[run.ID]
	if !exists {
		return ErrNotFound
	}
	if stored.Version != run.Version {
		return ErrConflict
	}

	run.Version++
	m.runs[run.ID] = run.Clone()
	return nil
}

// List возвращает снапшоты runs по фильтру, свежие первыми.
func (m *Memory) List(ctx context.Context, filter Filter) ([]domain.WaterfallRun, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []domain.WaterfallRun
	for _, run := range m.runs {
		if filter.ShipmentID != "" && run.ShipmentID != filter.ShipmentID {
			continue
		}
		if filter.Status != "" && run.Status != filter.Status {
			continue
		}
		result = append(result, *run.Clone())
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].StartedAt.After(result[j].StartedAt)
	})

	start := filter.Offset
	if start > len(result) {
		return nil, nil
	}
	end := len(result)
	if filter.Limit > 0 && start+filter.Limit < end {
		end = start + filter.Limit
	}
	return result[start:end], nil
}

// ListActive возвращает все runs в статусе RUNNING.
func (m *Memory) ListActive(ctx context.Context) ([]domain.WaterfallRun, error) {
	return m.List(ctx, Filter{Status: domain.RunStatusRunning})
}

// FindByStep возвращает run, которому принадлежит шаг с данным id.
func (m *Memory) FindByStep(ctx context.Context, stepID uuid.UUID) (*domain.WaterfallRun, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, run := range m.runs {
		if run.CurrentStep != nil && run.CurrentStep.ID == stepID {
			return run.Clone(), nil
		}
		for i := range run.History {
			if run.History[i].ID == stepID {
				return run.Clone(), nil
			}
		}
	}
	return nil, ErrNotFound
}
