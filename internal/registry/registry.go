package registry

import (
	"context"

	"github.com/google/uuid"
	"github.com/shaiso/Cascade/internal/domain"
)

// Registry — конкуренто-безопасное хранилище waterfall runs по id.
//
// Registry сериализует доступ к набору runs, но не сериализует
// логически несвязанные runs между собой: пер-run дисциплина
// single-writer принадлежит движку (per-run lock).
//
// Update использует оптимистичную конкуренцию по run.Version:
// гонка step-резолюции и параллельного Cancel не может пройти
// дважды — проигравший получает ErrConflict и перечитывает.
type Registry interface {
	// Put сохраняет новый run. Только для создания:
	// ErrAlreadyExists, если id занят.
	Put(ctx context.Context, run *domain.WaterfallRun) error

	// Get возвращает консистентный снапшот run по id.
	// ErrNotFound, если run не существует.
	Get(ctx context.Context, id uuid.UUID) (*domain.WaterfallRun, error)

	// Update сохраняет изменённый run, сверяя run.Version с сохранённым.
	// При успехе инкрементирует Version (и в store, и в переданном run).
	// ErrConflict при несовпадении версий, ErrNotFound если run исчез.
	Update(ctx context.Context, run *domain.WaterfallRun) error

	// List возвращает снапшоты runs по фильтру.
	List(ctx context.Context, filter Filter) ([]domain.WaterfallRun, error)

	// ListActive возвращает все runs со статусом RUNNING.
	// Используется timeout-sweep'ом и восстановлением после рестарта.
	ListActive(ctx context.Context) ([]domain.WaterfallRun, error)

	// FindByStep возвращает run, которому принадлежит шаг (по step id),
	// включая завершённые runs. Поздний carrier-ответ на шаг отменённого
	// run'а должен стать no-op, а не 404.
	FindByStep(ctx context.Context, stepID uuid.UUID) (*domain.WaterfallRun, error)
}

// Filter — параметры фильтрации runs.
type Filter struct {
	ShipmentID string
	Status     domain.RunStatus
	Limit      int
	Offset     int
}
