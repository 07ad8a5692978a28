package ranking

import (
	"context"

	"github.com/shaiso/Cascade/internal/domain"
)

// Provider — внешний Carrier Ranking Provider.
//
// Движок потребляет, но не реализует ranking: скоринг перевозчиков —
// pluggable-эвристика внешнего сервиса. Возвращаемый список упорядочен
// по убыванию score.
type Provider interface {
	Rank(ctx context.Context, shipmentID string) ([]domain.CarrierCandidate, error)
}

// Directory — read-only справочник перевозчиков для display-полей.
// Используется, когда список кандидатов задан явно и имена
// нужно дотянуть отдельно.
type Directory interface {
	// Lookup возвращает имя перевозчика.
	// Ошибка не фатальна: имя деградирует до пустого.
	Lookup(ctx context.Context, carrierID string) (string, error)
}
