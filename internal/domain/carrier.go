package domain

// CarrierCandidate — кандидат из Ranking Provider.
//
// Список кандидатов упорядочен по убыванию score и фиксируется
// на момент старта run.
type CarrierCandidate struct {
	// CarrierID — идентификатор перевозчика во внешнем сервисе.
	CarrierID string `json:"carrier_id"`

	// CarrierName — имя для отображения.
	CarrierName string `json:"carrier_name,omitempty"`

	// EstimatedCost — оценка стоимости в центах от ranking-модели.
	EstimatedCost int64 `json:"estimated_cost,omitempty"`

	// Score — скор ranking-модели. Чем выше, тем раньше в waterfall.
	Score float64 `json:"score,omitempty"`
}
