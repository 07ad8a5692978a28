package api

import (
	"encoding/json"
	"net/http"

	"github.com/shaiso/Cascade/internal/domain"
)

// GetConfig возвращает процессные дефолты waterfall-конфигурации.
// GET /api/v1/config
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	Success(w, h.engine.Defaults())
}

// UpdateConfig заменяет процессные дефолты.
// Действует только на новые runs.
// POST /api/v1/config
func (h *Handler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req UpdateConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	cfg := domain.WaterfallConfig{
		TimeoutMinutes:              req.TimeoutMinutes,
		RateIncreasePerRoundPercent: req.RateIncreasePerRoundPercent,
		AutoEscalate:                req.AutoEscalate,
		MaxCarriers:                 req.MaxCarriers,
	}

	if err := h.engine.SetDefaults(cfg); err != nil {
		HandleEngineError(w, h.logger, err, "")
		return
	}

	Success(w, h.engine.Defaults())
}
