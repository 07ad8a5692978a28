package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/shaiso/Cascade/internal/domain"
	"github.com/shaiso/Cascade/internal/registry"
	"github.com/shaiso/Cascade/internal/waterfall"
)

// ListWaterfalls возвращает список runs с фильтрацией.
// GET /api/v1/waterfalls?shipment_id=...&status=...&limit=...&offset=...
func (h *Handler) ListWaterfalls(w http.ResponseWriter, r *http.Request) {
	filter := registry.Filter{
		ShipmentID: r.URL.Query().Get("shipment_id"),
		Status:     domain.RunStatus(r.URL.Query().Get("status")),
		Limit:      parseIntParam(r, "limit", 50),
		Offset:     parseIntParam(r, "offset", 0),
	}

	runs, err := h.engine.ListRuns(r.Context(), filter)
	if HandleEngineError(w, h.logger, err, "") {
		return
	}

	result := make([]RunResponse, len(runs))
	for i, run := range runs {
		result[i] = RunFromDomain(run)
	}

	List(w, result, len(result))
}

// StartWaterfall запускает новый waterfall run.
// POST /api/v1/waterfalls
func (h *Handler) StartWaterfall(w http.ResponseWriter, r *http.Request) {
	var req StartWaterfallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if req.ShipmentID == "" {
		BadRequest(w, "shipment_id is required")
		return
	}
	if req.OfferedRate <= 0 {
		BadRequest(w, "offered_rate must be a positive amount of cents")
		return
	}

	run, err := h.engine.StartWaterfall(r.Context(), waterfall.StartRequest{
		ShipmentID:  req.ShipmentID,
		CarrierIDs:  req.CarrierIDs,
		OfferedRate: req.OfferedRate,
		Overrides:   req.Overrides(),
		Notes:       req.Notes,
	})
	if HandleEngineError(w, h.logger, err, "shipment not found") {
		return
	}

	Created(w, RunFromDomain(*run))
}

// GetWaterfall возвращает снимок run по ID.
// GET /api/v1/waterfalls/{id}
func (h *Handler) GetWaterfall(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid waterfall id")
		return
	}

	run, err := h.engine.GetRun(r.Context(), id)
	if HandleEngineError(w, h.logger, err, "waterfall not found") {
		return
	}

	Success(w, RunFromDomain(*run))
}

// CancelWaterfall отменяет run.
// POST /api/v1/waterfalls/{id}/cancel
func (h *Handler) CancelWaterfall(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid waterfall id")
		return
	}

	var req CancelWaterfallRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			BadRequest(w, "invalid request body")
			return
		}
	}

	run, err := h.engine.Cancel(r.Context(), id, req.Reason)
	if HandleEngineError(w, h.logger, err, "waterfall not found") {
		return
	}

	Success(w, RunFromDomain(*run))
}

// AdvanceWaterfall вручную эскалирует приостановленный run.
// POST /api/v1/waterfalls/{id}/advance
func (h *Handler) AdvanceWaterfall(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid waterfall id")
		return
	}

	run, err := h.engine.Advance(r.Context(), id)
	if HandleEngineError(w, h.logger, err, "waterfall not found") {
		return
	}

	Success(w, RunFromDomain(*run))
}

// RespondToStep применяет ответ перевозчика к шагу.
// POST /api/v1/steps/{id}/respond
func (h *Handler) RespondToStep(w http.ResponseWriter, r *http.Request) {
	stepID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid step id")
		return
	}

	var req RespondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	switch req.Response {
	case waterfall.ResponseAccepted, waterfall.ResponseDeclined, waterfall.ResponseCountered:
	default:
		BadRequest(w, "response must be accepted, declined or countered")
		return
	}

	run, err := h.engine.RespondToStep(r.Context(), stepID, req.Response, req.CounterRate, req.Notes)
	if HandleEngineError(w, h.logger, err, "step not found") {
		return
	}

	Success(w, RunFromDomain(*run))
}

// parseIntParam парсит числовой query-параметр с дефолтным значением.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return defaultVal
	}
	return n
}
