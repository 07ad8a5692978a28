package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

// CreateCounterOffer регистрирует встречное предложение по шагу.
// POST /api/v1/counter-offers
func (h *Handler) CreateCounterOffer(w http.ResponseWriter, r *http.Request) {
	var req CreateCounterOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if req.StepID == uuid.Nil {
		BadRequest(w, "step_id is required")
		return
	}
	if req.CounterRate <= 0 {
		BadRequest(w, "counter_rate must be a positive amount of cents")
		return
	}

	run, err := h.engine.CreateCounterOffer(r.Context(), req.StepID, req.CounterRate, req.Notes)
	if HandleEngineError(w, h.logger, err, "step not found") {
		return
	}

	counter := run.PendingCounter()
	if counter == nil {
		InternalError(w, h.logger, nil)
		return
	}

	Created(w, CounterOfferFromDomain(*counter))
}

// AcceptCounterOffer принимает pending counter-offer run.
// POST /api/v1/waterfalls/{id}/counter-offers/accept
func (h *Handler) AcceptCounterOffer(w http.ResponseWriter, r *http.Request) {
	runID, counterID, ok := h.parseCounterResolution(w, r)
	if !ok {
		return
	}

	run, err := h.engine.AcceptCounterOffer(r.Context(), runID, counterID)
	if HandleEngineError(w, h.logger, err, "no pending counter-offer") {
		return
	}

	Success(w, RunFromDomain(*run))
}

// RejectCounterOffer отклоняет pending counter-offer run.
// POST /api/v1/waterfalls/{id}/counter-offers/reject
func (h *Handler) RejectCounterOffer(w http.ResponseWriter, r *http.Request) {
	runID, counterID, ok := h.parseCounterResolution(w, r)
	if !ok {
		return
	}

	run, err := h.engine.RejectCounterOffer(r.Context(), runID, counterID)
	if HandleEngineError(w, h.logger, err, "no pending counter-offer") {
		return
	}

	Success(w, RunFromDomain(*run))
}

// parseCounterResolution извлекает run id из пути и опциональный
// counter_offer_id из тела запроса.
func (h *Handler) parseCounterResolution(w http.ResponseWriter, r *http.Request) (runID, counterID uuid.UUID, ok bool) {
	runID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid waterfall id")
		return uuid.Nil, uuid.Nil, false
	}

	var req ResolveCounterOfferRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			BadRequest(w, "invalid request body")
			return uuid.Nil, uuid.Nil, false
		}
	}
	if req.CounterOfferID != nil {
		counterID = *req.CounterOfferID
	}

	return runID, counterID, true
}
