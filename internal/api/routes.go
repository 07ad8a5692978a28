package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
	)

	// Waterfalls
	mux.Handle("GET /api/v1/waterfalls", chain(http.HandlerFunc(h.ListWaterfalls)))
	mux.Handle("POST /api/v1/waterfalls", chain(http.HandlerFunc(h.StartWaterfall)))
	mux.Handle("GET /api/v1/waterfalls/{id}", chain(http.HandlerFunc(h.GetWaterfall)))
	mux.Handle("POST /api/v1/waterfalls/{id}/cancel", chain(http.HandlerFunc(h.CancelWaterfall)))
	mux.Handle("POST /api/v1/waterfalls/{id}/advance", chain(http.HandlerFunc(h.AdvanceWaterfall)))

	// Carrier responses (portal/EDI callback)
	mux.Handle("POST /api/v1/steps/{id}/respond", chain(http.HandlerFunc(h.RespondToStep)))

	// Negotiation
	mux.Handle("POST /api/v1/counter-offers", chain(http.HandlerFunc(h.CreateCounterOffer)))
	mux.Handle("POST /api/v1/waterfalls/{id}/counter-offers/accept", chain(http.HandlerFunc(h.AcceptCounterOffer)))
	mux.Handle("POST /api/v1/waterfalls/{id}/counter-offers/reject", chain(http.HandlerFunc(h.RejectCounterOffer)))

	// Config (process-wide defaults)
	mux.Handle("GET /api/v1/config", chain(http.HandlerFunc(h.GetConfig)))
	mux.Handle("POST /api/v1/config", chain(http.HandlerFunc(h.UpdateConfig)))
}
