package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shaiso/Cascade/internal/domain"
	"github.com/shaiso/Cascade/internal/registry"
	"github.com/shaiso/Cascade/internal/waterfall"
)

// --- Test Helpers ---

type stubProvider struct {
	candidates []domain.CarrierCandidate
}

func (p stubProvider) Rank(ctx context.Context, shipmentID string) ([]domain.CarrierCandidate, error) {
	return p.candidates, nil
}

func newTestServer(t *testing.T, numCandidates int) (*httptest.Server, *waterfall.Engine) {
	t.Helper()

	candidates := make([]domain.CarrierCandidate, numCandidates)
	for i := range candidates {
		candidates[i] = domain.CarrierCandidate{
			CarrierID:   fmt.Sprintf("carrier-%d", i+1),
			CarrierName: fmt.Sprintf("Carrier %d", i+1),
		}
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := waterfall.New(waterfall.Config{
		Registry: registry.NewMemory(),
		Provider: stubProvider{candidates: candidates},
		Logger:   logger,
	})

	handler := NewHandler(Config{Engine: engine, Logger: logger})
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, engine
}

func doRequest(t *testing.T, srv *httptest.Server, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, srv.URL+path, reqBody)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp, data
}

func decodeRun(t *testing.T, data []byte) RunResponse {
	t.Helper()
	var envelope struct {
		Data RunResponse `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		t.Fatalf("decode run response: %v\nbody: %s", err, data)
	}
	return envelope.Data
}

func decodeError(t *testing.T, data []byte) ErrorDetail {
	t.Helper()
	var envelope ErrorResponse
	if err := json.Unmarshal(data, &envelope); err != nil {
		t.Fatalf("decode error response: %v\nbody: %s", err, data)
	}
	return envelope.Error
}

func startWaterfall(t *testing.T, srv *httptest.Server, req StartWaterfallRequest) RunResponse {
	t.Helper()
	resp, body := doRequest(t, srv, http.MethodPost, "/api/v1/waterfalls", req)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, body)
	}
	return decodeRun(t, body)
}

// --- Waterfall Endpoint Tests ---

func TestAPI_StartWaterfall(t *testing.T) {
	srv, _ := newTestServer(t, 3)

	run := startWaterfall(t, srv, StartWaterfallRequest{
		ShipmentID:  "SHIP-1001",
		OfferedRate: 100000,
	})

	if run.Status != string(domain.RunStatusRunning) {
		t.Errorf("expected RUNNING, got %s", run.Status)
	}
	if run.TotalCarriers != 3 {
		t.Errorf("expected 3 carriers, got %d", run.TotalCarriers)
	}
	if run.CurrentStep == nil {
		t.Fatal("expected an in-flight step in the response")
	}
	if run.CurrentStep.CarrierID != "carrier-1" {
		t.Errorf("unexpected first carrier: %s", run.CurrentStep.CarrierID)
	}
}

func TestAPI_StartWaterfall_Validation(t *testing.T) {
	srv, _ := newTestServer(t, 3)

	resp, body := doRequest(t, srv, http.MethodPost, "/api/v1/waterfalls", StartWaterfallRequest{
		OfferedRate: 100000,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing shipment_id: expected 400, got %d: %s", resp.StatusCode, body)
	}

	resp, body = doRequest(t, srv, http.MethodPost, "/api/v1/waterfalls", StartWaterfallRequest{
		ShipmentID: "SHIP-1001",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing offered_rate: expected 400, got %d: %s", resp.StatusCode, body)
	}
}

func TestAPI_StartWaterfall_NoCandidates(t *testing.T) {
	srv, _ := newTestServer(t, 0)

	resp, body := doRequest(t, srv, http.MethodPost, "/api/v1/waterfalls", StartWaterfallRequest{
		ShipmentID:  "SHIP-1001",
		OfferedRate: 100000,
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", resp.StatusCode, body)
	}
	if detail := decodeError(t, body); detail.Code != ErrCodeNoCandidates {
		t.Errorf("expected NO_CANDIDATES, got %s", detail.Code)
	}
}

func TestAPI_GetWaterfall(t *testing.T) {
	srv, _ := newTestServer(t, 2)
	run := startWaterfall(t, srv, StartWaterfallRequest{ShipmentID: "SHIP-1001", OfferedRate: 100000})

	resp, body := doRequest(t, srv, http.MethodGet, "/api/v1/waterfalls/"+run.ID.String(), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	got := decodeRun(t, body)
	if got.ID != run.ID || got.ShipmentID != "SHIP-1001" {
		t.Error("response does not match the started run")
	}
}

func TestAPI_GetWaterfall_NotFound(t *testing.T) {
	srv, _ := newTestServer(t, 1)

	resp, body := doRequest(t, srv, http.MethodGet, "/api/v1/waterfalls/6b1e815e-54f4-4e25-9091-2b9a0f0c6a40", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d: %s", resp.StatusCode, body)
	}

	resp, body = doRequest(t, srv, http.MethodGet, "/api/v1/waterfalls/not-a-uuid", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed id, got %d: %s", resp.StatusCode, body)
	}
}

func TestAPI_ListWaterfalls(t *testing.T) {
	srv, _ := newTestServer(t, 1)
	startWaterfall(t, srv, StartWaterfallRequest{ShipmentID: "SHIP-1", OfferedRate: 100000})
	startWaterfall(t, srv, StartWaterfallRequest{ShipmentID: "SHIP-2", OfferedRate: 100000})

	resp, body := doRequest(t, srv, http.MethodGet, "/api/v1/waterfalls", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}

	var envelope struct {
		Data  []RunResponse `json:"data"`
		Total int           `json:"total"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if envelope.Total != 2 || len(envelope.Data) != 2 {
		t.Errorf("expected 2 runs, got total=%d len=%d", envelope.Total, len(envelope.Data))
	}

	resp, body = doRequest(t, srv, http.MethodGet, "/api/v1/waterfalls?shipment_id=SHIP-2", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(envelope.Data) != 1 || envelope.Data[0].ShipmentID != "SHIP-2" {
		t.Error("shipment filter not applied")
	}
}

func TestAPI_CancelWaterfall(t *testing.T) {
	srv, _ := newTestServer(t, 2)
	run := startWaterfall(t, srv, StartWaterfallRequest{ShipmentID: "SHIP-1001", OfferedRate: 100000})

	path := "/api/v1/waterfalls/" + run.ID.String() + "/cancel"
	resp, body := doRequest(t, srv, http.MethodPost, path, CancelWaterfallRequest{Reason: "covered elsewhere"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	got := decodeRun(t, body)
	if got.Status != string(domain.RunStatusCancelled) {
		t.Errorf("expected CANCELLED, got %s", got.Status)
	}
	if got.CancelReason != "covered elsewhere" {
		t.Errorf("unexpected cancel reason: %q", got.CancelReason)
	}

	// Cancel is idempotent: repeating it returns the same terminal run.
	resp, body = doRequest(t, srv, http.MethodPost, path, CancelWaterfallRequest{Reason: "other reason"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("repeated cancel: expected 200, got %d: %s", resp.StatusCode, body)
	}
	got = decodeRun(t, body)
	if got.CancelReason != "covered elsewhere" {
		t.Errorf("repeated cancel must not overwrite the reason: %q", got.CancelReason)
	}
}

// --- Carrier Response Endpoint Tests ---

func TestAPI_RespondToStep(t *testing.T) {
	srv, _ := newTestServer(t, 2)
	run := startWaterfall(t, srv, StartWaterfallRequest{ShipmentID: "SHIP-1001", OfferedRate: 100000})

	path := "/api/v1/steps/" + run.CurrentStep.ID.String() + "/respond"
	resp, body := doRequest(t, srv, http.MethodPost, path, RespondRequest{Response: "declined", Notes: "no trucks"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	got := decodeRun(t, body)
	if got.CurrentStep == nil || got.CurrentStep.CarrierID != "carrier-2" {
		t.Fatal("decline should move the offer to the next carrier")
	}

	path = "/api/v1/steps/" + got.CurrentStep.ID.String() + "/respond"
	resp, body = doRequest(t, srv, http.MethodPost, path, RespondRequest{Response: "accepted"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	got = decodeRun(t, body)
	if got.Status != string(domain.RunStatusAccepted) {
		t.Errorf("expected ACCEPTED, got %s", got.Status)
	}
	if got.WinningCarrierID != "carrier-2" {
		t.Errorf("unexpected winner: %s", got.WinningCarrierID)
	}
}

func TestAPI_RespondToStep_Validation(t *testing.T) {
	srv, _ := newTestServer(t, 1)
	run := startWaterfall(t, srv, StartWaterfallRequest{ShipmentID: "SHIP-1001", OfferedRate: 100000})

	path := "/api/v1/steps/" + run.CurrentStep.ID.String() + "/respond"
	resp, body := doRequest(t, srv, http.MethodPost, path, RespondRequest{Response: "maybe"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown response, got %d: %s", resp.StatusCode, body)
	}

	resp, body = doRequest(t, srv, http.MethodPost,
		"/api/v1/steps/6b1e815e-54f4-4e25-9091-2b9a0f0c6a40/respond",
		RespondRequest{Response: "accepted"})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown step, got %d: %s", resp.StatusCode, body)
	}
}

// --- Negotiation Endpoint Tests ---

func TestAPI_CounterOfferFlow(t *testing.T) {
	srv, _ := newTestServer(t, 2)
	run := startWaterfall(t, srv, StartWaterfallRequest{ShipmentID: "SHIP-1001", OfferedRate: 100000})

	resp, body := doRequest(t, srv, http.MethodPost, "/api/v1/counter-offers", CreateCounterOfferRequest{
		StepID:      run.CurrentStep.ID,
		CounterRate: 115000,
		Notes:       "fuel surcharge",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, body)
	}
	var counterEnvelope struct {
		Data CounterOfferResponse `json:"data"`
	}
	if err := json.Unmarshal(body, &counterEnvelope); err != nil {
		t.Fatalf("decode counter: %v", err)
	}
	counter := counterEnvelope.Data
	if counter.Status != string(domain.CounterStatusPending) {
		t.Errorf("expected PENDING counter, got %s", counter.Status)
	}
	if counter.CounterRate != 115000 {
		t.Errorf("unexpected counter rate: %d", counter.CounterRate)
	}

	acceptPath := "/api/v1/waterfalls/" + run.ID.String() + "/counter-offers/accept"
	resp, body = doRequest(t, srv, http.MethodPost, acceptPath, ResolveCounterOfferRequest{CounterOfferID: &counter.ID})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	got := decodeRun(t, body)
	if got.Status != string(domain.RunStatusAccepted) {
		t.Errorf("expected ACCEPTED, got %s", got.Status)
	}
	if got.CurrentRate != 115000 {
		t.Errorf("winning rate should be the counter rate, got %d", got.CurrentRate)
	}
}

func TestAPI_RejectCounterOffer(t *testing.T) {
	srv, _ := newTestServer(t, 2)
	run := startWaterfall(t, srv, StartWaterfallRequest{ShipmentID: "SHIP-1001", OfferedRate: 100000})

	resp, body := doRequest(t, srv, http.MethodPost, "/api/v1/counter-offers", CreateCounterOfferRequest{
		StepID:      run.CurrentStep.ID,
		CounterRate: 130000,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, body)
	}

	rejectPath := "/api/v1/waterfalls/" + run.ID.String() + "/counter-offers/reject"
	resp, body = doRequest(t, srv, http.MethodPost, rejectPath, ResolveCounterOfferRequest{})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	got := decodeRun(t, body)
	if got.Status != string(domain.RunStatusRunning) {
		t.Fatalf("expected RUNNING after reject, got %s", got.Status)
	}
	if got.CurrentStep == nil || got.CurrentStep.CarrierID != "carrier-2" {
		t.Error("rejecting the counter should escalate to the next carrier")
	}
}

func TestAPI_AcceptCounterOffer_NonePending(t *testing.T) {
	srv, _ := newTestServer(t, 1)
	run := startWaterfall(t, srv, StartWaterfallRequest{ShipmentID: "SHIP-1001", OfferedRate: 100000})

	path := "/api/v1/waterfalls/" + run.ID.String() + "/counter-offers/accept"
	resp, body := doRequest(t, srv, http.MethodPost, path, ResolveCounterOfferRequest{})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 without a pending counter, got %d: %s", resp.StatusCode, body)
	}
}

// --- Advance Endpoint Tests ---

func TestAPI_AdvanceWaterfall_NotPaused(t *testing.T) {
	srv, _ := newTestServer(t, 2)
	run := startWaterfall(t, srv, StartWaterfallRequest{ShipmentID: "SHIP-1001", OfferedRate: 100000})

	path := "/api/v1/waterfalls/" + run.ID.String() + "/advance"
	resp, body := doRequest(t, srv, http.MethodPost, path, nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("advance with an in-flight step: expected 422, got %d: %s", resp.StatusCode, body)
	}
}

// --- Config Endpoint Tests ---

func TestAPI_Config(t *testing.T) {
	srv, _ := newTestServer(t, 1)

	resp, body := doRequest(t, srv, http.MethodGet, "/api/v1/config", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	var envelope struct {
		Data domain.WaterfallConfig `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if envelope.Data.TimeoutMinutes != domain.DefaultTimeoutMinutes {
		t.Errorf("unexpected default timeout: %d", envelope.Data.TimeoutMinutes)
	}

	update := UpdateConfigRequest{
		TimeoutMinutes:              20,
		RateIncreasePerRoundPercent: 3,
		AutoEscalate:                false,
		MaxCarriers:                 7,
	}
	resp, body = doRequest(t, srv, http.MethodPost, "/api/v1/config", update)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if envelope.Data.TimeoutMinutes != 20 || envelope.Data.MaxCarriers != 7 {
		t.Errorf("config not updated: %+v", envelope.Data)
	}

	bad := UpdateConfigRequest{TimeoutMinutes: 0, MaxCarriers: 5}
	resp, body = doRequest(t, srv, http.MethodPost, "/api/v1/config", bad)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for invalid config, got %d: %s", resp.StatusCode, body)
	}
}
