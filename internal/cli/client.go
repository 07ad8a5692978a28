package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// CounterOfferResponse — counter-offer из API.
type CounterOfferResponse struct {
	ID          string `json:"id"`
	StepID      string `json:"step_id"`
	CounterRate int64  `json:"counter_rate"`
	Notes       string `json:"notes,omitempty"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
	ResolvedAt  string `json:"resolved_at,omitempty"`
}

// StepResponse — тендерный шаг из API.
type StepResponse struct {
	ID          string                `json:"id"`
	RunID       string                `json:"run_id"`
	StepNumber  int                   `json:"step_number"`
	CarrierID   string                `json:"carrier_id"`
	CarrierName string                `json:"carrier_name,omitempty"`
	OfferedRate int64                 `json:"offered_rate"`
	Status      string                `json:"status"`
	Counter     *CounterOfferResponse `json:"counter_offer,omitempty"`
	Notes       string                `json:"notes,omitempty"`
	SentAt      string                `json:"sent_at"`
	Deadline    string                `json:"deadline"`
	ResolvedAt  string                `json:"resolved_at,omitempty"`
}

// RunResponse — waterfall run из API.
type RunResponse struct {
	ID               string         `json:"waterfall_id"`
	ShipmentID       string         `json:"shipment_id"`
	Status           string         `json:"status"`
	BaseRate         int64          `json:"base_rate"`
	CurrentRate      int64          `json:"current_rate"`
	CurrentStepIndex int            `json:"current_step_index"`
	TotalCarriers    int            `json:"total_carriers"`
	WinningCarrierID string         `json:"winning_carrier_id,omitempty"`
	Config           ConfigResponse `json:"config"`
	Notes            string         `json:"notes,omitempty"`
	CancelReason     string         `json:"cancel_reason,omitempty"`
	Steps            []StepResponse `json:"steps"`
	CurrentStep      *StepResponse  `json:"current_step,omitempty"`
	StartedAt        string         `json:"started_at"`
	CompletedAt      string         `json:"completed_at,omitempty"`
}

// ConfigResponse — waterfall-конфигурация из API.
type ConfigResponse struct {
	TimeoutMinutes              int     `json:"timeout_minutes"`
	RateIncreasePerRoundPercent float64 `json:"rate_increase_per_round_percent"`
	AutoEscalate                bool    `json:"auto_escalate"`
	MaxCarriers                 int     `json:"max_carriers"`
}

// --- Request types ---

// StartWaterfallRequest — запуск waterfall.
type StartWaterfallRequest struct {
	ShipmentID                  string   `json:"shipment_id"`
	CarrierIDs                  []string `json:"carrier_ids,omitempty"`
	OfferedRate                 int64    `json:"offered_rate"`
	TimeoutMinutes              *int     `json:"timeout_minutes,omitempty"`
	RateIncreasePerRoundPercent *float64 `json:"rate_increase_per_round_percent,omitempty"`
	AutoEscalate                *bool    `json:"auto_escalate,omitempty"`
	MaxCarriers                 *int     `json:"max_carriers,omitempty"`
	Notes                       string   `json:"notes,omitempty"`
}

// RespondRequest — ответ перевозчика на оффер.
type RespondRequest struct {
	Response    string `json:"response"`
	CounterRate int64  `json:"counter_rate,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// CreateCounterOfferRequest — создание counter-offer.
type CreateCounterOfferRequest struct {
	StepID      string `json:"step_id"`
	CounterRate int64  `json:"counter_rate"`
	Notes       string `json:"notes,omitempty"`
}

// ListWaterfallsOpts — параметры фильтрации runs.
type ListWaterfallsOpts struct {
	ShipmentID string
	Status     string
	Limit      int
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для Cascade API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Waterfalls ---

// ListWaterfalls возвращает список runs с фильтрацией.
func (c *Client) ListWaterfalls(opts ListWaterfallsOpts) ([]RunResponse, error) {
	params := url.Values{}
	if opts.ShipmentID != "" {
		params.Set("shipment_id", opts.ShipmentID)
	}
	if opts.Status != "" {
		params.Set("status", opts.Status)
	}
	if opts.Limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", opts.Limit))
	}

	var runs []RunResponse
	err := c.list("/api/v1/waterfalls", params, &runs)
	return runs, err
}

// StartWaterfall запускает новый waterfall run.
func (c *Client) StartWaterfall(req StartWaterfallRequest) (*RunResponse, error) {
	var run RunResponse
	err := c.post("/api/v1/waterfalls", req, &run)
	return &run, err
}

// GetWaterfall возвращает run по ID.
func (c *Client) GetWaterfall(id string) (*RunResponse, error) {
	var run RunResponse
	err := c.get("/api/v1/waterfalls/"+id, &run)
	return &run, err
}

// CancelWaterfall отменяет run.
func (c *Client) CancelWaterfall(id, reason string) (*RunResponse, error) {
	body := map[string]string{}
	if reason != "" {
		body["reason"] = reason
	}
	var run RunResponse
	err := c.post("/api/v1/waterfalls/"+id+"/cancel", body, &run)
	return &run, err
}

// AdvanceWaterfall вручную эскалирует приостановленный run.
func (c *Client) AdvanceWaterfall(id string) (*RunResponse, error) {
	var run RunResponse
	err := c.post("/api/v1/waterfalls/"+id+"/advance", nil, &run)
	return &run, err
}

// --- Steps & negotiation ---

// RespondToStep применяет ответ перевозчика к шагу.
func (c *Client) RespondToStep(stepID string, req RespondRequest) (*RunResponse, error) {
	var run RunResponse
	err := c.post("/api/v1/steps/"+stepID+"/respond", req, &run)
	return &run, err
}

// CreateCounterOffer регистрирует встречное предложение по шагу.
func (c *Client) CreateCounterOffer(req CreateCounterOfferRequest) (*CounterOfferResponse, error) {
	var counter CounterOfferResponse
	err := c.post("/api/v1/counter-offers", req, &counter)
	return &counter, err
}

// AcceptCounterOffer принимает pending counter-offer run.
func (c *Client) AcceptCounterOffer(runID, counterID string) (*RunResponse, error) {
	body := map[string]string{}
	if counterID != "" {
		body["counter_offer_id"] = counterID
	}
	var run RunResponse
	err := c.post("/api/v1/waterfalls/"+runID+"/counter-offers/accept", body, &run)
	return &run, err
}

// RejectCounterOffer отклоняет pending counter-offer run.
func (c *Client) RejectCounterOffer(runID, counterID string) (*RunResponse, error) {
	body := map[string]string{}
	if counterID != "" {
		body["counter_offer_id"] = counterID
	}
	var run RunResponse
	err := c.post("/api/v1/waterfalls/"+runID+"/counter-offers/reject", body, &run)
	return &run, err
}

// --- Config ---

// GetConfig возвращает процессные дефолты конфигурации.
func (c *Client) GetConfig() (*ConfigResponse, error) {
	var cfg ConfigResponse
	err := c.get("/api/v1/config", &cfg)
	return &cfg, err
}

// UpdateConfig заменяет процессные дефолты.
func (c *Client) UpdateConfig(cfg ConfigResponse) (*ConfigResponse, error) {
	var updated ConfigResponse
	err := c.post("/api/v1/config", cfg, &updated)
	return &updated, err
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) list(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	// 204 No Content
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}
