package ranking

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shaiso/Cascade/internal/domain"
)

// HTTPClient — HTTP-реализация Provider и Directory.
//
// Ожидаемый API внешнего сервиса:
//
//	GET {base}/api/v1/shipments/{id}/ranking
//	    → {"data": [{"carrier_id", "carrier_name", "estimated_cost", "score"}, ...]}
//	GET {base}/api/v1/carriers/{id}
//	    → {"data": {"carrier_id", "carrier_name"}}
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient создаёт клиент ranking-сервиса.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type dataResponse[T any] struct {
	Data T `json:"data"`
}

type carrierResponse struct {
	CarrierID   string `json:"carrier_id"`
	CarrierName string `json:"carrier_name"`
}

// Rank возвращает ранжированный список кандидатов для shipment.
func (c *HTTPClient) Rank(ctx context.Context, shipmentID string) ([]domain.CarrierCandidate, error) {
	var resp dataResponse[[]domain.CarrierCandidate]
	path := "/api/v1/shipments/" + url.PathEscape(shipmentID) + "/ranking"
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("rank shipment %s: %w", shipmentID, err)
	}
	return resp.Data, nil
}

// Lookup возвращает имя перевозчика по id.
func (c *HTTPClient) Lookup(ctx context.Context, carrierID string) (string, error) {
	var resp dataResponse[carrierResponse]
	path := "/api/v1/carriers/" + url.PathEscape(carrierID)
	if err := c.get(ctx, path, &resp); err != nil {
		return "", fmt.Errorf("lookup carrier %s: %w", carrierID, err)
	}
	return resp.Data.CarrierName, nil
}

// get выполняет GET и декодирует JSON ответа.
func (c *HTTPClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
