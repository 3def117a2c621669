package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/inkaso/collections-engine/internal/domain"
)

// Client fetches full payment metadata from the payment processor when a
// webhook event arrives without it.
type Client interface {
	FetchPaymentMetadata(ctx context.Context, processorPaymentID string) (*domain.ProcessorEvent, error)
}

// HTTPClient talks to the processor's REST API.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *HTTPClient) FetchPaymentMetadata(ctx context.Context, processorPaymentID string) (*domain.ProcessorEvent, error) {
	url := fmt.Sprintf("%s/v1/payments/%s", c.baseURL, processorPaymentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching payment %s: %w", processorPaymentID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("processor returned %d for payment %s", resp.StatusCode, processorPaymentID)
	}

	var event domain.ProcessorEvent
	if err := json.NewDecoder(resp.Body).Decode(&event); err != nil {
		return nil, fmt.Errorf("decoding payment %s: %w", processorPaymentID, err)
	}
	event.ProcessorPaymentID = processorPaymentID

	return &event, nil
}
