package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/bryancris/tasqi-sub001/internal/model"
)

// PushFunctionClient invokes the remote push-notification function, the
// delivery path for device-token platforms without a direct web push
// endpoint.
type PushFunctionClient struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewPushFunctionClient creates a new push function client
func NewPushFunctionClient(baseURL, serviceKey string, timeout time.Duration, logger *zap.Logger) *PushFunctionClient {
	return &PushFunctionClient{
		baseURL:    baseURL,
		serviceKey: serviceKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Send invokes the function with a notification payload and returns the
// reported delivery count.
func (c *PushFunctionClient) Send(ctx context.Context, payload model.PushPayload) (*model.PushResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/push-notification", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.serviceKey != "" {
		req.Header.Set("X-Service-Key", c.serviceKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("push function request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Push function returned non-OK status",
			zap.Int("status", resp.StatusCode),
			zap.String("user_id", payload.UserID))
		return nil, fmt.Errorf("push function returned status %d", resp.StatusCode)
	}

	var result model.PushResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode push response: %w", err)
	}
	return &result, nil
}
