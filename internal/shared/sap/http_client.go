package sap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPClient talks to a real SAP integration gateway over JSON HTTP.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// AttemptSync posts the PR reference to the gateway and maps its envelope
// onto a Result.
func (c *HTTPClient) AttemptSync(ctx context.Context, prID string) (Result, error) {
	reqBody := map[string]string{
		"pr_id": prID,
	}
	bodyBytes, _ := json.Marshal(reqBody)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/purchase-requests/sync",
		bytes.NewReader(bodyBytes))
	if err != nil {
		return Result{}, fmt.Errorf("failed to build sync request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("sap gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Result{}, fmt.Errorf("failed to decode sap gateway response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || result.Code != 0 {
		return Result{
			OK:     false,
			Detail: fmt.Sprintf("sap gateway rejected sync [%d]: %s", result.Code, result.Message),
		}, nil
	}

	return Result{OK: true, Detail: "synced to SAP"}, nil
}
