package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"tcpos-reports/internal/config"
	"tcpos-reports/internal/features/query"
	"tcpos-reports/internal/logger"

	"go.uber.org/zap"
)

// Client fetches raw report records from the reporting API.
type Client interface {
	Fetch(ctx context.Context, endpoint string, params query.Params) ([]any, error)
}

type HTTPClient struct {
	BaseURL    string
	HttpClient *http.Client
	Logger     *zap.Logger
}

func NewClient(cfg *config.Config, log *zap.Logger) Client {
	return &HTTPClient{
		BaseURL: cfg.ReportAPIBaseURL,
		HttpClient: &http.Client{
			Timeout: cfg.ReportAPITimeout,
		},
		Logger: log,
	}
}

// Fetch posts the parameters to the endpoint once. A single JSON object is
// returned as a one-record slice.
func (c *HTTPClient) Fetch(ctx context.Context, endpoint string, params query.Params) ([]any, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode params: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.Logger.Debug("Fetching report data", zap.String(logger.FieldEndpoint, endpoint), zap.Any("params", params))

	resp, err := c.HttpClient.Do(req)
	if err != nil {
		c.Logger.Warn("Report API unreachable", zap.String(logger.FieldEndpoint, endpoint), zap.Error(err))
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.Logger.Warn("Report API returned an error",
			zap.String(logger.FieldEndpoint, endpoint),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", snippet),
		)
		return nil, &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: string(snippet)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}
	return decode(endpoint, data)
}

func decode(endpoint string, data []byte) ([]any, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, ErrEmptyBody
	}

	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, &PayloadError{Endpoint: endpoint, Err: err}
	}

	switch v := payload.(type) {
	case []any:
		return v, nil
	case map[string]any:
		return []any{v}, nil
	default:
		return nil, &PayloadError{Endpoint: endpoint, Err: fmt.Errorf("got %T", payload)}
	}
}
