// Package azureml implements pkg/embeddings' Invoker for managed online
// scoring endpoints that accept the input_data request format.
package azureml

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/papercomputeco/driftlens/pkg/embeddings"
)

// Invoker posts requests to a scoring URI.
type Invoker struct {
	endpoint   string
	apiKey     string
	deployment string
	httpClient *http.Client
}

// InvokerConfig holds configuration for the scoring endpoint invoker.
type InvokerConfig struct {
	// Endpoint is the full scoring URI, e.g. "https://x.region.inference.ml.azure.com/score".
	Endpoint string

	// APIKey is sent as a bearer token.
	APIKey string

	// Deployment pins the request to a named deployment behind the endpoint.
	// Optional.
	Deployment string

	// Timeout is the HTTP client timeout. Per-attempt deadlines come from the
	// request context; this is an outer bound. Defaults to 120 seconds.
	Timeout time.Duration
}

// NewInvoker creates a new scoring endpoint invoker.
func NewInvoker(cfg InvokerConfig) (*Invoker, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("azureml: endpoint is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	return &Invoker{
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		deployment: cfg.Deployment,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Invoke sends body to the scoring URI and returns the response body.
func (i *Invoker) Invoke(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", embeddings.ErrInvoke, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if i.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+i.apiKey)
	}
	if i.deployment != "" {
		req.Header.Set("azureml-model-deployment", i.deployment)
	}

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: sending request: %v", embeddings.ErrInvoke, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", embeddings.ErrInvoke, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: endpoint returned status %d: %s", embeddings.ErrInvoke, resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

// Close releases resources held by the invoker.
func (i *Invoker) Close() error {
	i.httpClient.CloseIdleConnections()
	return nil
}

var _ embeddings.Invoker = (*Invoker)(nil)
