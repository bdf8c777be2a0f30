package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"prodplex.app/relay/core/config"
)

const maxErrorBody = 4096

// Client talks to the multi-agent workflow backend over HTTP.
type Client interface {
	RunWorkflow(ctx context.Context, req RunRequest) (*RunResponse, error)
	ListWorkflows(ctx context.Context) ([]WorkflowInfo, error)
	AgentStatus(ctx context.Context) (map[string]AgentInfo, error)
	Health(ctx context.Context) (*HealthStatus, error)
}

type client struct {
	baseURL string
	http    *retryablehttp.Client
}

func NewClient(cfg config.BackendConfig) Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.RetryMax
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 5 * time.Second
	rc.HTTPClient.Timeout = cfg.Timeout
	rc.Logger = slog.Default().With("component", "relay.backend")
	rc.CheckRetry = checkRetry
	// Hand back the final response so its status and detail surface as APIError.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    rc,
	}
}

// checkRetry retries transport failures and 429/502/503/504. A 500 from
// run_task may mean the workflow already started, so it is not retried here.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
	switch resp.StatusCode {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true, nil
	}
	return false, nil
}

func (c *client) RunWorkflow(ctx context.Context, req RunRequest) (*RunResponse, error) {
	if req.InputData == nil {
		req.InputData = map[string]any{}
	}

	var resp RunResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/run_task", req, &resp); err != nil {
		return nil, err
	}

	var meta struct {
		WorkflowID string `json:"workflow_id"`
		Status     string `json:"status"`
	}
	if len(resp.Result) > 0 && json.Unmarshal(resp.Result, &meta) == nil {
		resp.WorkflowID = meta.WorkflowID
		resp.Status = meta.Status
	}

	return &resp, nil
}

func (c *client) ListWorkflows(ctx context.Context) ([]WorkflowInfo, error) {
	var resp struct {
		Workflows []WorkflowInfo `json:"workflows"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/workflows", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Workflows, nil
}

func (c *client) AgentStatus(ctx context.Context) (map[string]AgentInfo, error) {
	var resp struct {
		Agents map[string]AgentInfo `json:"agents"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/agents", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Agents, nil
}

func (c *client) Health(ctx context.Context) (*HealthStatus, error) {
	var resp HealthStatus
	if err := c.do(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *client) do(ctx context.Context, method, path string, body, out any) error {
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s body: %w", path, err)
		}
		payload = bytes.NewReader(raw)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return fmt.Errorf("building %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	slog.DebugContext(ctx, "backend call completed",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(raw, &body) == nil && len(body.Detail) > 0 {
		var s string
		if json.Unmarshal(body.Detail, &s) == nil {
			apiErr.Detail = s
		} else {
			// FastAPI validation errors carry a list here.
			apiErr.Detail = string(body.Detail)
		}
		return apiErr
	}

	apiErr.Detail = strings.TrimSpace(string(raw))
	return apiErr
}

// IsRetryable reports whether a RunWorkflow failure is worth requeueing.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return true
}
