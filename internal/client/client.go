package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/GriffinCanCode/docbridge/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/docbridge/internal/shared/types"
)

// Client talks to a docbridge server
type Client struct {
	resty   *resty.Client
	breaker *resilience.Breaker
	appID   *string
}

// Config tunes the client
type Config struct {
	Timeout    time.Duration
	MaxRetries int
	MinWait    time.Duration
	MaxWait    time.Duration
}

// DefaultConfig returns production defaults
func DefaultConfig() Config {
	return Config{
		Timeout:    5 * time.Minute,
		MaxRetries: 3,
		MinWait:    500 * time.Millisecond,
		MaxWait:    10 * time.Second,
	}
}

// APIError is a non-2xx response
type APIError struct {
	Status  int
	Message string
	Kind    string
}

func (e *APIError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("docbridge: %d %s: %s", e.Status, e.Kind, e.Message)
	}
	return fmt.Sprintf("docbridge: %d: %s", e.Status, e.Message)
}

type retryKey struct{}

// idempotent marks ctx so the transport may retry the request
func idempotent(ctx context.Context) context.Context {
	return context.WithValue(ctx, retryKey{}, true)
}

// checkRetry retries only requests marked idempotent; tool execution may have side effects.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ok, _ := ctx.Value(retryKey{}).(bool); !ok {
		return false, ctx.Err()
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// New creates a client for baseURL
func New(baseURL string, cfg Config) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.RetryWaitMin = cfg.MinWait
	retryClient.RetryWaitMax = cfg.MaxWait
	retryClient.CheckRetry = checkRetry
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = nil

	restyClient := resty.NewWithClient(retryClient.StandardClient()).
		SetBaseURL(baseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", "safctl/1.0").
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)

	breaker := resilience.New("docbridge-api", resilience.Settings{
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// client errors mean the server is up
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.Status < http.StatusInternalServerError
			}
			return err == nil
		},
	})

	return &Client{resty: restyClient, breaker: breaker}
}

// SetAppID names the calling app on every Execute
func (c *Client) SetAppID(id string) {
	c.appID = &id
}

// BreakerState returns the current circuit breaker state
func (c *Client) BreakerState() resilience.State {
	return c.breaker.State()
}

// Execute runs a tool. A tool failure is a result with Success false, not an error.
func (c *Client) Execute(ctx context.Context, toolID string, params map[string]interface{}) (*types.Result, error) {
	var result types.Result
	err := c.do(func() (*resty.Response, error) {
		return c.resty.R().
			SetContext(ctx).
			SetBody(types.ExecuteRequest{ToolID: toolID, Params: params, AppID: c.appID}).
			SetResult(&result).
			SetError(&result).
			Post("/services/execute")
	}, func(resp *resty.Response) *APIError {
		apiErr := &APIError{Status: resp.StatusCode(), Kind: result.Kind, Message: resp.Status()}
		if result.Error != nil {
			apiErr.Message = *result.Error
		}
		return apiErr
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Health returns the server health document
func (c *Client) Health(ctx context.Context) (map[string]interface{}, error) {
	var body map[string]interface{}
	err := c.do(func() (*resty.Response, error) {
		return c.resty.R().SetContext(idempotent(ctx)).SetResult(&body).Get("/health")
	}, nil)
	return body, err
}

// Services lists services, optionally filtered by category
func (c *Client) Services(ctx context.Context, category string) ([]types.Service, error) {
	var body struct {
		Services []types.Service `json:"services"`
	}
	err := c.do(func() (*resty.Response, error) {
		req := c.resty.R().SetContext(idempotent(ctx)).SetResult(&body)
		if category != "" {
			req.SetQueryParam("category", category)
		}
		return req.Get("/services")
	}, nil)
	return body.Services, err
}

// SendPickerResult delivers a picker result over HTTP
func (c *Client) SendPickerResult(ctx context.Context, res types.PickerResultRequest) error {
	return c.do(func() (*resty.Response, error) {
		return c.resty.R().SetContext(ctx).SetBody(res).Post("/picker/result")
	}, nil)
}

func (c *Client) do(send func() (*resty.Response, error), toErr func(*resty.Response) *APIError) error {
	err := c.breaker.Execute(func() error {
		resp, err := send()
		if err != nil {
			return err
		}
		if resp.IsError() {
			if toErr != nil {
				return toErr(resp)
			}
			return &APIError{Status: resp.StatusCode(), Message: errorMessage(resp)}
		}
		return nil
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return fmt.Errorf("docbridge server unavailable: %w", err)
	}
	return err
}

func errorMessage(resp *resty.Response) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := sonic.Unmarshal(resp.Body(), &body); err == nil && body.Error != "" {
		return body.Error
	}
	return resp.Status()
}
