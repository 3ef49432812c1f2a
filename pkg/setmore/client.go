// Package setmore provides a read-mostly client for the booking platform's
// REST API: paginated roster, appointment, and service listings plus single
// appointment retrieval.
package setmore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/fieldsync/internal/resilience"
)

// Client defines the booking platform operations the sync engine uses.
// List methods return the next page cursor; an empty cursor with an empty
// item slice marks pagination exhaustion.
type Client interface {
	ListStaff(ctx context.Context, cursor string, pageSize int) ([]StaffMember, string, error)
	ListAppointments(ctx context.Context, cursor string, pageSize int) ([]Appointment, string, error)
	ListServices(ctx context.Context, cursor string, pageSize int) ([]Service, string, error)
	GetAppointment(ctx context.Context, key string) (*Appointment, error)
}

// Option configures the client.
type Option func(*apiClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *apiClient) {
		c.httpClient = hc
	}
}

// WithBaseURL overrides the API base URL (tests point this at httptest).
func WithBaseURL(baseURL string) Option {
	return func(c *apiClient) {
		c.baseURL = baseURL
	}
}

// WithRateLimit sets the requests-per-second limit for API calls.
func WithRateLimit(rps float64) Option {
	return func(c *apiClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

// WithRetry overrides the retry policy for list calls.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *apiClient) {
		c.retry = cfg
	}
}

type apiClient struct {
	httpClient *http.Client
	baseURL    string
	token      string
	limiter    *rate.Limiter
	retry      resilience.RetryConfig
}

// NewClient creates a booking platform Client. The API token is required;
// a missing token is a configuration error surfaced at construction, before
// any record is processed.
func NewClient(token string, opts ...Option) (Client, error) {
	if token == "" {
		return nil, eris.New("setmore: api token not configured")
	}
	c := &apiClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    "https://developer.setmore.com/api/v1",
		token:      token,
		limiter:    rate.NewLimiter(10, 10),
		retry:      resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// envelope is the platform's standard response wrapper.
type envelope struct {
	Response bool            `json:"response"`
	Msg      string          `json:"msg,omitempty"`
	Data     json.RawMessage `json:"data"`
	Cursor   string          `json:"cursor,omitempty"`
}

// get performs one rate-limited GET and decodes the response envelope.
// Transient HTTP statuses come back wrapped so the retry layer can see them.
func (c *apiClient) get(ctx context.Context, path string, params url.Values) (*envelope, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "setmore: rate limit")
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "setmore: build request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "setmore: GET %s", path)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrapf(err, "setmore: read body for %s", path)
	}

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("setmore: GET %s returned status %d", path, resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, eris.Wrapf(err, "setmore: parse response for %s", path)
	}
	if !env.Response {
		return nil, eris.Errorf("setmore: GET %s rejected: %s", path, env.Msg)
	}
	return &env, nil
}

// getWithRetry wraps get in the client's retry policy.
func (c *apiClient) getWithRetry(ctx context.Context, path string, params url.Values) (*envelope, error) {
	cfg := c.retry
	cfg.OnRetry = resilience.LogRetries("setmore", path)
	return resilience.DoVal(ctx, cfg, func(ctx context.Context) (*envelope, error) {
		return c.get(ctx, path, params)
	})
}

func pageParams(cursor string, pageSize int) url.Values {
	params := url.Values{}
	if cursor != "" {
		params.Set("cursor", cursor)
	}
	if pageSize > 0 {
		params.Set("page_size", fmt.Sprintf("%d", pageSize))
	}
	return params
}

func (c *apiClient) ListStaff(ctx context.Context, cursor string, pageSize int) ([]StaffMember, string, error) {
	env, err := c.getWithRetry(ctx, "/bookingapi/staffs", pageParams(cursor, pageSize))
	if err != nil {
		return nil, "", err
	}

	var data struct {
		Staffs []StaffMember `json:"staffs"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, "", eris.Wrap(err, "setmore: parse staff page")
	}
	return data.Staffs, env.Cursor, nil
}

func (c *apiClient) ListAppointments(ctx context.Context, cursor string, pageSize int) ([]Appointment, string, error) {
	env, err := c.getWithRetry(ctx, "/bookingapi/appointments", pageParams(cursor, pageSize))
	if err != nil {
		return nil, "", err
	}

	var data struct {
		Appointments []Appointment `json:"appointments"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, "", eris.Wrap(err, "setmore: parse appointment page")
	}
	return data.Appointments, env.Cursor, nil
}

func (c *apiClient) ListServices(ctx context.Context, cursor string, pageSize int) ([]Service, string, error) {
	env, err := c.getWithRetry(ctx, "/bookingapi/services", pageParams(cursor, pageSize))
	if err != nil {
		return nil, "", err
	}

	var data struct {
		Services []Service `json:"services"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, "", eris.Wrap(err, "setmore: parse service page")
	}
	return data.Services, env.Cursor, nil
}

func (c *apiClient) GetAppointment(ctx context.Context, key string) (*Appointment, error) {
	if key == "" {
		return nil, eris.New("setmore: appointment key is required")
	}
	env, err := c.get(ctx, "/bookingapi/appointments/"+url.PathEscape(key), nil)
	if err != nil {
		return nil, err
	}

	var data struct {
		Appointment Appointment `json:"appointment"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, eris.Wrap(err, "setmore: parse appointment")
	}
	return &data.Appointment, nil
}
