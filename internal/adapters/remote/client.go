package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scheduleworks/client/internal/domain/entities"
	"github.com/scheduleworks/client/internal/infrastructure/config"
	"github.com/scheduleworks/client/internal/infrastructure/logger"
	"github.com/scheduleworks/client/internal/ports"
)

// Client is the Backend implementation that talks to a schedule service over
// HTTP. Transport failures wrap entities.ErrNetwork; non-2xx responses become
// entities.BackendError carrying the server's message when the body has one.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

var _ ports.Backend = (*Client)(nil)

// New creates a remote client from the API configuration.
func New(cfg config.APIConfig, log *logger.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     log.WithComponent("remote_backend"),
	}
}

// request performs one HTTP call and decodes a JSON response into dest when
// dest is non-nil.
func (c *Client) request(ctx context.Context, method, path string, body interface{}, dest interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := float64(time.Since(start).Nanoseconds()) / 1e6
	if err != nil {
		c.logger.WithRequestID(requestID).LogBackendCall(method+" "+path, duration, err)
		return fmt.Errorf("%w: %v", entities.ErrNetwork, err)
	}
	defer resp.Body.Close()

	c.logger.WithRequestID(requestID).LogBackendCall(method+" "+path, duration, nil)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if dest == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeError extracts the optional {"message": ...} body from a non-2xx
// response.
func decodeError(resp *http.Response) error {
	backendErr := &entities.BackendError{StatusCode: resp.StatusCode}
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
		backendErr.Message = payload.Message
	}
	return backendErr
}

func (c *Client) ListAll(ctx context.Context) ([]entities.Schedule, error) {
	var wires []scheduleWire
	if err := c.request(ctx, http.MethodGet, "/schedules", nil, &wires); err != nil {
		return nil, err
	}
	return toEntities(wires), nil
}

func (c *Client) GetByID(ctx context.Context, id int64) (*entities.Schedule, error) {
	var wire scheduleWire
	if err := c.request(ctx, http.MethodGet, fmt.Sprintf("/schedules/%d", id), nil, &wire); err != nil {
		return nil, err
	}
	s := wire.toEntity()
	return &s, nil
}

func (c *Client) Search(ctx context.Context, query string) ([]entities.Schedule, error) {
	var wires []scheduleWire
	path := "/schedules/search?q=" + url.QueryEscape(query)
	if err := c.request(ctx, http.MethodGet, path, nil, &wires); err != nil {
		return nil, err
	}
	return toEntities(wires), nil
}

func (c *Client) ListByStatus(ctx context.Context, status entities.ScheduleStatus) ([]entities.Schedule, error) {
	var wires []scheduleWire
	path := "/schedules/status/" + url.PathEscape(string(status))
	if err := c.request(ctx, http.MethodGet, path, nil, &wires); err != nil {
		return nil, err
	}
	return toEntities(wires), nil
}

func (c *Client) ListByDate(ctx context.Context, date string) ([]entities.Schedule, error) {
	var wires []scheduleWire
	path := "/schedules/date/" + url.PathEscape(date)
	if err := c.request(ctx, http.MethodGet, path, nil, &wires); err != nil {
		return nil, err
	}
	return toEntities(wires), nil
}

func (c *Client) Create(ctx context.Context, input entities.ScheduleInput) (*entities.Schedule, error) {
	var wire scheduleWire
	if err := c.request(ctx, http.MethodPost, "/schedules", toInputWire(input), &wire); err != nil {
		return nil, err
	}
	s := wire.toEntity()
	return &s, nil
}

func (c *Client) Update(ctx context.Context, id int64, patch entities.SchedulePatch) (*entities.Schedule, error) {
	var wire scheduleWire
	if err := c.request(ctx, http.MethodPut, fmt.Sprintf("/schedules/%d", id), toPatchWire(patch), &wire); err != nil {
		return nil, err
	}
	s := wire.toEntity()
	return &s, nil
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.request(ctx, http.MethodDelete, fmt.Sprintf("/schedules/%d", id), nil, nil)
}
