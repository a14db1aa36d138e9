package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/rtm-traders/internal/domain/models"
)

// ErrUnauthorized is returned when the API rejects the bearer token.
var ErrUnauthorized = errors.New("dashboard api: unauthorized")

// Client exposes the RTM records API operations used by the operator CLI.
type Client interface {
	Login(ctx context.Context, username, password string) (*models.LoginResponse, error)
	ListRecords(ctx context.Context, query ListQuery) ([]models.Record, error)
	CreateRecord(ctx context.Context, record models.Record) (*models.Record, error)
	DeleteRecord(ctx context.Context, id string) error
	Summary(ctx context.Context, query ListQuery) (*models.Summary, error)
}

// ListQuery mirrors the list filter query parameters.
type ListQuery struct {
	Sort   string
	From   string
	To     string
	Months int
}

func (q ListQuery) values() url.Values {
	v := url.Values{}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.From != "" {
		v.Set("from", q.From)
	}
	if q.To != "" {
		v.Set("to", q.To)
	}
	if q.Months > 0 {
		v.Set("months", fmt.Sprint(q.Months))
	}
	return v
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
}

// NewClient builds an API client for baseURL. token may be empty for Login.
func NewClient(baseURL, token string) *APIClient {
	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)
	if token != "" {
		restyClient.SetAuthToken(token)
	}

	return &APIClient{httpClient: restyClient}
}

// apiError represents the API's JSON error payload.
type apiError struct {
	Error string `json:"error"`
}

func (c *APIClient) Login(ctx context.Context, username, password string) (*models.LoginResponse, error) {
	result := new(models.LoginResponse)
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(models.LoginRequest{Username: username, Password: password}).
		SetResult(result).
		SetError(apiErr).
		Post("/api/login")
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if err := check(resp, apiErr); err != nil {
		return nil, err
	}

	c.httpClient.SetAuthToken(result.Token)
	return result, nil
}

func (c *APIClient) ListRecords(ctx context.Context, query ListQuery) ([]models.Record, error) {
	var result []models.Record
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParamsFromValues(query.values()).
		SetResult(&result).
		SetError(apiErr).
		Get("/api/records")
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	if err := check(resp, apiErr); err != nil {
		return nil, err
	}

	return result, nil
}

func (c *APIClient) CreateRecord(ctx context.Context, record models.Record) (*models.Record, error) {
	result := models.NewBlankRecord()
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(record).
		SetResult(&result).
		SetError(apiErr).
		Post("/api/records")
	if err != nil {
		return nil, fmt.Errorf("create record: %w", err)
	}
	if err := check(resp, apiErr); err != nil {
		return nil, err
	}

	return &result, nil
}

func (c *APIClient) DeleteRecord(ctx context.Context, id string) error {
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetError(apiErr).
		Delete("/api/records/{id}")
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return check(resp, apiErr)
}

func (c *APIClient) Summary(ctx context.Context, query ListQuery) (*models.Summary, error) {
	result := new(models.Summary)
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParamsFromValues(query.values()).
		SetResult(result).
		SetError(apiErr).
		Get("/api/records/summary")
	if err != nil {
		return nil, fmt.Errorf("records summary: %w", err)
	}
	if err := check(resp, apiErr); err != nil {
		return nil, err
	}

	return result, nil
}

func check(resp *resty.Response, apiErr *apiError) error {
	code := resp.StatusCode()
	if code < http.StatusBadRequest {
		return nil
	}
	if code == http.StatusUnauthorized || code == http.StatusForbidden {
		return fmt.Errorf("%w: %s", ErrUnauthorized, apiErr.Error)
	}
	return fmt.Errorf("dashboard api error: code=%d, message=%s", code, apiErr.Error)
}
