package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"deposit-dashboard/internal/deposit"
	"deposit-dashboard/internal/httpx"
)

const (
	ProductsPath  = "/api/products"
	CompaniesPath = "/api/companies"
	UsersPath     = "/api/users"
	HealthPath    = "/health"

	contentTypeJSON = "application/json"
)

// NetworkError reports a transport failure or a non-2xx HTTP status.
type NetworkError struct {
	Method     string
	URL        string
	StatusCode int
	Message    string
	Err        error
}

func (e *NetworkError) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.StatusCode != 0:
		return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
	default:
		return fmt.Sprintf("%s %s: network response was not ok", e.Method, e.URL)
	}
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Get issues a GET with the given query parameters and decodes the JSON body into out.
func (c *Client) Get(ctx context.Context, path string, params url.Values, out any) error {
	target := c.baseURL + path
	if encoded := params.Encode(); encoded != "" {
		target += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.do(req, out)
}

// Post sends body as JSON and decodes the JSON response into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentTypeJSON)
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Accept", contentTypeJSON)
	if id := httpx.RequestIDFromContext(req.Context()); id != "" {
		req.Header.Set(httpx.RequestIDHeader, id)
	}

	netErr := &NetworkError{Method: req.Method, URL: req.URL.String()}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		netErr.Err = err
		return netErr
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		netErr.Err = fmt.Errorf("read body: %w", err)
		return netErr
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		netErr.StatusCode = resp.StatusCode
		var failure struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &failure) == nil {
			netErr.Message = failure.Error
		}
		return netErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		netErr.Err = fmt.Errorf("decode body: %w", err)
		return netErr
	}
	return nil
}

func ProductQueryValues(q deposit.ProductQuery) url.Values {
	values := url.Values{}
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Active != nil {
		values.Set("active", strconv.FormatBool(*q.Active))
	}
	if q.Sort != deposit.SortNone {
		values.Set("sort", string(q.Sort))
	}
	if q.Order != "" {
		values.Set("order", string(q.Order))
	}
	return values
}

func (c *Client) ListProducts(ctx context.Context, q deposit.ProductQuery) (deposit.Result[[]deposit.Product], error) {
	var env deposit.Envelope[[]deposit.Product]
	if err := c.Get(ctx, ProductsPath, ProductQueryValues(q), &env); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return env.Result(), nil
}

func (c *Client) CreateProduct(ctx context.Context, p deposit.NewProduct) (deposit.Result[deposit.Product], error) {
	var env deposit.Envelope[deposit.Product]
	if err := c.Post(ctx, ProductsPath, p, &env); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return env.Result(), nil
}

func (c *Client) ListCompanies(ctx context.Context) (deposit.Result[[]deposit.Company], error) {
	var env deposit.Envelope[[]deposit.Company]
	if err := c.Get(ctx, CompaniesPath, nil, &env); err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	return env.Result(), nil
}

func (c *Client) ListUsers(ctx context.Context) (deposit.Result[[]deposit.User], error) {
	var env deposit.Envelope[[]deposit.User]
	if err := c.Get(ctx, UsersPath, nil, &env); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return env.Result(), nil
}

func (c *Client) Health(ctx context.Context) error {
	if err := c.Get(ctx, HealthPath, nil, nil); err != nil {
		return fmt.Errorf("health: %w", err)
	}
	return nil
}

// Message extracts the user-facing message of err, falling back when err
// carries nothing useful.
func Message(err error, fallback string) string {
	var netErr *NetworkError
	if errors.As(err, &netErr) && netErr.Message != "" {
		return netErr.Message
	}
	return fallback
}
