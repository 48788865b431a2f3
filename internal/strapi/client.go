// Package strapi is a typed REST client for the booking data service. It
// exposes the reference-data reads and the customer/booking writes the
// wizard needs; every call is independent and create calls are not
// deduplicated by the service.
package strapi

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

	"github.com/wolfman30/cleanbook/pkg/logging"
)

const defaultTimeout = 20 * time.Second

// Client is a typed client for the booking data service.
type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
	logger     *logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a data service client. apiToken may be empty when the
// relevant content types are publicly readable.
func NewClient(baseURL, apiToken string, logger *logging.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiToken: apiToken,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListServices returns all cleaning service definitions.
func (c *Client) ListServices(ctx context.Context) ([]Service, error) {
	var out envelope[[]Service]
	if err := c.do(ctx, http.MethodGet, "/api/services", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// ListSlotDefinitions returns all selectable start-time slots, sorted by
// start time.
func (c *Client) ListSlotDefinitions(ctx context.Context) ([]SlotDefinition, error) {
	q := url.Values{}
	q.Set("sort", "startTime")
	q.Set("pagination[pageSize]", "100")
	var out envelope[[]SlotDefinition]
	if err := c.do(ctx, http.MethodGet, "/api/slot-definitions", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// FindCustomerByEmail looks up a customer by exact email. Returns nil when no
// customer matches.
func (c *Client) FindCustomerByEmail(ctx context.Context, email string) (*Customer, error) {
	if strings.TrimSpace(email) == "" {
		return nil, nil
	}
	q := url.Values{}
	q.Set("filters[email][$eq]", email)
	var out envelope[[]Customer]
	if err := c.do(ctx, http.MethodGet, "/api/customers", q, nil, &out); err != nil {
		return nil, err
	}
	if len(out.Data) == 0 {
		return nil, nil
	}
	cust := out.Data[0]
	return &cust, nil
}

// CreateCustomer creates a customer record and returns it with identifiers.
func (c *Client) CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*Customer, error) {
	var out envelope[Customer]
	if err := c.do(ctx, http.MethodPost, "/api/customers", nil, dataWrapper[CreateCustomerRequest]{Data: req}, &out); err != nil {
		return nil, err
	}
	if out.Data.Ref() == "" {
		return nil, fmt.Errorf("strapi: create customer returned no identifier")
	}
	cust := out.Data
	return &cust, nil
}

// CreateBooking persists a booking and returns the created record.
func (c *Client) CreateBooking(ctx context.Context, payload BookingPayload) (*Booking, error) {
	var out envelope[Booking]
	if err := c.do(ctx, http.MethodPost, "/api/bookings", nil, dataWrapper[BookingPayload]{Data: payload}, &out); err != nil {
		return nil, err
	}
	if out.Data.Ref() == "" {
		return nil, fmt.Errorf("strapi: create booking returned no identifier")
	}
	booking := out.Data
	return &booking, nil
}

// ListBookingsByCustomer returns a customer's bookings with the service
// display name and customer contact fields populated.
func (c *Client) ListBookingsByCustomer(ctx context.Context, customerRef string) ([]Booking, error) {
	q := url.Values{}
	q.Set("filters[customer][documentId][$eq]", customerRef)
	q.Set("populate[service][fields]", "displayName")
	q.Set("populate[customer][fields]", "name,email,phoneNumber")
	q.Set("sort", "scheduledDateTime:desc")
	var out envelope[[]Booking]
	if err := c.do(ctx, http.MethodGet, "/api/bookings", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("strapi: marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("strapi: create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("strapi: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("strapi: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("strapi: %s %s: %s", method, path, errorMessage(resp.StatusCode, respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("strapi: unmarshal response: %w", err)
	}
	return nil
}

// errorMessage extracts the human-readable message from an error payload,
// falling back to the HTTP status text.
func errorMessage(status int, body []byte) string {
	var env envelope[json.RawMessage]
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil && env.Error.Message != "" {
		return fmt.Sprintf("status %d: %s", status, env.Error.Message)
	}
	return fmt.Sprintf("status %d: %s", status, http.StatusText(status))
}
