package upstream

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
)

// DefaultTimeout bounds every call to the agency API.
const DefaultTimeout = 10 * time.Second

// UserAgent is sent with every request.
const UserAgent = "cnslr-gateway/1.0"

// Client is the live Backend. It sends Bearer-authenticated JSON requests
// to the agency's disputes and status endpoints.
type Client struct {
	disputesURL string
	statusURL   string
	apiKey      string
	httpClient  *http.Client
}

// NewClient creates a client for the given endpoints. A zero timeout uses
// DefaultTimeout.
func NewClient(disputesURL, statusURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		disputesURL: strings.TrimRight(disputesURL, "/"),
		statusURL:   strings.TrimRight(statusURL, "/"),
		apiKey:      apiKey,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// SubmitDispute files d with the agency.
func (c *Client) SubmitDispute(ctx context.Context, d Dispute) (*Receipt, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal dispute: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.disputesURL, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	requestID := d.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}

	var receipt Receipt
	if err := c.do(req, requestID, &receipt); err != nil {
		return nil, fmt.Errorf("submit dispute: %w", err)
	}
	return &receipt, nil
}

// GetStatus looks up a dispute. A 404 from the agency is ErrNotFound.
func (c *Client) GetStatus(ctx context.Context, q StatusQuery) (*StatusRecord, error) {
	params := url.Values{}
	if q.ConfirmationNumber != "" {
		params.Set("confirmation_number", q.ConfirmationNumber)
	}
	if q.TicketNumber != "" {
		params.Set("ticket_number", strings.ToUpper(q.TicketNumber))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.statusURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	var rec StatusRecord
	if err := c.do(req, uuid.NewString(), &rec); err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}
	return &rec, nil
}

func (c *Client) do(req *http.Request, requestID string, result any) error {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{Status: resp.StatusCode, Message: errorMessage(resp, body)}
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorMessage prefers the agency's {"message": ...} body and falls back to
// the status text.
func errorMessage(resp *http.Response, body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Message != "" {
		return payload.Message
	}
	return http.StatusText(resp.StatusCode)
}

var _ Backend = (*Client)(nil)
