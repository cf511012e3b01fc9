package contactform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/echoworks/lead-intake/internal/dto"
)

// LeadPath is the endpoint the form posts to.
const LeadPath = "/api/lead"

const defaultFailureMessage = "Failed to submit form"

// Poster sends a lead submission to the intake endpoint.
type Poster interface {
	PostLead(ctx context.Context, submission dto.LeadSubmission, requestID string) (dto.SuccessResponse, error)
}

// APIError is a non-2xx answer from the endpoint.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("lead endpoint returned %d: %s", e.StatusCode, e.Message)
}

// Client posts JSON lead submissions over HTTP.
type Client struct {
	client  *http.Client
	baseURL string
}

// NewClient builds a client for the site at baseURL.
func NewClient(client *http.Client, baseURL string) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("base url must not be empty")
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{client: client, baseURL: baseURL}, nil
}

// PostLead posts the submission and decodes the success body.
func (c *Client) PostLead(ctx context.Context, submission dto.LeadSubmission, requestID string) (dto.SuccessResponse, error) {
	var out dto.SuccessResponse

	body, err := json.Marshal(submission)
	if err != nil {
		return out, fmt.Errorf("failed to marshal submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+LeadPath, bytes.NewReader(body))
	if err != nil {
		return out, fmt.Errorf("failed to create lead request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return out, fmt.Errorf("lead request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return out, &APIError{StatusCode: resp.StatusCode, Message: extractError(resp.Body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil && !errors.Is(err, io.EOF) {
		return out, fmt.Errorf("could not decode lead response: %w", err)
	}
	return out, nil
}

// Status reads the endpoint's readiness message.
func (c *Client) Status(ctx context.Context) (dto.StatusResponse, error) {
	var out dto.StatusResponse

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+LeadPath, nil)
	if err != nil {
		return out, fmt.Errorf("failed to create status request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return out, fmt.Errorf("status request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return out, &APIError{StatusCode: resp.StatusCode, Message: extractError(resp.Body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("could not decode status response: %w", err)
	}
	return out, nil
}

func extractError(body io.Reader) string {
	var payload dto.ErrorResponse
	if err := json.NewDecoder(body).Decode(&payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return defaultFailureMessage
}

var _ Poster = (*Client)(nil)
