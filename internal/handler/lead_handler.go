package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/echoworks/lead-intake/internal/dto"
	middleware "github.com/echoworks/lead-intake/internal/middleware"
	"github.com/echoworks/lead-intake/internal/service"
)

const (
	MessageLeadReceived  = "Lead submission received successfully"
	MessageEndpointReady = "Lead submission API endpoint is active"
	MessageInternalError = "Internal server error. Please try again later."

	unknownClient = "Unknown"
)

// LeadSubmitter runs a decoded submission through the intake pipeline.
type LeadSubmitter interface {
	Submit(ctx context.Context, submission dto.LeadSubmission, meta service.SubmissionMeta) service.Result
}

// LeadHandler exposes the public lead intake endpoint.
type LeadHandler struct {
	leads LeadSubmitter
}

// NewLeadHandler constructs a LeadHandler.
func NewLeadHandler(leads LeadSubmitter) *LeadHandler {
	return &LeadHandler{leads: leads}
}

// Submit handles POST /api/lead.
func (h *LeadHandler) Submit(c echo.Context) error {
	logger := zerolog.Ctx(c.Request().Context())

	var submission dto.LeadSubmission
	if err := decodeSubmission(c.Request().Body, &submission); err != nil {
		if errors.Is(err, echo.ErrStatusRequestEntityTooLarge) {
			return Error(c, http.StatusRequestEntityTooLarge, http.StatusText(http.StatusRequestEntityTooLarge))
		}
		logger.Error().Err(err).Msg("lead submission error")
		return Error(c, http.StatusInternalServerError, MessageInternalError)
	}

	meta := service.SubmissionMeta{
		IPAddress: clientIP(c.Request()),
		UserAgent: userAgent(c.Request()),
		RequestID: middleware.RequestIDFromContext(c),
	}

	result := h.leads.Submit(c.Request().Context(), submission, meta)
	if result.Outcome == service.OutcomeRejected {
		return Error(c, http.StatusBadRequest, result.Message)
	}

	// Discarded submissions answer exactly like accepted ones.
	return Success(c, http.StatusOK, MessageLeadReceived)
}

// Status handles GET /api/lead.
func (h *LeadHandler) Status(c echo.Context) error {
	return Status(c, http.StatusOK, MessageEndpointReady)
}

var (
	errNullBody     = errors.New("request body is null")
	errTrailingData = errors.New("unexpected data after JSON body")
)

// decodeSubmission reads exactly one JSON object from body. Content-Type is
// not consulted. A null body or anything after the object is a parse failure.
func decodeSubmission(body io.Reader, out *dto.LeadSubmission) error {
	dec := json.NewDecoder(body)

	var decoded *dto.LeadSubmission
	if err := dec.Decode(&decoded); err != nil {
		return err
	}
	if decoded == nil {
		return errNullBody
	}

	var trailing json.RawMessage
	switch err := dec.Decode(&trailing); {
	case errors.Is(err, io.EOF):
	case err != nil:
		return fmt.Errorf("%w: %w", errTrailingData, err)
	default:
		return errTrailingData
	}

	*out = *decoded
	return nil
}

// clientIP prefers the first forwarded hop, then X-Real-IP, then the socket peer.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get(echo.HeaderXForwardedFor); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get(echo.HeaderXRealIP)); realIP != "" {
		return realIP
	}
	if r.RemoteAddr != "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
			return host
		}
		return r.RemoteAddr
	}
	return unknownClient
}

func userAgent(r *http.Request) string {
	if ua := strings.TrimSpace(r.UserAgent()); ua != "" {
		return ua
	}
	return unknownClient
}
