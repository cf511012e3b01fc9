package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/echoworks/lead-intake/internal/dto"
	"github.com/echoworks/lead-intake/internal/entity"
	"github.com/echoworks/lead-intake/internal/metrics"
	"github.com/echoworks/lead-intake/internal/sink"
)

// SubmissionMeta carries request details recorded alongside the lead.
type SubmissionMeta struct {
	IPAddress string
	UserAgent string
	RequestID string
}

// LeadService validates, normalizes and records lead submissions.
type LeadService struct {
	validator *LeadValidator
	recorder  sink.Recorder
	metrics   *metrics.LeadMetrics
	now       func() time.Time
}

// LeadServiceOption configures optional dependencies.
type LeadServiceOption func(*LeadService)

// WithLeadMetrics counts submissions by outcome.
func WithLeadMetrics(m *metrics.LeadMetrics) LeadServiceOption {
	return func(s *LeadService) {
		s.metrics = m
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) LeadServiceOption {
	return func(s *LeadService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewLeadService creates a new LeadService. A nil recorder discards records.
func NewLeadService(recorder sink.Recorder, opts ...LeadServiceOption) *LeadService {
	if recorder == nil {
		recorder = sink.Discard
	}
	s := &LeadService{
		validator: defaultValidator,
		recorder:  recorder,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit runs one submission through honeypot detection, validation and recording.
// Recording happens only for accepted leads and its failure never alters the result.
func (s *LeadService) Submit(ctx context.Context, submission dto.LeadSubmission, meta SubmissionMeta) Result {
	logger := zerolog.Ctx(ctx)

	if strings.TrimSpace(submission.Website) != "" {
		logger.Warn().
			Str("ip_address", meta.IPAddress).
			Str("user_agent", meta.UserAgent).
			Msg("honeypot field filled, discarding potential spam submission")
		s.metrics.ObserveSubmission(OutcomeDiscarded.String())
		return Result{Outcome: OutcomeDiscarded}
	}

	result := s.validator.Validate(submission)
	if !result.Accepted() {
		logger.Info().Str("reason", result.Message).Msg("lead submission rejected")
		s.metrics.ObserveSubmission(result.Outcome.String())
		return result
	}

	record := entity.LeadRecord{
		Lead:       result.Lead,
		ReceivedAt: s.now().UTC(),
		IPAddress:  meta.IPAddress,
		UserAgent:  meta.UserAgent,
		RequestID:  meta.RequestID,
	}
	if err := s.recorder.Record(ctx, record); err != nil {
		logger.Error().Err(err).Msg("failed to record lead submission")
	}

	s.metrics.ObserveSubmission(result.Outcome.String())
	return result
}
