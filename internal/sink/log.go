package sink

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/echoworks/lead-intake/internal/entity"
)

// LogRecorder writes each lead as one structured log event.
type LogRecorder struct {
	logger zerolog.Logger
}

// NewLogRecorder constructs a logging recorder.
func NewLogRecorder(logger zerolog.Logger) *LogRecorder {
	return &LogRecorder{logger: logger.With().Str("component", "lead_sink").Logger()}
}

// Record logs the submission. zerolog reports write failures through its own
// error handler, so this never returns an error.
func (r *LogRecorder) Record(_ context.Context, record entity.LeadRecord) error {
	r.logger.Info().
		Time("timestamp", record.ReceivedAt).
		Str("request_id", record.RequestID).
		Str("full_name", record.FullName).
		Str("email", record.Email).
		Str("company", record.CompanyOrNA()).
		Str("budget", record.BudgetOrNA()).
		Bool("budget_known", record.IsKnownBudget()).
		Str("lead_message", record.Message).
		Str("ip_address", record.IPAddress).
		Str("user_agent", record.UserAgent).
		Msg("lead submission")
	return nil
}
