// Package sink holds the destinations a validated lead is recorded to.
//
// Every destination implements Recorder. Validation never depends on which
// recorders are wired, so storage, CRM or notification integrations slot in
// here without touching the submission contract.
package sink

import (
	"context"
	"errors"

	"github.com/echoworks/lead-intake/internal/entity"
)

// Recorder writes one lead record to a destination.
type Recorder interface {
	Record(ctx context.Context, record entity.LeadRecord) error
}

// RecorderFunc adapts a function into a Recorder.
type RecorderFunc func(ctx context.Context, record entity.LeadRecord) error

// Record calls f.
func (f RecorderFunc) Record(ctx context.Context, record entity.LeadRecord) error {
	return f(ctx, record)
}

// Discard drops every record.
var Discard Recorder = RecorderFunc(func(context.Context, entity.LeadRecord) error { return nil })

// Multi fans a record out to each recorder in order and joins their errors.
type Multi []Recorder

// Record writes to all recorders even if some fail.
func (m Multi) Record(ctx context.Context, record entity.LeadRecord) error {
	var errs []error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.Record(ctx, record); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
