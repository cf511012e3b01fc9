package sink

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/echoworks/lead-intake/internal/entity"
	"github.com/echoworks/lead-intake/internal/metrics"
)

const (
	defaultRecordTimeout = 10 * time.Second
	defaultErrorBuffer   = 16
)

// BestEffort runs a recorder in the background. Record never fails; errors
// from the wrapped recorder are only visible on Errors().
type BestEffort struct {
	next    Recorder
	timeout time.Duration
	metrics *metrics.LeadMetrics

	errs chan error

	mu       sync.RWMutex
	closed   bool
	wg       sync.WaitGroup
	errsOnce sync.Once
}

// BestEffortOption configures optional behaviour.
type BestEffortOption func(*BestEffort)

// WithRecordTimeout bounds each background write.
func WithRecordTimeout(d time.Duration) BestEffortOption {
	return func(b *BestEffort) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithErrorBuffer sizes the error channel. Errors beyond the buffer are dropped.
func WithErrorBuffer(n int) BestEffortOption {
	return func(b *BestEffort) {
		if n > 0 {
			b.errs = make(chan error, n)
		}
	}
}

// WithMetrics counts failed writes.
func WithMetrics(m *metrics.LeadMetrics) BestEffortOption {
	return func(b *BestEffort) {
		b.metrics = m
	}
}

// NewBestEffort wraps next.
func NewBestEffort(next Recorder, opts ...BestEffortOption) *BestEffort {
	if next == nil {
		next = Discard
	}
	b := &BestEffort{
		next:    next,
		timeout: defaultRecordTimeout,
		errs:    make(chan error, defaultErrorBuffer),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Record dispatches the write and returns immediately. The background write
// outlives the request context but not the configured timeout.
func (b *BestEffort) Record(ctx context.Context, record entity.LeadRecord) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		// Errors() may already be closed; count the loss only.
		b.metrics.ObserveSinkFailure()
		return nil
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				b.report(fmt.Errorf("record lead %s: panic: %v", record.RequestID, r))
			}
		}()

		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.timeout)
		defer cancel()

		if err := b.next.Record(writeCtx, record); err != nil {
			b.report(fmt.Errorf("record lead %s: %w", record.RequestID, err))
		}
	}()
	return nil
}

// Errors returns the channel failed writes are reported on. It is closed by Close.
func (b *BestEffort) Errors() <-chan error {
	return b.errs
}

// Wait blocks until all in-flight writes settle or ctx is done.
func (b *BestEffort) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting records, waits for in-flight writes and closes Errors().
// If ctx ends first the error is returned and Errors() stays open; calling
// Close again resumes waiting.
func (b *BestEffort) Close(ctx context.Context) error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()

	if err := b.Wait(ctx); err != nil {
		return err
	}
	b.errsOnce.Do(func() { close(b.errs) })
	return nil
}

func (b *BestEffort) report(err error) {
	b.metrics.ObserveSinkFailure()
	select {
	case b.errs <- err:
	default:
	}
}

// LogErrors drains errs until it is closed or ctx is done.
func LogErrors(ctx context.Context, errs <-chan error, logger zerolog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				return
			}
			logger.Error().Err(err).Str("component", "lead_sink").Msg("failed to record lead submission")
		}
	}
}
