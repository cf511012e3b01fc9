package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echoworks/lead-intake/internal/entity"
	"github.com/echoworks/lead-intake/internal/metrics"
)

func sampleRecord() entity.LeadRecord {
	company := "Acme"
	return entity.LeadRecord{
		Lead: entity.Lead{
			FullName: "Jane Doe",
			Email:    "jane@example.com",
			Company:  &company,
			Message:  "Need a chatbot for support",
		},
		ReceivedAt: time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC),
		IPAddress:  "203.0.113.7",
		UserAgent:  "test-agent",
		RequestID:  "rid-1",
	}
}

func TestLogRecorderWritesStructuredEvent(t *testing.T) {
	buf := &bytes.Buffer{}
	rec := NewLogRecorder(zerolog.New(buf))

	require.NoError(t, rec.Record(context.Background(), sampleRecord()))

	var event map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
	assert.Equal(t, "lead submission", event["message"])
	assert.Equal(t, "lead_sink", event["component"])
	assert.Equal(t, "jane@example.com", event["email"])
	assert.Equal(t, "Acme", event["company"])
	assert.Equal(t, "N/A", event["budget"])
	assert.Equal(t, false, event["budget_known"])
	assert.Equal(t, "203.0.113.7", event["ip_address"])
	assert.Equal(t, "test-agent", event["user_agent"])
	assert.Equal(t, "rid-1", event["request_id"])
	assert.Equal(t, "Need a chatbot for support", event["lead_message"])
}

func TestMultiRecordsToAllAndJoinsErrors(t *testing.T) {
	var calls int32
	ok := RecorderFunc(func(context.Context, entity.LeadRecord) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})
	boom := errors.New("boom")
	failing := RecorderFunc(func(context.Context, entity.LeadRecord) error {
		atomic.AddInt32(&calls, 1)
		return boom
	})

	err := Multi{ok, nil, failing, ok}.Record(context.Background(), sampleRecord())
	require.ErrorIs(t, err, boom)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))

	assert.NoError(t, Multi{ok}.Record(context.Background(), sampleRecord()))
	assert.NoError(t, Discard.Record(context.Background(), sampleRecord()))
}

type stubEmailSender struct {
	params *resend.SendEmailRequest
	err    error
}

func (s *stubEmailSender) SendWithContext(_ context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	s.params = params
	if s.err != nil {
		return nil, s.err
	}
	return &resend.SendEmailResponse{Id: "msg-1"}, nil
}

func TestEmailRecorderSendsNotification(t *testing.T) {
	sender := &stubEmailSender{}
	rec := NewEmailRecorder(sender, "leads@echoworks.ai", []string{"sales@echoworks.ai"})

	require.NoError(t, rec.Record(context.Background(), sampleRecord()))
	require.NotNil(t, sender.params)
	assert.Equal(t, "leads@echoworks.ai", sender.params.From)
	assert.Equal(t, []string{"sales@echoworks.ai"}, sender.params.To)
	assert.Equal(t, "New Lead Submission: Jane Doe", sender.params.Subject)
	assert.Equal(t, "jane@example.com", sender.params.ReplyTo)
	assert.Contains(t, sender.params.Text, "Company: Acme")
	assert.Contains(t, sender.params.Text, "Budget: N/A")
	assert.Contains(t, sender.params.Text, "Timestamp: 2026-10-18T09:30:00Z")
	assert.True(t, strings.HasSuffix(sender.params.Text, "Need a chatbot for support\n"))
}

func TestEmailRecorderErrors(t *testing.T) {
	sender := &stubEmailSender{err: errors.New("provider down")}
	rec := NewEmailRecorder(sender, "leads@echoworks.ai", []string{"sales@echoworks.ai"})
	err := rec.Record(context.Background(), sampleRecord())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider down")

	assert.Error(t, NewEmailRecorder(sender, "leads@echoworks.ai", nil).Record(context.Background(), sampleRecord()))
	assert.Error(t, NewEmailRecorder(nil, "leads@echoworks.ai", []string{"a@b.co"}).Record(context.Background(), sampleRecord()))
}

func TestBestEffortSwallowsAndReportsErrors(t *testing.T) {
	m := metrics.NewLeadMetrics(prometheus.NewRegistry())
	boom := errors.New("sink unavailable")
	b := NewBestEffort(RecorderFunc(func(context.Context, entity.LeadRecord) error {
		return boom
	}), WithMetrics(m), WithErrorBuffer(4))

	require.NoError(t, b.Record(context.Background(), sampleRecord()))
	require.NoError(t, b.Wait(context.Background()))

	select {
	case err := <-b.Errors():
		require.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "rid-1")
	default:
		t.Fatal("expected failure on the error channel")
	}
}

func TestBestEffortRecoversPanics(t *testing.T) {
	b := NewBestEffort(RecorderFunc(func(context.Context, entity.LeadRecord) error {
		panic("kaboom")
	}))

	require.NoError(t, b.Record(context.Background(), sampleRecord()))
	require.NoError(t, b.Wait(context.Background()))

	err := <-b.Errors()
	assert.Contains(t, err.Error(), "kaboom")
}

func TestBestEffortOutlivesRequestContext(t *testing.T) {
	var deadlineSet atomic.Bool
	var ctxErr atomic.Value
	b := NewBestEffort(RecorderFunc(func(ctx context.Context, _ entity.LeadRecord) error {
		_, ok := ctx.Deadline()
		deadlineSet.Store(ok)
		ctxErr.Store(fmtErr(ctx.Err()))
		return nil
	}), WithRecordTimeout(time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, b.Record(ctx, sampleRecord()))
	require.NoError(t, b.Wait(context.Background()))

	assert.True(t, deadlineSet.Load())
	assert.Equal(t, "<nil>", ctxErr.Load())
}

func TestBestEffortCloseDrainsAndClosesChannel(t *testing.T) {
	release := make(chan struct{})
	var done atomic.Bool
	b := NewBestEffort(RecorderFunc(func(context.Context, entity.LeadRecord) error {
		<-release
		done.Store(true)
		return nil
	}))

	require.NoError(t, b.Record(context.Background(), sampleRecord()))

	waitCtx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, b.Wait(waitCtx), context.DeadlineExceeded)

	close(release)
	require.NoError(t, b.Close(context.Background()))
	assert.True(t, done.Load())

	_, open := <-b.Errors()
	assert.False(t, open)

	// Records after Close are dropped without panicking.
	assert.NoError(t, b.Record(context.Background(), sampleRecord()))
	assert.NoError(t, b.Close(context.Background()))
}

func TestBestEffortCloseRetriesAfterTimeout(t *testing.T) {
	release := make(chan struct{})
	b := NewBestEffort(RecorderFunc(func(context.Context, entity.LeadRecord) error {
		<-release
		return errors.New("late failure")
	}))
	require.NoError(t, b.Record(context.Background(), sampleRecord()))

	shortCtx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, b.Close(shortCtx), context.DeadlineExceeded)

	drained := make(chan struct{})
	buf := &bytes.Buffer{}
	go func() {
		LogErrors(context.Background(), b.Errors(), zerolog.New(buf))
		close(drained)
	}()

	close(release)
	require.NoError(t, b.Close(context.Background()))

	select {
	case <-drained:
	case <-time.After(time.Second):
		t.Fatal("LogErrors did not exit after the retried Close")
	}
	assert.Contains(t, buf.String(), "late failure")
}

func TestLogErrorsDrainsUntilClosed(t *testing.T) {
	buf := &bytes.Buffer{}
	errs := make(chan error, 2)
	errs <- errors.New("first")
	errs <- errors.New("second")
	close(errs)

	LogErrors(context.Background(), errs, zerolog.New(buf))

	out := buf.String()
	assert.Contains(t, out, "first")
	assert.Contains(t, out, "second")
	assert.Contains(t, out, "failed to record lead submission")
}

func fmtErr(err error) string {
	if err == nil {
		return "<nil>"
	}
	return err.Error()
}
