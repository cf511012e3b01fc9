package app

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echoworks/lead-intake/internal/config"
	"github.com/echoworks/lead-intake/internal/entity"
	"github.com/echoworks/lead-intake/internal/serverless"
	"github.com/echoworks/lead-intake/internal/sink"
)

type memoryRecorder struct {
	mu      sync.Mutex
	records []entity.LeadRecord
}

func (m *memoryRecorder) Record(_ context.Context, record entity.LeadRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, record)
	return nil
}

func (m *memoryRecorder) snapshot() []entity.LeadRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]entity.LeadRecord(nil), m.records...)
}

func testConfig() *config.Config {
	return &config.Config{
		Env:                "test",
		Port:               "8080",
		LogLevel:           "info",
		CORSAllowedOrigins: []string{"*"},
		MaxBodySize:        "64K",
		MetricsEnabled:     true,
		Sink:               config.SinkConfig{Timeout: time.Second, ErrorBuffer: 4},
	}
}

const validLead = `{"fullName":" Jane Doe ","email":" JANE@Example.COM ","message":"Need a chatbot for support","budget":"25-100k"}`

func TestAppRecordsAcceptedLeads(t *testing.T) {
	logs := &bytes.Buffer{}
	mem := &memoryRecorder{}
	svc := New(testConfig(), zerolog.New(zerolog.SyncWriter(logs)), WithRecorders(mem))

	req := httptest.NewRequest(http.MethodPost, "/api/lead", strings.NewReader(validLead))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	svc.Echo.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	require.NoError(t, svc.Recorder.Close(context.Background()))

	records := mem.snapshot()
	require.Len(t, records, 1)
	assert.Equal(t, "jane@example.com", records[0].Email)
	require.NotNil(t, records[0].Budget)
	assert.Equal(t, "25-100k", *records[0].Budget)
	assert.Contains(t, logs.String(), `"email":"jane@example.com"`, "log recorder always runs")
}

func TestAppSinkFailureDoesNotChangeResponse(t *testing.T) {
	failing := sink.RecorderFunc(func(context.Context, entity.LeadRecord) error {
		return assert.AnError
	})
	svc := New(testConfig(), zerolog.Nop(), WithRecorders(failing))

	req := httptest.NewRequest(http.MethodPost, "/api/lead", strings.NewReader(validLead))
	rec := httptest.NewRecorder()
	svc.Echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)
	require.NoError(t, svc.Recorder.Close(context.Background()))
}

func TestAppBehindGateway(t *testing.T) {
	mem := &memoryRecorder{}
	svc := New(testConfig(), zerolog.Nop(), WithRecorders(mem))
	adapter := serverless.New(svc.Echo, serverless.WithWaiter(svc.Recorder, time.Second))

	resp, err := adapter.Handle(context.Background(), events.APIGatewayV2HTTPRequest{
		RawPath: "/api/lead",
		Headers: map[string]string{"content-type": "application/json", "user-agent": "Mozilla/5.0"},
		Body:    validLead,
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			RequestID: "gw-abc",
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{
				Method:   http.MethodPost,
				Path:     "/api/lead",
				SourceIP: "203.0.113.9",
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "gw-abc", resp.Headers["x-request-id"])

	// WithWaiter means the record is already written when Handle returns.
	records := mem.snapshot()
	require.Len(t, records, 1)
	assert.Equal(t, "203.0.113.9", records[0].IPAddress)
	assert.Equal(t, "Mozilla/5.0", records[0].UserAgent)
	assert.Equal(t, "gw-abc", records[0].RequestID)

	resp, err = adapter.Handle(context.Background(), events.APIGatewayV2HTTPRequest{
		RawPath: "/api/lead",
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{Method: http.MethodDelete},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Method Not Allowed"}`, resp.Body)
}

func TestAppExposesMetrics(t *testing.T) {
	svc := New(testConfig(), zerolog.Nop(), WithRuntimeMetrics())

	rec := httptest.NewRecorder()
	svc.Echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
