// Package serverless runs the HTTP router behind an API Gateway HTTP API
// (payload format 2.0) Lambda integration.
package serverless

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog"
)

// Waiter blocks until background work started by a request has finished.
type Waiter interface {
	Wait(ctx context.Context) error
}

// Adapter translates Lambda events into requests against an http.Handler.
type Adapter struct {
	handler     http.Handler
	waiter      Waiter
	waitTimeout time.Duration
	logger      zerolog.Logger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithWaiter makes every invocation wait for background recording before
// returning, since the runtime freezes the process between invocations.
func WithWaiter(w Waiter, timeout time.Duration) Option {
	return func(a *Adapter) {
		a.waiter = w
		if timeout > 0 {
			a.waitTimeout = timeout
		}
	}
}

// WithLogger sets the logger used for adapter failures.
func WithLogger(logger zerolog.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

// New wraps handler.
func New(handler http.Handler, opts ...Option) *Adapter {
	a := &Adapter{
		handler:     handler,
		waitTimeout: 10 * time.Second,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Handle serves one API Gateway event.
func (a *Adapter) Handle(ctx context.Context, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	req, err := newRequest(ctx, evt)
	if err != nil {
		a.logger.Error().Err(err).Str("request_id", evt.RequestContext.RequestID).Msg("invalid gateway event")
		return events.APIGatewayV2HTTPResponse{
			StatusCode: http.StatusBadRequest,
			Headers:    map[string]string{"content-type": "application/json"},
			Body:       `{"error":"Bad Request"}`,
		}, nil
	}

	w := newResponseWriter()
	a.handler.ServeHTTP(w, req)

	if a.waiter != nil {
		waitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.waitTimeout)
		if err := a.waiter.Wait(waitCtx); err != nil {
			a.logger.Warn().Err(err).Msg("background recording did not finish before response")
		}
		cancel()
	}

	return w.toEvent(), nil
}

func newRequest(ctx context.Context, evt events.APIGatewayV2HTTPRequest) (*http.Request, error) {
	body, err := decodeBody(evt)
	if err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}

	path := evt.RawPath
	if path == "" {
		path = evt.RequestContext.HTTP.Path
	}
	if path == "" {
		path = "/"
	}
	target := &url.URL{Path: path, RawQuery: evt.RawQueryString}

	method := evt.RequestContext.HTTP.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range evt.Headers {
		req.Header.Set(k, v)
	}
	if len(evt.Cookies) > 0 {
		req.Header.Set("Cookie", strings.Join(evt.Cookies, "; "))
	}
	if ua := evt.RequestContext.HTTP.UserAgent; ua != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", ua)
	}
	if req.Header.Get("X-Request-ID") == "" && evt.RequestContext.RequestID != "" {
		req.Header.Set("X-Request-ID", evt.RequestContext.RequestID)
	}
	req.RemoteAddr = evt.RequestContext.HTTP.SourceIP
	req.Host = evt.RequestContext.DomainName
	req.ContentLength = int64(len(body))

	return req, nil
}

func decodeBody(evt events.APIGatewayV2HTTPRequest) ([]byte, error) {
	if !evt.IsBase64Encoded {
		return []byte(evt.Body), nil
	}
	return base64.StdEncoding.DecodeString(evt.Body)
}

type responseWriter struct {
	header http.Header
	body   bytes.Buffer
	status int
}

func newResponseWriter() *responseWriter {
	return &responseWriter{header: http.Header{}}
}

func (w *responseWriter) Header() http.Header {
	return w.header
}

func (w *responseWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.body.Write(p)
}

func (w *responseWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
}

func (w *responseWriter) toEvent() events.APIGatewayV2HTTPResponse {
	status := w.status
	if status == 0 {
		status = http.StatusOK
	}

	out := events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers:    map[string]string{},
	}
	for k, values := range w.header {
		if strings.EqualFold(k, "Set-Cookie") {
			out.Cookies = append(out.Cookies, values...)
			continue
		}
		out.Headers[strings.ToLower(k)] = strings.Join(values, ",")
	}

	body := w.body.Bytes()
	if utf8.Valid(body) {
		out.Body = string(body)
	} else {
		out.Body = base64.StdEncoding.EncodeToString(body)
		out.IsBase64Encoded = true
	}
	return out
}
