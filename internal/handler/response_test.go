package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/echoworks/lead-intake/internal/dto"
)

func TestSuccess(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := Success(c, 0, "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var payload dto.SuccessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !payload.Success || payload.Message != "hello" {
		t.Fatalf("unexpected response: %+v", payload)
	}
}

func TestError(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := Error(c, 0, "boom"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected default status 500, got %d", rec.Code)
	}

	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload["error"] != "boom" || len(payload) != 1 {
		t.Fatalf("unexpected response: %+v", payload)
	}
}

func TestStatus(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	if err := Status(c, 0, "up"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var payload dto.StatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil || payload.Message != "up" {
		t.Fatalf("unexpected response %s: %v", rec.Body.String(), err)
	}
}

func TestErrorHandler(t *testing.T) {
	tests := map[string]struct {
		err        error
		method     string
		wantStatus int
		wantError  string
	}{
		"method not allowed": {
			err:        echo.ErrMethodNotAllowed,
			method:     http.MethodPut,
			wantStatus: http.StatusMethodNotAllowed,
			wantError:  "Method Not Allowed",
		},
		"not found": {
			err:        echo.ErrNotFound,
			method:     http.MethodGet,
			wantStatus: http.StatusNotFound,
			wantError:  "Not Found",
		},
		"client error without string message": {
			err:        echo.NewHTTPError(http.StatusBadRequest, map[string]string{"x": "y"}),
			method:     http.MethodPost,
			wantStatus: http.StatusBadRequest,
			wantError:  "Bad Request",
		},
		"plain error hides detail": {
			err:        errors.New("db password leaked in message"),
			method:     http.MethodPost,
			wantStatus: http.StatusInternalServerError,
			wantError:  MessageInternalError,
		},
		"server http error hides detail": {
			err:        echo.NewHTTPError(http.StatusBadGateway, "upstream exploded"),
			method:     http.MethodPost,
			wantStatus: http.StatusInternalServerError,
			wantError:  MessageInternalError,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(tt.method, "/api/lead", nil), rec)

			ErrorHandler(tt.err, c)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			var payload dto.ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if payload.Error != tt.wantError {
				t.Fatalf("expected error %q, got %q", tt.wantError, payload.Error)
			}
		})
	}
}

func TestErrorHandlerCommitted(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	_ = c.String(http.StatusAccepted, "done")

	ErrorHandler(errors.New("late"), c)
	if rec.Code != http.StatusAccepted || rec.Body.String() != "done" {
		t.Fatalf("expected committed response untouched, got %d %q", rec.Code, rec.Body.String())
	}
}
