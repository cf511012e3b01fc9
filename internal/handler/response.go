package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/echoworks/lead-intake/internal/dto"
)

// Success sends {"success": true, "message": ...}.
func Success(c echo.Context, status int, message string) error {
	if status == 0 {
		status = http.StatusOK
	}
	return c.JSON(status, dto.SuccessResponse{Success: true, Message: message})
}

// Error sends {"error": ...}.
func Error(c echo.Context, status int, message string) error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return c.JSON(status, dto.ErrorResponse{Error: message})
}

// Status sends {"message": ...}.
func Status(c echo.Context, status int, message string) error {
	if status == 0 {
		status = http.StatusOK
	}
	return c.JSON(status, dto.StatusResponse{Message: message})
}
