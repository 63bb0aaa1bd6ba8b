package controllers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/upline-crm/upline_backend/models"
	"github.com/upline-crm/upline_backend/services"
)

// respondError maps service errors onto the response envelope. Structural
// and validation failures carry enough detail for the caller to act;
// anything unrecognized is a plain 500.
func respondError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
		message = "Not found"
	case errors.Is(err, services.ErrInvalidSponsor):
		status = http.StatusBadRequest
		message = "Invalid sponsor"
	case errors.Is(err, services.ErrInvalidAmount):
		status = http.StatusBadRequest
		message = "Invalid amount"
	case errors.Is(err, services.ErrCycleDetected):
		status = http.StatusConflict
		message = "Operation would create a sponsorship cycle"
	case errors.Is(err, services.ErrForbidden):
		status = http.StatusForbidden
		message = "Access denied"
	case errors.Is(err, services.ErrInconsistentWrite):
		status = http.StatusConflict
		message = "Write could not be committed atomically; retry the whole operation"
	}

	return c.JSON(status, models.Response{
		Status:  status,
		Message: message,
		Data:    err.Error(),
	})
}
