package handler

import (
	"errors"
	"net/http"

	"github.com/grachmannico95/einvoice-sync/internal/domain"
	"github.com/grachmannico95/einvoice-sync/internal/service"
	"github.com/grachmannico95/einvoice-sync/internal/taxbureau"
	"github.com/labstack/echo/v4"
)

func errorResponse(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]string{
		"error": message,
	})
}

// statusFor maps domain and upstream errors to the HTTP status shown to clients.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNoCarrier),
		errors.Is(err, domain.ErrCarrierNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateCarrier):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidCarrier),
		errors.Is(err, domain.ErrInvalidDateRange),
		errors.Is(err, domain.ErrInvalidCSVFormat),
		errors.Is(err, domain.ErrInvalidInvoiceNumber):
		return http.StatusBadRequest
	case errors.Is(err, taxbureau.ErrInvalidAPIKey),
		errors.Is(err, taxbureau.ErrInvalidURL),
		errors.Is(err, taxbureau.ErrInvalidResponse),
		errors.Is(err, taxbureau.ErrHTTP),
		errors.Is(err, taxbureau.ErrParse),
		errors.Is(err, taxbureau.ErrNetwork):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err using its mapped status. Server errors get a generic message.
func respondError(c echo.Context, err error) error {
	status := statusFor(err)
	switch {
	case status == http.StatusBadGateway:
		return errorResponse(c, status, service.UserMessage(err))
	case status >= http.StatusInternalServerError:
		return errorResponse(c, status, "internal server error")
	default:
		return errorResponse(c, status, err.Error())
	}
}
