package handler

import (
	"net/http"

	"github.com/grachmannico95/einvoice-sync/internal/service"
	"github.com/grachmannico95/einvoice-sync/pkg/logger"
	"github.com/labstack/echo/v4"
)

type CarrierHandler struct {
	service service.CarrierService
	logger  *logger.Logger
}

func NewCarrierHandler(service service.CarrierService, log *logger.Logger) *CarrierHandler {
	return &CarrierHandler{
		service: service,
		logger:  log,
	}
}

func (h *CarrierHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	carriers, err := h.service.LoadCarriers(ctx)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"items": carriers,
		"total": len(carriers),
	})
}

func (h *CarrierHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var input service.AddCarrierInput
	if err := c.Bind(&input); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid request body")
	}

	carrier, err := h.service.AddCarrier(ctx, input)
	if err != nil {
		h.logger.Warn(ctx, "Failed to add carrier",
			"error", err,
		)
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, carrier)
}

func (h *CarrierHandler) SetDefault(c echo.Context) error {
	ctx := c.Request().Context()

	carrier, err := h.service.SetDefaultCarrier(ctx, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, carrier)
}

func (h *CarrierHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()

	next, err := h.service.RemoveCarrier(ctx, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"deleted":         c.Param("id"),
		"default_carrier": next,
	})
}
