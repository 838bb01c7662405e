package handler

import (
	"net/http"
	"time"

	"github.com/grachmannico95/einvoice-sync/internal/service"
	"github.com/grachmannico95/einvoice-sync/pkg/logger"
	"github.com/labstack/echo/v4"
)

type InvoiceHandler struct {
	lookup        service.InvoiceLookupService
	importer      service.InvoiceImporter
	maxUploadSize int64
	logger        *logger.Logger
}

func NewInvoiceHandler(lookup service.InvoiceLookupService, importer service.InvoiceImporter, maxUploadSize int64, log *logger.Logger) *InvoiceHandler {
	return &InvoiceHandler{
		lookup:        lookup,
		importer:      importer,
		maxUploadSize: maxUploadSize,
		logger:        log,
	}
}

type lookupRequest struct {
	InvoiceNumber string `json:"invoice_number"`
	InvoiceDate   string `json:"invoice_date"`
}

func (h *InvoiceHandler) Lookup(c echo.Context) error {
	ctx := c.Request().Context()

	var body lookupRequest
	if err := c.Bind(&body); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid request body")
	}

	date, err := time.Parse(dateLayout, body.InvoiceDate)
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, "invoice_date must be YYYY-MM-DD")
	}

	result, err := h.lookup.LookupInvoice(ctx, body.InvoiceNumber, date)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, result)
}

type scanRequest struct {
	InvoiceNumber string `json:"invoice_number"`
	RandomCode    string `json:"random_code"`
}

func (h *InvoiceHandler) Scan(c echo.Context) error {
	ctx := c.Request().Context()

	var body scanRequest
	if err := c.Bind(&body); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid request body")
	}

	result, err := h.lookup.ScanInvoice(ctx, body.InvoiceNumber, body.RandomCode)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, result)
}

func (h *InvoiceHandler) Import(c echo.Context) error {
	ctx := c.Request().Context()

	h.logger.Info(ctx, "Handling invoice import request")

	file, err := c.FormFile("file")
	if err != nil {
		h.logger.Warn(ctx, "Failed to get file from request",
			"error", err,
		)
		return errorResponse(c, http.StatusBadRequest, "file is required")
	}

	if h.maxUploadSize > 0 && file.Size > h.maxUploadSize {
		return errorResponse(c, http.StatusRequestEntityTooLarge, "file is too large")
	}

	src, err := file.Open()
	if err != nil {
		h.logger.Error(ctx, "Failed to open file",
			"error", err,
		)
		return errorResponse(c, http.StatusInternalServerError, "failed to open file")
	}
	defer src.Close()

	result, err := h.importer.Import(ctx, c.FormValue("carrier_id"), src)
	if err != nil {
		h.logger.Warn(ctx, "Invoice import failed",
			"filename", file.Filename,
			"error", err,
		)
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, result)
}
