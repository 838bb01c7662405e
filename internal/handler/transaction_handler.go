package handler

import (
	"net/http"
	"strconv"

	"github.com/grachmannico95/einvoice-sync/internal/service"
	"github.com/grachmannico95/einvoice-sync/pkg/logger"
	"github.com/labstack/echo/v4"
)

type TransactionHandler struct {
	ledger service.LedgerService
	logger *logger.Logger
}

func NewTransactionHandler(ledger service.LedgerService, log *logger.Logger) *TransactionHandler {
	return &TransactionHandler{
		ledger: ledger,
		logger: log,
	}
}

func (h *TransactionHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || page < 1 {
		page = 1
	}

	perPage, err := strconv.Atoi(c.QueryParam("per_page"))
	if err != nil || perPage < 1 {
		perPage = 20
	}

	h.logger.Debug(ctx, "Listing transactions",
		"page", page,
		"per_page", perPage,
	)

	items, total, err := h.ledger.ListTransactions(ctx, page, perPage)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"items":    items,
		"page":     page,
		"per_page": perPage,
		"total":    total,
	})
}
