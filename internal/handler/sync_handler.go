package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/grachmannico95/einvoice-sync/internal/service"
	"github.com/grachmannico95/einvoice-sync/pkg/logger"
	"github.com/labstack/echo/v4"
)

const dateLayout = "2006-01-02"

type AutoSyncController interface {
	EnableAutoSync(ctx context.Context, interval time.Duration)
	DisableAutoSync()
	Running() bool
}

type SyncHandler struct {
	sync     service.InvoiceSyncService
	ledger   service.LedgerService
	autoSync AutoSyncController
	logger   *logger.Logger
}

func NewSyncHandler(sync service.InvoiceSyncService, ledger service.LedgerService, autoSync AutoSyncController, log *logger.Logger) *SyncHandler {
	return &SyncHandler{
		sync:     sync,
		ledger:   ledger,
		autoSync: autoSync,
		logger:   log,
	}
}

type syncRequest struct {
	CarrierID string `json:"carrier_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func (h *SyncHandler) Sync(c echo.Context) error {
	ctx := c.Request().Context()

	var body syncRequest
	if err := c.Bind(&body); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid request body")
	}

	req := service.SyncRequest{CarrierID: body.CarrierID}
	var err error
	if req.StartDate, err = parseOptionalDate(body.StartDate); err != nil {
		return errorResponse(c, http.StatusBadRequest, "start_date must be YYYY-MM-DD")
	}
	if req.EndDate, err = parseOptionalDate(body.EndDate); err != nil {
		return errorResponse(c, http.StatusBadRequest, "end_date must be YYYY-MM-DD")
	}

	summary, err := h.sync.SyncInvoices(ctx, req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, summary)
}

func (h *SyncHandler) Status(c echo.Context) error {
	status := h.sync.Status()

	return c.JSON(http.StatusOK, map[string]interface{}{
		"is_syncing":   status.IsSyncing,
		"last_error":   status.LastError,
		"last_sync_at": status.LastSyncAt,
		"auto_sync":    h.autoSync != nil && h.autoSync.Running(),
	})
}

func (h *SyncHandler) History(c echo.Context) error {
	ctx := c.Request().Context()

	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil {
		limit = 0
	}

	runs, err := h.ledger.ListSyncRuns(ctx, c.QueryParam("carrier_id"), limit)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"items": runs,
		"total": len(runs),
	})
}

type autoSyncRequest struct {
	Enabled  bool   `json:"enabled"`
	Interval string `json:"interval"`
}

func (h *SyncHandler) SetAutoSync(c echo.Context) error {
	ctx := c.Request().Context()

	if h.autoSync == nil {
		return errorResponse(c, http.StatusNotImplemented, "auto sync is not available")
	}

	var body autoSyncRequest
	if err := c.Bind(&body); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid request body")
	}

	if !body.Enabled {
		h.autoSync.DisableAutoSync()
		return c.JSON(http.StatusOK, map[string]interface{}{"auto_sync": false})
	}

	var interval time.Duration
	if body.Interval != "" {
		d, err := time.ParseDuration(body.Interval)
		if err != nil || d < time.Minute {
			return errorResponse(c, http.StatusBadRequest, "interval must be a duration of at least 1m")
		}
		interval = d
	}

	// the schedule outlives this request
	h.autoSync.EnableAutoSync(context.WithoutCancel(ctx), interval)

	return c.JSON(http.StatusOK, map[string]interface{}{"auto_sync": true})
}

func parseOptionalDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}

	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, err
	}

	return &t, nil
}
