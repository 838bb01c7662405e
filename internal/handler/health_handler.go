package handler

import (
	"net/http"
	"time"

	"github.com/grachmannico95/einvoice-sync/internal/domain"
	"github.com/labstack/echo/v4"
)

type SyncStatusProvider interface {
	Status() domain.SyncStatus
}

type HealthHandler struct {
	sync SyncStatusProvider
}

func NewHealthHandler(sync SyncStatusProvider) *HealthHandler {
	return &HealthHandler{sync: sync}
}

func (h *HealthHandler) Check(c echo.Context) error {
	status := h.sync.Status()

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"timestamp":  time.Now().Format(time.RFC3339),
		"is_syncing": status.IsSyncing,
	})
}
