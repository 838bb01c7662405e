package eventbus

import (
	"context"
	"fmt"

	"github.com/grachmannico95/einvoice-sync/internal/domain"
	"github.com/grachmannico95/einvoice-sync/pkg/logger"
)

// SyncHistoryConsumer persists every published sync outcome as a SyncRun row.
type SyncHistoryConsumer struct {
	repo        domain.SyncHistoryRepository
	logger      *logger.Logger
	workerCount int
}

func NewSyncHistoryConsumer(repo domain.SyncHistoryRepository, log *logger.Logger, workerCount int) *SyncHistoryConsumer {
	return &SyncHistoryConsumer{
		repo:        repo,
		logger:      log,
		workerCount: workerCount,
	}
}

func (c *SyncHistoryConsumer) Consume(ctx context.Context, event Event) error {
	processed, err := c.repo.IsEventProcessed(ctx, event.ID)
	if err != nil {
		c.logger.Error(ctx, "Failed to check event processed status",
			"event_id", event.ID,
			"error", err,
		)
		return err
	}

	if processed {
		c.logger.Debug(ctx, "Event already processed, skipping",
			"event_id", event.ID,
		)
		return nil
	}

	payload, ok := event.Payload.(SyncEvent)
	if !ok {
		c.logger.Error(ctx, "Invalid payload type for sync event",
			"event_id", event.ID,
		)
		return fmt.Errorf("invalid payload type %T", event.Payload)
	}

	ctx = logger.WithCarrierID(ctx, payload.Run.CarrierID)

	if err := c.repo.RecordSyncRun(ctx, payload.Run); err != nil {
		c.logger.Error(ctx, "Failed to record sync run",
			"event_id", event.ID,
			"run_id", payload.Run.ID,
			"error", err,
		)
		return err
	}

	if err := c.repo.MarkEventProcessed(ctx, event.ID); err != nil {
		c.logger.Error(ctx, "Failed to mark event as processed",
			"event_id", event.ID,
			"error", err,
		)
		return err
	}

	c.logger.Debug(ctx, "Sync run recorded",
		"event_id", event.ID,
		"run_id", payload.Run.ID,
		"status", payload.Run.Status,
		"created", payload.Run.Created,
	)

	return nil
}

func (c *SyncHistoryConsumer) GetWorkerCount() int {
	return c.workerCount
}
