package eventbus

import (
	"time"

	"github.com/grachmannico95/einvoice-sync/internal/domain"
)

type EventType string

const (
	EventTypeSyncCompleted EventType = "sync.completed"
	EventTypeSyncFailed    EventType = "sync.failed"
)

type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
	Retries   int         `json:"retries"`
}

// SyncEvent reports the outcome of one reconciliation cycle.
type SyncEvent struct {
	Run domain.SyncRun `json:"run"`
}
