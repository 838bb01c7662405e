package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, int64(10<<20), cfg.Server.MaxUploadSize)
	assert.Equal(t, StorageDriverMemory, cfg.Storage.Driver)
	assert.Equal(t, "0.5", cfg.TaxBureau.Version)
	assert.Equal(t, 0.05, cfg.TaxBureau.ListTaxRate)
	assert.Equal(t, time.Hour, cfg.Scheduler.Interval)
	assert.False(t, cfg.Scheduler.Enabled)
	assert.Equal(t, "local", cfg.User.DefaultID)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("EINVOICE_API_KEY", "secret")
	t.Setenv("EINVOICE_DETAIL_TAX_RATE", "0.1")
	t.Setenv("AUTO_SYNC_ENABLED", "true")
	t.Setenv("AUTO_SYNC_INTERVAL", "15m")
	t.Setenv("STORAGE_DRIVER", "SQLite")
	t.Setenv("WORKER_POOL_SIZE", "4")

	cfg := Load()

	assert.Equal(t, "secret", cfg.TaxBureau.APIKey)
	assert.Equal(t, 0.1, cfg.TaxBureau.DetailTaxRate)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, 15*time.Minute, cfg.Scheduler.Interval)
	assert.Equal(t, StorageDriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, 4, cfg.Worker.PoolSize)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("WORKER_POOL_SIZE", "many")
	t.Setenv("EINVOICE_LIST_TAX_RATE", "five percent")
	t.Setenv("AUTO_SYNC_ENABLED", "sometimes")
	t.Setenv("SHUTDOWN_TIMEOUT", "soon")

	cfg := Load()

	assert.Equal(t, 2, cfg.Worker.PoolSize)
	assert.Equal(t, 0.05, cfg.TaxBureau.ListTaxRate)
	assert.False(t, cfg.Scheduler.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
}
