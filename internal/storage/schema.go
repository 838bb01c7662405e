package storage

// Schema creates the SQLite tables used by SQLiteStore.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL
);

-- One row per registered receipt-collection carrier.
CREATE TABLE IF NOT EXISTS carriers (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL REFERENCES users(id),
    carrier_type TEXT NOT NULL,
    number TEXT NOT NULL,
    name TEXT NOT NULL DEFAULT '',
    is_default INTEGER NOT NULL DEFAULT 0,
    last_sync_at TIMESTAMP,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    UNIQUE(user_id, carrier_type, number)
);

CREATE INDEX IF NOT EXISTS idx_carriers_user
    ON carriers(user_id);

-- invoice_number is NULL for transactions not derived from an invoice.
CREATE TABLE IF NOT EXISTS transactions (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    carrier_id TEXT,
    amount TEXT NOT NULL,
    tx_type TEXT NOT NULL,
    category TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    tx_date TIMESTAMP NOT NULL,
    notes TEXT NOT NULL DEFAULT '',
    invoice_number TEXT UNIQUE,
    invoice_date TIMESTAMP,
    merchant_name TEXT NOT NULL DEFAULT '',
    tax_amount TEXT NOT NULL DEFAULT '0',
    input_method TEXT NOT NULL,
    auto_categorized INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_user_date
    ON transactions(user_id, tx_date);

CREATE TABLE IF NOT EXISTS sync_runs (
    id TEXT PRIMARY KEY,
    carrier_id TEXT NOT NULL,
    status TEXT NOT NULL,
    fetched INTEGER NOT NULL DEFAULT 0,
    created INTEGER NOT NULL DEFAULT 0,
    duplicates INTEGER NOT NULL DEFAULT 0,
    error TEXT NOT NULL DEFAULT '',
    started_at TIMESTAMP NOT NULL,
    finished_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sync_runs_carrier
    ON sync_runs(carrier_id, finished_at);

CREATE TABLE IF NOT EXISTS processed_events (
    event_id TEXT PRIMARY KEY,
    processed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`
