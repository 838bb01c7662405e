package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/grachmannico95/einvoice-sync/internal/domain"
	"github.com/mattn/go-sqlite3"
)

// SQLiteStore is the persistent domain.Repository. Multi-row writes run in one
// database transaction, so a failed batch leaves no rows behind.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (creating if needed) the database at path with WAL and
// foreign keys enabled, and applies Schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// a single connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func (s *SQLiteStore) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	var user domain.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM users WHERE id = ?`, userID,
	).Scan(&user.ID, &user.Name, &user.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

func (s *SQLiteStore) SaveUser(ctx context.Context, user *domain.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, created_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name
	`, user.ID, user.Name, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

const carrierColumns = `id, user_id, carrier_type, number, name, is_default, last_sync_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCarrier(row rowScanner) (*domain.Carrier, error) {
	var (
		c          domain.Carrier
		carrierTyp string
		lastSync   sql.NullTime
	)

	err := row.Scan(&c.ID, &c.UserID, &carrierTyp, &c.Number, &c.Name, &c.IsDefault, &lastSync, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}

	c.Type = domain.CarrierType(carrierTyp)
	if lastSync.Valid {
		t := lastSync.Time
		c.LastSyncAt = &t
	}

	return &c, nil
}

func (s *SQLiteStore) ListCarriers(ctx context.Context, userID string) ([]domain.Carrier, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+carrierColumns+` FROM carriers WHERE user_id = ? ORDER BY is_default DESC, created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list carriers: %w", err)
	}
	defer rows.Close()

	carriers := []domain.Carrier{}
	for rows.Next() {
		c, err := scanCarrier(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan carrier: %w", err)
		}
		carriers = append(carriers, *c)
	}

	return carriers, rows.Err()
}

func (s *SQLiteStore) GetCarrier(ctx context.Context, carrierID string) (*domain.Carrier, error) {
	c, err := scanCarrier(s.db.QueryRowContext(ctx,
		`SELECT `+carrierColumns+` FROM carriers WHERE id = ?`, carrierID,
	))
	if err == sql.ErrNoRows {
		return nil, domain.ErrCarrierNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get carrier: %w", err)
	}
	return c, nil
}

func (s *SQLiteStore) FindCarrier(ctx context.Context, userID string, carrierType domain.CarrierType, number string) (*domain.Carrier, error) {
	c, err := scanCarrier(s.db.QueryRowContext(ctx,
		`SELECT `+carrierColumns+` FROM carriers WHERE user_id = ? AND carrier_type = ? AND number = ?`,
		userID, string(carrierType), number,
	))
	if err == sql.ErrNoRows {
		return nil, domain.ErrCarrierNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find carrier: %w", err)
	}
	return c, nil
}

func (s *SQLiteStore) CreateCarrier(ctx context.Context, carrier *domain.Carrier) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if carrier.IsDefault {
			if _, err := tx.ExecContext(ctx,
				`UPDATE carriers SET is_default = 0, updated_at = ? WHERE user_id = ? AND is_default = 1`,
				carrier.CreatedAt, carrier.UserID,
			); err != nil {
				return fmt.Errorf("failed to clear default carrier: %w", err)
			}
		}

		var lastSync interface{}
		if carrier.LastSyncAt != nil {
			lastSync = *carrier.LastSyncAt
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO carriers (`+carrierColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			carrier.ID, carrier.UserID, string(carrier.Type), carrier.Number, carrier.Name,
			carrier.IsDefault, lastSync, carrier.CreatedAt, carrier.UpdatedAt,
		)
		if isUniqueViolation(err) {
			return domain.ErrDuplicateCarrier
		}
		if err != nil {
			return fmt.Errorf("failed to insert carrier: %w", err)
		}
		return nil
	})
}

func (s *SQLiteStore) SetDefaultCarrier(ctx context.Context, userID, carrierID string, at time.Time) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE carriers SET is_default = 0, updated_at = ? WHERE user_id = ? AND is_default = 1 AND id <> ?`,
			at, userID, carrierID,
		); err != nil {
			return fmt.Errorf("failed to clear default carrier: %w", err)
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE carriers SET is_default = 1, updated_at = ? WHERE id = ? AND user_id = ?`,
			at, carrierID, userID,
		)
		if err != nil {
			return fmt.Errorf("failed to set default carrier: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrCarrierNotFound
		}
		return nil
	})
}

func (s *SQLiteStore) UpdateCarrierSyncTime(ctx context.Context, carrierID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE carriers SET last_sync_at = ?, updated_at = ? WHERE id = ?`, at, at, carrierID,
	)
	if err != nil {
		return fmt.Errorf("failed to update carrier sync time: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrCarrierNotFound
	}
	return nil
}

func (s *SQLiteStore) DeleteCarrier(ctx context.Context, carrierID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM carriers WHERE id = ?`, carrierID)
	if err != nil {
		return fmt.Errorf("failed to delete carrier: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrCarrierNotFound
	}
	return nil
}

func (s *SQLiteStore) ListInvoiceNumbers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT invoice_number FROM transactions WHERE invoice_number IS NOT NULL`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoice numbers: %w", err)
	}
	defer rows.Close()

	numbers := []string{}
	for rows.Next() {
		var number string
		if err := rows.Scan(&number); err != nil {
			return nil, fmt.Errorf("failed to scan invoice number: %w", err)
		}
		numbers = append(numbers, number)
	}

	return numbers, rows.Err()
}

func (s *SQLiteStore) SaveTransactions(ctx context.Context, txs []domain.Transaction) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO transactions (
				id, user_id, carrier_id, amount, tx_type, category, description, tx_date, notes,
				invoice_number, invoice_date, merchant_name, tax_amount, input_method, auto_categorized, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, t := range txs {
			var invoiceDate interface{}
			if t.InvoiceDate != nil {
				invoiceDate = *t.InvoiceDate
			}

			_, err := stmt.ExecContext(ctx,
				t.ID, t.UserID, nullString(t.CarrierID), t.Amount, string(t.Type), string(t.Category),
				t.Description, t.Date, t.Notes, t.InvoiceNumber, invoiceDate, t.MerchantName,
				t.TaxAmount, string(t.InputMethod), t.AutoCategorized, t.CreatedAt,
			)
			if isUniqueViolation(err) {
				return domain.ErrDuplicateInvoice
			}
			if err != nil {
				return fmt.Errorf("failed to insert transaction %s: %w", t.ID, err)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) ListTransactions(ctx context.Context, userID string, page, perPage int) ([]domain.Transaction, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE (? = '' OR user_id = ?)`, userID, userID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	start, end := pageBounds(page, perPage, total)
	if start == end {
		return []domain.Transaction{}, total, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, carrier_id, amount, tx_type, category, description, tx_date, notes,
			invoice_number, invoice_date, merchant_name, tax_amount, input_method, auto_categorized, created_at
		FROM transactions
		WHERE (? = '' OR user_id = ?)
		ORDER BY tx_date DESC
		LIMIT ? OFFSET ?
	`, userID, userID, end-start, start)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	txs := []domain.Transaction{}
	for rows.Next() {
		var (
			t             domain.Transaction
			carrierID     sql.NullString
			txType        string
			category      string
			inputMethod   string
			invoiceNumber sql.NullString
			invoiceDate   sql.NullTime
		)

		err := rows.Scan(&t.ID, &t.UserID, &carrierID, &t.Amount, &txType, &category, &t.Description,
			&t.Date, &t.Notes, &invoiceNumber, &invoiceDate, &t.MerchantName, &t.TaxAmount,
			&inputMethod, &t.AutoCategorized, &t.CreatedAt)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan transaction: %w", err)
		}

		t.CarrierID = carrierID.String
		t.Type = domain.TransactionType(txType)
		t.Category = domain.Category(category)
		t.InputMethod = domain.InputMethod(inputMethod)
		if invoiceNumber.Valid {
			number := invoiceNumber.String
			t.InvoiceNumber = &number
		}
		if invoiceDate.Valid {
			date := invoiceDate.Time
			t.InvoiceDate = &date
		}

		txs = append(txs, t)
	}

	return txs, total, rows.Err()
}

func (s *SQLiteStore) RecordSyncRun(ctx context.Context, run domain.SyncRun) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_runs (id, carrier_id, status, fetched, created, duplicates, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, run.ID, run.CarrierID, string(run.Status), run.Fetched, run.Created, run.Duplicates,
		run.Error, run.StartedAt, run.FinishedAt)
	if err != nil {
		return fmt.Errorf("failed to record sync run: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListSyncRuns(ctx context.Context, carrierID string, limit int) ([]domain.SyncRun, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, carrier_id, status, fetched, created, duplicates, error, started_at, finished_at
		FROM sync_runs
		WHERE (? = '' OR carrier_id = ?)
		ORDER BY finished_at DESC
		LIMIT ?
	`, carrierID, carrierID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync runs: %w", err)
	}
	defer rows.Close()

	runs := []domain.SyncRun{}
	for rows.Next() {
		var (
			run    domain.SyncRun
			status string
		)
		if err := rows.Scan(&run.ID, &run.CarrierID, &status, &run.Fetched, &run.Created,
			&run.Duplicates, &run.Error, &run.StartedAt, &run.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sync run: %w", err)
		}
		run.Status = domain.SyncRunStatus(status)
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

func (s *SQLiteStore) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM processed_events WHERE event_id = ?`, eventID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check processed event: %w", err)
	}
	return count > 0, nil
}

func (s *SQLiteStore) MarkEventProcessed(ctx context.Context, eventID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO processed_events (event_id) VALUES (?) ON CONFLICT(event_id) DO NOTHING`, eventID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
