package postgres

import (
	"context"
	"database/sql"
	"errors"

	"locomotion/internal/domain"
	"locomotion/internal/repository"
)

// WalletRepository is a PostgreSQL implementation of repository.WalletRepository.
type WalletRepository struct {
	q Querier
}

// NewWalletRepository creates a new PostgreSQL wallet repository.
func NewWalletRepository(db *sql.DB) *WalletRepository {
	return &WalletRepository{q: db}
}

// NewWalletRepositoryWithTx creates a wallet repository using a transaction.
func NewWalletRepositoryWithTx(tx *sql.Tx) *WalletRepository {
	return &WalletRepository{q: tx}
}

// Create persists a new wallet account.
func (r *WalletRepository) Create(ctx context.Context, account *domain.WalletAccount) error {
	query := `
		INSERT INTO wallet_accounts (id, driver_id, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.q.ExecContext(ctx, query,
		account.ID,
		account.DriverID,
		account.Balance,
		account.CreatedAt,
		account.UpdatedAt,
	)

	return err
}

// GetByDriverID retrieves a driver's wallet account.
func (r *WalletRepository) GetByDriverID(ctx context.Context, driverID string) (*domain.WalletAccount, error) {
	query := `
		SELECT id, driver_id, balance, created_at, updated_at
		FROM wallet_accounts WHERE driver_id = $1
	`

	var account domain.WalletAccount
	err := r.q.QueryRowContext(ctx, query, driverID).Scan(
		&account.ID,
		&account.DriverID,
		&account.Balance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &account, nil
}

// ApplyEntry records a balance movement and adjusts the balance.
// The unique index on (kind, reference) makes each triggering event
// apply exactly once: a replayed insert affects zero rows and the
// balance update is skipped. The balance update is a single
// read-modify-write statement, so movements on one account serialize
// against each other while different accounts proceed in parallel.
func (r *WalletRepository) ApplyEntry(ctx context.Context, entry *domain.WalletEntry) (bool, error) {
	insert := `
		INSERT INTO wallet_entries (id, driver_id, kind, reference, amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (kind, reference) DO NOTHING
	`

	result, err := r.q.ExecContext(ctx, insert,
		entry.ID,
		entry.DriverID,
		entry.Kind,
		entry.Reference,
		entry.Amount,
		entry.CreatedAt,
	)
	if err != nil {
		return false, err
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if inserted == 0 {
		// Already applied for this (kind, reference).
		return false, nil
	}

	update := `
		UPDATE wallet_accounts
		SET balance = balance + $1, updated_at = $2
		WHERE driver_id = $3
	`

	result, err = r.q.ExecContext(ctx, update, entry.Amount, entry.CreatedAt, entry.DriverID)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, repository.ErrNotFound
	}

	return true, nil
}

// ListEntries retrieves a driver's wallet entries, newest first.
func (r *WalletRepository) ListEntries(ctx context.Context, driverID string) ([]*domain.WalletEntry, error) {
	query := `
		SELECT id, driver_id, kind, reference, amount, created_at
		FROM wallet_entries WHERE driver_id = $1 ORDER BY created_at DESC
	`

	rows, err := r.q.QueryContext(ctx, query, driverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.WalletEntry
	for rows.Next() {
		var entry domain.WalletEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.DriverID,
			&entry.Kind,
			&entry.Reference,
			&entry.Amount,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}
