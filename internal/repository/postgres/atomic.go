package postgres

import (
	"context"
	"database/sql"

	"locomotion/internal/repository"
)

// TxManager implements repository.Atomic over *sql.DB. Each InTx call
// opens one transaction and hands fn a bundle of repositories scoped
// to it.
type TxManager struct {
	db *sql.DB
}

// NewTxManager creates a new TxManager.
func NewTxManager(db *sql.DB) *TxManager {
	return &TxManager{db: db}
}

// InTx runs fn within a single transaction, rolling back if fn returns
// an error or panics.
func (m *TxManager) InTx(ctx context.Context, fn func(r repository.Repos) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	repos := repository.Repos{
		Rides:   NewRideRepositoryWithTx(tx),
		Drivers: NewDriverRepositoryWithTx(tx),
		Wallets: NewWalletRepositoryWithTx(tx),
		Riders:  NewRiderRepositoryWithTx(tx),
		Orders:  NewPaymentOrderRepositoryWithTx(tx),
	}

	if err := fn(repos); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// Ensure the interface is satisfied.
var _ repository.Atomic = (*TxManager)(nil)
