package repository

import "context"

// Repos bundles transaction-scoped repositories handed to an atomic
// block. Every repository in the bundle operates on the same
// transaction, so a status write and its wallet debit either both
// persist or neither does.
type Repos struct {
	Rides   RideRepository
	Drivers DriverRepository
	Wallets WalletRepository
	Riders  RiderRepository
	Orders  PaymentOrderRepository
}

// Atomic runs a function within a single database transaction.
// If fn returns an error the transaction is rolled back, otherwise it
// is committed.
type Atomic interface {
	InTx(ctx context.Context, fn func(r Repos) error) error
}
