package domain

import "time"

// WalletEntryKind identifies what caused a wallet movement.
type WalletEntryKind string

const (
	// WalletEntryRideDebit is the commission debit applied when a ride
	// completes. Reference is the ride ID.
	WalletEntryRideDebit WalletEntryKind = "ride_debit"

	// WalletEntryRechargeCredit is a top-up from a verified external
	// payment. Reference is the gateway order ID.
	WalletEntryRechargeCredit WalletEntryKind = "recharge_credit"
)

// WalletAccount is a driver's prepaid commission account.
// The balance may go negative; drivers operate on credit and recharge.
type WalletAccount struct {
	ID        string
	DriverID  string
	Balance   float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// WalletEntry records a single balance movement. Each (kind, reference)
// pair is applied at most once, which keeps debits and credits
// exactly-once under concurrent retries.
type WalletEntry struct {
	ID        string
	DriverID  string
	Kind      WalletEntryKind
	Reference string
	// Amount is positive for credits, negative for debits.
	Amount    float64
	CreatedAt time.Time
}
