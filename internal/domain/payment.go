package domain

import "time"

// PaymentOrderPurpose identifies what a gateway order pays for.
type PaymentOrderPurpose string

const (
	// PaymentOrderRide collects the fare for a completed ride.
	PaymentOrderRide PaymentOrderPurpose = "ride"

	// PaymentOrderRecharge tops up a driver's wallet.
	PaymentOrderRecharge PaymentOrderPurpose = "recharge"
)

// PaymentOrder is an order created at the external payment gateway.
// The core never judges payment authenticity; it only reacts to the
// gateway's verified-payment event for an order.
type PaymentOrder struct {
	ID       string
	Purpose  PaymentOrderPurpose
	RideID   string // set when Purpose == ride
	DriverID string // set when Purpose == recharge
	Amount   float64
	Verified bool
	// GatewayPaymentID is the gateway-side payment reference reported
	// with the verified event.
	GatewayPaymentID string
	CreatedAt        time.Time
}
