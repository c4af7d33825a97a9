package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// MockGateway is a stand-in payment gateway for local development and
// testing. Orders always succeed and are never charged anywhere.
type MockGateway struct{}

// NewMockGateway creates a new mock gateway.
func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

// CreateOrder returns a synthetic order ID.
func (g *MockGateway) CreateOrder(ctx context.Context, amount float64, receipt string) (string, error) {
	return fmt.Sprintf("order_mock_%s", uuid.New().String()[:12]), nil
}

var _ PaymentGateway = (*MockGateway)(nil)
