// Package store defines the persistence collaborators of the gateway.
package store

import (
	"context"
	"errors"

	"paygate/internal/model"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

type MerchantStore interface {
	GetByAPIKey(ctx context.Context, apiKey string) (*model.Merchant, error)
	Get(ctx context.Context, id string) (*model.Merchant, error)
	GetByEmail(ctx context.Context, email string) (*model.Merchant, error)
	// Seed inserts m unless a merchant with the same email exists.
	Seed(ctx context.Context, m *model.Merchant) error
}

type OrderStore interface {
	Create(ctx context.Context, o *model.Order) error
	Get(ctx context.Context, id string) (*model.Order, error)
	GetForMerchant(ctx context.Context, id, merchantID string) (*model.Order, error)
}

type PaymentStore interface {
	Create(ctx context.Context, p *model.Payment) error
	Get(ctx context.Context, id string) (*model.Payment, error)
	ListByMerchant(ctx context.Context, merchantID string) ([]model.Payment, error)
	// ListPending returns processing payments ordered by their settlement
	// deadline.
	ListPending(ctx context.Context, limit int) ([]model.Payment, error)
	// Resolve moves a processing payment to its terminal status and, on
	// success, marks the owning order paid, as one unit. It reports false
	// when the payment was already terminal.
	Resolve(ctx context.Context, s model.Settlement) (bool, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}
