package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jonboulle/clockwork"

	"paygate/internal/apperr"
	"paygate/internal/idgen"
	"paygate/internal/model"
	"paygate/internal/store"
)

type OrderService struct {
	orders store.OrderStore
	clock  clockwork.Clock
}

func NewOrderService(orders store.OrderStore, clock clockwork.Clock) *OrderService {
	return &OrderService{orders: orders, clock: clock}
}

type CreateOrderInput struct {
	MerchantID string
	Amount     int64
	Currency   string
	Receipt    *string
	Notes      json.RawMessage
}

func (s *OrderService) Create(ctx context.Context, in CreateOrderInput) (*model.Order, error) {
	if in.Amount < model.MinOrderAmount {
		return nil, apperr.BadRequest("amount must be at least 100")
	}

	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = model.DefaultCurrency
	}
	notes := in.Notes
	if len(notes) == 0 || string(notes) == "null" {
		notes = json.RawMessage(`{}`)
	}

	now := s.clock.Now().UTC()
	o := &model.Order{
		ID:         idgen.Order(),
		MerchantID: in.MerchantID,
		Amount:     in.Amount,
		Currency:   currency,
		Receipt:    in.Receipt,
		Notes:      notes,
		Status:     model.OrderCreated,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return o, nil
}

// Get returns an order owned by merchantID.
func (s *OrderService) Get(ctx context.Context, id, merchantID string) (*model.Order, error) {
	return s.lookup(s.orders.GetForMerchant(ctx, id, merchantID))
}

// GetPublic returns an order for the hosted checkout page.
func (s *OrderService) GetPublic(ctx context.Context, id string) (*model.PublicOrder, error) {
	o, err := s.lookup(s.orders.Get(ctx, id))
	if err != nil {
		return nil, err
	}
	pub := o.Public()
	return &pub, nil
}

func (s *OrderService) lookup(o *model.Order, err error) (*model.Order, error) {
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("Order not found")
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}
