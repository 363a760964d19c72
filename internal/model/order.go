package model

import (
	"encoding/json"
	"time"
)

type OrderStatus string

const (
	OrderCreated OrderStatus = "created"
	OrderPaid    OrderStatus = "paid"
)

// MinOrderAmount is the smallest accepted amount in minor units.
const MinOrderAmount = 100

const DefaultCurrency = "INR"

type Order struct {
	ID         string          `json:"id"`
	MerchantID string          `json:"merchant_id"`
	Amount     int64           `json:"amount"`
	Currency   string          `json:"currency"`
	Receipt    *string         `json:"receipt"`
	Notes      json.RawMessage `json:"notes"`
	Status     OrderStatus     `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// PublicOrder is the subset of an order shown on the hosted checkout page.
type PublicOrder struct {
	ID       string      `json:"id"`
	Amount   int64       `json:"amount"`
	Currency string      `json:"currency"`
	Status   OrderStatus `json:"status"`
}

func (o *Order) Public() PublicOrder {
	return PublicOrder{ID: o.ID, Amount: o.Amount, Currency: o.Currency, Status: o.Status}
}
