package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"paygate/internal/apperr"
	"paygate/internal/idgen"
	"paygate/internal/metrics"
	"paygate/internal/model"
	"paygate/internal/store"
	"paygate/internal/validate"
)

// Scheduler hands processing payments to the settlement worker.
type Scheduler interface {
	// Deadline returns when a payment of method m created now settles.
	Deadline(m model.Method) time.Time
	Schedule(p model.Payment) bool
}

type CreatePaymentInput struct {
	OrderID string
	// MerchantID is set on the authenticated path. The public checkout path
	// leaves it empty and takes the merchant from the order.
	MerchantID string
	Instrument model.Instrument
}

type PaymentService struct {
	orders    store.OrderStore
	payments  store.PaymentStore
	scheduler Scheduler
	clock     clockwork.Clock
}

func NewPaymentService(orders store.OrderStore, payments store.PaymentStore, scheduler Scheduler, clock clockwork.Clock) *PaymentService {
	return &PaymentService{
		orders:    orders,
		payments:  payments,
		scheduler: scheduler,
		clock:     clock,
	}
}

// Create validates the instrument, stores the payment as processing with the
// order's amount and currency, and schedules its settlement. It does not wait
// for the outcome.
func (s *PaymentService) Create(ctx context.Context, in CreatePaymentInput) (*model.Payment, error) {
	order, err := s.resolveOrder(ctx, in)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	p := &model.Payment{
		ID:         idgen.Payment(),
		OrderID:    order.ID,
		MerchantID: order.MerchantID,
		Amount:     order.Amount,
		Currency:   order.Currency,
		Status:     model.PaymentProcessing,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := applyInstrument(p, in.Instrument, now); err != nil {
		metrics.IncPaymentRejected(err.Code)
		return nil, err
	}
	p.SettleAfter = s.scheduler.Deadline(p.Method).UTC()

	if err := s.payments.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}
	metrics.IncPaymentCreated(string(p.Method))

	if !s.scheduler.Schedule(*p) {
		slog.Warn("payment left for recovery sweep", "payment_id", p.ID)
	}
	return p, nil
}

func (s *PaymentService) resolveOrder(ctx context.Context, in CreatePaymentInput) (*model.Order, error) {
	if in.OrderID == "" {
		return nil, apperr.BadRequest("order_id is required")
	}

	var (
		order *model.Order
		err   error
	)
	if in.MerchantID != "" {
		order, err = s.orders.GetForMerchant(ctx, in.OrderID, in.MerchantID)
	} else {
		order, err = s.orders.Get(ctx, in.OrderID)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("Order not found")
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

// applyInstrument validates the method-specific input and records the
// fields that are persisted for it. Raw card data never reaches p.
func applyInstrument(p *model.Payment, inst model.Instrument, now time.Time) *apperr.Error {
	switch v := inst.(type) {
	case model.UPI:
		if !validate.VPA(v.VPA) {
			return apperr.Validation(apperr.CodeInvalidVPA, "VPA format invalid")
		}
		p.VPA = v.VPA
	case model.Card:
		if !validate.Luhn(v.Number) {
			return apperr.Validation(apperr.CodeInvalidCard, "Card validation failed")
		}
		if !validate.Expiry(v.ExpiryMonth, v.ExpiryYear, now) {
			return apperr.Validation(apperr.CodeExpiredCard, "Card expiry date invalid")
		}
		p.CardNetwork = validate.DetectNetwork(v.Number)
		p.CardLast4 = validate.Last4(v.Number)
	default:
		return apperr.Validation(apperr.CodeInvalidMethod, "Payment method must be upi or card")
	}
	p.Method = inst.Method()
	return nil
}

func (s *PaymentService) Get(ctx context.Context, id string) (*model.Payment, error) {
	p, err := s.payments.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("Payment not found")
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}

func (s *PaymentService) ListByMerchant(ctx context.Context, merchantID string) ([]model.Payment, error) {
	payments, err := s.payments.ListByMerchant(ctx, merchantID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}
