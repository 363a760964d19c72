package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"paygate/internal/model"
)

// Memory keeps merchants, orders and payments in process. One lock guards all
// three maps so Resolve updates a payment and its order together.
type Memory struct {
	mu        sync.RWMutex
	merchants map[string]model.Merchant
	orders    map[string]model.Order
	payments  map[string]model.Payment
}

func NewMemory() *Memory {
	return &Memory{
		merchants: make(map[string]model.Merchant),
		orders:    make(map[string]model.Order),
		payments:  make(map[string]model.Payment),
	}
}

func (m *Memory) Merchants() MerchantStore { return memMerchants{m} }
func (m *Memory) Orders() OrderStore       { return memOrders{m} }
func (m *Memory) Payments() PaymentStore   { return memPayments{m} }

func (m *Memory) Ping(context.Context) error { return nil }

type memMerchants struct{ m *Memory }

func (s memMerchants) find(match func(model.Merchant) bool) (*model.Merchant, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	for _, mc := range s.m.merchants {
		if match(mc) {
			return &mc, nil
		}
	}
	return nil, ErrNotFound
}

func (s memMerchants) GetByAPIKey(_ context.Context, apiKey string) (*model.Merchant, error) {
	return s.find(func(mc model.Merchant) bool { return mc.APIKey == apiKey })
}

func (s memMerchants) Get(_ context.Context, id string) (*model.Merchant, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	mc, ok := s.m.merchants[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &mc, nil
}

func (s memMerchants) GetByEmail(_ context.Context, email string) (*model.Merchant, error) {
	return s.find(func(mc model.Merchant) bool { return mc.Email == email })
}

func (s memMerchants) Seed(_ context.Context, mc *model.Merchant) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, existing := range s.m.merchants {
		if existing.Email == mc.Email {
			return nil
		}
	}
	s.m.merchants[mc.ID] = *mc
	return nil
}

type memOrders struct{ m *Memory }

func (s memOrders) Create(_ context.Context, o *model.Order) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.orders[o.ID]; ok {
		return ErrDuplicate
	}
	if _, ok := s.m.merchants[o.MerchantID]; !ok {
		return ErrNotFound
	}
	cp := *o
	cp.Notes = slices.Clone(o.Notes)
	s.m.orders[o.ID] = cp
	return nil
}

func (s memOrders) Get(_ context.Context, id string) (*model.Order, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	o, ok := s.m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	o.Notes = slices.Clone(o.Notes)
	return &o, nil
}

func (s memOrders) GetForMerchant(ctx context.Context, id, merchantID string) (*model.Order, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.MerchantID != merchantID {
		return nil, ErrNotFound
	}
	return o, nil
}

type memPayments struct{ m *Memory }

func (s memPayments) Create(_ context.Context, p *model.Payment) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.payments[p.ID]; ok {
		return ErrDuplicate
	}
	if _, ok := s.m.orders[p.OrderID]; !ok {
		return ErrNotFound
	}
	s.m.payments[p.ID] = *p
	return nil
}

func (s memPayments) Get(_ context.Context, id string) (*model.Payment, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	p, ok := s.m.payments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s memPayments) ListByMerchant(_ context.Context, merchantID string) ([]model.Payment, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	payments := make([]model.Payment, 0)
	for _, p := range s.m.payments {
		if p.MerchantID == merchantID {
			payments = append(payments, p)
		}
	}
	slices.SortFunc(payments, func(a, b model.Payment) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return payments, nil
}

func (s memPayments) ListPending(_ context.Context, limit int) ([]model.Payment, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	payments := make([]model.Payment, 0)
	for _, p := range s.m.payments {
		if p.Status == model.PaymentProcessing {
			payments = append(payments, p)
		}
	}
	slices.SortFunc(payments, func(a, b model.Payment) int {
		return a.SettleAfter.Compare(b.SettleAfter)
	})
	if limit > 0 && len(payments) > limit {
		payments = payments[:limit]
	}
	return payments, nil
}

func (s memPayments) Resolve(_ context.Context, st model.Settlement) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	p, ok := s.m.payments[st.PaymentID]
	if !ok {
		return false, ErrNotFound
	}
	if p.Status.Terminal() {
		return false, nil
	}

	p.Status = st.Status
	p.ErrorCode = st.ErrorCode
	p.ErrorDescription = st.ErrorDescription
	p.SettleAfter = time.Time{}
	p.UpdatedAt = st.SettledAt
	s.m.payments[p.ID] = p

	if st.Status == model.PaymentSuccess {
		if o, ok := s.m.orders[p.OrderID]; ok && o.Status == model.OrderCreated {
			o.Status = model.OrderPaid
			o.UpdatedAt = st.SettledAt
			s.m.orders[o.ID] = o
		}
	}
	return true, nil
}

var _ Pinger = (*Memory)(nil)
