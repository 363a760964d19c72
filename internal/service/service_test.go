package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paygate/internal/apperr"
	"paygate/internal/model"
	"paygate/internal/store"
)

type fakeScheduler struct {
	mu        sync.Mutex
	delay     time.Duration
	clock     clockwork.Clock
	scheduled []model.Payment
	reject    bool
}

func (f *fakeScheduler) Deadline(model.Method) time.Time {
	return f.clock.Now().Add(f.delay)
}

func (f *fakeScheduler) Schedule(p model.Payment) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reject {
		return false
	}
	f.scheduled = append(f.scheduled, p)
	return true
}

type harness struct {
	mem       *store.Memory
	clock     *clockwork.FakeClock
	sched     *fakeScheduler
	merchants *MerchantService
	orders    *OrderService
	payments  *PaymentService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mem := store.NewMemory()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC))
	sched := &fakeScheduler{delay: time.Second, clock: clock}
	h := &harness{
		mem:       mem,
		clock:     clock,
		sched:     sched,
		merchants: NewMerchantService(mem.Merchants()),
		orders:    NewOrderService(mem.Orders(), clock),
		payments:  NewPaymentService(mem.Orders(), mem.Payments(), sched, clock),
	}
	require.NoError(t, h.merchants.SeedTestMerchant(context.Background()))
	return h
}

func (h *harness) order(t *testing.T, amount int64) *model.Order {
	t.Helper()
	o, err := h.orders.Create(context.Background(), CreateOrderInput{
		MerchantID: TestMerchantID,
		Amount:     amount,
		Currency:   "INR",
	})
	require.NoError(t, err)
	return o
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var ae *apperr.Error
	require.True(t, errors.As(err, &ae), "expected coded error, got %v", err)
	assert.Equal(t, code, ae.Code)
}

func TestMerchantAuthenticate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	m, err := h.merchants.Authenticate(ctx, TestMerchantKey, TestMerchantSecret)
	require.NoError(t, err)
	assert.Equal(t, TestMerchantID, m.ID)

	_, err = h.merchants.Authenticate(ctx, TestMerchantKey, "wrong")
	requireCode(t, err, apperr.CodeAuthentication)

	_, err = h.merchants.Authenticate(ctx, "key_unknown", TestMerchantSecret)
	requireCode(t, err, apperr.CodeAuthentication)

	_, err = h.merchants.Authenticate(ctx, "", "")
	requireCode(t, err, apperr.CodeAuthentication)

	tm, err := h.merchants.TestMerchant(ctx)
	require.NoError(t, err)
	assert.Equal(t, TestMerchantEmail, tm.Email)
}

func TestOrderCreate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	o, err := h.orders.Create(ctx, CreateOrderInput{MerchantID: TestMerchantID, Amount: 100})
	require.NoError(t, err)
	assert.Regexp(t, `^order_[a-zA-Z0-9]{16}$`, o.ID)
	assert.Equal(t, model.DefaultCurrency, o.Currency)
	assert.Equal(t, model.OrderCreated, o.Status)
	assert.JSONEq(t, `{}`, string(o.Notes))

	_, err = h.orders.Create(ctx, CreateOrderInput{MerchantID: TestMerchantID, Amount: 99})
	requireCode(t, err, apperr.CodeBadRequest)

	pub, err := h.orders.GetPublic(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), pub.Amount)

	_, err = h.orders.Get(ctx, o.ID, "another-merchant")
	requireCode(t, err, apperr.CodeNotFound)
}

func TestPaymentCreateUPI(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	o := h.order(t, 500)

	p, err := h.payments.Create(ctx, CreatePaymentInput{
		OrderID:    o.ID,
		MerchantID: TestMerchantID,
		Instrument: model.UPI{VPA: "user@bank"},
	})
	require.NoError(t, err)
	assert.Regexp(t, `^pay_[a-zA-Z0-9]{16}$`, p.ID)
	assert.Equal(t, model.PaymentProcessing, p.Status)
	assert.Equal(t, model.MethodUPI, p.Method)
	assert.Equal(t, "user@bank", p.VPA)
	assert.Equal(t, int64(500), p.Amount)
	assert.Equal(t, "INR", p.Currency)
	assert.Equal(t, h.clock.Now().Add(time.Second), p.SettleAfter)

	require.Len(t, h.sched.scheduled, 1)
	assert.Equal(t, p.ID, h.sched.scheduled[0].ID)

	stored, err := h.payments.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentProcessing, stored.Status)
}

func TestPaymentCreateCard(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	o := h.order(t, 1500)

	p, err := h.payments.Create(ctx, CreatePaymentInput{
		OrderID: o.ID,
		Instrument: model.Card{
			Number:      "4111 1111 1111 1111",
			ExpiryMonth: "12",
			ExpiryYear:  "2099",
			CVV:         "123",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, model.MethodCard, p.Method)
	assert.Equal(t, model.NetworkVisa, p.CardNetwork)
	assert.Equal(t, "1111", p.CardLast4)
	assert.Equal(t, TestMerchantID, p.MerchantID, "public path takes merchant from the order")
	assert.Equal(t, int64(1500), p.Amount)
}

func TestPaymentCreateRejections(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	o := h.order(t, 500)

	tests := []struct {
		name string
		in   CreatePaymentInput
		code string
	}{
		{
			name: "unknown order",
			in:   CreatePaymentInput{OrderID: "order_doesnotexist00", Instrument: model.UPI{VPA: "user@bank"}},
			code: apperr.CodeNotFound,
		},
		{
			name: "order of another merchant",
			in:   CreatePaymentInput{OrderID: o.ID, MerchantID: "other", Instrument: model.UPI{VPA: "user@bank"}},
			code: apperr.CodeNotFound,
		},
		{
			name: "missing order id",
			in:   CreatePaymentInput{Instrument: model.UPI{VPA: "user@bank"}},
			code: apperr.CodeBadRequest,
		},
		{
			name: "bad vpa",
			in:   CreatePaymentInput{OrderID: o.ID, Instrument: model.UPI{VPA: "not-a-vpa"}},
			code: apperr.CodeInvalidVPA,
		},
		{
			name: "empty vpa",
			in:   CreatePaymentInput{OrderID: o.ID, Instrument: model.UPI{}},
			code: apperr.CodeInvalidVPA,
		},
		{
			name: "luhn failure",
			in: CreatePaymentInput{OrderID: o.ID, Instrument: model.Card{
				Number: "4111111111111112", ExpiryMonth: "12", ExpiryYear: "2099",
			}},
			code: apperr.CodeInvalidCard,
		},
		{
			name: "expired card",
			in: CreatePaymentInput{OrderID: o.ID, Instrument: model.Card{
				Number: "4111111111111111", ExpiryMonth: "01", ExpiryYear: "2020",
			}},
			code: apperr.CodeExpiredCard,
		},
		{
			name: "no instrument",
			in:   CreatePaymentInput{OrderID: o.ID},
			code: apperr.CodeInvalidMethod,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.payments.Create(ctx, tt.in)
			requireCode(t, err, tt.code)
		})
	}

	list, err := h.payments.ListByMerchant(ctx, TestMerchantID)
	require.NoError(t, err)
	assert.Empty(t, list, "rejected requests must not create payments")
	assert.Empty(t, h.sched.scheduled)
}

func TestPaymentCreateSchedulerUnavailable(t *testing.T) {
	h := newHarness(t)
	h.sched.reject = true
	o := h.order(t, 500)

	p, err := h.payments.Create(context.Background(), CreatePaymentInput{
		OrderID:    o.ID,
		Instrument: model.UPI{VPA: "user@bank"},
	})
	require.NoError(t, err)

	pending, err := h.mem.Payments().ListPending(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, p.ID, pending[0].ID, "unscheduled payment stays pending for recovery")
}

func TestPaymentGetNotFound(t *testing.T) {
	h := newHarness(t)
	_, err := h.payments.Get(context.Background(), "pay_doesnotexist0000")
	requireCode(t, err, apperr.CodeNotFound)
}
