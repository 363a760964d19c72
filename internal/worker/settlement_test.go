package worker

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paygate/internal/events"
	"paygate/internal/idgen"
	"paygate/internal/model"
	"paygate/internal/store"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.PaymentEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.PaymentEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type fixture struct {
	mem   *store.Memory
	clock *clockwork.FakeClock
	pub   *recordingPublisher
	merch *model.Merchant
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		mem:   store.NewMemory(),
		clock: clockwork.NewFakeClockAt(time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)),
		pub:   &recordingPublisher{},
		merch: &model.Merchant{ID: uuid.NewString(), Email: "m@example.com", APIKey: "key"},
	}
	require.NoError(t, f.mem.Merchants().Seed(context.Background(), f.merch))
	return f
}

func (f *fixture) settler(outcome OutcomePolicy) *Settler {
	return NewSettler(f.mem.Payments(), f.pub, f.clock, Config{
		Delay:   FixedDelay(time.Second),
		Outcome: outcome,
	})
}

// addPayment stores an order and a processing payment due at settleAfter.
func (f *fixture) addPayment(t *testing.T, method model.Method, settleAfter time.Time) (*model.Order, *model.Payment) {
	t.Helper()
	ctx := context.Background()
	now := f.clock.Now()
	o := &model.Order{
		ID: idgen.Order(), MerchantID: f.merch.ID, Amount: 500, Currency: "INR",
		Status: model.OrderCreated, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, f.mem.Orders().Create(ctx, o))
	p := &model.Payment{
		ID: idgen.Payment(), OrderID: o.ID, MerchantID: o.MerchantID, Amount: o.Amount,
		Currency: o.Currency, Method: method, Status: model.PaymentProcessing,
		SettleAfter: settleAfter, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, f.mem.Payments().Create(ctx, p))
	return o, p
}

func (f *fixture) status(t *testing.T, paymentID string) model.PaymentStatus {
	t.Helper()
	p, err := f.mem.Payments().Get(context.Background(), paymentID)
	require.NoError(t, err)
	return p.Status
}

func (f *fixture) orderStatus(t *testing.T, orderID string) model.OrderStatus {
	t.Helper()
	o, err := f.mem.Orders().Get(context.Background(), orderID)
	require.NoError(t, err)
	return o.Status
}

func (f *fixture) waitStatus(t *testing.T, paymentID string, want model.PaymentStatus) {
	t.Helper()
	require.Eventually(t, func() bool {
		return f.status(t, paymentID) == want
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSettlerSettlesAfterDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	f := newFixture(t)
	s := f.settler(FixedOutcome(true))
	require.NoError(t, s.Start(ctx))
	defer s.Stop(ctx)

	o, p := f.addPayment(t, model.MethodUPI, s.Deadline(model.MethodUPI))
	require.True(t, s.Schedule(*p))
	require.False(t, s.Schedule(*p), "duplicate scheduling must be rejected")
	assert.Equal(t, 1, s.Pending())

	require.NoError(t, f.clock.BlockUntilContext(ctx, 1))
	assert.Equal(t, model.PaymentProcessing, f.status(t, p.ID))

	f.clock.Advance(999 * time.Millisecond)
	assert.Equal(t, model.PaymentProcessing, f.status(t, p.ID))

	f.clock.Advance(time.Millisecond)
	f.waitStatus(t, p.ID, model.PaymentSuccess)
	assert.Equal(t, model.OrderPaid, f.orderStatus(t, o.ID))

	require.Eventually(t, func() bool { return s.Pending() == 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, f.pub.count())
}

func TestSettlerDecline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	f := newFixture(t)
	s := f.settler(FixedOutcome(false))
	require.NoError(t, s.Start(ctx))
	defer s.Stop(ctx)

	o, p := f.addPayment(t, model.MethodCard, s.Deadline(model.MethodCard))
	require.True(t, s.Schedule(*p))
	require.NoError(t, f.clock.BlockUntilContext(ctx, 1))
	f.clock.Advance(time.Second)

	f.waitStatus(t, p.ID, model.PaymentFailed)
	got, err := f.mem.Payments().Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ErrCodePaymentFailed, got.ErrorCode)
	assert.Equal(t, model.ErrDescPaymentFailed, got.ErrorDescription)
	assert.Equal(t, model.OrderCreated, f.orderStatus(t, o.ID))
}

func TestSettleIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.settler(FixedOutcome(true))

	o, p := f.addPayment(t, model.MethodUPI, f.clock.Now())

	applied, err := s.Settle(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, applied)

	s.outcome = FixedOutcome(false)
	applied, err = s.Settle(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, applied)

	assert.Equal(t, model.PaymentSuccess, f.status(t, p.ID))
	assert.Equal(t, model.OrderPaid, f.orderStatus(t, o.ID))
	assert.Equal(t, 1, f.pub.count())

	_, err = s.Settle(ctx, "pay_doesnotexist0000")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSettlerStopLeavesPaymentsRecoverable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	f := newFixture(t)

	first := f.settler(FixedOutcome(true))
	require.NoError(t, first.Start(ctx))
	_, p := f.addPayment(t, model.MethodUPI, f.clock.Now().Add(time.Hour))
	require.True(t, first.Schedule(*p))
	require.NoError(t, f.clock.BlockUntilContext(ctx, 1))

	require.NoError(t, first.Stop(ctx))
	assert.Equal(t, 0, first.Pending())
	assert.False(t, first.Running())
	assert.False(t, first.Schedule(*p), "stopped settler must not accept tasks")
	assert.Equal(t, model.PaymentProcessing, f.status(t, p.ID))

	// A new process picks the payment up from its persisted deadline.
	second := f.settler(FixedOutcome(true))
	require.NoError(t, second.Start(ctx))
	defer second.Stop(ctx)
	assert.Equal(t, 1, second.Pending())

	require.NoError(t, f.clock.BlockUntilContext(ctx, 1))
	f.clock.Advance(time.Hour)
	f.waitStatus(t, p.ID, model.PaymentSuccess)
}

func TestSettlerRecoversOverduePayments(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	f := newFixture(t)

	_, overdue := f.addPayment(t, model.MethodCard, f.clock.Now().Add(-time.Minute))
	_, noDeadline := f.addPayment(t, model.MethodCard, time.Time{})

	s := f.settler(FixedOutcome(true))
	require.NoError(t, s.Start(ctx))
	defer s.Stop(ctx)

	f.waitStatus(t, overdue.ID, model.PaymentSuccess)
	f.waitStatus(t, noDeadline.ID, model.PaymentSuccess)

	n, err := s.Recover(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRecoverBeforeStart(t *testing.T) {
	f := newFixture(t)
	_, err := f.settler(FixedOutcome(true)).Recover(context.Background())
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestSettlerConcurrentPaymentsAreIndependent(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	f := newFixture(t)
	s := NewSettler(f.mem.Payments(), f.pub, f.clock, Config{
		Delay:   FixedDelay(time.Second),
		Outcome: RandomOutcome{UPI: 0.5, Card: 0.5, Rand: NewRand(42)},
		Workers: 4,
	})
	require.NoError(t, s.Start(ctx))
	defer s.Stop(ctx)

	const n = 50
	orders := make([]*model.Order, n)
	payments := make([]*model.Payment, n)
	for i := 0; i < n; i++ {
		method := model.MethodUPI
		if i%2 == 0 {
			method = model.MethodCard
		}
		orders[i], payments[i] = f.addPayment(t, method, s.Deadline(method))
		require.True(t, s.Schedule(*payments[i]))
	}
	require.NoError(t, f.clock.BlockUntilContext(ctx, n))
	f.clock.Advance(time.Second)

	require.Eventually(t, func() bool { return s.Pending() == 0 }, 5*time.Second, 10*time.Millisecond)
	for i := 0; i < n; i++ {
		status := f.status(t, payments[i].ID)
		require.True(t, status.Terminal(), fmt.Sprintf("payment %d still %s", i, status))
		if status == model.PaymentSuccess {
			assert.Equal(t, model.OrderPaid, f.orderStatus(t, orders[i].ID))
		} else {
			assert.Equal(t, model.OrderCreated, f.orderStatus(t, orders[i].ID))
		}
	}
	assert.Equal(t, n, f.pub.count())
}
