package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/semaphore"

	"paygate/internal/events"
	"paygate/internal/metrics"
	"paygate/internal/model"
	"paygate/internal/store"
)

var ErrNotStarted = errors.New("settler not started")

type Config struct {
	Delay   DelayPolicy
	Outcome OutcomePolicy
	// Workers bounds how many settlements write to the store at once.
	Workers int
	// RecoveryInterval is the period of the pending-settlement sweep; zero
	// disables the periodic sweep (Start still recovers once).
	RecoveryInterval time.Duration
	RecoveryBatch    int
}

// Settler owns one settlement task per processing payment. Tasks are keyed
// by payment id, wait on the injected clock until the payment's settle_after
// deadline, then resolve it exactly once through the store.
type Settler struct {
	payments  store.PaymentStore
	publisher events.Publisher
	clock     clockwork.Clock

	delay            DelayPolicy
	outcome          OutcomePolicy
	sem              *semaphore.Weighted
	recoveryInterval time.Duration
	batchSize        int

	mu      sync.Mutex
	pending map[string]context.CancelFunc
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	cron    gocron.Scheduler
	running atomic.Bool
}

func NewSettler(payments store.PaymentStore, publisher events.Publisher, clock clockwork.Clock, cfg Config) *Settler {
	if cfg.Workers <= 0 {
		cfg.Workers = 16
	}
	if cfg.RecoveryBatch <= 0 {
		cfg.RecoveryBatch = 500
	}
	return &Settler{
		payments:         payments,
		publisher:        publisher,
		clock:            clock,
		delay:            cfg.Delay,
		outcome:          cfg.Outcome,
		sem:              semaphore.NewWeighted(int64(cfg.Workers)),
		recoveryInterval: cfg.RecoveryInterval,
		batchSize:        cfg.RecoveryBatch,
		pending:          make(map[string]context.CancelFunc),
	}
}

// Start recovers payments left processing by a previous run and, when
// configured, starts the periodic recovery sweep.
func (s *Settler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.ctx != nil {
		s.mu.Unlock()
		return errors.New("settler already started")
	}
	s.ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.mu.Unlock()

	slog.Info("starting settlement worker")
	s.running.Store(true)

	n, err := s.Recover(ctx)
	if err != nil {
		slog.Error("initial settlement recovery failed", "error", err)
	} else if n > 0 {
		slog.Info("recovered pending settlements", "count", n)
	}

	if s.recoveryInterval <= 0 {
		return nil
	}

	cron, err := gocron.NewScheduler(gocron.WithClock(s.clock))
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	_, err = cron.NewJob(
		gocron.DurationJob(s.recoveryInterval),
		gocron.NewTask(s.sweep),
		gocron.WithName("settlement-recovery"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("create recovery job: %w", err)
	}
	cron.Start()
	s.cron = cron
	return nil
}

// Stop cancels every waiting task and waits for in-flight settlements.
// Cancelled payments stay processing and are picked up by the next Start.
func (s *Settler) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel == nil {
		return nil
	}

	s.running.Store(false)
	cancel()
	if s.cron != nil {
		if err := s.cron.Shutdown(); err != nil {
			slog.Error("recovery scheduler shutdown failed", "error", err)
		}
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		slog.Info("settlement worker stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain settlements: %w", ctx.Err())
	}
}

func (s *Settler) Running() bool { return s.running.Load() }

// Pending is the number of tasks currently scheduled in this process.
func (s *Settler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Deadline is the settle_after time for a payment created now.
func (s *Settler) Deadline(m model.Method) time.Time {
	return s.clock.Now().Add(s.delay.Delay(m))
}

// Schedule registers a settlement task for p. It reports false when a task
// for the same payment already exists or the settler is not running.
func (s *Settler) Schedule(p model.Payment) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil || s.ctx.Err() != nil {
		slog.Warn("settlement not scheduled, worker not running", "payment_id", p.ID)
		return false
	}
	if _, ok := s.pending[p.ID]; ok {
		return false
	}

	ctx, cancel := context.WithCancel(s.ctx)
	s.pending[p.ID] = cancel
	s.wg.Add(1)
	metrics.PendingSettlements.Inc()

	go s.run(ctx, p)
	return true
}

func (s *Settler) run(ctx context.Context, p model.Payment) {
	defer s.wg.Done()
	defer s.forget(p.ID)

	if wait := p.SettleAfter.Sub(s.clock.Now()); wait > 0 {
		timer := s.clock.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.Chan():
		}
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return
	}
	defer s.sem.Release(1)

	// Once the deadline has passed the write is allowed to finish even if
	// shutdown starts.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if _, err := s.Settle(writeCtx, p.ID); err != nil {
		slog.Error("settlement failed", "payment_id", p.ID, "error", err)
	}
}

func (s *Settler) forget(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cancel, ok := s.pending[id]; ok {
		cancel()
		delete(s.pending, id)
		metrics.PendingSettlements.Dec()
	}
}

// Settle draws the outcome for a processing payment and applies it. It is
// safe to call more than once: a payment that is already terminal is left
// untouched and false is returned.
func (s *Settler) Settle(ctx context.Context, paymentID string) (bool, error) {
	p, err := s.payments.Get(ctx, paymentID)
	if err != nil {
		return false, fmt.Errorf("get payment: %w", err)
	}
	if p.Status.Terminal() {
		return false, nil
	}

	st := model.NewSettlement(p.ID, s.outcome.Succeed(p.Method), s.clock.Now().UTC())
	applied, err := s.payments.Resolve(ctx, st)
	if err != nil {
		return false, fmt.Errorf("resolve payment: %w", err)
	}
	if !applied {
		slog.Debug("payment already settled", "payment_id", p.ID)
		return false, nil
	}

	metrics.ObserveSettlement(string(p.Method), string(st.Status), st.SettledAt.Sub(p.CreatedAt).Seconds())
	slog.Info("payment settled", "payment_id", p.ID, "order_id", p.OrderID, "status", st.Status)

	if err := s.publisher.Publish(ctx, events.NewPaymentSettled(p, st)); err != nil {
		slog.Error("failed to publish settlement event", "payment_id", p.ID, "error", err)
	}
	return true, nil
}

// Recover schedules every processing payment that has no task in this
// process. Payments past their deadline settle immediately.
func (s *Settler) Recover(ctx context.Context) (int, error) {
	s.mu.Lock()
	started := s.ctx != nil
	s.mu.Unlock()
	if !started {
		return 0, ErrNotStarted
	}
	payments, err := s.payments.ListPending(ctx, s.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list pending payments: %w", err)
	}

	var n int
	for _, p := range payments {
		if p.SettleAfter.IsZero() {
			p.SettleAfter = s.clock.Now()
		}
		if s.Schedule(p) {
			n++
		}
	}
	return n, nil
}

func (s *Settler) sweep() {
	ctx, cancel := context.WithTimeout(s.ctx, 30*time.Second)
	defer cancel()
	n, err := s.Recover(ctx)
	if err != nil {
		slog.Error("settlement recovery sweep failed", "error", err)
		return
	}
	if n > 0 {
		slog.Info("settlement recovery sweep scheduled payments", "count", n)
	}
}
