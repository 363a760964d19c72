package worker

import (
	"math/rand/v2"
	"sync"
	"time"

	"paygate/internal/model"
)

// Rand is a goroutine-safe, seedable random source.
type Rand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRand seeds a source with seed; zero picks a seed from the wall clock.
func NewRand(seed uint64) *Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Rand{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (r *Rand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

func (r *Rand) Int64N(n int64) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Int64N(n)
}

// DelayPolicy decides how long a payment waits before it is settled.
type DelayPolicy interface {
	Delay(m model.Method) time.Duration
}

type FixedDelay time.Duration

func (d FixedDelay) Delay(model.Method) time.Duration { return time.Duration(d) }

// RandomDelay draws uniformly from [Min, Max] at millisecond granularity.
type RandomDelay struct {
	Min, Max time.Duration
	Rand     *Rand
}

func (d RandomDelay) Delay(model.Method) time.Duration {
	if d.Max <= d.Min {
		return d.Min
	}
	span := int64((d.Max-d.Min)/time.Millisecond) + 1
	return d.Min + time.Duration(d.Rand.Int64N(span))*time.Millisecond
}

// OutcomePolicy decides whether the simulated bank accepts a payment.
type OutcomePolicy interface {
	Succeed(m model.Method) bool
}

type FixedOutcome bool

func (o FixedOutcome) Succeed(model.Method) bool { return bool(o) }

const (
	DefaultUPISuccessRate  = 0.90
	DefaultCardSuccessRate = 0.95
)

// RandomOutcome succeeds with a per-method probability.
type RandomOutcome struct {
	UPI, Card float64
	Rand      *Rand
}

func (o RandomOutcome) Succeed(m model.Method) bool {
	p := o.Card
	if m == model.MethodUPI {
		p = o.UPI
	}
	return o.Rand.Float64() < p
}
