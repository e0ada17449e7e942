// Package rng provides the shared randomness service used by simulation rules.
//
// Rules draw at a very high rate, so the service keeps a pool of pre-generated
// values refilled by a background goroutine. A draw takes from the pool when a
// value is ready and otherwise falls back to a direct draw, never blocking.
package rng

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
)

// Source is the randomness interface rules depend on.
type Source interface {
	Float64() float64
	Intn(n int) int
}

// Stats reports how draws were served.
type Stats struct {
	Buffered uint64
	Direct   uint64
}

// Service is a pooled random number source safe for concurrent use.
type Service struct {
	seed int64
	pool chan float64

	mu     sync.Mutex
	direct *rand.Rand

	buffered atomic.Uint64
	directN  atomic.Uint64

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a service. poolSize 0 disables buffering, making every draw
// direct and the sequence fully determined by seed.
func New(seed int64, poolSize int) *Service {
	s := &Service{
		seed:   seed,
		direct: rand.New(rand.NewSource(seed)),
	}
	if poolSize > 0 {
		s.pool = make(chan float64, poolSize)
	}
	return s
}

// Start launches the background refill goroutine. It stops when ctx is
// cancelled or Close is called. Calling Start twice is a no-op.
func (s *Service) Start(ctx context.Context) {
	if s.pool == nil || s.done != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	// The refiller owns its own source; rand.Rand is not goroutine safe.
	src := rand.New(rand.NewSource(s.seed ^ 0x5deece66d))
	go s.refill(ctx, src)
}

func (s *Service) refill(ctx context.Context, src *rand.Rand) {
	defer close(s.done)
	for {
		v := src.Float64()
		select {
		case <-ctx.Done():
			return
		case s.pool <- v:
		}
	}
}

// Close stops the refill goroutine and waits for it to exit.
func (s *Service) Close() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
}

// Prefill tops the pool up synchronously from the direct source.
func (s *Service) Prefill() {
	if s.pool == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		select {
		case s.pool <- s.direct.Float64():
		default:
			return
		}
	}
}

// Float64 returns a value in [0, 1).
func (s *Service) Float64() float64 {
	select {
	case v := <-s.pool:
		s.buffered.Add(1)
		return v
	default:
	}

	s.directN.Add(1)
	s.mu.Lock()
	v := s.direct.Float64()
	s.mu.Unlock()
	return v
}

// Intn returns a value in [0, n). n <= 0 returns 0.
func (s *Service) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	i := int(s.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}

// Stats returns the draw counters.
func (s *Service) Stats() Stats {
	return Stats{
		Buffered: s.buffered.Load(),
		Direct:   s.directN.Load(),
	}
}

// Chance reports whether a draw from src falls below p.
func Chance(src Source, p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return src.Float64() < p
}
