package sap

import (
	"context"
	"math/rand"
	"sync"
)

// Simulator stands in for the SAP gateway in development. Each attempt
// succeeds with the configured probability, which keeps the retry and
// audit-trail paths exercised without a real endpoint.
type Simulator struct {
	successRate float64

	mu  sync.Mutex
	rng *rand.Rand
}

func NewSimulator(successRate float64, seed int64) *Simulator {
	if successRate < 0 || successRate > 1 {
		successRate = 0.7
	}
	return &Simulator{
		successRate: successRate,
		rng:         rand.New(rand.NewSource(seed)),
	}
}

func (s *Simulator) AttemptSync(ctx context.Context, prID string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	s.mu.Lock()
	roll := s.rng.Float64()
	s.mu.Unlock()

	if roll < s.successRate {
		return Result{OK: true, Detail: "synced to SAP (simulated)"}, nil
	}
	return Result{OK: false, Detail: "sap simulator returned a transient failure"}, nil
}
