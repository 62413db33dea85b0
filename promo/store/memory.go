// Package store provides in-memory Repository and EventSink
// implementations for tests and development.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/promo-engine/promo"
)

// =============================================================================
// MEMORY REPOSITORY - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	promotions  map[string]*promo.Promotion
	claims      map[string]*promo.Claim
	performance map[string][]promo.PerformanceSnapshot
}

func NewMemory() *Memory {
	return &Memory{
		promotions:  make(map[string]*promo.Promotion),
		claims:      make(map[string]*promo.Claim),
		performance: make(map[string][]promo.PerformanceSnapshot),
	}
}

func (m *Memory) FindPromotion(_ context.Context, id string) (*promo.Promotion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.promotions[id]
	if !ok {
		return nil, &promo.NotFoundError{Kind: "promotion", ID: id}
	}
	cp := *p
	return &cp, nil
}

func (m *Memory) ListPromotions(_ context.Context) ([]*promo.Promotion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*promo.Promotion, 0, len(m.promotions))
	for _, p := range m.promotions {
		cp := *p
		out = append(out, &cp)
	}
	// Stable order for deterministic scans.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) SavePromotion(_ context.Context, p *promo.Promotion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.promotions[p.ID] = &cp
	return nil
}

func (m *Memory) FindClaim(_ context.Context, id string) (*promo.Claim, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.claims[id]
	if !ok {
		return nil, &promo.NotFoundError{Kind: "claim", ID: id}
	}
	cp := *c
	return &cp, nil
}

func (m *Memory) CreateClaim(_ context.Context, c *promo.Claim) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.claims[c.ID] = &cp
	return nil
}

// UpdateClaim replaces the claim. Backward status moves are rejected
// with a *promo.ClaimTransitionError.
func (m *Memory) UpdateClaim(_ context.Context, c *promo.Claim) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.claims[c.ID]
	if !ok {
		return &promo.NotFoundError{Kind: "claim", ID: c.ID}
	}
	if err := promo.CheckClaimTransition(stored, c); err != nil {
		return err
	}
	cp := *c
	m.claims[c.ID] = &cp
	return nil
}

func (m *Memory) PerformanceByPromotion(_ context.Context, promotionID string) ([]promo.PerformanceSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src := m.performance[promotionID]
	out := make([]promo.PerformanceSnapshot, len(src))
	copy(out, src)
	return out, nil
}

func (m *Memory) LatestPerformance(_ context.Context, promotionID string) (*promo.PerformanceSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src := m.performance[promotionID]
	if len(src) == 0 {
		return nil, &promo.NotFoundError{Kind: "promotion", ID: promotionID}
	}
	latest := src[len(src)-1]
	return &latest, nil
}

// AppendPerformance keeps snapshots ordered by capture time. Append-only.
func (m *Memory) AppendPerformance(_ context.Context, s promo.PerformanceSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snaps := append(m.performance[s.PromotionID], s)
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].CapturedAt.Before(snaps[j].CapturedAt) })
	m.performance[s.PromotionID] = snaps
	return nil
}

// =============================================================================
// MEMORY SINK - Captures published events for assertions
// =============================================================================

type MemorySink struct {
	mu     sync.Mutex
	events []promo.ClaimEvent
}

func NewMemorySink() *MemorySink { return &MemorySink{} }

func (s *MemorySink) PublishClaimCreated(_ context.Context, ev promo.ClaimEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

// Events returns a copy of everything published so far.
func (s *MemorySink) Events() []promo.ClaimEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]promo.ClaimEvent, len(s.events))
	copy(out, s.events)
	return out
}
