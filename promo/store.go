/*
store.go - Collaborator interfaces for the promotion engine

PURPOSE:
  Defines the boundary between the engine and the outside world. The
  engine never talks to a database, broker, or market-data feed
  directly; it receives these interfaces and stays testable with
  in-memory fakes.

KEY INTERFACES:
  Repository: Promotion, claim and performance persistence
  EventSink:  Append-only publication of claim lifecycle events
  MarketData: Baseline volumes plus market/seasonal factors

BOUNDARY CONTRACT:
  Money crossing any of these interfaces is serialized as an exact
  decimal string, never a binary float. Repository implementations must
  preserve the canonical string form round-trip.

IMPLEMENTATIONS:
  - promo/store/memory.go: In-memory, for tests and dev
  - store/sqlite/sqlite.go: Production SQLite
  - events/kafka.go: Kafka EventSink
  - marketdata/static.go: Static MarketData provider

SEE ALSO:
  - types.go: The records these interfaces exchange
*/
package promo

import "context"

// =============================================================================
// REPOSITORY - Persistence collaborator
// =============================================================================

// Repository persists promotions, claims and performance history.
// Performance snapshots are APPEND-ONLY: no update, no delete.
// Promotions are superseded via status transitions, never deleted.
type Repository interface {
	// FindPromotion returns the promotion or a *NotFoundError.
	FindPromotion(ctx context.Context, id string) (*Promotion, error)

	// ListPromotions returns all promotions, any status.
	ListPromotions(ctx context.Context) ([]*Promotion, error)

	// SavePromotion inserts or replaces a promotion definition.
	SavePromotion(ctx context.Context, p *Promotion) error

	// FindClaim returns the claim or a *NotFoundError.
	FindClaim(ctx context.Context, id string) (*Claim, error)

	// CreateClaim persists a new claim. IDs are caller-assigned.
	CreateClaim(ctx context.Context, c *Claim) error

	// UpdateClaim replaces a claim's mutable status fields. Status
	// transitions are monotonic; backward moves are rejected with a
	// *ClaimTransitionError (see CheckClaimTransition).
	UpdateClaim(ctx context.Context, c *Claim) error

	// PerformanceByPromotion returns snapshots ordered by capture time.
	PerformanceByPromotion(ctx context.Context, promotionID string) ([]PerformanceSnapshot, error)

	// LatestPerformance returns the most recent snapshot or a *NotFoundError.
	LatestPerformance(ctx context.Context, promotionID string) (*PerformanceSnapshot, error)

	// AppendPerformance adds a snapshot to the history.
	AppendPerformance(ctx context.Context, s PerformanceSnapshot) error
}

// =============================================================================
// EVENT SINK - Append-only topic publication
// =============================================================================

// ClaimEvent is the claim.created payload. Amount is the exact decimal
// string and Timestamp is RFC 3339.
type ClaimEvent struct {
	Type        string `json:"type"`
	ClaimID     string `json:"claimId"`
	PromotionID string `json:"promotionId"`
	Amount      string `json:"amount"`
	CustomerID  string `json:"customerId"`
	Timestamp   string `json:"timestamp"`
}

// EventTypeClaimCreated is the only event type the engine emits today.
const EventTypeClaimCreated = "claim.created"

// EventSink publishes engine events to a named topic. Publication is
// fire-and-forget from the engine's perspective: the persisted claim is
// the source of truth and a failed publish never fails the claim.
type EventSink interface {
	PublishClaimCreated(ctx context.Context, ev ClaimEvent) error
}

// =============================================================================
// MARKET DATA - Baseline and factor collaborator
// =============================================================================

// MarketData supplies baseline sales volumes and weighted adjustment
// factors for forecasting.
type MarketData interface {
	// BaselineVolume returns the non-promoted sales volume for the
	// product set over a standard period.
	BaselineVolume(ctx context.Context, products []string) (int64, error)

	// MarketFactors returns market-driven adjustment factors.
	MarketFactors(ctx context.Context, products []string) ([]Factor, error)

	// SeasonalFactors returns seasonality factors for a period label.
	SeasonalFactors(ctx context.Context, period string) ([]Factor, error)
}
