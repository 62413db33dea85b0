/*
Package promo defines the promotion pricing domain model.

PURPOSE:
  Domain types shared by every engine component: promotions and their
  pricing mechanics, volume/discount tiers, claims filed against a
  promotion, performance history, forecast and conflict results. The
  package also declares the collaborator interfaces (store.go) and the
  error taxonomy (errors.go).

KEY CONCEPTS IN THIS FILE (types.go):
  - Promotion: A priced trade promotion with a mechanic, window and budget
  - Mechanic: Closed enum of pricing mechanics; dispatch is exhaustive,
    an unknown mechanic is an error, never a silent zero discount
  - VolumeTier / DiscountTier: The two tier families. Discount tiers
    partition volume into contiguous buckets; volume tiers multiply the
    resolved discount for large orders
  - Claim: A monetary claim adjudicated against a promotion
  - CalcResult / ForecastResult / ConflictRecord: Engine outputs

DESIGN PRINCIPLES:
  1. Precision: All money and percentages are money.Money (exact decimal)
  2. Immutability of history: performance snapshots and claims are
     append-only; promotions are superseded via status, never deleted
  3. Monotonic claim lifecycle: validation/approval statuses never move
     back to pending once resolved

SEE ALSO:
  - store.go: Repository, EventSink and MarketData interfaces
  - errors.go: Error taxonomy
  - engine/: The components consuming these types
*/
package promo

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/promo-engine/money"
)

// =============================================================================
// MECHANIC - Closed enum of pricing mechanics
// =============================================================================

type Mechanic string

const (
	MechanicPercentage  Mechanic = "percentage_discount"
	MechanicFixedAmount Mechanic = "fixed_amount"
	MechanicVolumeBased Mechanic = "volume_based"
	MechanicTiered      Mechanic = "tiered_discount"
)

// Known reports whether m is one of the supported mechanics. Engine
// dispatch still switches exhaustively; this is for input validation.
func (m Mechanic) Known() bool {
	switch m {
	case MechanicPercentage, MechanicFixedAmount, MechanicVolumeBased, MechanicTiered:
		return true
	}
	return false
}

// =============================================================================
// PROMOTION
// =============================================================================

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending_approval"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Terms holds the mechanic-specific parameters. Only the fields for the
// promotion's mechanic are meaningful; the rest stay zero.
type Terms struct {
	// MechanicPercentage: flat percentage off the base price.
	Percentage money.Money

	// MechanicFixedAmount: flat per-unit amount, volume independent.
	Amount money.Money

	// MechanicVolumeBased: per-unit volume rate. The resolved discount is
	// volume * rate, a volume-scaled quantity, not per-unit.
	VolumeRate money.Money

	// MechanicTiered: contiguous ascending buckets partitioning volume.
	DiscountTiers []DiscountTier

	// Optional for any mechanic: multipliers applied after resolution.
	VolumeTiers []VolumeTier
}

type Promotion struct {
	ID          string
	Name        string
	Mechanic    Mechanic
	Terms       Terms
	StartDate   time.Time
	EndDate     time.Time
	Budget      money.Money
	ActualSpend money.Money
	TargetROI   money.Money
	Currency    string
	Status      Status

	Products []string
	Channels []string

	// BudgetPool names the shared budget pool this promotion draws from.
	// Empty means the promotion has a dedicated budget.
	BudgetPool string

	// Resources lists constrained operational resources the promotion
	// competes for (warehouse slots, field staff, display space).
	Resources []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Active reports whether the promotion accepts claims.
func (p *Promotion) Active() bool { return p.Status == StatusActive }

// Contains reports whether [from, to] lies inside the promotion window.
func (p *Promotion) Contains(from, to time.Time) bool {
	return !from.Before(p.StartDate) && !to.After(p.EndDate)
}

// DurationDays is the promotion window length in whole days.
func (p *Promotion) DurationDays() int {
	return int(p.EndDate.Sub(p.StartDate).Hours() / 24)
}

// HasProduct reports whether the promotion covers the given product.
func (p *Promotion) HasProduct(product string) bool {
	for _, pr := range p.Products {
		if pr == product {
			return true
		}
	}
	return false
}

// =============================================================================
// TIERS
// =============================================================================

// VolumeTier multiplies the resolved discount once the requested volume
// reaches MinVolume. Tiers are ordered ascending by MinVolume; the
// highest qualifying tier wins.
type VolumeTier struct {
	MinVolume  int64
	Multiplier money.Money
}

// DiscountTier is one bucket of a tiered-discount mechanic. Buckets are
// half-open [MinVolume, MaxVolume), ascending, contiguous and
// non-overlapping; together they partition the volume axis.
type DiscountTier struct {
	MinVolume          int64
	MaxVolume          int64
	DiscountPercentage money.Money
}

// Width is the bucket capacity in units.
func (t DiscountTier) Width() int64 { return t.MaxVolume - t.MinVolume }

// =============================================================================
// CLAIM
// =============================================================================

type ValidationStatus string

const (
	ValidationPending   ValidationStatus = "pending"
	ValidationValidated ValidationStatus = "validated"
	ValidationRejected  ValidationStatus = "rejected"
)

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
	ApprovalPaid     ApprovalStatus = "paid"
)

type Claim struct {
	ID          string
	PromotionID string

	// ClaimNumber is the human-facing reference:
	// CLM-<base36 millisecond timestamp>-<6 char random>, uppercased.
	ClaimNumber string

	CustomerID    string
	Amount        money.Money
	Currency      string
	ClaimDate     time.Time
	PeriodStart   time.Time
	PeriodEnd     time.Time
	Products      []string
	Documentation []string

	ValidationStatus ValidationStatus
	ApprovalStatus   ApprovalStatus

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Status lifecycles are monotonic: pending may advance to a decided
// state, approved may advance to paid, and nothing moves backward.
// Decided states (validated/rejected, approved/rejected) share a rank so
// an appeal can flip a decision without reverting to pending.

func (s ValidationStatus) rank() int {
	switch s {
	case ValidationValidated, ValidationRejected:
		return 1
	default:
		return 0
	}
}

func (s ApprovalStatus) rank() int {
	switch s {
	case ApprovalApproved, ApprovalRejected:
		return 1
	case ApprovalPaid:
		return 2
	default:
		return 0
	}
}

// CheckClaimTransition rejects backward status moves. Repository
// implementations call it before replacing a claim's status fields.
func CheckClaimTransition(stored, next *Claim) error {
	if next.ValidationStatus.rank() < stored.ValidationStatus.rank() {
		return &ClaimTransitionError{
			ClaimID: stored.ID,
			Field:   "validation",
			From:    string(stored.ValidationStatus),
			To:      string(next.ValidationStatus),
		}
	}
	if next.ApprovalStatus.rank() < stored.ApprovalStatus.rank() {
		return &ClaimTransitionError{
			ClaimID: stored.ID,
			Field:   "approval",
			From:    string(stored.ApprovalStatus),
			To:      string(next.ApprovalStatus),
		}
	}
	return nil
}

// =============================================================================
// PERFORMANCE HISTORY - Append-only, produced by analytics
// =============================================================================

type PerformanceSnapshot struct {
	PromotionID string
	PeriodLabel string // e.g. "2026-06", "week-23"
	Volume      int64
	Revenue     money.Money
	Cost        money.Money
	ROI         money.Money
	CapturedAt  time.Time
}

// =============================================================================
// ENGINE OUTPUTS
// =============================================================================

// CalcResult is the discount calculator output. All values are exact;
// recomputing from the same inputs yields bit-identical decimals.
type CalcResult struct {
	UnitDiscount    money.Money
	FinalPrice      money.Money
	DiscountPercent money.Money
	TotalDiscount   money.Money

	// AppliedMultiplier is the volume-tier multiplier that was applied,
	// or zero when no volume tier matched.
	AppliedMultiplier money.Money
}

// Factor is a weighted market or seasonal adjustment input. Impact and
// Weight are exact decimals; the forecast adjustment is
// 1 + sum(impact * weight).
type Factor struct {
	Name   string
	Impact decimal.Decimal
	Weight decimal.Decimal
}

type ForecastResult struct {
	PromotionID     string
	Period          string
	ExpectedVolume  money.Money
	ExpectedRevenue money.Money
	ExpectedCost    money.Money
	ExpectedROI     money.Money

	// Confidence is a score in [0, 0.95], not a monetary value.
	Confidence float64

	Factors []Factor
}

// =============================================================================
// CONFLICTS
// =============================================================================

type ConflictCategory string

const (
	ConflictOverlap         ConflictCategory = "overlap"
	ConflictCannibalization ConflictCategory = "cannibalization"
	ConflictBudget          ConflictCategory = "budget"
	ConflictResource        ConflictCategory = "resource"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

type ConflictRecord struct {
	ConflictingPromotionID string
	Name                   string
	Category               ConflictCategory
	Severity               Severity
	Description            string
}

// =============================================================================
// VALIDATION RESULT - Rule violations are data, not errors
// =============================================================================

type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}
