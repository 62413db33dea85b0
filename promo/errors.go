/*
errors.go - Centralized error taxonomy for the promotion engine

PURPOSE:
  All error types in one place. Calculation and forecast errors fail
  fast; business-rule findings (validation, conflicts) are reported via
  result structs and never surface here.

ERROR CATEGORIES:
  1. Not-found errors - Missing promotion or claim records
  2. Calculation errors - Bad volume, unsupported mechanic
  3. Eligibility errors - Claims failing business preconditions
  4. System errors - Collaborator failures, converted to structured
     results at the validation boundary instead of propagating raw

USAGE:
  if errors.Is(err, promo.ErrInvalidVolume) { ... }

  var inel *promo.IneligibleClaimError
  if errors.As(err, &inel) { reject(inel.Reason) }

SEE ALSO:
  - engine/validate.go: Downgrades SystemError to a structured result
  - engine/claims.go: Produces IneligibleClaimError
*/
package promo

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrPromotionNotFound is returned when a referenced promotion doesn't exist.
	ErrPromotionNotFound = errors.New("promotion not found")

	// ErrClaimNotFound is returned when a referenced claim doesn't exist.
	ErrClaimNotFound = errors.New("claim not found")

	// ErrInvalidVolume is returned for zero or negative volume where the
	// mechanic divides by volume. Guards the tiered per-unit division.
	ErrInvalidVolume = errors.New("invalid volume")

	// ErrUnsupportedMechanic is returned for a mechanic outside the closed
	// enum. There is no silent zero-discount fallback.
	ErrUnsupportedMechanic = errors.New("unsupported pricing mechanic")

	// ErrIneligibleClaim is returned when a claim fails eligibility.
	ErrIneligibleClaim = errors.New("claim not eligible")

	// ErrClaimTransition is returned for a backward claim status move.
	// Claim lifecycles are monotonic: once validated or approved, a claim
	// never reverts to pending.
	ErrClaimTransition = errors.New("invalid claim status transition")

	// ErrSystem marks collaborator failures (store, market data).
	ErrSystem = errors.New("system error")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidVolumeError reports the offending volume and mechanic.
type InvalidVolumeError struct {
	PromotionID string
	Mechanic    Mechanic
	Volume      int64
}

func (e *InvalidVolumeError) Error() string {
	return fmt.Sprintf("invalid volume %d for %s calculation on promotion %s",
		e.Volume, e.Mechanic, e.PromotionID)
}

func (e *InvalidVolumeError) Unwrap() error { return ErrInvalidVolume }

// UnsupportedMechanicError reports an unknown mechanic value.
type UnsupportedMechanicError struct {
	PromotionID string
	Mechanic    Mechanic
}

func (e *UnsupportedMechanicError) Error() string {
	return fmt.Sprintf("unsupported mechanic %q on promotion %s", e.Mechanic, e.PromotionID)
}

func (e *UnsupportedMechanicError) Unwrap() error { return ErrUnsupportedMechanic }

// IneligibleClaimError carries a human-readable rejection reason.
type IneligibleClaimError struct {
	PromotionID string
	Reason      string
}

func (e *IneligibleClaimError) Error() string {
	return fmt.Sprintf("claim against promotion %s rejected: %s", e.PromotionID, e.Reason)
}

func (e *IneligibleClaimError) Unwrap() error { return ErrIneligibleClaim }

// ClaimTransitionError reports a rejected backward status move.
type ClaimTransitionError struct {
	ClaimID string
	Field   string // "validation" or "approval"
	From    string
	To      string
}

func (e *ClaimTransitionError) Error() string {
	return fmt.Sprintf("claim %s: %s status cannot move from %s to %s",
		e.ClaimID, e.Field, e.From, e.To)
}

func (e *ClaimTransitionError) Unwrap() error { return ErrClaimTransition }

// NotFoundError identifies which record kind was missing.
type NotFoundError struct {
	Kind string // "promotion" or "claim"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	if e.Kind == "claim" {
		return ErrClaimNotFound
	}
	return ErrPromotionNotFound
}

// SystemError wraps a collaborator failure with the operation context.
type SystemError struct {
	Op  string
	Err error
}

func (e *SystemError) Error() string {
	return fmt.Sprintf("system error in %s: %v", e.Op, e.Err)
}

func (e *SystemError) Unwrap() error { return ErrSystem }

// PeriodBoundsReason formats the standard eligibility reason for a claim
// period falling outside the promotion window.
func PeriodBoundsReason(claimStart, claimEnd, promoStart, promoEnd time.Time) string {
	return fmt.Sprintf("claim period %s..%s must lie within promotion period %s..%s",
		claimStart.Format("2006-01-02"), claimEnd.Format("2006-01-02"),
		promoStart.Format("2006-01-02"), promoEnd.Format("2006-01-02"))
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound reports whether the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPromotionNotFound) || errors.Is(err, ErrClaimNotFound)
}

// IsClientError reports whether the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidVolume) ||
		errors.Is(err, ErrUnsupportedMechanic) ||
		errors.Is(err, ErrIneligibleClaim) ||
		errors.Is(err, ErrClaimTransition)
}

// IsSystem reports whether the error came from a collaborator failure.
func IsSystem(err error) bool { return errors.Is(err, ErrSystem) }
