/*
claims.go - Claim adjudication against a promotion

PURPOSE:
  Validates and prices monetary claims filed against a promotion.
  Eligibility first (active promotion, claim period inside the
  promotion window), then pricing through the discount calculator,
  then persistence and a claim.created event.

AUTO-VALIDATION:
  A claim priced at or below the configured threshold (boundary
  inclusive) is immediately validated and approved. Anything above
  stays pending for manual review.

EVENT EMISSION:
  The persisted claim is the source of truth. Publishing claim.created
  is fire-and-forget: a sink failure is logged, never returned.

SEE ALSO:
  - calculator.go: Pricing
  - promo/errors.go: IneligibleClaimError and friends
*/
package engine

import (
	"context"
	"crypto/rand"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/warp/promo-engine/config"
	"github.com/warp/promo-engine/money"
	"github.com/warp/promo-engine/promo"
)

// =============================================================================
// CLAIM PROCESSOR
// =============================================================================

type ClaimProcessor struct {
	repo   promo.Repository
	sink   promo.EventSink
	calc   *Calculator
	cfg    config.Claims
	logger zerolog.Logger

	// now is injectable for tests.
	now func() time.Time
}

func NewClaimProcessor(repo promo.Repository, sink promo.EventSink, calc *Calculator, cfg config.Claims, logger zerolog.Logger) *ClaimProcessor {
	return &ClaimProcessor{
		repo:   repo,
		sink:   sink,
		calc:   calc,
		cfg:    cfg,
		logger: logger.With().Str("component", "claims").Logger(),
		now:    time.Now,
	}
}

// ClaimRequest is a claim submission before adjudication.
type ClaimRequest struct {
	PromotionID   string
	CustomerID    string
	BasePrice     money.Money
	Volume        int64
	PeriodStart   time.Time
	PeriodEnd     time.Time
	Products      []string
	Documentation []string
}

// Process adjudicates one claim. The returned claim is persisted; its
// statuses reflect the auto-validation decision.
func (cp *ClaimProcessor) Process(ctx context.Context, req ClaimRequest) (*promo.Claim, error) {
	p, err := cp.repo.FindPromotion(ctx, req.PromotionID)
	if err != nil {
		claimsTotal.WithLabelValues("not_found").Inc()
		return nil, err
	}

	if err := cp.checkEligibility(p, req); err != nil {
		claimsTotal.WithLabelValues("ineligible").Inc()
		cp.logger.Warn().Err(err).
			Str("promotion_id", p.ID).
			Str("customer_id", req.CustomerID).
			Msg("claim rejected")
		return nil, err
	}

	calc, err := cp.calc.Calculate(p, req.BasePrice, req.Volume)
	if err != nil {
		claimsTotal.WithLabelValues("calc_error").Inc()
		return nil, err
	}
	amount := calc.TotalDiscount

	now := cp.now().UTC()
	claim := &promo.Claim{
		ID:               uuid.NewString(),
		PromotionID:      p.ID,
		ClaimNumber:      NewClaimNumber(now),
		CustomerID:       req.CustomerID,
		Amount:           amount,
		Currency:         p.Currency,
		ClaimDate:        now,
		PeriodStart:      req.PeriodStart,
		PeriodEnd:        req.PeriodEnd,
		Products:         req.Products,
		Documentation:    req.Documentation,
		ValidationStatus: promo.ValidationPending,
		ApprovalStatus:   promo.ApprovalPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	// Boundary inclusive: a claim exactly at the threshold auto-approves.
	autoApproved := amount.LessOrEqual(cp.cfg.AutoValidationThreshold)
	if autoApproved {
		claim.ValidationStatus = promo.ValidationValidated
		claim.ApprovalStatus = promo.ApprovalApproved
	}

	if err := cp.repo.CreateClaim(ctx, claim); err != nil {
		claimsTotal.WithLabelValues("store_error").Inc()
		return nil, &promo.SystemError{Op: "claims.create", Err: err}
	}

	cp.publish(ctx, claim)

	outcome := "pending"
	if autoApproved {
		outcome = "auto_approved"
	}
	claimsTotal.WithLabelValues(outcome).Inc()
	cp.logger.Info().
		Str("claim_id", claim.ID).
		Str("claim_number", claim.ClaimNumber).
		Str("promotion_id", p.ID).
		Str("amount", amount.String()).
		Bool("auto_approved", autoApproved).
		Msg("claim processed")
	return claim, nil
}

func (cp *ClaimProcessor) checkEligibility(p *promo.Promotion, req ClaimRequest) error {
	if !p.Active() {
		return &promo.IneligibleClaimError{
			PromotionID: p.ID,
			Reason:      "promotion is not active (status " + string(p.Status) + ")",
		}
	}
	if req.PeriodEnd.Before(req.PeriodStart) {
		return &promo.IneligibleClaimError{
			PromotionID: p.ID,
			Reason:      "claim period end precedes its start",
		}
	}
	if !p.Contains(req.PeriodStart, req.PeriodEnd) {
		return &promo.IneligibleClaimError{
			PromotionID: p.ID,
			Reason:      promo.PeriodBoundsReason(req.PeriodStart, req.PeriodEnd, p.StartDate, p.EndDate),
		}
	}
	return nil
}

func (cp *ClaimProcessor) publish(ctx context.Context, claim *promo.Claim) {
	ev := promo.ClaimEvent{
		Type:        promo.EventTypeClaimCreated,
		ClaimID:     claim.ID,
		PromotionID: claim.PromotionID,
		Amount:      claim.Amount.String(),
		CustomerID:  claim.CustomerID,
		Timestamp:   claim.ClaimDate.Format(time.RFC3339),
	}
	if err := cp.sink.PublishClaimCreated(ctx, ev); err != nil {
		cp.logger.Error().Err(err).
			Str("claim_id", claim.ID).
			Msg("claim.created publish failed; claim remains persisted")
	}
}

// =============================================================================
// CLAIM NUMBERS
// =============================================================================

const base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewClaimNumber builds CLM-<base36 ms timestamp>-<6 char random>,
// uppercased.
func NewClaimNumber(at time.Time) string {
	ts := strconv.FormatInt(at.UnixMilli(), 36)
	return strings.ToUpper("CLM-" + ts + "-" + randBase36(6))
}

func randBase36(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failure means the process is in a bad state.
		panic(err)
	}
	for i := range b {
		b[i] = base36Alphabet[int(b[i])%len(base36Alphabet)]
	}
	return string(b)
}
