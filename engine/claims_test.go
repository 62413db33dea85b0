package engine_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/promo-engine/config"
	"github.com/warp/promo-engine/engine"
	"github.com/warp/promo-engine/money"
	"github.com/warp/promo-engine/promo"
	"github.com/warp/promo-engine/promo/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type claimFixture struct {
	repo      *store.Memory
	sink      *store.MemorySink
	processor *engine.ClaimProcessor
}

func newClaimFixture(t *testing.T, threshold string, promos ...*promo.Promotion) *claimFixture {
	t.Helper()
	repo := store.NewMemory()
	for _, p := range promos {
		require.NoError(t, repo.SavePromotion(context.Background(), p))
	}
	sink := store.NewMemorySink()
	cfg := config.Claims{AutoValidationThreshold: money.MustParse(threshold)}
	return &claimFixture{
		repo:      repo,
		sink:      sink,
		processor: engine.NewClaimProcessor(repo, sink, engine.NewCalculator(zerolog.Nop()), cfg, zerolog.Nop()),
	}
}

func claimRequest(promotionID string) engine.ClaimRequest {
	return engine.ClaimRequest{
		PromotionID: promotionID,
		CustomerID:  "cust-1",
		BasePrice:   m("100"),
		Volume:      10,
		PeriodStart: date(2026, time.September, 5),
		PeriodEnd:   date(2026, time.September, 12),
		Products:    []string{"sku-1"},
	}
}

// =============================================================================
// ELIGIBILITY
// =============================================================================

func TestProcessClaim_RejectsInactivePromotion(t *testing.T) {
	p := percentagePromo("cl1", "10")
	p.Status = promo.StatusDraft
	f := newClaimFixture(t, "5000", p)

	_, err := f.processor.Process(context.Background(), claimRequest("cl1"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, promo.ErrIneligibleClaim))

	var inel *promo.IneligibleClaimError
	require.True(t, errors.As(err, &inel))
	assert.Contains(t, inel.Reason, "not active")
}

func TestProcessClaim_RejectsPeriodOutsidePromotion(t *testing.T) {
	// Claim period partially outside the promotion window: the reason
	// cites both date ranges.
	f := newClaimFixture(t, "5000", percentagePromo("cl2", "10"))

	req := claimRequest("cl2")
	req.PeriodEnd = date(2026, time.October, 15) // promotion ends Oct 1

	_, err := f.processor.Process(context.Background(), req)
	require.Error(t, err)

	var inel *promo.IneligibleClaimError
	require.True(t, errors.As(err, &inel))
	assert.Contains(t, inel.Reason, "must lie within promotion period")
	assert.Contains(t, inel.Reason, "2026-09-01")
	assert.Contains(t, inel.Reason, "2026-10-01")
}

func TestProcessClaim_PeriodInsideIsEligible(t *testing.T) {
	f := newClaimFixture(t, "5000", percentagePromo("cl3", "10"))

	claim, err := f.processor.Process(context.Background(), claimRequest("cl3"))
	require.NoError(t, err)
	assert.NotEmpty(t, claim.ID)
}

func TestProcessClaim_UnknownPromotion(t *testing.T) {
	f := newClaimFixture(t, "5000")
	_, err := f.processor.Process(context.Background(), claimRequest("ghost"))
	assert.True(t, errors.Is(err, promo.ErrPromotionNotFound))
}

// =============================================================================
// PRICING AND AUTO-VALIDATION
// =============================================================================

func TestProcessClaim_AmountIsTotalDiscount(t *testing.T) {
	// 10% of 100 per unit, 10 units -> claim amount 100.
	f := newClaimFixture(t, "5000", percentagePromo("cl4", "10"))

	claim, err := f.processor.Process(context.Background(), claimRequest("cl4"))
	require.NoError(t, err)
	assert.Equal(t, "100", claim.Amount.String())
	assert.Equal(t, "USD", claim.Currency)
}

func TestProcessClaim_AutoApprovalBoundaryInclusive(t *testing.T) {
	// GIVEN: threshold exactly equal to the claim amount (100)
	// WHEN: processing
	// THEN: auto-approved (boundary inclusive)

	f := newClaimFixture(t, "100", percentagePromo("cl5", "10"))

	claim, err := f.processor.Process(context.Background(), claimRequest("cl5"))
	require.NoError(t, err)
	assert.Equal(t, promo.ValidationValidated, claim.ValidationStatus)
	assert.Equal(t, promo.ApprovalApproved, claim.ApprovalStatus)
}

func TestProcessClaim_AboveThresholdStaysPending(t *testing.T) {
	f := newClaimFixture(t, "99.99", percentagePromo("cl6", "10"))

	claim, err := f.processor.Process(context.Background(), claimRequest("cl6"))
	require.NoError(t, err)
	assert.Equal(t, promo.ValidationPending, claim.ValidationStatus)
	assert.Equal(t, promo.ApprovalPending, claim.ApprovalStatus)
}

func TestProcessClaim_PersistsClaim(t *testing.T) {
	f := newClaimFixture(t, "5000", percentagePromo("cl7", "10"))

	claim, err := f.processor.Process(context.Background(), claimRequest("cl7"))
	require.NoError(t, err)

	stored, err := f.repo.FindClaim(context.Background(), claim.ID)
	require.NoError(t, err)
	assert.Equal(t, claim.ClaimNumber, stored.ClaimNumber)
	assert.Equal(t, claim.Amount.String(), stored.Amount.String())
}

// =============================================================================
// EVENTS AND CLAIM NUMBERS
// =============================================================================

func TestProcessClaim_EmitsClaimCreated(t *testing.T) {
	f := newClaimFixture(t, "5000", percentagePromo("cl8", "10"))

	claim, err := f.processor.Process(context.Background(), claimRequest("cl8"))
	require.NoError(t, err)

	events := f.sink.Events()
	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, promo.EventTypeClaimCreated, ev.Type)
	assert.Equal(t, claim.ID, ev.ClaimID)
	assert.Equal(t, "cl8", ev.PromotionID)
	assert.Equal(t, "100", ev.Amount) // exact decimal string
	assert.Equal(t, "cust-1", ev.CustomerID)
	_, perr := time.Parse(time.RFC3339, ev.Timestamp)
	assert.NoError(t, perr)
}

var claimNumberPattern = regexp.MustCompile(`^CLM-[0-9A-Z]+-[0-9A-Z]{6}$`)

func TestNewClaimNumber_Format(t *testing.T) {
	n := engine.NewClaimNumber(time.Now())
	assert.Regexp(t, claimNumberPattern, n)

	// Two numbers generated at the same instant still differ.
	at := time.Now()
	assert.NotEqual(t, engine.NewClaimNumber(at), engine.NewClaimNumber(at))
}
