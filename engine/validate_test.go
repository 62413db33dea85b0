package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/promo-engine/config"
	"github.com/warp/promo-engine/engine"
	"github.com/warp/promo-engine/promo"
	"github.com/warp/promo-engine/promo/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newValidator(repo promo.Repository) *engine.Validator {
	return engine.NewValidator(
		engine.NewDetector(repo, zerolog.Nop()),
		config.Default().Validation,
		zerolog.Nop(),
	)
}

// validPromo is a promotion that passes every check; the far-future
// start avoids the lead-time warning.
func validPromo(id string) *promo.Promotion {
	p := percentagePromo(id, "10")
	p.StartDate = time.Now().UTC().AddDate(1, 0, 0)
	p.EndDate = p.StartDate.AddDate(0, 1, 0)
	return p
}

// =============================================================================
// AGGREGATION
// =============================================================================

func TestValidate_CleanPromotion(t *testing.T) {
	result := newValidator(store.NewMemory()).Validate(context.Background(), validPromo("v1"))
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestValidate_InvertedDatesAlwaysError(t *testing.T) {
	// GIVEN: start after end AND a zero budget AND no products
	// WHEN: validating
	// THEN: every violation is reported; nothing short-circuits

	p := validPromo("v2")
	p.StartDate, p.EndDate = p.EndDate, p.StartDate
	p.Budget = m("0")
	p.Products = nil

	result := newValidator(store.NewMemory()).Validate(context.Background(), p)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors, "start date must be before end date")
	assert.Contains(t, result.Errors, "budget must be greater than zero")
	assert.Contains(t, result.Errors, "promotion must cover at least one product")
}

func TestValidate_DurationBounds(t *testing.T) {
	// Default bounds are [1, 90] days.
	short := validPromo("v3")
	short.EndDate = short.StartDate.Add(time.Hour)
	result := newValidator(store.NewMemory()).Validate(context.Background(), short)
	assert.False(t, result.Valid)

	long := validPromo("v4")
	long.EndDate = long.StartDate.AddDate(0, 6, 0)
	result = newValidator(store.NewMemory()).Validate(context.Background(), long)
	assert.False(t, result.Valid)
}

func TestValidate_LeadTimeIsWarningOnly(t *testing.T) {
	// Starting in 2 days is a warning, never an error.
	p := validPromo("v5")
	p.StartDate = time.Now().UTC().AddDate(0, 0, 2)
	p.EndDate = p.StartDate.AddDate(0, 0, 30)

	result := newValidator(store.NewMemory()).Validate(context.Background(), p)
	assert.True(t, result.Valid)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "lead time")
}

// =============================================================================
// MECHANIC CEILINGS
// =============================================================================

func TestValidate_PercentageCeiling(t *testing.T) {
	p := validPromo("v6")
	p.Terms.Percentage = m("60") // ceiling is 50

	result := newValidator(store.NewMemory()).Validate(context.Background(), p)
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "exceeds the ceiling")
}

func TestValidate_TieredTiers(t *testing.T) {
	p := validPromo("v7")
	p.Mechanic = promo.MechanicTiered
	p.Terms = promo.Terms{
		DiscountTiers: []promo.DiscountTier{
			{MinVolume: 0, MaxVolume: 100, DiscountPercentage: m("5")},
			{MinVolume: 150, MaxVolume: 200, DiscountPercentage: m("80")}, // gap + over ceiling
		},
	}

	result := newValidator(store.NewMemory()).Validate(context.Background(), p)
	assert.False(t, result.Valid)
	assert.Len(t, result.Errors, 2)
}

// =============================================================================
// CONFLICTS AND SYSTEM FAILURES
// =============================================================================

func TestValidate_HighConflictBlocks(t *testing.T) {
	candidate := validPromo("v8")
	rival := validPromo("v9")
	rival.StartDate, rival.EndDate = candidate.StartDate, candidate.EndDate
	rival.Channels = []string{"online"} // overlap category only

	repo := seedPromos(t, rival)
	result := newValidator(repo).Validate(context.Background(), candidate)
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "overlap conflict")
}

func TestValidate_LowerSeverityConflictWarns(t *testing.T) {
	candidate := validPromo("v10")
	rival := validPromo("v11")
	// Short overlap (20% of the candidate window), single shared product.
	rival.StartDate = candidate.StartDate
	rival.EndDate = candidate.StartDate.AddDate(0, 0, 6)
	rival.Channels = []string{"online"}

	repo := seedPromos(t, rival)
	result := newValidator(repo).Validate(context.Background(), candidate)
	assert.True(t, result.Valid)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "overlap conflict")
}

// failingRepo errors on every promotion scan.
type failingRepo struct {
	*store.Memory
}

func (f *failingRepo) ListPromotions(context.Context) ([]*promo.Promotion, error) {
	return nil, errors.New("connection refused")
}

func TestValidate_SystemFailureDowngrades(t *testing.T) {
	// A collaborator failure mid-validation becomes a structured result,
	// never a raw error to the caller.
	repo := &failingRepo{Memory: store.NewMemory()}

	result := newValidator(repo).Validate(context.Background(), validPromo("v12"))
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors, engine.SystemErrorMessage)
}
