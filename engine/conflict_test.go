package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/promo-engine/engine"
	"github.com/warp/promo-engine/promo"
	"github.com/warp/promo-engine/promo/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func seedPromos(t *testing.T, promos ...*promo.Promotion) *store.Memory {
	t.Helper()
	repo := store.NewMemory()
	for _, p := range promos {
		require.NoError(t, repo.SavePromotion(context.Background(), p))
	}
	return repo
}

func detect(t *testing.T, repo *store.Memory, candidate *promo.Promotion) []promo.ConflictRecord {
	t.Helper()
	records, err := engine.NewDetector(repo, zerolog.Nop()).Detect(context.Background(), candidate)
	require.NoError(t, err)
	return records
}

func byCategory(records []promo.ConflictRecord, cat promo.ConflictCategory) []promo.ConflictRecord {
	var out []promo.ConflictRecord
	for _, r := range records {
		if r.Category == cat {
			out = append(out, r)
		}
	}
	return out
}

// =============================================================================
// CATEGORIES
// =============================================================================

func TestDetect_OverlapRequiresSharedProductAndWindow(t *testing.T) {
	// GIVEN: two promotions on the same product with fully overlapping windows
	// WHEN: detecting conflicts
	// THEN: one overlap record, high severity (100% window overlap)

	candidate := percentagePromo("c1", "10")
	rival := percentagePromo("r1", "15")
	rival.Channels = []string{"online"} // isolate the overlap category

	records := detect(t, seedPromos(t, candidate, rival), candidate)
	overlaps := byCategory(records, promo.ConflictOverlap)
	require.Len(t, overlaps, 1)
	assert.Equal(t, "r1", overlaps[0].ConflictingPromotionID)
	assert.Equal(t, promo.SeverityHigh, overlaps[0].Severity)
}

func TestDetect_DisjointWindowsNeverConflict(t *testing.T) {
	candidate := percentagePromo("c2", "10")
	rival := percentagePromo("r2", "15")
	rival.StartDate = date(2027, time.January, 1)
	rival.EndDate = date(2027, time.February, 1)

	records := detect(t, seedPromos(t, candidate, rival), candidate)
	assert.Empty(t, records)
}

func TestDetect_CannibalizationNeedsSharedChannelOnly(t *testing.T) {
	// Shared channel + overlapping window, no shared product required.
	candidate := percentagePromo("c3", "10")
	rival := percentagePromo("r3", "15")
	rival.Products = []string{"sku-other"}

	records := detect(t, seedPromos(t, candidate, rival), candidate)
	cann := byCategory(records, promo.ConflictCannibalization)
	require.Len(t, cann, 1)
	// Same mechanic, full window overlap -> high.
	assert.Equal(t, promo.SeverityHigh, cann[0].Severity)
	assert.Empty(t, byCategory(records, promo.ConflictOverlap))
}

func TestDetect_BudgetPoolSeverityTracksCommitment(t *testing.T) {
	candidate := percentagePromo("c4", "10")
	candidate.BudgetPool = "q3-trade"
	candidate.ActualSpend = m("9000")
	rival := percentagePromo("r4", "15")
	rival.BudgetPool = "q3-trade"
	rival.ActualSpend = m("12000")
	rival.Products = []string{"sku-other"}
	rival.Channels = []string{"online"}

	// Combined spend 21000 over combined budget 20000 -> high.
	records := detect(t, seedPromos(t, candidate, rival), candidate)
	budget := byCategory(records, promo.ConflictBudget)
	require.Len(t, budget, 1)
	assert.Equal(t, promo.SeverityHigh, budget[0].Severity)

	// Lower commitment -> low severity.
	candidate.ActualSpend = m("1000")
	rival.ActualSpend = m("2000")
	records = detect(t, seedPromos(t, candidate, rival), candidate)
	budget = byCategory(records, promo.ConflictBudget)
	require.Len(t, budget, 1)
	assert.Equal(t, promo.SeverityLow, budget[0].Severity)
}

func TestDetect_ResourceContention(t *testing.T) {
	candidate := percentagePromo("c5", "10")
	candidate.Resources = []string{"warehouse-east", "field-team"}
	rival := percentagePromo("r5", "15")
	rival.Resources = []string{"warehouse-east", "field-team"}
	rival.Products = []string{"sku-other"}
	rival.Channels = []string{"online"}

	records := detect(t, seedPromos(t, candidate, rival), candidate)
	res := byCategory(records, promo.ConflictResource)
	require.Len(t, res, 1)
	assert.Equal(t, promo.SeverityHigh, res[0].Severity) // two shared resources
}

func TestDetect_PairCanMatchMultipleCategories(t *testing.T) {
	candidate := percentagePromo("c6", "10")
	candidate.Resources = []string{"warehouse-east"}
	rival := percentagePromo("r6", "15")
	rival.Resources = []string{"warehouse-east"}

	// Shared product + shared channel + shared resource.
	records := detect(t, seedPromos(t, candidate, rival), candidate)
	assert.Len(t, byCategory(records, promo.ConflictOverlap), 1)
	assert.Len(t, byCategory(records, promo.ConflictCannibalization), 1)
	assert.Len(t, byCategory(records, promo.ConflictResource), 1)
}

func TestDetect_IgnoresFinishedPromotions(t *testing.T) {
	candidate := percentagePromo("c7", "10")
	rival := percentagePromo("r7", "15")
	rival.Status = promo.StatusCancelled

	records := detect(t, seedPromos(t, candidate, rival), candidate)
	assert.Empty(t, records)
}

// =============================================================================
// RESOLUTION TEXT
// =============================================================================

func TestResolution(t *testing.T) {
	assert.Equal(t, "no conflicts detected", engine.Resolution(nil))

	low := []promo.ConflictRecord{{Severity: promo.SeverityLow}, {Severity: promo.SeverityMedium}}
	assert.Contains(t, engine.Resolution(low), "advisory")

	withHigh := append(low, promo.ConflictRecord{Severity: promo.SeverityHigh})
	assert.Contains(t, engine.Resolution(withHigh), "urgent action required")
}
