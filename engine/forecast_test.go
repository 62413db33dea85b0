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
	"github.com/warp/promo-engine/marketdata"
	"github.com/warp/promo-engine/promo"
	"github.com/warp/promo-engine/promo/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func seedHistory(t *testing.T, repo *store.Memory, promotionID string, months int) {
	t.Helper()
	base := date(2026, time.January, 1)
	for i := 0; i < months; i++ {
		err := repo.AppendPerformance(context.Background(), promo.PerformanceSnapshot{
			PromotionID: promotionID,
			PeriodLabel: base.AddDate(0, i, 0).Format("2006-01"),
			Volume:      100,
			Revenue:     m("1000"),
			Cost:        m("300"),
			ROI:         m("2.33"),
			CapturedAt:  base.AddDate(0, i, 0),
		})
		require.NoError(t, err)
	}
}

func newForecaster(repo *store.Memory, market promo.MarketData) *engine.Forecaster {
	return engine.NewForecaster(repo, market, config.Default().Forecast, zerolog.Nop())
}

// =============================================================================
// FORECAST
// =============================================================================

func TestForecast_AppliesWeightedFactors(t *testing.T) {
	// GIVEN: 3 snapshots averaging volume 100 / revenue 1000 / cost 300,
	//        factors (impact 0.1, weight 0.5) and (impact 0.2, weight 0.5)
	// WHEN: forecasting 30d
	// THEN: adjustment = 1 + 0.05 + 0.10 = 1.15; cost carried unadjusted

	repo := store.NewMemory()
	p := percentagePromo("f1", "10")
	require.NoError(t, repo.SavePromotion(context.Background(), p))
	seedHistory(t, repo, "f1", 3)

	market := &marketdata.Static{
		Market: []promo.Factor{marketdata.NewFactor("category_growth", "0.1", "0.5")},
		Seasonal: map[string][]promo.Factor{
			"30d": {marketdata.NewFactor("summer_peak", "0.2", "0.5")},
		},
	}

	result, err := newForecaster(repo, market).Forecast(context.Background(), "f1", "30d")
	require.NoError(t, err)

	assert.Equal(t, "115", result.ExpectedVolume.String())
	assert.Equal(t, "1150", result.ExpectedRevenue.String())
	assert.Equal(t, "300", result.ExpectedCost.String())
	assert.Equal(t, "3.8333", result.ExpectedROI.String())

	// Market factors precede seasonal factors in the result.
	require.Len(t, result.Factors, 2)
	assert.Equal(t, "category_growth", result.Factors[0].Name)
	assert.Equal(t, "summer_peak", result.Factors[1].Name)
}

func TestForecast_ScalesToHorizon(t *testing.T) {
	// 60d over 30-day snapshots doubles the base.
	repo := store.NewMemory()
	require.NoError(t, repo.SavePromotion(context.Background(), percentagePromo("f2", "10")))
	seedHistory(t, repo, "f2", 3)

	result, err := newForecaster(repo, &marketdata.Static{}).Forecast(context.Background(), "f2", "60d")
	require.NoError(t, err)
	assert.Equal(t, "200", result.ExpectedVolume.String())
	assert.Equal(t, "2000", result.ExpectedRevenue.String())
}

func TestForecast_Confidence(t *testing.T) {
	// Step function: 3+ samples -> 0.9 * 0.85, fewer -> 0.6 * 0.85.
	repo := store.NewMemory()
	require.NoError(t, repo.SavePromotion(context.Background(), percentagePromo("f3", "10")))
	seedHistory(t, repo, "f3", 3)

	sufficient, err := newForecaster(repo, &marketdata.Static{}).Forecast(context.Background(), "f3", "30d")
	require.NoError(t, err)
	assert.InDelta(t, 0.765, sufficient.Confidence, 1e-9)

	sparse := store.NewMemory()
	require.NoError(t, sparse.SavePromotion(context.Background(), percentagePromo("f4", "10")))
	seedHistory(t, sparse, "f4", 1)

	result, err := newForecaster(sparse, &marketdata.Static{}).Forecast(context.Background(), "f4", "30d")
	require.NoError(t, err)
	assert.InDelta(t, 0.51, result.Confidence, 1e-9)
	assert.LessOrEqual(t, result.Confidence, 0.95)
}

func TestForecast_ZeroBaselinePeriodFallsBackToDefault(t *testing.T) {
	// A config file can zero out baseline_period_days; horizon scaling
	// must fall back to the shipped default instead of dividing by zero.
	repo := store.NewMemory()
	require.NoError(t, repo.SavePromotion(context.Background(), percentagePromo("f7", "10")))
	seedHistory(t, repo, "f7", 3)

	cfg := config.Default().Forecast
	cfg.BaselinePeriodDays = 0
	f := engine.NewForecaster(repo, &marketdata.Static{}, cfg, zerolog.Nop())

	result, err := f.Forecast(context.Background(), "f7", "30d")
	require.NoError(t, err)
	assert.Equal(t, "100", result.ExpectedVolume.String())
	assert.Equal(t, "1000", result.ExpectedRevenue.String())
}

func TestForecast_PromotionNotFound(t *testing.T) {
	repo := store.NewMemory()
	_, err := newForecaster(repo, &marketdata.Static{}).Forecast(context.Background(), "ghost", "30d")
	require.Error(t, err)
	assert.True(t, errors.Is(err, promo.ErrPromotionNotFound))
}

func TestForecast_NoHistoryYieldsZeroBase(t *testing.T) {
	repo := store.NewMemory()
	require.NoError(t, repo.SavePromotion(context.Background(), percentagePromo("f5", "10")))

	result, err := newForecaster(repo, &marketdata.Static{}).Forecast(context.Background(), "f5", "30d")
	require.NoError(t, err)
	assert.True(t, result.ExpectedVolume.IsZero())
	assert.True(t, result.ExpectedROI.IsZero())
}

func TestForecast_CachedWithinTTL(t *testing.T) {
	// A second call inside the TTL returns the memoized result even
	// after new history lands (documented staleness limitation).
	repo := store.NewMemory()
	require.NoError(t, repo.SavePromotion(context.Background(), percentagePromo("f6", "10")))
	seedHistory(t, repo, "f6", 3)

	f := newForecaster(repo, &marketdata.Static{}).
		WithCache(engine.NewCache[*promo.ForecastResult]("forecast-test", time.Minute))

	first, err := f.Forecast(context.Background(), "f6", "30d")
	require.NoError(t, err)

	seedHistory(t, repo, "f6", 2) // more history, bigger totals

	second, err := f.Forecast(context.Background(), "f6", "30d")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
