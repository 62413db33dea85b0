/*
forecast.go - Promotion performance projection

PURPOSE:
  Projects volume, revenue, cost and ROI for a future period from
  historical performance, then adjusts with weighted market and seasonal
  factors supplied by the market-data collaborator.

MODEL:
  base        = mean of historical snapshots, scaled linearly from the
                snapshot period (cfg.BaselinePeriodDays) to the horizon
  adjustment  = 1 + sum(factor.impact * factor.weight)
  volume/revenue scale by adjustment; cost is carried unadjusted
  roi         = adjustedRevenue / cost (zero when cost is not positive)

CONFIDENCE:
  min(0.95, dataQuality * factorReliability). dataQuality is a step
  function of sample count, factorReliability a fixed trust constant;
  both are policy constants in config.Forecast.

SEE ALSO:
  - config/config.go: The tunable constants and their defaults
  - cache.go: Forecast results memoized by (promotionID, period)
*/
package engine

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/warp/promo-engine/config"
	"github.com/warp/promo-engine/money"
	"github.com/warp/promo-engine/promo"
)

// =============================================================================
// FORECASTER
// =============================================================================

type Forecaster struct {
	repo   promo.Repository
	market promo.MarketData
	cfg    config.Forecast
	logger zerolog.Logger

	// cache is optional, keyed by ForecastKey.
	cache *Cache[*promo.ForecastResult]
}

func NewForecaster(repo promo.Repository, market promo.MarketData, cfg config.Forecast, logger zerolog.Logger) *Forecaster {
	return &Forecaster{
		repo:   repo,
		market: market,
		cfg:    cfg,
		logger: logger.With().Str("component", "forecaster").Logger(),
	}
}

func (f *Forecaster) WithCache(cache *Cache[*promo.ForecastResult]) *Forecaster {
	f.cache = cache
	return f
}

// Forecast projects promotion performance over a period label like
// "30d". Calculation errors fail fast; a missing promotion is a
// *promo.NotFoundError.
func (f *Forecaster) Forecast(ctx context.Context, promotionID, period string) (*promo.ForecastResult, error) {
	if f.cache != nil {
		if cached, ok := f.cache.Get(ForecastKey(promotionID, period)); ok {
			return cached, nil
		}
	}

	p, err := f.repo.FindPromotion(ctx, promotionID)
	if err != nil {
		forecastsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	history, err := f.repo.PerformanceByPromotion(ctx, promotionID)
	if err != nil {
		forecastsTotal.WithLabelValues("error").Inc()
		return nil, &promo.SystemError{Op: "forecast.history", Err: err}
	}

	baseVolume, baseRevenue, baseCost := f.baseline(history, period)

	factors, err := f.collectFactors(ctx, p, period)
	if err != nil {
		forecastsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	adjustment := adjustmentFactor(factors)
	adjVolume := baseVolume.Mul(adjustment)
	adjRevenue := baseRevenue.Mul(adjustment)

	result := &promo.ForecastResult{
		PromotionID:     promotionID,
		Period:          period,
		ExpectedVolume:  adjVolume,
		ExpectedRevenue: adjRevenue,
		ExpectedCost:    baseCost,
		ExpectedROI:     SafeROI(adjRevenue, baseCost),
		Confidence:      f.confidence(len(history)),
		Factors:         factors,
	}

	forecastsTotal.WithLabelValues("ok").Inc()
	f.logger.Info().
		Str("promotion_id", promotionID).
		Str("period", period).
		Int("samples", len(history)).
		Str("expected_roi", result.ExpectedROI.String()).
		Float64("confidence", result.Confidence).
		Msg("forecast computed")

	if f.cache != nil {
		f.cache.Put(ForecastKey(promotionID, period), result)
	}
	return result, nil
}

// baseline averages history and scales it to the requested horizon.
func (f *Forecaster) baseline(history []promo.PerformanceSnapshot, period string) (volume, revenue, cost money.Money) {
	if len(history) == 0 {
		return money.Zero(), money.Zero(), money.Zero()
	}

	var totalVolume int64
	totalRevenue, totalCost := money.Zero(), money.Zero()
	for _, s := range history {
		totalVolume += s.Volume
		totalRevenue = totalRevenue.Add(s.Revenue)
		totalCost = totalCost.Add(s.Cost)
	}

	n := int64(len(history))
	scale := f.horizonScale(period)
	volume = money.FromInt(totalVolume).DivInt(n).Mul(scale)
	revenue = totalRevenue.DivInt(n).Mul(scale)
	cost = totalCost.DivInt(n).Mul(scale)
	return volume, revenue, cost
}

// horizonScale converts a period label to a multiple of the snapshot
// period. "30d" over 30-day snapshots is 1; an unparseable label also
// defaults to 1 (one snapshot period). A non-positive configured
// baseline period falls back to the shipped default rather than divide
// by zero.
func (f *Forecaster) horizonScale(period string) money.Money {
	base := f.cfg.BaselinePeriodDays
	if base <= 0 {
		base = config.Default().Forecast.BaselinePeriodDays
	}
	days := base
	if d, ok := parsePeriodDays(period); ok {
		days = d
	}
	return money.FromInt(int64(days)).DivInt(int64(base))
}

// parsePeriodDays reads labels like "30d", "7d", "90d".
func parsePeriodDays(period string) (int, bool) {
	s := strings.TrimSuffix(strings.TrimSpace(strings.ToLower(period)), "d")
	if s == period {
		return 0, false
	}
	d, err := strconv.Atoi(s)
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}

func (f *Forecaster) collectFactors(ctx context.Context, p *promo.Promotion, period string) ([]promo.Factor, error) {
	market, err := f.market.MarketFactors(ctx, p.Products)
	if err != nil {
		return nil, &promo.SystemError{Op: "forecast.market_factors", Err: err}
	}
	seasonal, err := f.market.SeasonalFactors(ctx, period)
	if err != nil {
		return nil, &promo.SystemError{Op: "forecast.seasonal_factors", Err: err}
	}
	// Market factors first, then seasonal; order is part of the result.
	return append(market, seasonal...), nil
}

// adjustmentFactor is 1 + sum(impact * weight), exact.
func adjustmentFactor(factors []promo.Factor) money.Money {
	sum := decimal.NewFromInt(1)
	for _, fa := range factors {
		sum = sum.Add(fa.Impact.Mul(fa.Weight))
	}
	return money.Money{Value: sum}
}

// confidence caps at 0.95: a forecast is never presented as certain.
func (f *Forecaster) confidence(samples int) float64 {
	quality := f.cfg.DataQualityLow
	if samples >= f.cfg.SufficientSamples {
		quality = f.cfg.DataQualityHigh
	}
	c := quality * f.cfg.FactorReliability
	if c > 0.95 {
		c = 0.95
	}
	return c
}
