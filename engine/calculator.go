/*
calculator.go - Per-unit discount resolution

PURPOSE:
  Resolves the discount a promotion grants for a base price and
  requested volume. This is the arithmetic heart of the engine: claims
  are priced with it, forecasts derive revenue through it, and the
  validation gate checks its ceilings.

MECHANICS:
  percentage_discount: basePrice * pct / 100
  fixed_amount:        constant, volume independent
  volume_based:        volume * rate. NOTE: volume-scaled, not per-unit
  tiered_discount:     volume partitioned sequentially across ascending
                       buckets, blended down to a per-unit rate

VOLUME TIERS:
  After mechanic resolution, volume tiers may multiply the result. Tiers
  are scanned from the highest MinVolume down; the first tier whose
  MinVolume <= volume applies. The scan never reorders the promotion's
  tier slice, so concurrent reads of the same promotion stay safe.

DETERMINISM:
  All arithmetic is exact decimal; only the final per-unit division
  rounds, at money.Scale. Identical inputs produce bit-identical
  output, which is what makes CalcKey memoization sound.

SEE ALSO:
  - estimator.go: ROI built on TotalDiscount
  - claims.go: Claim amounts from TotalDiscount
*/
package engine

import (
	"github.com/rs/zerolog"

	"github.com/warp/promo-engine/money"
	"github.com/warp/promo-engine/promo"
)

// =============================================================================
// CALCULATOR
// =============================================================================

type Calculator struct {
	logger zerolog.Logger

	// cache is optional. Keyed by (promotionID, volume); callers that
	// vary basePrice per promotion must not install one.
	cache *Cache[*promo.CalcResult]
}

func NewCalculator(logger zerolog.Logger) *Calculator {
	return &Calculator{logger: logger.With().Str("component", "calculator").Logger()}
}

// WithCache installs a shared result memo and returns the calculator.
func (c *Calculator) WithCache(cache *Cache[*promo.CalcResult]) *Calculator {
	c.cache = cache
	return c
}

// Calculate resolves the full discount picture for one promotion.
//
// Volume must be positive for the tiered mechanic (the per-unit blend
// divides by it); other mechanics accept any non-negative volume.
func (c *Calculator) Calculate(p *promo.Promotion, basePrice money.Money, volume int64) (*promo.CalcResult, error) {
	if c.cache != nil {
		if cached, ok := c.cache.Get(CalcKey(p.ID, volume)); ok {
			return cached, nil
		}
	}

	discount, err := c.resolveMechanic(p, basePrice, volume)
	if err != nil {
		calculationsTotal.WithLabelValues(string(p.Mechanic), "error").Inc()
		c.logger.Error().Err(err).
			Str("promotion_id", p.ID).
			Int64("volume", volume).
			Msg("discount calculation failed")
		return nil, err
	}

	discount, multiplier := applyVolumeTiers(discount, p.Terms.VolumeTiers, volume)

	result := &promo.CalcResult{
		UnitDiscount:      discount,
		FinalPrice:        basePrice.Sub(discount),
		TotalDiscount:     discount.MulInt(volume),
		AppliedMultiplier: multiplier,
	}
	if basePrice.IsPositive() {
		result.DiscountPercent = discount.MulInt(100).Div(basePrice)
	}

	calculationsTotal.WithLabelValues(string(p.Mechanic), "ok").Inc()
	if c.cache != nil {
		c.cache.Put(CalcKey(p.ID, volume), result)
	}
	return result, nil
}

// resolveMechanic dispatches on the closed mechanic enum. Unknown
// mechanics are an error, never a zero discount.
func (c *Calculator) resolveMechanic(p *promo.Promotion, basePrice money.Money, volume int64) (money.Money, error) {
	switch p.Mechanic {
	case promo.MechanicPercentage:
		return basePrice.Percent(p.Terms.Percentage), nil

	case promo.MechanicFixedAmount:
		return p.Terms.Amount, nil

	case promo.MechanicVolumeBased:
		// Volume-scaled by contract: volume * rate, not per-unit.
		return p.Terms.VolumeRate.MulInt(volume), nil

	case promo.MechanicTiered:
		return c.tieredDiscount(p, basePrice, volume)

	default:
		return money.Zero(), &promo.UnsupportedMechanicError{PromotionID: p.ID, Mechanic: p.Mechanic}
	}
}

// tieredDiscount partitions volume sequentially across ascending buckets
// and blends the accumulated discount down to a per-unit rate.
func (c *Calculator) tieredDiscount(p *promo.Promotion, basePrice money.Money, volume int64) (money.Money, error) {
	if volume <= 0 {
		return money.Zero(), &promo.InvalidVolumeError{
			PromotionID: p.ID,
			Mechanic:    p.Mechanic,
			Volume:      volume,
		}
	}

	total := money.Zero()
	remaining := volume
	for _, tier := range p.Terms.DiscountTiers {
		if remaining <= 0 {
			break
		}
		consumed := tier.Width()
		if remaining < consumed {
			consumed = remaining
		}
		total = total.Add(basePrice.Percent(tier.DiscountPercentage).MulInt(consumed))
		remaining -= consumed
	}
	// Volume beyond the last bucket earns no discount; the blend below
	// still divides by the full requested volume.

	return total.DivInt(volume), nil
}

// applyVolumeTiers scans tiers from the highest MinVolume down and
// applies the first qualifying multiplier. The input slice is read-only.
func applyVolumeTiers(discount money.Money, tiers []promo.VolumeTier, volume int64) (money.Money, money.Money) {
	for i := len(tiers) - 1; i >= 0; i-- {
		if tiers[i].MinVolume <= volume {
			return discount.Mul(tiers[i].Multiplier), tiers[i].Multiplier
		}
	}
	return discount, money.Zero()
}
