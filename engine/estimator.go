/*
estimator.go - Incremental volume and ROI derivation

PURPOSE:
  Answers "what did the promotion actually buy us": incremental volume
  over the non-promoted baseline, and return on investment relative to
  the money spent (discount given plus actual spend).

GUARDS:
  incrementalVolume floors at zero - selling less than baseline is zero
  lift, not negative lift. ROI is zero when there is no lift or no
  positive cost; the estimator never divides by zero and never reports a
  negative-cost ROI.
*/
package engine

import (
	"context"

	"github.com/warp/promo-engine/money"
	"github.com/warp/promo-engine/promo"
)

// =============================================================================
// ESTIMATOR
// =============================================================================

type Estimator struct {
	market promo.MarketData
	calc   *Calculator
}

func NewEstimator(market promo.MarketData, calc *Calculator) *Estimator {
	return &Estimator{market: market, calc: calc}
}

// Estimate is the estimator output for one promotion at one volume.
type Estimate struct {
	BaselineVolume     int64
	IncrementalVolume  int64
	IncrementalRevenue money.Money
	PromotionCost      money.Money
	ROI                money.Money
}

// IncrementalVolume floors current-over-baseline at zero.
func IncrementalVolume(current, baseline int64) int64 {
	if current <= baseline {
		return 0
	}
	return current - baseline
}

// SafeROI returns revenue/cost, or zero when cost is not positive.
func SafeROI(revenue, cost money.Money) money.Money {
	if !cost.IsPositive() {
		return money.Zero()
	}
	return revenue.Div(cost)
}

// Estimate derives lift and ROI for a promotion at the observed volume.
// The baseline comes from the market-data collaborator; the promotion
// cost is the total discount granted plus actual spend to date.
func (e *Estimator) Estimate(ctx context.Context, p *promo.Promotion, basePrice money.Money, currentVolume int64) (*Estimate, error) {
	baseline, err := e.market.BaselineVolume(ctx, p.Products)
	if err != nil {
		return nil, &promo.SystemError{Op: "estimate.baseline", Err: err}
	}

	inc := IncrementalVolume(currentVolume, baseline)
	out := &Estimate{
		BaselineVolume:    baseline,
		IncrementalVolume: inc,
	}

	calc, err := e.calc.Calculate(p, basePrice, currentVolume)
	if err != nil {
		return nil, err
	}

	out.IncrementalRevenue = basePrice.MulInt(inc)
	out.PromotionCost = calc.TotalDiscount.Add(p.ActualSpend)

	if inc <= 0 || !out.PromotionCost.IsPositive() {
		out.ROI = money.Zero()
		return out, nil
	}
	out.ROI = SafeROI(out.IncrementalRevenue, out.PromotionCost)
	return out, nil
}
