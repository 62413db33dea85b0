/*
Package marketdata provides MarketData implementations.

PURPOSE:
  The engine consumes baseline volumes and weighted adjustment factors
  through promo.MarketData. Static is a table-driven provider for
  development, demos and tests; a production integration would wrap a
  market intelligence feed behind the same interface.
*/
package marketdata

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/warp/promo-engine/promo"
)

// =============================================================================
// STATIC PROVIDER
// =============================================================================

// Static serves fixed baselines and factors. Zero value is usable: no
// baseline, no factors.
type Static struct {
	// Baselines maps product -> typical non-promoted volume per period.
	Baselines map[string]int64

	// Market are returned as market factors for any product set.
	Market []promo.Factor

	// Seasonal maps period label -> seasonality factors.
	Seasonal map[string][]promo.Factor
}

var _ promo.MarketData = (*Static)(nil)

// BaselineVolume sums the per-product baselines for the set.
func (s *Static) BaselineVolume(_ context.Context, products []string) (int64, error) {
	var total int64
	for _, p := range products {
		total += s.Baselines[p]
	}
	return total, nil
}

func (s *Static) MarketFactors(_ context.Context, _ []string) ([]promo.Factor, error) {
	out := make([]promo.Factor, len(s.Market))
	copy(out, s.Market)
	return out, nil
}

func (s *Static) SeasonalFactors(_ context.Context, period string) ([]promo.Factor, error) {
	src := s.Seasonal[period]
	out := make([]promo.Factor, len(src))
	copy(out, src)
	return out, nil
}

// NewFactor is a convenience constructor for table setups.
func NewFactor(name string, impact, weight string) promo.Factor {
	return promo.Factor{
		Name:   name,
		Impact: mustDecimal(impact),
		Weight: mustDecimal(weight),
	}
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}
