package engine_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/promo-engine/engine"
	"github.com/warp/promo-engine/marketdata"
	"github.com/warp/promo-engine/money"
)

func TestIncrementalVolume_FloorsAtZero(t *testing.T) {
	// Selling below baseline is zero lift, not negative lift.
	assert.Equal(t, int64(0), engine.IncrementalVolume(80, 100))
	assert.Equal(t, int64(0), engine.IncrementalVolume(100, 100))
	assert.Equal(t, int64(50), engine.IncrementalVolume(150, 100))
}

func TestSafeROI_GuardsZeroCost(t *testing.T) {
	assert.True(t, engine.SafeROI(m("500"), money.Zero()).IsZero())
	assert.True(t, engine.SafeROI(m("500"), m("-10")).IsZero())
	assert.Equal(t, "2.5", engine.SafeROI(m("500"), m("200")).String())
}

func TestEstimate_LiftAndROI(t *testing.T) {
	// GIVEN: baseline 100 units, current volume 150, base price 10,
	//        10% discount and no actual spend
	// WHEN: estimating
	// THEN: lift 50, revenue 500, cost 150, ROI 500/150 = 3.3333

	market := &marketdata.Static{Baselines: map[string]int64{"sku-1": 100}}
	est := engine.NewEstimator(market, engine.NewCalculator(zerolog.Nop()))

	out, err := est.Estimate(context.Background(), percentagePromo("e1", "10"), m("10"), 150)
	require.NoError(t, err)

	assert.Equal(t, int64(100), out.BaselineVolume)
	assert.Equal(t, int64(50), out.IncrementalVolume)
	assert.Equal(t, "500", out.IncrementalRevenue.String())
	assert.Equal(t, "150", out.PromotionCost.String())
	assert.Equal(t, "3.3333", out.ROI.String())
}

func TestEstimate_NoLiftMeansZeroROI(t *testing.T) {
	// Current volume below baseline: incremental volume and ROI are 0.
	market := &marketdata.Static{Baselines: map[string]int64{"sku-1": 500}}
	est := engine.NewEstimator(market, engine.NewCalculator(zerolog.Nop()))

	out, err := est.Estimate(context.Background(), percentagePromo("e2", "10"), m("10"), 150)
	require.NoError(t, err)

	assert.Equal(t, int64(0), out.IncrementalVolume)
	assert.True(t, out.ROI.IsZero())
}
