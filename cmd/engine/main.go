/*
main.go - Promotion engine entry point

PURPOSE:
  Wires the engine together: configuration, repository, event sink,
  market data, and the engine components. Runs an end-to-end demo
  scenario (seed, validate, price, forecast, detect conflicts, file a
  claim) so the whole pipeline can be exercised without any surrounding
  service.

COMMAND-LINE FLAGS:
  -config        YAML config path (missing file = defaults)
  -db            SQLite database path; ":memory:" for in-memory
  -metrics-addr  Optional address to expose Prometheus metrics on

EVENT SINK SELECTION:
  With kafka.brokers configured, claim events go to the claims topic;
  otherwise they are logged.

SEE ALSO:
  - config/config.go: The tunable policy constants
*/
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/warp/promo-engine/config"
	"github.com/warp/promo-engine/engine"
	"github.com/warp/promo-engine/events"
	"github.com/warp/promo-engine/marketdata"
	"github.com/warp/promo-engine/money"
	"github.com/warp/promo-engine/promo"
	"github.com/warp/promo-engine/store/sqlite"
)

func main() {
	configPath := flag.String("config", "engine.yaml", "YAML config path")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	metricsAddr := flag.String("metrics-addr", "", "address for Prometheus metrics (empty = disabled)")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	repo, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("open repository")
	}
	defer repo.Close()

	var sink promo.EventSink
	if len(cfg.Kafka.Brokers) > 0 {
		ks := events.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.ClaimsTopic, logger)
		defer ks.Close()
		sink = ks
	} else {
		sink = events.LogSink{Logger: logger}
	}

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			logger.Info().Str("addr", *metricsAddr).Msg("metrics listening")
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				logger.Error().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	market := &marketdata.Static{
		Baselines: map[string]int64{"sku-100": 800, "sku-200": 450},
		Market: []promo.Factor{
			marketdata.NewFactor("competitor_activity", "-0.05", "0.6"),
			marketdata.NewFactor("category_growth", "0.08", "0.5"),
		},
		Seasonal: map[string][]promo.Factor{
			"30d": {marketdata.NewFactor("summer_peak", "0.12", "0.7")},
		},
	}

	calc := engine.NewCalculator(logger).
		WithCache(engine.NewCache[*promo.CalcResult]("calc", cfg.Cache.TTL))
	detector := engine.NewDetector(repo, logger)
	validator := engine.NewValidator(detector, cfg.Validation, logger)
	forecaster := engine.NewForecaster(repo, market, cfg.Forecast, logger).
		WithCache(engine.NewCache[*promo.ForecastResult]("forecast", cfg.Cache.TTL))
	claims := engine.NewClaimProcessor(repo, sink, calc, cfg.Claims, logger)

	if err := runScenario(context.Background(), logger, repo, calc, detector, validator, forecaster, claims); err != nil {
		logger.Fatal().Err(err).Msg("scenario failed")
	}
}

// runScenario walks one promotion through the full engine pipeline.
func runScenario(
	ctx context.Context,
	logger zerolog.Logger,
	repo *sqlite.Repository,
	calc *engine.Calculator,
	detector *engine.Detector,
	validator *engine.Validator,
	forecaster *engine.Forecaster,
	claims *engine.ClaimProcessor,
) error {
	now := time.Now().UTC()
	p := &promo.Promotion{
		ID:       uuid.NewString(),
		Name:     "Summer Tiered Volume Push",
		Mechanic: promo.MechanicTiered,
		Terms: promo.Terms{
			DiscountTiers: []promo.DiscountTier{
				{MinVolume: 0, MaxVolume: 100, DiscountPercentage: money.MustParse("5")},
				{MinVolume: 100, MaxVolume: 200, DiscountPercentage: money.MustParse("10")},
			},
			VolumeTiers: []promo.VolumeTier{
				{MinVolume: 500, Multiplier: money.MustParse("1.1")},
			},
		},
		StartDate:   now.AddDate(0, 1, 0),
		EndDate:     now.AddDate(0, 2, 0),
		Budget:      money.MustParse("250000"),
		ActualSpend: money.MustParse("0"),
		TargetROI:   money.MustParse("2.5"),
		Currency:    "USD",
		Status:      promo.StatusActive,
		Products:    []string{"sku-100", "sku-200"},
		Channels:    []string{"retail"},
		BudgetPool:  "q3-trade",
		Resources:   []string{"warehouse-east"},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := repo.SavePromotion(ctx, p); err != nil {
		return err
	}

	// Seed three months of history so the forecast has sufficient samples.
	for i := 3; i >= 1; i-- {
		err := repo.AppendPerformance(ctx, promo.PerformanceSnapshot{
			PromotionID: p.ID,
			PeriodLabel: now.AddDate(0, -i, 0).Format("2006-01"),
			Volume:      1000 + int64(50*i),
			Revenue:     money.MustParse("120000"),
			Cost:        money.MustParse("45000"),
			ROI:         money.MustParse("2.67"),
			CapturedAt:  now.AddDate(0, -i, 0),
		})
		if err != nil {
			return err
		}
	}

	result := validator.Validate(ctx, p)
	logger.Info().
		Bool("valid", result.Valid).
		Strs("errors", result.Errors).
		Strs("warnings", result.Warnings).
		Msg("validation")

	pricing, err := calc.Calculate(p, money.MustParse("100"), 150)
	if err != nil {
		return err
	}
	logger.Info().
		Str("unit_discount", pricing.UnitDiscount.String()).
		Str("final_price", pricing.FinalPrice.String()).
		Str("total_discount", pricing.TotalDiscount.String()).
		Msg("pricing")

	records, err := detector.Detect(ctx, p)
	if err != nil {
		return err
	}
	logger.Info().Str("resolution", engine.Resolution(records)).Msg("conflicts")

	forecast, err := forecaster.Forecast(ctx, p.ID, "30d")
	if err != nil {
		return err
	}
	logger.Info().
		Str("expected_volume", forecast.ExpectedVolume.String()).
		Str("expected_roi", forecast.ExpectedROI.String()).
		Float64("confidence", forecast.Confidence).
		Msg("forecast")

	claim, err := claims.Process(ctx, engine.ClaimRequest{
		PromotionID: p.ID,
		CustomerID:  "cust-042",
		BasePrice:   money.MustParse("100"),
		Volume:      150,
		PeriodStart: p.StartDate,
		PeriodEnd:   p.StartDate.AddDate(0, 0, 7),
		Products:    []string{"sku-100"},
	})
	if err != nil {
		return err
	}
	logger.Info().
		Str("claim_number", claim.ClaimNumber).
		Str("amount", claim.Amount.String()).
		Str("validation", string(claim.ValidationStatus)).
		Str("approval", string(claim.ApprovalStatus)).
		Msg("claim")
	return nil
}
