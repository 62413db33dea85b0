/*
validate.go - Promotion definition validation gate

PURPOSE:
  Aggregates every business-rule check for a promotion definition into
  one structured result. No short-circuiting: a promotion with a bad
  date range AND a zero budget reports both. Business violations are
  data (ValidationResult), never Go errors.

CHECKS:
  - date ordering (start strictly before end)
  - duration within [MinDurationDays, MaxDurationDays]
  - lead time (warning only when the start is too soon)
  - budget strictly positive
  - mechanic-specific discount ceilings and term sanity
  - non-empty products and channels
  - conflicts: high severity -> blocking error, lower -> warning

SYSTEM FAILURES:
  A collaborator failure mid-validation downgrades to
  {valid:false, errors:["system error during validation"]}; the caller
  always receives a structured result.
*/
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/warp/promo-engine/config"
	"github.com/warp/promo-engine/promo"
)

// SystemErrorMessage is the downgraded error entry for collaborator
// failures during validation.
const SystemErrorMessage = "system error during validation"

// =============================================================================
// VALIDATOR
// =============================================================================

type Validator struct {
	detector *Detector
	cfg      config.Validation
	logger   zerolog.Logger

	// now is injectable for lead-time tests.
	now func() time.Time
}

func NewValidator(detector *Detector, cfg config.Validation, logger zerolog.Logger) *Validator {
	return &Validator{
		detector: detector,
		cfg:      cfg,
		logger:   logger.With().Str("component", "validator").Logger(),
		now:      time.Now,
	}
}

// Validate runs every check and aggregates the findings. Valid iff no
// errors; warnings alone do not block.
func (v *Validator) Validate(ctx context.Context, p *promo.Promotion) promo.ValidationResult {
	var result promo.ValidationResult

	v.checkDates(p, &result)
	v.checkBudget(p, &result)
	v.checkMechanic(p, &result)
	v.checkScope(p, &result)
	v.checkConflicts(ctx, p, &result)

	result.Valid = len(result.Errors) == 0
	v.logger.Info().
		Str("promotion_id", p.ID).
		Bool("valid", result.Valid).
		Int("errors", len(result.Errors)).
		Int("warnings", len(result.Warnings)).
		Msg("validation complete")
	return result
}

func (v *Validator) checkDates(p *promo.Promotion, result *promo.ValidationResult) {
	if !p.StartDate.Before(p.EndDate) {
		result.Errors = append(result.Errors, "start date must be before end date")
		// Duration and lead-time checks are meaningless on an inverted
		// range; the date-order error already covers it.
		return
	}

	days := p.DurationDays()
	if days < v.cfg.MinDurationDays {
		result.Errors = append(result.Errors,
			fmt.Sprintf("duration %dd is below the minimum of %dd", days, v.cfg.MinDurationDays))
	}
	if days > v.cfg.MaxDurationDays {
		result.Errors = append(result.Errors,
			fmt.Sprintf("duration %dd exceeds the maximum of %dd", days, v.cfg.MaxDurationDays))
	}

	lead := p.StartDate.Sub(v.now())
	if lead < time.Duration(v.cfg.LeadTimeDays)*24*time.Hour {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("start is less than %dd out; execution lead time may be insufficient", v.cfg.LeadTimeDays))
	}
}

func (v *Validator) checkBudget(p *promo.Promotion, result *promo.ValidationResult) {
	if !p.Budget.IsPositive() {
		result.Errors = append(result.Errors, "budget must be greater than zero")
	}
}

func (v *Validator) checkMechanic(p *promo.Promotion, result *promo.ValidationResult) {
	switch p.Mechanic {
	case promo.MechanicPercentage:
		if p.Terms.Percentage.GreaterThan(v.cfg.MaxDiscountPercent) {
			result.Errors = append(result.Errors,
				fmt.Sprintf("discount %s%% exceeds the ceiling of %s%%",
					p.Terms.Percentage, v.cfg.MaxDiscountPercent))
		}
		if !p.Terms.Percentage.IsPositive() {
			result.Errors = append(result.Errors, "discount percentage must be greater than zero")
		}

	case promo.MechanicFixedAmount:
		if !p.Terms.Amount.IsPositive() {
			result.Errors = append(result.Errors, "fixed discount amount must be greater than zero")
		}

	case promo.MechanicVolumeBased:
		if !p.Terms.VolumeRate.IsPositive() {
			result.Errors = append(result.Errors, "volume rate must be greater than zero")
		}

	case promo.MechanicTiered:
		v.checkDiscountTiers(p, result)

	default:
		result.Errors = append(result.Errors,
			fmt.Sprintf("unsupported mechanic %q", p.Mechanic))
	}
}

// checkDiscountTiers validates ordering, contiguity and ceilings.
func (v *Validator) checkDiscountTiers(p *promo.Promotion, result *promo.ValidationResult) {
	tiers := p.Terms.DiscountTiers
	if len(tiers) == 0 {
		result.Errors = append(result.Errors, "tiered mechanic requires at least one discount tier")
		return
	}
	for i, t := range tiers {
		if t.MaxVolume <= t.MinVolume {
			result.Errors = append(result.Errors,
				fmt.Sprintf("discount tier %d has non-positive width", i))
		}
		if t.DiscountPercentage.GreaterThan(v.cfg.MaxDiscountPercent) {
			result.Errors = append(result.Errors,
				fmt.Sprintf("discount tier %d rate %s%% exceeds the ceiling of %s%%",
					i, t.DiscountPercentage, v.cfg.MaxDiscountPercent))
		}
		if i > 0 && t.MinVolume != tiers[i-1].MaxVolume {
			result.Errors = append(result.Errors,
				fmt.Sprintf("discount tier %d is not contiguous with tier %d", i, i-1))
		}
	}
}

func (v *Validator) checkScope(p *promo.Promotion, result *promo.ValidationResult) {
	if len(p.Products) == 0 {
		result.Errors = append(result.Errors, "promotion must cover at least one product")
	}
	if len(p.Channels) == 0 {
		result.Errors = append(result.Errors, "promotion must target at least one channel")
	}
}

// checkConflicts escalates high-severity matches to blocking errors and
// records lower severities as warnings. A repository failure downgrades
// to a structured system error instead of propagating.
func (v *Validator) checkConflicts(ctx context.Context, p *promo.Promotion, result *promo.ValidationResult) {
	records, err := v.detector.Detect(ctx, p)
	if err != nil {
		v.logger.Error().Err(err).
			Str("promotion_id", p.ID).
			Msg("conflict scan failed during validation")
		result.Errors = append(result.Errors, SystemErrorMessage)
		return
	}

	for _, r := range records {
		finding := fmt.Sprintf("%s conflict with promotion %s (%s): %s",
			r.Category, r.ConflictingPromotionID, r.Severity, r.Description)
		if r.Severity == promo.SeverityHigh {
			result.Errors = append(result.Errors, finding)
		} else {
			result.Warnings = append(result.Warnings, finding)
		}
	}
}
