/*
conflict.go - Competing-promotion detection

PURPOSE:
  Scans all other promotions for ones competing with a candidate and
  classifies each match into one of four categories. A pair can surface
  more than once under different categories; each match carries its own
  severity.

CATEGORIES:
  overlap:         windows intersect AND product sets intersect
  cannibalization: shared channel during an overlapping window (demand
                   substitution; no shared product required)
  budget:          same budget pool with overlapping active windows
  resource:        shared constrained resource during overlapping windows

SEVERITY HEURISTICS (per category):
  overlap:         window overlap >= 50% of the candidate window, or 3+
                   shared products -> high; >= 25% or 2 shared -> medium
  cannibalization: same mechanic + >= 50% window overlap -> high;
                   same mechanic -> medium; else low
  budget:          combined committed spend over the pool budget -> high;
                   over 80% -> medium; else low
  resource:        2+ shared resources -> high, else medium

  Detection reports business findings as data; only collaborator
  failures surface as errors (SystemError).

SEE ALSO:
  - validate.go: Escalates high-severity matches to blocking errors
*/
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/warp/promo-engine/money"
	"github.com/warp/promo-engine/promo"
)

// =============================================================================
// DETECTOR
// =============================================================================

type Detector struct {
	repo   promo.Repository
	logger zerolog.Logger
}

func NewDetector(repo promo.Repository, logger zerolog.Logger) *Detector {
	return &Detector{repo: repo, logger: logger.With().Str("component", "conflicts").Logger()}
}

// Detect returns every conflict the candidate has with other known
// promotions. An empty slice means no conflicts.
func (d *Detector) Detect(ctx context.Context, candidate *promo.Promotion) ([]promo.ConflictRecord, error) {
	others, err := d.repo.ListPromotions(ctx)
	if err != nil {
		return nil, &promo.SystemError{Op: "conflicts.list", Err: err}
	}

	var records []promo.ConflictRecord
	for _, other := range others {
		if other.ID == candidate.ID {
			continue
		}
		if other.Status == promo.StatusCancelled || other.Status == promo.StatusCompleted {
			continue
		}
		records = append(records, d.classify(candidate, other)...)
	}

	for _, r := range records {
		conflictsTotal.WithLabelValues(string(r.Category), string(r.Severity)).Inc()
	}
	d.logger.Info().
		Str("promotion_id", candidate.ID).
		Int("conflicts", len(records)).
		Msg("conflict scan complete")
	return records, nil
}

// classify finds every category under which the pair competes.
func (d *Detector) classify(candidate, other *promo.Promotion) []promo.ConflictRecord {
	overlap := windowOverlapFraction(candidate, other)
	if overlap <= 0 {
		// Every category requires some window intersection.
		return nil
	}

	var records []promo.ConflictRecord

	if shared := sharedStrings(candidate.Products, other.Products); len(shared) > 0 {
		records = append(records, promo.ConflictRecord{
			ConflictingPromotionID: other.ID,
			Name:                   other.Name,
			Category:               promo.ConflictOverlap,
			Severity:               overlapSeverity(overlap, len(shared)),
			Description: fmt.Sprintf("%d shared product(s) with %.0f%% window overlap",
				len(shared), overlap*100),
		})
	}

	if shared := sharedStrings(candidate.Channels, other.Channels); len(shared) > 0 {
		records = append(records, promo.ConflictRecord{
			ConflictingPromotionID: other.ID,
			Name:                   other.Name,
			Category:               promo.ConflictCannibalization,
			Severity:               cannibalizationSeverity(candidate, other, overlap),
			Description: fmt.Sprintf("competes for demand on channel(s) %v during overlapping window",
				shared),
		})
	}

	if candidate.BudgetPool != "" && candidate.BudgetPool == other.BudgetPool {
		records = append(records, promo.ConflictRecord{
			ConflictingPromotionID: other.ID,
			Name:                   other.Name,
			Category:               promo.ConflictBudget,
			Severity:               budgetSeverity(candidate, other),
			Description: fmt.Sprintf("draws from shared budget pool %q with overlapping active window",
				candidate.BudgetPool),
		})
	}

	if shared := sharedStrings(candidate.Resources, other.Resources); len(shared) > 0 {
		severity := promo.SeverityMedium
		if len(shared) >= 2 {
			severity = promo.SeverityHigh
		}
		records = append(records, promo.ConflictRecord{
			ConflictingPromotionID: other.ID,
			Name:                   other.Name,
			Category:               promo.ConflictResource,
			Severity:               severity,
			Description: fmt.Sprintf("competes for constrained resource(s) %v during overlapping window",
				shared),
		})
	}

	return records
}

// Resolution renders the advisory text for a detection result.
func Resolution(records []promo.ConflictRecord) string {
	if len(records) == 0 {
		return "no conflicts detected"
	}
	for _, r := range records {
		if r.Severity == promo.SeverityHigh {
			return fmt.Sprintf("urgent action required: %d conflict(s) detected, at least one high severity", len(records))
		}
	}
	return fmt.Sprintf("advisory: %d lower-severity conflict(s) detected; review before activation", len(records))
}

// =============================================================================
// HEURISTICS
// =============================================================================

func overlapSeverity(fraction float64, sharedProducts int) promo.Severity {
	switch {
	case fraction >= 0.5 || sharedProducts >= 3:
		return promo.SeverityHigh
	case fraction >= 0.25 || sharedProducts >= 2:
		return promo.SeverityMedium
	default:
		return promo.SeverityLow
	}
}

func cannibalizationSeverity(a, b *promo.Promotion, overlap float64) promo.Severity {
	if a.Mechanic == b.Mechanic {
		if overlap >= 0.5 {
			return promo.SeverityHigh
		}
		return promo.SeverityMedium
	}
	return promo.SeverityLow
}

func budgetSeverity(a, b *promo.Promotion) promo.Severity {
	committed := a.ActualSpend.Add(b.ActualSpend)
	pool := a.Budget.Add(b.Budget)
	if !pool.IsPositive() {
		return promo.SeverityLow
	}
	switch {
	case committed.GreaterThan(pool):
		return promo.SeverityHigh
	case committed.GreaterThan(pool.Percent(money.MustParse("80"))):
		return promo.SeverityMedium
	default:
		return promo.SeverityLow
	}
}

// windowOverlapFraction is the intersection of the two windows as a
// fraction of the candidate's window. Zero means disjoint.
func windowOverlapFraction(candidate, other *promo.Promotion) float64 {
	start := maxTime(candidate.StartDate, other.StartDate)
	end := minTime(candidate.EndDate, other.EndDate)
	if !end.After(start) {
		return 0
	}
	window := candidate.EndDate.Sub(candidate.StartDate)
	if window <= 0 {
		return 0
	}
	return float64(end.Sub(start)) / float64(window)
}

func sharedStrings(a, b []string) []string {
	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		set[s] = struct{}{}
	}
	var shared []string
	for _, s := range b {
		if _, ok := set[s]; ok {
			shared = append(shared, s)
		}
	}
	return shared
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
