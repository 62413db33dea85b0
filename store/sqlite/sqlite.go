/*
Package sqlite provides the SQLite-backed Repository implementation.

PURPOSE:
  Durable persistence for promotions, claims and performance history.
  In production the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

EXACT-DECIMAL CONTRACT:
  Every monetary column is TEXT holding the canonical decimal string.
  Values round-trip bit-identical; nothing is ever stored as a binary
  float.

APPEND-ONLY ENFORCEMENT:
  performance has no UPDATE or DELETE path. Promotions are superseded
  by status transitions (SavePromotion replaces the definition row; the
  history lives in performance and claims).

WAL MODE:
  SQLite is opened with WAL for better read concurrency and crash
  recovery; a single writer at a time is enough for this engine.

USAGE:
  repo, err := sqlite.New("./data/promo.db")   // ":memory:" for tests
  defer repo.Close()

SEE ALSO:
  - promo/store.go: The Repository interface
  - promo/store/memory.go: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/promo-engine/money"
	"github.com/warp/promo-engine/promo"
)

// Repository implements promo.Repository on SQLite.
type Repository struct {
	db *sql.DB
}

// New opens (and migrates) the database at dbPath. Use ":memory:" for
// an in-memory database.
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	r := &Repository{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return r, nil
}

func (r *Repository) Close() error { return r.db.Close() }

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS promotions (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		mechanic TEXT NOT NULL,
		terms TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		budget TEXT NOT NULL,
		actual_spend TEXT NOT NULL,
		target_roi TEXT NOT NULL,
		currency TEXT NOT NULL,
		status TEXT NOT NULL,
		products TEXT NOT NULL,
		channels TEXT NOT NULL,
		budget_pool TEXT,
		resources TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS claims (
		id TEXT PRIMARY KEY,
		promotion_id TEXT NOT NULL REFERENCES promotions(id),
		claim_number TEXT NOT NULL UNIQUE,
		customer_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		currency TEXT NOT NULL,
		claim_date TEXT NOT NULL,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		products TEXT NOT NULL,
		documentation TEXT NOT NULL,
		validation_status TEXT NOT NULL,
		approval_status TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_claims_promotion ON claims(promotion_id);

	-- Append-only performance history
	CREATE TABLE IF NOT EXISTS performance (
		promotion_id TEXT NOT NULL REFERENCES promotions(id),
		period_label TEXT NOT NULL,
		volume INTEGER NOT NULL,
		revenue TEXT NOT NULL,
		cost TEXT NOT NULL,
		roi TEXT NOT NULL,
		captured_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_performance_promotion ON performance(promotion_id, captured_at);
	`
	_, err := r.db.Exec(schema)
	return err
}

// =============================================================================
// PROMOTIONS
// =============================================================================

func (r *Repository) SavePromotion(ctx context.Context, p *promo.Promotion) error {
	terms, err := json.Marshal(p.Terms)
	if err != nil {
		return fmt.Errorf("encode terms: %w", err)
	}
	products, _ := json.Marshal(p.Products)
	channels, _ := json.Marshal(p.Channels)
	resources, _ := json.Marshal(p.Resources)

	_, err = r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO promotions
		(id, name, mechanic, terms, start_date, end_date, budget, actual_spend,
		 target_roi, currency, status, products, channels, budget_pool, resources,
		 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, string(p.Mechanic), string(terms),
		p.StartDate.UTC().Format(time.RFC3339), p.EndDate.UTC().Format(time.RFC3339),
		p.Budget.String(), p.ActualSpend.String(), p.TargetROI.String(),
		p.Currency, string(p.Status), string(products), string(channels),
		p.BudgetPool, string(resources),
		p.CreatedAt.UTC().Format(time.RFC3339), p.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (r *Repository) FindPromotion(ctx context.Context, id string) (*promo.Promotion, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, mechanic, terms, start_date, end_date, budget, actual_spend,
		       target_roi, currency, status, products, channels, budget_pool, resources,
		       created_at, updated_at
		FROM promotions WHERE id = ?`, id)
	p, err := scanPromotion(row)
	if err == sql.ErrNoRows {
		return nil, &promo.NotFoundError{Kind: "promotion", ID: id}
	}
	return p, err
}

func (r *Repository) ListPromotions(ctx context.Context) ([]*promo.Promotion, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, mechanic, terms, start_date, end_date, budget, actual_spend,
		       target_roi, currency, status, products, channels, budget_pool, resources,
		       created_at, updated_at
		FROM promotions ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*promo.Promotion
	for rows.Next() {
		p, err := scanPromotion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPromotion(row scanner) (*promo.Promotion, error) {
	var (
		p                                        promo.Promotion
		mechanic, status                         string
		terms, products, channels, resources     string
		startDate, endDate, createdAt, updatedAt string
		budget, actualSpend, targetROI           string
	)
	err := row.Scan(&p.ID, &p.Name, &mechanic, &terms, &startDate, &endDate,
		&budget, &actualSpend, &targetROI, &p.Currency, &status,
		&products, &channels, &p.BudgetPool, &resources, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	p.Mechanic = promo.Mechanic(mechanic)
	p.Status = promo.Status(status)
	if err := json.Unmarshal([]byte(terms), &p.Terms); err != nil {
		return nil, fmt.Errorf("decode terms for %s: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(products), &p.Products); err != nil {
		return nil, fmt.Errorf("decode products for %s: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(channels), &p.Channels); err != nil {
		return nil, fmt.Errorf("decode channels for %s: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(resources), &p.Resources); err != nil {
		return nil, fmt.Errorf("decode resources for %s: %w", p.ID, err)
	}

	if p.Budget, err = money.Parse(budget); err != nil {
		return nil, err
	}
	if p.ActualSpend, err = money.Parse(actualSpend); err != nil {
		return nil, err
	}
	if p.TargetROI, err = money.Parse(targetROI); err != nil {
		return nil, err
	}
	if p.StartDate, err = time.Parse(time.RFC3339, startDate); err != nil {
		return nil, err
	}
	if p.EndDate, err = time.Parse(time.RFC3339, endDate); err != nil {
		return nil, err
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &p, nil
}

// =============================================================================
// CLAIMS
// =============================================================================

func (r *Repository) CreateClaim(ctx context.Context, c *promo.Claim) error {
	products, _ := json.Marshal(c.Products)
	docs, _ := json.Marshal(c.Documentation)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO claims
		(id, promotion_id, claim_number, customer_id, amount, currency, claim_date,
		 period_start, period_end, products, documentation, validation_status,
		 approval_status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.PromotionID, c.ClaimNumber, c.CustomerID, c.Amount.String(),
		c.Currency, c.ClaimDate.UTC().Format(time.RFC3339),
		c.PeriodStart.UTC().Format(time.RFC3339), c.PeriodEnd.UTC().Format(time.RFC3339),
		string(products), string(docs), string(c.ValidationStatus),
		string(c.ApprovalStatus),
		c.CreatedAt.UTC().Format(time.RFC3339), c.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// UpdateClaim replaces status fields only; the priced amount and the
// claim window are immutable once adjudicated. Backward status moves
// are rejected with a *promo.ClaimTransitionError.
func (r *Repository) UpdateClaim(ctx context.Context, c *promo.Claim) error {
	var validation, approval string
	err := r.db.QueryRowContext(ctx,
		`SELECT validation_status, approval_status FROM claims WHERE id = ?`, c.ID).
		Scan(&validation, &approval)
	if err == sql.ErrNoRows {
		return &promo.NotFoundError{Kind: "claim", ID: c.ID}
	}
	if err != nil {
		return err
	}

	stored := &promo.Claim{
		ID:               c.ID,
		ValidationStatus: promo.ValidationStatus(validation),
		ApprovalStatus:   promo.ApprovalStatus(approval),
	}
	if err := promo.CheckClaimTransition(stored, c); err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE claims SET validation_status = ?, approval_status = ?, updated_at = ?
		WHERE id = ?`,
		string(c.ValidationStatus), string(c.ApprovalStatus),
		c.UpdatedAt.UTC().Format(time.RFC3339), c.ID)
	return err
}

func (r *Repository) FindClaim(ctx context.Context, id string) (*promo.Claim, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, promotion_id, claim_number, customer_id, amount, currency,
		       claim_date, period_start, period_end, products, documentation,
		       validation_status, approval_status, created_at, updated_at
		FROM claims WHERE id = ?`, id)

	var (
		c                                    promo.Claim
		amount                               string
		claimDate, periodStart, periodEnd    string
		products, docs, validation, approval string
		createdAt, updatedAt                 string
	)
	err := row.Scan(&c.ID, &c.PromotionID, &c.ClaimNumber, &c.CustomerID, &amount,
		&c.Currency, &claimDate, &periodStart, &periodEnd, &products, &docs,
		&validation, &approval, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, &promo.NotFoundError{Kind: "claim", ID: id}
	}
	if err != nil {
		return nil, err
	}

	if c.Amount, err = money.Parse(amount); err != nil {
		return nil, err
	}
	c.ValidationStatus = promo.ValidationStatus(validation)
	c.ApprovalStatus = promo.ApprovalStatus(approval)
	if err := json.Unmarshal([]byte(products), &c.Products); err != nil {
		return nil, fmt.Errorf("decode products for claim %s: %w", c.ID, err)
	}
	if err := json.Unmarshal([]byte(docs), &c.Documentation); err != nil {
		return nil, fmt.Errorf("decode documentation for claim %s: %w", c.ID, err)
	}
	c.ClaimDate, _ = time.Parse(time.RFC3339, claimDate)
	c.PeriodStart, _ = time.Parse(time.RFC3339, periodStart)
	c.PeriodEnd, _ = time.Parse(time.RFC3339, periodEnd)
	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	c.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &c, nil
}

// =============================================================================
// PERFORMANCE - Append-only
// =============================================================================

func (r *Repository) AppendPerformance(ctx context.Context, s promo.PerformanceSnapshot) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO performance (promotion_id, period_label, volume, revenue, cost, roi, captured_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.PromotionID, s.PeriodLabel, s.Volume, s.Revenue.String(),
		s.Cost.String(), s.ROI.String(), s.CapturedAt.UTC().Format(time.RFC3339))
	return err
}

func (r *Repository) PerformanceByPromotion(ctx context.Context, promotionID string) ([]promo.PerformanceSnapshot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT promotion_id, period_label, volume, revenue, cost, roi, captured_at
		FROM performance WHERE promotion_id = ? ORDER BY captured_at`, promotionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []promo.PerformanceSnapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repository) LatestPerformance(ctx context.Context, promotionID string) (*promo.PerformanceSnapshot, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT promotion_id, period_label, volume, revenue, cost, roi, captured_at
		FROM performance WHERE promotion_id = ?
		ORDER BY captured_at DESC LIMIT 1`, promotionID)
	s, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return nil, &promo.NotFoundError{Kind: "promotion", ID: promotionID}
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func scanSnapshot(row scanner) (promo.PerformanceSnapshot, error) {
	var (
		s                        promo.PerformanceSnapshot
		revenue, cost, roi, when string
	)
	if err := row.Scan(&s.PromotionID, &s.PeriodLabel, &s.Volume, &revenue, &cost, &roi, &when); err != nil {
		return s, err
	}
	var err error
	if s.Revenue, err = money.Parse(revenue); err != nil {
		return s, err
	}
	if s.Cost, err = money.Parse(cost); err != nil {
		return s, err
	}
	if s.ROI, err = money.Parse(roi); err != nil {
		return s, err
	}
	s.CapturedAt, _ = time.Parse(time.RFC3339, when)
	return s, nil
}
