// Package seed inserts the default plan catalog so a fresh deployment can
// sell subscriptions immediately. Existing rows are never touched.
package seed

import (
	"time"

	"gorm.io/gorm"
)

type defaultPlan struct {
	ID          int64
	Name        string
	Slug        string
	Description string
	VariantID   string
	Price       float64
	Interval    string
	Features    string
}

var defaultPlans = []defaultPlan{
	{
		ID:          1,
		Name:        "Basic",
		Slug:        "basic",
		Description: "Resume scans and keyword matching for active job seekers.",
		VariantID:   "basic-monthly",
		Price:       9.99,
		Interval:    "month",
		Features:    `["30 resume scans per month", "keyword matching", "email support"]`,
	},
	{
		ID:          2,
		Name:        "Pro",
		Slug:        "pro",
		Description: "Unlimited scans plus tailored rewrite suggestions.",
		VariantID:   "pro-monthly",
		Price:       19.99,
		Interval:    "month",
		Features:    `["unlimited resume scans", "rewrite suggestions", "cover letter drafts", "priority support"]`,
	},
}

// EnsureDefaultPlans is idempotent: provider variant ids must be remapped via
// environment-specific catalog updates, not by editing this list.
func EnsureDefaultPlans(db *gorm.DB) error {
	now := time.Now().UTC()
	for _, plan := range defaultPlans {
		err := db.Exec(
			`INSERT INTO subscription_plans (
				id, name, slug, description, variant_id, price, currency,
				interval, features, is_active, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, 'USD', ?, ?, TRUE, ?, ?)
			ON CONFLICT (slug) DO NOTHING`,
			plan.ID,
			plan.Name,
			plan.Slug,
			plan.Description,
			plan.VariantID,
			plan.Price,
			plan.Interval,
			plan.Features,
			now,
			now,
		).Error
		if err != nil {
			return err
		}
	}
	return nil
}
