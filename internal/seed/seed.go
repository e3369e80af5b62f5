package seed

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// EnsurePlans seeds the plan catalog for startup bootstrap. Existing
// rows win; codes already present are left untouched.
func EnsurePlans(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	type plan struct {
		Code         string
		Name         string
		PriceMonthly int64
		MaxQueries   *int
	}

	basicQuota := 100
	proQuota := 1000

	plans := []plan{
		{"BASIC", "Plan Básico", 4900, &basicQuota},
		{"PROFESSIONAL", "Plan Profesional", 14900, &proQuota},
		{"ENTERPRISE", "Plan Enterprise", 39900, nil},
		{"ADMIN", "Plan Administración", 0, nil},
	}

	ctx := context.Background()
	for _, p := range plans {
		err := db.WithContext(ctx).
			Exec(`
				INSERT INTO plans (id, code, name, price_monthly, max_queries_per_month)
				VALUES (?, ?, ?, ?, ?)
				ON CONFLICT (code) DO NOTHING
			`,
				node.Generate(),
				p.Code,
				p.Name,
				p.PriceMonthly,
				p.MaxQueries,
			).Error

		if err != nil {
			return err
		}
	}

	return nil
}
