package mysql

import (
	"context"

	"microfinance-backoffice/internal/domain/branch"
	"microfinance-backoffice/internal/domain/loan"
	"microfinance-backoffice/pkg/id"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func ptr[T any](v T) *T { return &v }

// Catalog is the reference data every installation starts with.
func Catalog() ([]branch.Branch, []loan.Product) {
	branches := []branch.Branch{
		{Name: "Igando Branch", Code: "IGD", Address: ptr("Igando, Lagos, Nigeria"), Phone: ptr("+234 (0) 803 123 4567")},
		{Name: "Abule-Egba Branch", Code: "AEB", Address: ptr("Abule-Egba, Lagos, Nigeria"), Phone: ptr("+234 (0) 803 765 4321")},
	}
	product := func(name string, principal, daily int64, days int) loan.Product {
		return loan.Product{
			Name:            name,
			PrincipalAmount: decimal.NewFromInt(principal),
			DailyPayment:    decimal.NewFromInt(daily),
			DurationDays:    days,
			TotalAmount:     decimal.NewFromInt(daily * int64(days)),
			IsActive:        true,
		}
	}
	products := []loan.Product{
		product("₦30K Loan", 30000, 1500, 30),
		product("₦40K Loan", 40000, 2000, 25),
		product("₦50K Loan", 50000, 2500, 25),
		product("₦60K Loan", 60000, 3000, 25),
		product("₦80K Loan", 80000, 4000, 25),
		product("₦100K Loan", 100000, 5000, 25),
		product("₦150K Loan", 150000, 7500, 25),
		product("₦200K Loan", 200000, 10000, 25),
	}
	return branches, products
}

// Seed inserts the catalog, skipping rows whose branch code or product name
// already exists. It reports how many rows were inserted.
func Seed(ctx context.Context, db *gorm.DB) (int64, error) {
	branches, products := Catalog()
	for i := range branches {
		branches[i].ID = id.NewID32()
	}
	for i := range products {
		products[i].ID = id.NewID32()
	}

	var inserted int64
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "code"}}, DoNothing: true}).Create(&branches)
		if res.Error != nil {
			return res.Error
		}
		inserted += res.RowsAffected
		res = tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).Create(&products)
		if res.Error != nil {
			return res.Error
		}
		inserted += res.RowsAffected
		return nil
	})
	return inserted, err
}
