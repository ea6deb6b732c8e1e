package mysql

import (
	"microfinance-backoffice/internal/domain/branch"
	"microfinance-backoffice/internal/domain/customer"
	"microfinance-backoffice/internal/domain/loan"
	"microfinance-backoffice/internal/domain/payment"
	"microfinance-backoffice/internal/domain/user"

	"gorm.io/gorm"
)

// Models lists the back-office tables in dependency order.
func Models() []any {
	return []any{
		&branch.Branch{},
		&user.User{},
		&customer.Customer{},
		&customer.Guarantor{},
		&loan.Product{},
		&loan.Application{},
		&payment.DailyPayment{},
		&payment.WeeklyTracking{},
		&payment.Transaction{},
	}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
