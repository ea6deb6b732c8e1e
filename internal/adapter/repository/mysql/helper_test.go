package mysql

import (
	"testing"
	"time"

	"microfinance-backoffice/internal/domain/branch"
	"microfinance-backoffice/internal/domain/customer"
	"microfinance-backoffice/internal/domain/loan"
	"microfinance-backoffice/internal/domain/user"
	"microfinance-backoffice/pkg/id"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB creates an in-memory sqlite DB with the full schema.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	// every pooled connection would otherwise get its own empty :memory: db
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type fixture struct {
	Branch   *branch.Branch
	Agent    *user.User
	Admin    *user.User
	Customer *customer.Customer
	Product  *loan.Product
}

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

// seed inserts one branch with an agent, an admin, a customer and a product.
func seed(t *testing.T, db *gorm.DB) fixture {
	t.Helper()
	f := fixture{
		Branch: &branch.Branch{ID: id.NewID32(), Name: "Igando", Code: "IGD"},
		Product: &loan.Product{
			ID: id.NewID32(), Name: "30k Loan",
			PrincipalAmount: decimal.NewFromInt(30000),
			DailyPayment:    decimal.NewFromInt(1500),
			DurationDays:    30,
			TotalAmount:     decimal.NewFromInt(45000),
			IsActive:        true,
		},
	}
	f.Agent = &user.User{
		ID: id.NewID32(), Email: "agent@example.com", FirstName: "Ada", LastName: "Obi",
		Role: user.RoleAgent, BranchID: &f.Branch.ID, IsActive: true,
	}
	f.Admin = &user.User{
		ID: id.NewID32(), Email: "admin@example.com", FirstName: "Bola", LastName: "Ade",
		Role: user.RoleAdmin, IsActive: true,
	}
	f.Customer = &customer.Customer{
		ID: id.NewID32(), FirstName: "Chidi", LastName: "Eze", Phone: "08030000000",
		Address: "1 Market Road", BranchID: f.Branch.ID, AgentID: f.Agent.ID, IsActive: true,
	}
	for _, v := range []any{f.Branch, f.Agent, f.Admin, f.Customer, f.Product} {
		if err := db.Create(v).Error; err != nil {
			t.Fatalf("seed %T: %v", v, err)
		}
	}
	return f
}

func newApplication(f fixture) *loan.Application {
	return &loan.Application{
		ID:             id.NewID32(),
		CustomerID:     f.Customer.ID,
		LoanProductID:  f.Product.ID,
		AgentID:        f.Agent.ID,
		BranchID:       f.Branch.ID,
		Status:         loan.StatusPending,
		ScheduleStatus: loan.ScheduleNone,
	}
}
