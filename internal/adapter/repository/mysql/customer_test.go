package mysql

import (
	"context"
	"errors"
	"testing"

	"microfinance-backoffice/internal/domain/customer"
	"microfinance-backoffice/pkg/id"

	"github.com/shopspring/decimal"
)

func TestCustomerRepository_CreateWithGuarantors(t *testing.T) {
	db := openTestDB(t)
	f := seed(t, db)
	repo := NewCustomerRepository(db)
	ctx := context.Background()

	c := &customer.Customer{
		ID: id.NewID32(), FirstName: "Ngozi", LastName: "Okafor", Phone: "0801",
		Address: "3 Church St", BranchID: f.Branch.ID, AgentID: f.Agent.ID, IsActive: true,
		MonthlyIncome: decimal.NewNullDecimal(decimal.NewFromInt(85000)),
	}
	if err := repo.Create(ctx, c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	gs := []customer.Guarantor{
		{ID: id.NewID32(), CustomerID: c.ID, Type: customer.GuarantorSecondary, FirstName: "S", LastName: "G", Phone: "1", Address: "x"},
		{ID: id.NewID32(), CustomerID: c.ID, Type: customer.GuarantorPrimary, FirstName: "P", LastName: "G", Phone: "2", Address: "y"},
	}
	if err := repo.CreateGuarantors(ctx, gs); err != nil {
		t.Fatalf("CreateGuarantors: %v", err)
	}

	got, err := repo.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Agent == nil || got.Agent.ID != f.Agent.ID || got.Branch == nil {
		t.Fatalf("agent/branch not expanded: %+v", got)
	}
	if len(got.Guarantors) != 2 || got.Guarantors[0].Type != customer.GuarantorPrimary {
		t.Fatalf("guarantors not expanded in order: %+v", got.Guarantors)
	}
	if !got.MonthlyIncome.Valid || !got.MonthlyIncome.Decimal.Equal(decimal.NewFromInt(85000)) {
		t.Fatalf("income = %+v", got.MonthlyIncome)
	}
}

func TestCustomerRepository_UpdateAndSoftDelete(t *testing.T) {
	db := openTestDB(t)
	f := seed(t, db)
	repo := NewCustomerRepository(db)
	ctx := context.Background()

	got, err := repo.Update(ctx, f.Customer.ID, customer.Patch{Occupation: ptr("Trader")})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Occupation == nil || *got.Occupation != "Trader" || got.FirstName != "Chidi" {
		t.Fatalf("unexpected customer: %+v", got)
	}

	if err := repo.SetActive(ctx, f.Customer.ID, false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	active := true
	list, err := repo.List(ctx, customer.Filter{BranchID: f.Branch.ID, Active: &active})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Fatalf("inactive customer listed: %+v", list)
	}
	all, _ := repo.List(ctx, customer.Filter{AgentID: f.Agent.ID})
	if len(all) != 1 {
		t.Fatalf("soft-deleted customer must still exist, got %d", len(all))
	}

	if _, err := repo.GetByID(ctx, id.NewID32()); !errors.Is(err, customer.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestCustomerRepository_Lock(t *testing.T) {
	db := openTestDB(t)
	f := seed(t, db)
	repo := NewCustomerRepository(db)
	ctx := context.Background()

	c := &customer.Customer{
		ID: id.NewID32(), FirstName: "Ife", LastName: "Ojo", Phone: "0802",
		Address: "1 Palm Ave", BranchID: f.Branch.ID, AgentID: f.Agent.ID, IsActive: true,
	}
	if err := repo.Create(ctx, c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Lock(ctx, c.ID); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if err := repo.Lock(ctx, id.NewID32()); !errors.Is(err, customer.ErrNotFound) {
		t.Fatalf("unknown customer: want ErrNotFound, got %v", err)
	}
}
