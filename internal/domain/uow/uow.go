package uow

import (
	"context"

	"microfinance-backoffice/internal/domain/branch"
	"microfinance-backoffice/internal/domain/customer"
	"microfinance-backoffice/internal/domain/loan"
	"microfinance-backoffice/internal/domain/payment"
	"microfinance-backoffice/internal/domain/user"
)

// Repos are bound to the same transaction.
type Repos struct {
	Loans     loan.Repository
	Customers customer.Repository
	Payments  payment.Repository
	Users     user.Repository
	Branches  branch.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// lock the loan application row first, then pass it in
	WithinLoanTx(ctx context.Context, loanID string, fn func(r Repos, a *loan.Application) error) error
}
